package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
)

// querier lets row helpers run on the pool or inside WithTx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var errNilPool = errors.New("postgres pool is nil")

// WithTx runs fn in a read-committed transaction and commits when fn
// returns nil.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
	if pool == nil {
		return errNilPool
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// lockOrganization takes a share lock on the organization row so it cannot
// be deleted before the surrounding transaction commits.
func lockOrganization(ctx context.Context, q querier, id uuid.UUID) error {
	var exists bool
	if err := q.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1 FOR SHARE)
`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check organization existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("organization %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
