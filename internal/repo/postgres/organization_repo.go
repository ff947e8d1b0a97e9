package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

const organizationColumns = `
	id,
	name,
	contacts,
	documents,
	created_at,
	updated_at`

type OrganizationRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewOrganizationRepo(pool *pgxpool.Pool) *OrganizationRepo {
	return &OrganizationRepo{pool: pool, now: time.Now}
}

func (r *OrganizationRepo) List(ctx context.Context, limit, offset int) ([]model.Organization, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+organizationColumns+`
FROM organizations
ORDER BY name ASC, id ASC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	items := make([]model.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		items = append(items, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return items, nil
}

func (r *OrganizationRepo) Get(ctx context.Context, id uuid.UUID) (model.Organization, error) {
	if r.pool == nil {
		return model.Organization{}, fmt.Errorf("postgres pool is nil")
	}

	org, err := scanOrganization(r.pool.QueryRow(ctx, `
SELECT`+organizationColumns+`
FROM organizations
WHERE id = $1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Organization{}, fmt.Errorf("organization %s: %w", id, apperr.ErrNotFound)
		}
		return model.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	return org, nil
}

func (r *OrganizationRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)
`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check organization existence: %w", err)
	}
	return exists, nil
}

func (r *OrganizationRepo) Create(ctx context.Context, org model.Organization) (model.Organization, error) {
	if r.pool == nil {
		return model.Organization{}, fmt.Errorf("postgres pool is nil")
	}
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	now := r.now().UTC()
	created, err := scanOrganization(r.pool.QueryRow(ctx, `
INSERT INTO organizations (id, name, contacts, documents, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING`+organizationColumns,
		org.ID, org.Name, jsonbParam(org.Contacts), jsonbParam(org.Documents), now,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Organization{}, fmt.Errorf("organization %s already exists: %w", org.ID, apperr.ErrValidation)
		}
		return model.Organization{}, fmt.Errorf("create organization: %w", err)
	}
	return created, nil
}

func (r *OrganizationRepo) Update(ctx context.Context, org model.Organization) (model.Organization, error) {
	if r.pool == nil {
		return model.Organization{}, fmt.Errorf("postgres pool is nil")
	}

	updated, err := scanOrganization(r.pool.QueryRow(ctx, `
UPDATE organizations
SET name = $2,
	contacts = $3,
	documents = $4,
	updated_at = $5
WHERE id = $1
RETURNING`+organizationColumns,
		org.ID, org.Name, jsonbParam(org.Contacts), jsonbParam(org.Documents), r.now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Organization{}, fmt.Errorf("organization %s: %w", org.ID, apperr.ErrNotFound)
		}
		return model.Organization{}, fmt.Errorf("update organization: %w", err)
	}
	return updated, nil
}

func (r *OrganizationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organization %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func scanOrganization(row pgx.Row) (model.Organization, error) {
	var (
		org       model.Organization
		contacts  []byte
		documents []byte
	)
	if err := row.Scan(&org.ID, &org.Name, &contacts, &documents, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return model.Organization{}, err
	}
	if len(contacts) > 0 {
		org.Contacts = json.RawMessage(contacts)
	}
	if len(documents) > 0 {
		org.Documents = json.RawMessage(documents)
	}
	org.CreatedAt = org.CreatedAt.UTC()
	org.UpdatedAt = org.UpdatedAt.UTC()
	return org, nil
}

// jsonbParam maps an absent or JSON null document to SQL NULL.
func jsonbParam(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}
