package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/enums"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

var ErrTelegramAlreadyLinked = fmt.Errorf("telegram account is linked to another user: %w", apperr.ErrValidation)

const userColumns = `
	id,
	role,
	telegram_id,
	first_name,
	last_name,
	username,
	photo_url,
	documents::text[],
	approvement_status,
	approvement_organization_id,
	approvement_file_id,
	approvement_comment,
	approvement_moderator_id,
	approvement_updated_at,
	created_at,
	updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool, now: time.Now}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	return getUserByID(ctx, r.pool, id)
}

func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id: %w", apperr.ErrValidation)
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT`+userColumns+`
FROM users
WHERE telegram_id = $1
`, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user with telegram_id %d: %w", telegramID, apperr.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("find user by telegram_id: %w", err)
	}
	return user, nil
}

// CreateFromTelegram inserts a default-role user owning the Telegram account.
func (r *UserRepo) CreateFromTelegram(ctx context.Context, info model.TelegramInfo) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if info.ID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id: %w", apperr.ErrValidation)
	}

	now := r.now().UTC()
	user, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (
	id, role, telegram_id, first_name, last_name, username, photo_url,
	documents, approvement_status, approvement_comment, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, '{}', $8, '', $9, $9)
RETURNING`+userColumns,
		uuid.New(),
		string(enums.RoleDefault),
		info.ID,
		info.FirstName,
		info.LastName,
		info.Username,
		info.PhotoURL,
		string(enums.ApprovementStatusNone),
		now,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrTelegramAlreadyLinked
		}
		return model.User{}, fmt.Errorf("create user from telegram: %w", err)
	}
	return user, nil
}

// LinkTelegram stores the Telegram account on an existing user.
func (r *UserRepo) LinkTelegram(ctx context.Context, userID uuid.UUID, info model.TelegramInfo) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users
SET telegram_id = $2,
	first_name = $3,
	last_name = $4,
	username = $5,
	photo_url = $6,
	updated_at = $7
WHERE id = $1
RETURNING`+userColumns,
		userID, info.ID, info.FirstName, info.LastName, info.Username, info.PhotoURL, r.now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return model.User{}, ErrTelegramAlreadyLinked
		}
		return model.User{}, fmt.Errorf("link telegram account: %w", err)
	}
	return user, nil
}

func (r *UserRepo) SetDocuments(ctx context.Context, userID uuid.UUID, documents []uuid.UUID) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	ids := make([]string, 0, len(documents))
	for _, id := range documents {
		ids = append(ids, id.String())
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users
SET documents = $2::uuid[],
	updated_at = $3
WHERE id = $1
RETURNING`+userColumns,
		userID, ids, r.now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("set user documents: %w", err)
	}
	return user, nil
}

// RequestApprovement marks the user pending for the organization. The
// organization row is locked for the duration so it cannot vanish between
// the existence check and the update.
func (r *UserRepo) RequestApprovement(ctx context.Context, userID, organizationID uuid.UUID, fileID *uuid.UUID) (model.User, error) {
	var user model.User
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOrganization(ctx, tx, organizationID); err != nil {
			return err
		}

		updated, err := scanUser(tx.QueryRow(ctx, `
UPDATE users
SET approvement_status = $2,
	approvement_organization_id = $3,
	approvement_file_id = $4,
	approvement_comment = '',
	approvement_moderator_id = NULL,
	approvement_updated_at = $5,
	updated_at = $5
WHERE id = $1
RETURNING`+userColumns,
			userID, string(enums.ApprovementStatusPending), organizationID, fileID, r.now().UTC(),
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
			}
			return fmt.Errorf("request approvement: %w", err)
		}
		user = updated
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (r *UserRepo) ListPendingApprovement(ctx context.Context) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+userColumns+`
FROM users
WHERE approvement_status = $1
ORDER BY approvement_updated_at ASC NULLS LAST, id ASC
`, string(enums.ApprovementStatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending users: %w", err)
	}
	return users, nil
}

// SetApprovement records a moderator decision on the user.
func (r *UserRepo) SetApprovement(ctx context.Context, userID uuid.UUID, status enums.ApprovementStatus, comment string, moderatorID uuid.UUID) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users
SET approvement_status = $2,
	approvement_comment = $3,
	approvement_moderator_id = $4,
	approvement_updated_at = $5,
	updated_at = $5
WHERE id = $1
RETURNING`+userColumns,
		userID, string(status), comment, moderatorID, r.now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("set approvement: %w", err)
	}
	return user, nil
}

func getUserByID(ctx context.Context, q querier, id uuid.UUID) (model.User, error) {
	user, err := scanUser(q.QueryRow(ctx, `
SELECT`+userColumns+`
FROM users
WHERE id = $1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user           model.User
		role           string
		telegramID     *int64
		firstName      *string
		lastName       *string
		username       *string
		photoURL       *string
		documents      []string
		status         string
		organizationID uuid.NullUUID
		fileID         uuid.NullUUID
		moderatorID    uuid.NullUUID
		decidedAt      *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&role,
		&telegramID,
		&firstName,
		&lastName,
		&username,
		&photoURL,
		&documents,
		&status,
		&organizationID,
		&fileID,
		&user.Approvement.Comment,
		&moderatorID,
		&decidedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return model.User{}, err
	}

	user.Role = enums.ParseRole(role)
	if telegramID != nil {
		user.Telegram = &model.TelegramInfo{
			ID:       *telegramID,
			LastName: lastName,
			Username: username,
			PhotoURL: photoURL,
		}
		if firstName != nil {
			user.Telegram.FirstName = *firstName
		}
	}

	user.Documents = make([]uuid.UUID, 0, len(documents))
	for _, raw := range documents {
		id, err := uuid.Parse(raw)
		if err != nil {
			return model.User{}, fmt.Errorf("parse document id %q: %w", raw, err)
		}
		user.Documents = append(user.Documents, id)
	}

	user.Approvement.Status = enums.ApprovementStatus(status)
	user.Approvement.OrganizationID = nullUUIDPtr(organizationID)
	user.Approvement.FileID = nullUUIDPtr(fileID)
	user.Approvement.ModeratorID = nullUUIDPtr(moderatorID)
	if decidedAt != nil {
		at := decidedAt.UTC()
		user.Approvement.UpdatedAt = &at
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()

	return user, nil
}

func nullUUIDPtr(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := v.UUID
	return &id
}
