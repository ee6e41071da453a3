package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/auth"
	"github.com/hpyride/hpyride/pkg/postgres"
)

const userColumns = `id, name, email, COALESCE(phone, ''), phone_verified, role, password_hash,
	COALESCE(push_token, ''), created_at, updated_at`

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

// Create inserts a user. It expects Name, Email, Role and PasswordHash to be set.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	const q = `
		INSERT INTO users (name, email, phone, role, password_hash)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id, created_at, updated_at;
	`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q, u.Name, u.Email, u.Phone, u.Role, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return auth.ErrNotUniqueEmail
		}
		return fmt.Errorf("user repo: Create: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, "phone = $1", phone)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE " + where

	u, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repo: get: %w", err)
	}
	return u, nil
}

// SetPhoneVerified stores phone on the user and marks it verified.
func (r *UserRepo) SetPhoneVerified(ctx context.Context, userID uuid.UUID, phone string) error {
	const q = `UPDATE users SET phone = $2, phone_verified = TRUE, updated_at = now() WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, userID, phone)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%w: phone already linked to another account", types.ErrForbidden)
		}
		return fmt.Errorf("user repo: SetPhoneVerified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) SetPushToken(ctx context.Context, userID uuid.UUID, token string) error {
	const q = `UPDATE users SET push_token = NULLIF($2, ''), updated_at = now() WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, userID, token)
	if err != nil {
		return fmt.Errorf("user repo: SetPushToken: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

// PushToken returns "" when the user has not registered a device.
func (r *UserRepo) PushToken(ctx context.Context, userID uuid.UUID) (string, error) {
	const q = `SELECT COALESCE(push_token, '') FROM users WHERE id = $1`

	var token string
	if err := TxorDB(ctx, r.db).QueryRow(ctx, q, userID).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.ErrUserNotFound
		}
		return "", fmt.Errorf("user repo: PushToken: %w", err)
	}
	return token, nil
}

// PushTokens returns the device tokens of every user with role, or of everyone when role is "".
func (r *UserRepo) PushTokens(ctx context.Context, role types.UserRole) ([]string, error) {
	const q = `
		SELECT push_token FROM users
		WHERE push_token IS NOT NULL AND push_token <> ''
		  AND ($1 = '' OR role = $1)
	`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, string(role))
	if err != nil {
		return nil, fmt.Errorf("user repo: PushTokens: %w", err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("user repo: PushTokens: %w", err)
	}
	return tokens, nil
}

// List pages through users, optionally limited to one role.
func (r *UserRepo) List(ctx context.Context, role types.UserRole, filters models.Filters) ([]models.User, models.Metadata, error) {
	q := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`, userColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, string(role), filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("user repo: List: %w", err)
	}
	defer rows.Close()

	var (
		total int
		users = []models.User{}
	)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&total, &u.ID, &u.Name, &u.Email, &u.Phone, &u.PhoneVerified, &u.Role,
			&u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("user repo: List: %w", err)
		}
		u.PasswordHash = ""
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("user repo: List: %w", err)
	}

	return users, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PhoneVerified, &u.Role,
		&u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
