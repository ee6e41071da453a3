package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hpyride/hpyride/internal/domain/models"
)

type RefreshTokenRepo struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepo(db *pgxpool.Pool) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

func (r *RefreshTokenRepo) Save(ctx context.Context, record *models.RefreshTokenRecord) error {
	if record == nil {
		return errors.New("refresh token record is nil")
	}

	const q = `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			revoked = false,
			last_used_at = NULL;
	`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, record.ID, record.UserID, record.TokenHash, record.ExpiresAt, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("refresh token repo: Save: %w", err)
	}
	return nil
}

// Get returns nil, nil for an unknown token id.
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenID uuid.UUID) (*models.RefreshTokenRecord, error) {
	const q = `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at, last_used_at
		FROM refresh_tokens
		WHERE id = $1;
	`

	var rec models.RefreshTokenRecord
	err := TxorDB(ctx, r.db).QueryRow(ctx, q, tokenID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TokenHash,
		&rec.ExpiresAt,
		&rec.Revoked,
		&rec.CreatedAt,
		&rec.LastUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("refresh token repo: Get: %w", err)
	}

	return &rec, nil
}

func (r *RefreshTokenRepo) MarkUsed(ctx context.Context, tokenID uuid.UUID) error {
	const q = `
		UPDATE refresh_tokens
		SET revoked = true,
		    last_used_at = $2
		WHERE id = $1;
	`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, tokenID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("refresh token repo: MarkUsed: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND NOT revoked`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("refresh token repo: RevokeAllForUser: %w", err)
	}
	return nil
}
