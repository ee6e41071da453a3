package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/postgres"
)

type RatingRepo struct {
	db *pgxpool.Pool
}

func NewRatingRepo(db *pgxpool.Pool) *RatingRepo {
	return &RatingRepo{db: db}
}

func (r *RatingRepo) Create(ctx context.Context, rt *models.Rating) error {
	const q = `
		INSERT INTO ratings (booking_id, rater_id, ratee_id, stars, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q, rt.BookingID, rt.RaterID, rt.RateeID, rt.Stars, rt.Comment).
		Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrAlreadyRated
		}
		return fmt.Errorf("rating repo: Create: %w", err)
	}
	return nil
}
