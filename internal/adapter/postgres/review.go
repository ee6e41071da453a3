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
	"github.com/hpyride/hpyride/internal/domain/types"
)

// AdminRepo serves the admin review queues and the dashboard overview.
type AdminRepo struct {
	db *pgxpool.Pool
}

func NewAdminRepo(db *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{
		db: db,
	}
}

// ListVerifications pages through verifications in status, or all of them when status is "".
func (r *AdminRepo) ListVerifications(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Verification, models.Metadata, error) {
	q := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM verifications
		WHERE ($1 = '' OR status = $1)
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`, verificationColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, string(status), filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("admin repo: ListVerifications: %w", err)
	}
	defer rows.Close()

	var (
		total int
		list  = []models.Verification{}
	)
	for rows.Next() {
		var v models.Verification
		if err := rows.Scan(&total, &v.ID, &v.UserID, &v.Status, &v.DocumentURL, &v.Reason, &v.ReviewedBy,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("admin repo: ListVerifications: %w", err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("admin repo: ListVerifications: %w", err)
	}

	return list, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (r *AdminRepo) ReviewVerification(ctx context.Context, id uuid.UUID, review models.Review) (*models.Verification, error) {
	q := `
		UPDATE verifications
		SET status = $2, reason = $3, reviewed_by = $4, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + verificationColumns

	v, err := scanVerification(TxorDB(ctx, r.db).QueryRow(ctx, q, id, review.Status, review.Reason, review.ReviewerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("admin repo: ReviewVerification: %w", err)
	}
	return v, nil
}

func (r *AdminRepo) ListVehicles(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Vehicle, models.Metadata, error) {
	q := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM vehicles
		WHERE ($1 = '' OR status = $1)
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`, vehicleColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, string(status), filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("admin repo: ListVehicles: %w", err)
	}
	defer rows.Close()

	var (
		total int
		list  = []models.Vehicle{}
	)
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&total, &v.ID, &v.OwnerID, &v.RegistrationNumber, &v.Make, &v.Model, &v.Seats, &v.Status,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("admin repo: ListVehicles: %w", err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("admin repo: ListVehicles: %w", err)
	}

	return list, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (r *AdminRepo) ReviewVehicle(ctx context.Context, id uuid.UUID, review models.Review) (*models.Vehicle, error) {
	q := `
		UPDATE vehicles
		SET status = $2, reason = $3, reviewed_by = $4, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + vehicleColumns

	v, err := scanVehicle(TxorDB(ctx, r.db).QueryRow(ctx, q, id, review.Status, review.Reason, review.ReviewerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("admin repo: ReviewVehicle: %w", err)
	}
	return v, nil
}

// Overview counts the dashboard figures in one round trip.
func (r *AdminRepo) Overview(ctx context.Context) (*models.Overview, error) {
	const q = `
		SELECT
			(SELECT count(*) FROM users WHERE role <> 'ADMIN'),
			(SELECT count(*) FROM users WHERE role = 'DRIVER'),
			(SELECT count(*) FROM rides WHERE status = 'scheduled'),
			(SELECT count(*) FROM bookings WHERE status IN ('confirmed', 'in_progress')),
			(SELECT count(*) FROM verifications WHERE status = 'pending'),
			(SELECT count(*) FROM vehicles WHERE status = 'pending')`

	o := models.Overview{Timestamp: time.Now().UTC()}
	err := TxorDB(ctx, r.db).QueryRow(ctx, q).Scan(
		&o.Users, &o.Drivers, &o.ScheduledRides, &o.ActiveBookings, &o.PendingVerifications, &o.PendingVehicles,
	)
	if err != nil {
		return nil, fmt.Errorf("admin repo: Overview: %w", err)
	}
	return &o, nil
}
