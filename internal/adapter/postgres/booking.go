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
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

const bookingColumns = `id, ride_id, rider_id, driver_id, seats, status, cancel_reason, created_at, updated_at`

type BookingRepo struct {
	db *pgxpool.Pool
}

func NewBookingRepo(db *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, b *models.Booking) error {
	const op = "BookingRepo.Create"
	const q = `
		INSERT INTO bookings (ride_id, rider_id, driver_id, seats, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q, b.RideID, b.RiderID, b.DriverID, b.Seats, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// FindByID locks the booking when called inside a transaction, so that concurrent
// transitions of the same booking serialize.
func (r *BookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	q := lockRow(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = $1")

	b, err := scanBooking(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repo: FindByID: %w", err)
	}
	return b, nil
}

// ListForUser returns bookings where the user is the rider or the driver.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]models.Booking, models.Metadata, error) {
	q := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM bookings
		WHERE rider_id = $1 OR driver_id = $1
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`, bookingColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, userID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("booking repo: ListForUser: %w", err)
	}
	defer rows.Close()

	var (
		total    int
		bookings = []models.Booking{}
	)
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&total, &b.ID, &b.RideID, &b.RiderID, &b.DriverID, &b.Seats, &b.Status,
			&b.CancelReason, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("booking repo: ListForUser: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("booking repo: ListForUser: %w", err)
	}

	return bookings, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

// ListActiveByRide returns requested, confirmed and in-progress bookings, locked for update
// inside a transaction.
func (r *BookingRepo) ListActiveByRide(ctx context.Context, rideID uuid.UUID) ([]models.Booking, error) {
	q := lockRow(ctx, "SELECT "+bookingColumns+` FROM bookings
		WHERE ride_id = $1 AND status IN ('requested', 'confirmed', 'in_progress')
		ORDER BY created_at`)

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, rideID)
	if err != nil {
		return nil, fmt.Errorf("booking repo: ListActiveByRide: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Booking, error) {
		b, err := scanBooking(row)
		if err != nil {
			return models.Booking{}, err
		}
		return *b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("booking repo: ListActiveByRide: %w", err)
	}
	return list, nil
}

// UpdateStatus moves a booking from one status to another. A booking that is no longer
// in status from is left untouched and ErrInvalidTransition is returned.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to types.BookingStatus, reason string) (*models.Booking, error) {
	const op = "BookingRepo.UpdateStatus"
	q := `
		UPDATE bookings
		SET status = $3,
		    cancel_reason = CASE WHEN $4 = '' THEN cancel_reason ELSE $4 END,
		    updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	b, err := scanBooking(TxorDB(ctx, r.db).QueryRow(ctx, q, id, from, to, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrInvalidTransition
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.RideID, &b.RiderID, &b.DriverID, &b.Seats, &b.Status,
		&b.CancelReason, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
