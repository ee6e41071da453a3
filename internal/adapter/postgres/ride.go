package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
)

const rideColumns = `id, driver_id, vehicle_id, origin, destination, departure_at,
	seats_total, seats_available, fare, status, created_at, updated_at`

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) error {
	const q = `
		INSERT INTO rides (driver_id, vehicle_id, origin, destination, departure_at,
		                   seats_total, seats_available, fare, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q,
		ride.DriverID, ride.VehicleID, ride.Origin, ride.Destination, ride.DepartureAt,
		ride.SeatsTotal, ride.SeatsAvailable, ride.Fare, ride.Status,
	).Scan(&ride.ID, &ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ride repo: Create: %w", err)
	}
	return nil
}

func (r *RideRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	q := "SELECT " + rideColumns + " FROM rides WHERE id = $1"

	var ride models.Ride
	if err := scanRide(TxorDB(ctx, r.db).QueryRow(ctx, q, id), &ride); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("ride repo: FindByID: %w", err)
	}
	return &ride, nil
}

// Search lists scheduled rides with enough free seats. Origin and destination match
// case-insensitively as substrings; Date limits results to that calendar day.
func (r *RideRepo) Search(ctx context.Context, s models.RideSearch) ([]models.Ride, models.Metadata, error) {
	var (
		where = []string{"status = 'scheduled'", "seats_available >= $1"}
		args  = []any{s.MinSeats}
	)
	if s.Origin != "" {
		args = append(args, "%"+escapeLike(s.Origin)+"%")
		where = append(where, fmt.Sprintf("origin ILIKE $%d", len(args)))
	}
	if s.Destination != "" {
		args = append(args, "%"+escapeLike(s.Destination)+"%")
		where = append(where, fmt.Sprintf("destination ILIKE $%d", len(args)))
	}
	if s.Date != nil {
		args = append(args, s.Date.Format("2006-01-02"))
		where = append(where, fmt.Sprintf("departure_at::date = $%d::date", len(args)))
	}

	return r.list(ctx, strings.Join(where, " AND "), args, s.Filters, "Search")
}

func (r *RideRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, filters models.Filters) ([]models.Ride, models.Metadata, error) {
	return r.list(ctx, "driver_id = $1", []any{driverID}, filters, "ListByDriver")
}

func (r *RideRepo) list(ctx context.Context, where string, args []any, filters models.Filters, op string) ([]models.Ride, models.Metadata, error) {
	q := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM rides
		WHERE %s
		ORDER BY %s %s, id ASC
		LIMIT $%d OFFSET $%d`,
		rideColumns, where, filters.SortColumn(), filters.SortDirection(), len(args)+1, len(args)+2)

	args = append(args, filters.Limit(), filters.Offset())
	rows, err := TxorDB(ctx, r.db).Query(ctx, q, args...)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("ride repo: %s: %w", op, err)
	}
	defer rows.Close()

	var (
		total int
		rides = []models.Ride{}
	)
	for rows.Next() {
		var ride models.Ride
		if err := rows.Scan(&total, &ride.ID, &ride.DriverID, &ride.VehicleID, &ride.Origin, &ride.Destination,
			&ride.DepartureAt, &ride.SeatsTotal, &ride.SeatsAvailable, &ride.Fare, &ride.Status,
			&ride.CreatedAt, &ride.UpdatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("ride repo: %s: %w", op, err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("ride repo: %s: %w", op, err)
	}

	return rides, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (r *RideRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status types.RideStatus) error {
	const q = `UPDATE rides SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("ride repo: UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRideNotFound
	}
	return nil
}

// ReserveSeats takes n seats in a single conditional update.
func (r *RideRepo) ReserveSeats(ctx context.Context, rideID uuid.UUID, n int) error {
	const q = `
		UPDATE rides
		SET seats_available = seats_available - $2, updated_at = now()
		WHERE id = $1 AND seats_available >= $2`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, rideID, n)
	if err != nil {
		return fmt.Errorf("ride repo: ReserveSeats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNoSeatsAvailable
	}
	return nil
}

func (r *RideRepo) ReleaseSeats(ctx context.Context, rideID uuid.UUID, n int) error {
	const q = `
		UPDATE rides
		SET seats_available = LEAST(seats_available + $2, seats_total), updated_at = now()
		WHERE id = $1`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, q, rideID, n); err != nil {
		return fmt.Errorf("ride repo: ReleaseSeats: %w", err)
	}
	return nil
}

func scanRide(row pgx.Row, ride *models.Ride) error {
	return row.Scan(&ride.ID, &ride.DriverID, &ride.VehicleID, &ride.Origin, &ride.Destination,
		&ride.DepartureAt, &ride.SeatsTotal, &ride.SeatsAvailable, &ride.Fare, &ride.Status,
		&ride.CreatedAt, &ride.UpdatedAt)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
