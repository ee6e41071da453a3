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
	"github.com/hpyride/hpyride/pkg/postgres"
)

const vehicleColumns = `id, owner_id, registration_number, make, model, seats, status, created_at, updated_at`

type VehicleRepo struct {
	db *pgxpool.Pool
}

func NewVehicleRepo(db *pgxpool.Pool) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	const q = `
		INSERT INTO vehicles (owner_id, registration_number, make, model, seats, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q, v.OwnerID, v.RegistrationNumber, v.Make, v.Model, v.Seats, v.Status).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrVehicleExists
		}
		return fmt.Errorf("vehicle repo: Create: %w", err)
	}
	return nil
}

func (r *VehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	q := "SELECT " + vehicleColumns + " FROM vehicles WHERE id = $1"

	v, err := scanVehicle(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("vehicle repo: FindByID: %w", err)
	}
	return v, nil
}

func (r *VehicleRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error) {
	q := "SELECT " + vehicleColumns + " FROM vehicles WHERE owner_id = $1 ORDER BY created_at"

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("vehicle repo: ListByOwner: %w", err)
	}
	list, err := pgx.CollectRows(rows, collectVehicle)
	if err != nil {
		return nil, fmt.Errorf("vehicle repo: ListByOwner: %w", err)
	}
	return list, nil
}

func collectVehicle(row pgx.CollectableRow) (models.Vehicle, error) {
	v, err := scanVehicle(row)
	if err != nil {
		return models.Vehicle{}, err
	}
	return *v, nil
}

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.OwnerID, &v.RegistrationNumber, &v.Make, &v.Model, &v.Seats, &v.Status,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const verificationColumns = `id, user_id, status, document_url, reason, reviewed_by, created_at, updated_at`

type VerificationRepo struct {
	db *pgxpool.Pool
}

func NewVerificationRepo(db *pgxpool.Pool) *VerificationRepo {
	return &VerificationRepo{db: db}
}

func (r *VerificationRepo) Create(ctx context.Context, v *models.Verification) error {
	const q = `
		INSERT INTO verifications (user_id, status, document_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q, v.UserID, v.Status, v.DocumentURL).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("verification repo: Create: %w", err)
	}
	return nil
}

func (r *VerificationRepo) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Verification, error) {
	q := "SELECT " + verificationColumns + " FROM verifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1"

	v, err := scanVerification(TxorDB(ctx, r.db).QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("verification repo: FindLatestByUser: %w", err)
	}
	return v, nil
}

func scanVerification(row pgx.Row) (*models.Verification, error) {
	var v models.Verification
	err := row.Scan(&v.ID, &v.UserID, &v.Status, &v.DocumentURL, &v.Reason, &v.ReviewedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
