package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/cabin-booking/internal/domain"
)

// CabinRepo defines the persistence operations for Cabins.
type CabinRepo interface {
	// Create inserts a new cabin and returns the persisted record.
	Create(ctx context.Context, cabin domain.Cabin) (domain.Cabin, error)

	// GetByID retrieves a cabin by primary key.
	// Returns domain.ErrCabinNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Cabin, error)

	// GetForUpdate is GetByID plus a row lock held until the surrounding
	// transaction ends. Booking writes for a cabin serialise on this lock.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Cabin, error)

	// List returns all cabins ordered by name.
	List(ctx context.Context) ([]domain.Cabin, error)
}

// pgCabinRepo is the Postgres implementation of CabinRepo.
type pgCabinRepo struct {
	db db
}

// NewCabinRepo constructs a CabinRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewCabinRepo(db db) CabinRepo {
	return &pgCabinRepo{db: db}
}

const cabinColumns = `id, name, capacity, nightly_rate, active, created_at, updated_at`

func (r *pgCabinRepo) Create(ctx context.Context, cabin domain.Cabin) (domain.Cabin, error) {
	const q = `
		INSERT INTO cabins (name, capacity, nightly_rate, active)
		VALUES (@name, @capacity, @nightly_rate, @active)
		RETURNING ` + cabinColumns

	args := pgx.NamedArgs{
		"name":         cabin.Name,
		"capacity":     cabin.Capacity,
		"nightly_rate": toNumeric(cabin.NightlyRate),
		"active":       cabin.Active,
	}

	result, err := scanCabin(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Cabin{}, fmt.Errorf("repo.CabinRepo.Create: %w", classify(err))
	}
	return result, nil
}

func (r *pgCabinRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Cabin, error) {
	const q = `SELECT ` + cabinColumns + ` FROM cabins WHERE id = @id`

	result, err := scanCabin(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Cabin{}, fmt.Errorf("repo.CabinRepo.GetByID: %w", classify(err))
	}
	return result, nil
}

func (r *pgCabinRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Cabin, error) {
	const q = `SELECT ` + cabinColumns + ` FROM cabins WHERE id = @id FOR UPDATE`

	result, err := scanCabin(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Cabin{}, fmt.Errorf("repo.CabinRepo.GetForUpdate: %w", classify(err))
	}
	return result, nil
}

func (r *pgCabinRepo) List(ctx context.Context) ([]domain.Cabin, error) {
	const q = `SELECT ` + cabinColumns + ` FROM cabins ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.CabinRepo.List: %w", classify(err))
	}
	defer rows.Close()

	cabins := []domain.Cabin{}
	for rows.Next() {
		c, err := scanCabin(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CabinRepo.List: scan: %w", err)
		}
		cabins = append(cabins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CabinRepo.List: rows: %w", classify(err))
	}
	return cabins, nil
}

// scanCabin maps a single database row into a domain.Cabin.
func scanCabin(s scanner) (domain.Cabin, error) {
	var (
		c    domain.Cabin
		id   pgtype.UUID
		rate pgtype.Numeric
	)
	err := s.Scan(&id, &c.Name, &c.Capacity, &rate, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Cabin{}, domain.ErrCabinNotFound
		}
		return domain.Cabin{}, err
	}
	c.ID = uuid.UUID(id.Bytes)
	c.NightlyRate = fromNumeric(rate)
	return c, nil
}
