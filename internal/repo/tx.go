package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Tx bundles the repos bound to a single database transaction.
type Tx struct {
	Cabins       CabinRepo
	Reservations ReservationRepo
}

// Transactor runs a unit of work inside one transaction. fn's repos see and
// write through that transaction; returning an error rolls it back.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// beginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx (the latter
// opens a savepoint), so integration tests can nest inside a rolled-back tx.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTransactor struct {
	db beginner
}

// NewTransactor constructs a Transactor on the given pool or transaction.
func NewTransactor(db beginner) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := pgx.BeginFunc(ctx, t.db, func(ptx pgx.Tx) error {
		return fn(ctx, Tx{
			Cabins:       NewCabinRepo(ptx),
			Reservations: NewReservationRepo(ptx),
		})
	})
	if err != nil {
		return fmt.Errorf("repo.Transactor.InTx: %w", classify(err))
	}
	return nil
}
