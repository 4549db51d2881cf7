package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/repo"
	"github.com/pkordes/cabin-booking/testutil"
)

// newTestTx opens a transaction against the test database that is rolled
// back when the test finishes, giving free per-test isolation.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func cabinFixture() domain.Cabin {
	return domain.Cabin{
		Name:        "Cabaña " + uuid.NewString()[:8],
		Capacity:    4,
		NightlyRate: decimal.RequireFromString("100.00"),
		Active:      true,
	}
}

func mustCreateCabin(t *testing.T, cabins repo.CabinRepo) domain.Cabin {
	t.Helper()
	c, err := cabins.Create(context.Background(), cabinFixture())
	require.NoError(t, err)
	return c
}

// reservationFixture returns a confirmed walk-in stay; callers override fields.
func reservationFixture(cabinID uuid.UUID, in, out string) domain.Reservation {
	return domain.Reservation{
		CabinID:       cabinID,
		GuestName:     "Ana Pérez",
		GuestPhone:    "+54 11 5555 0000",
		CheckIn:       day(in),
		CheckOut:      day(out),
		Guests:        2,
		TotalPrice:    decimal.RequireFromString("500.00"),
		AmountPaid:    decimal.Zero,
		PaymentStatus: domain.PaymentPending,
		Status:        domain.StatusConfirmed,
		Channel:       domain.ChannelWalkIn,
	}
}
