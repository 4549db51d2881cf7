package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/service"
)

// mockActiveLister is a hand-written test double for the checker's read dependency.
type mockActiveLister struct {
	listActiveByCabin func(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.Reservation, error)
}

func (m *mockActiveLister) ListActiveByCabin(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.Reservation, error) {
	return m.listActiveByCabin(ctx, cabinID, from, to)
}

func staticLister(rs ...domain.Reservation) *mockActiveLister {
	return &mockActiveLister{
		listActiveByCabin: func(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Reservation, error) {
			return rs, nil
		},
	}
}

func stay(in, out string, status domain.Status) domain.Reservation {
	return domain.Reservation{ID: uuid.New(), CheckIn: day(in), CheckOut: day(out), Status: status}
}

func TestAvailabilityChecker_CheckConflict(t *testing.T) {
	existing := stay("2024-07-10", "2024-07-15", domain.StatusConfirmed)
	checker := service.NewAvailabilityChecker(staticLister(existing))

	tests := []struct {
		in, out   string
		available bool
	}{
		{"2024-07-14", "2024-07-20", false},
		{"2024-07-15", "2024-07-20", false},
		{"2024-07-05", "2024-07-10", false},
		{"2024-07-11", "2024-07-12", false},
		{"2024-07-01", "2024-07-30", false},
		{"2024-07-16", "2024-07-20", true},
		{"2024-07-01", "2024-07-09", true},
	}
	for _, tc := range tests {
		t.Run(tc.in+".."+tc.out, func(t *testing.T) {
			got, err := checker.CheckConflict(context.Background(), uuid.New(), day(tc.in), day(tc.out), nil)

			require.NoError(t, err)
			assert.Equal(t, tc.available, got.Available)
			if !tc.available {
				assert.Equal(t, existing.ID, got.BlockedBy)
			}
		})
	}
}

func TestAvailabilityChecker_SkipsExcludedAndInactive(t *testing.T) {
	self := stay("2024-07-10", "2024-07-15", domain.StatusConfirmed)
	cancelled := stay("2024-07-12", "2024-07-18", domain.StatusCancelled)
	checker := service.NewAvailabilityChecker(staticLister(self, cancelled))

	got, err := checker.CheckConflict(context.Background(), uuid.New(), day("2024-07-12"), day("2024-07-16"), &self.ID)

	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestAvailabilityChecker_ReportsFirstBlocker(t *testing.T) {
	first := stay("2024-07-10", "2024-07-12", domain.StatusPending)
	second := stay("2024-07-14", "2024-07-16", domain.StatusConfirmed)
	checker := service.NewAvailabilityChecker(staticLister(first, second))

	got, err := checker.CheckConflict(context.Background(), uuid.New(), day("2024-07-11"), day("2024-07-15"), nil)

	require.NoError(t, err)
	assert.Equal(t, first.ID, got.BlockedBy)
}

func TestAvailabilityChecker_InvalidRangeSkipsStorage(t *testing.T) {
	checker := service.NewAvailabilityChecker(&mockActiveLister{})

	_, err := checker.CheckConflict(context.Background(), uuid.New(), day("2024-07-15"), day("2024-07-15"), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestAvailabilityChecker_Guard(t *testing.T) {
	existing := stay("2024-07-10", "2024-07-15", domain.StatusConfirmed)
	checker := service.NewAvailabilityChecker(staticLister(existing))

	err := checker.Guard(context.Background(), uuid.New(), day("2024-07-15"), day("2024-07-17"), nil)

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, existing.ID, conflict.BlockedBy)
	assert.ErrorIs(t, err, domain.ErrDateConflict)

	assert.NoError(t, checker.Guard(context.Background(), uuid.New(), day("2024-07-16"), day("2024-07-17"), nil))
}

func TestAvailabilityChecker_StorageError(t *testing.T) {
	checker := service.NewAvailabilityChecker(&mockActiveLister{
		listActiveByCabin: func(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Reservation, error) {
			return nil, domain.ErrStorageUnavailable
		},
	})

	_, err := checker.CheckConflict(context.Background(), uuid.New(), day("2024-07-10"), day("2024-07-12"), nil)

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestAvailabilityChecker_CalendarBounds(t *testing.T) {
	checker := service.NewAvailabilityChecker(staticLister())

	_, err := checker.Calendar(context.Background(), uuid.New(), day("2024-07-10"), day("2024-07-09"))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = checker.Calendar(context.Background(), uuid.New(), day("2024-01-01"), day("2025-06-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	days, err := checker.Calendar(context.Background(), uuid.New(), day("2024-07-10"), day("2024-07-10"))
	require.NoError(t, err)
	assert.Len(t, days, 1)
	assert.False(t, days[0].Occupied)
}
