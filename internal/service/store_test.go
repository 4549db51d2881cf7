package service_test

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/repo"
)

// memStore is an in-memory stand-in for the Postgres repos and Transactor.
//
// InTx holds txMu for the whole unit of work, the same serialisation the
// cabin row lock gives in Postgres, and restores a snapshot when fn fails.
// mu guards the maps themselves.
type memStore struct {
	txMu sync.Mutex

	mu           sync.Mutex
	cabins       map[uuid.UUID]domain.Cabin
	reservations map[uuid.UUID]domain.Reservation
	writes       int
}

func newMemStore() *memStore {
	return &memStore{
		cabins:       map[uuid.UUID]domain.Cabin{},
		reservations: map[uuid.UUID]domain.Reservation{},
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repo.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	cabins := maps.Clone(s.cabins)
	reservations := maps.Clone(s.reservations)
	s.mu.Unlock()

	if err := fn(ctx, repo.Tx{Cabins: s.cabinRepo(), Reservations: s.reservationRepo()}); err != nil {
		s.mu.Lock()
		s.cabins = cabins
		s.reservations = reservations
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) cabinRepo() repo.CabinRepo             { return memCabins{s} }
func (s *memStore) reservationRepo() repo.ReservationRepo { return memReservations{s} }

func (s *memStore) addCabin(c domain.Cabin) domain.Cabin {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cabins[c.ID] = c
	return c
}

func (s *memStore) addReservation(r domain.Reservation) domain.Reservation {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = r
	return r
}

func (s *memStore) reservation(id uuid.UUID) domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id]
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// ---- CabinRepo -------------------------------------------------------------

type memCabins struct{ s *memStore }

var _ repo.CabinRepo = memCabins{}

func (m memCabins) Create(_ context.Context, c domain.Cabin) (domain.Cabin, error) {
	c.ID = uuid.New()
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.cabins[c.ID] = c
	m.s.writes++
	return c, nil
}

func (m memCabins) GetByID(_ context.Context, id uuid.UUID) (domain.Cabin, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.cabins[id]
	if !ok {
		return domain.Cabin{}, domain.ErrCabinNotFound
	}
	return c, nil
}

func (m memCabins) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Cabin, error) {
	return m.GetByID(ctx, id)
}

func (m memCabins) List(_ context.Context) ([]domain.Cabin, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := slices.Collect(maps.Values(m.s.cabins))
	slices.SortFunc(out, func(a, b domain.Cabin) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// ---- ReservationRepo -------------------------------------------------------

type memReservations struct{ s *memStore }

var _ repo.ReservationRepo = memReservations{}

func (m memReservations) Create(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.reservations[r.ID] = r
	m.s.writes++
	return r, nil
}

func (m memReservations) GetByID(_ context.Context, id uuid.UUID) (domain.Reservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return r, nil
}

func (m memReservations) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.GetByID(ctx, id)
}

func (m memReservations) ListActiveByCabin(_ context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.Reservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.s.reservations {
		if r.CabinID == cabinID && r.Blocks() && !r.CheckIn.After(to) && !r.CheckOut.Before(from) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, byCheckIn)
	return out, nil
}

func (m memReservations) ListPaged(_ context.Context, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []domain.Reservation
	for _, r := range m.s.reservations {
		switch {
		case f.CabinID != nil && r.CabinID != *f.CabinID,
			f.UserID != nil && (r.UserID == nil || *r.UserID != *f.UserID),
			f.Status != nil && r.Status != *f.Status,
			f.From != nil && r.CheckOut.Before(*f.From),
			f.To != nil && r.CheckIn.After(*f.To):
			continue
		}
		all = append(all, r)
	}
	slices.SortFunc(all, byCheckIn)
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

func (m memReservations) UpdatePayment(_ context.Context, id uuid.UUID, p domain.PaymentState) (domain.Reservation, error) {
	return m.mutate(id, func(r *domain.Reservation) error {
		r.AmountPaid, r.TotalPrice, r.PaymentStatus = p.AmountPaid, p.TotalPrice, p.Status
		return nil
	})
}

func (m memReservations) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.Status) (domain.Reservation, error) {
	return m.mutate(id, func(r *domain.Reservation) error {
		if r.Status != from {
			return domain.ErrInvalidTransition
		}
		r.Status = to
		return nil
	})
}

func (m memReservations) UpdateStay(_ context.Context, id uuid.UUID, stay domain.DateRange, p domain.PaymentState) (domain.Reservation, error) {
	return m.mutate(id, func(r *domain.Reservation) error {
		r.CheckIn, r.CheckOut = stay.CheckIn, stay.CheckOut
		r.AmountPaid, r.TotalPrice, r.PaymentStatus = p.AmountPaid, p.TotalPrice, p.Status
		return nil
	})
}

func (m memReservations) CompleteEnded(_ context.Context, today time.Time, limit int) ([]uuid.UUID, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var ended []domain.Reservation
	for _, r := range m.s.reservations {
		if r.Status == domain.StatusConfirmed && r.CheckOut.Before(today) {
			ended = append(ended, r)
		}
	}
	slices.SortFunc(ended, byCheckIn)
	if len(ended) > limit {
		ended = ended[:limit]
	}
	ids := make([]uuid.UUID, 0, len(ended))
	for _, r := range ended {
		r.Status = domain.StatusCompleted
		m.s.reservations[r.ID] = r
		m.s.writes++
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (m memReservations) mutate(id uuid.UUID, fn func(r *domain.Reservation) error) (domain.Reservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if err := fn(&r); err != nil {
		return domain.Reservation{}, err
	}
	r.UpdatedAt = time.Now()
	m.s.reservations[id] = r
	m.s.writes++
	return r, nil
}

// ---- helpers ---------------------------------------------------------------

func byCheckIn(a, b domain.Reservation) int {
	if c := a.CheckIn.Compare(b.CheckIn); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

// day parses a "2006-01-02" literal; test inputs are always valid.
func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T { return &v }
