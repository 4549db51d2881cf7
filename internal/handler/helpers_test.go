package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/handler"
	"github.com/pkordes/cabin-booking/internal/middleware"
	"github.com/pkordes/cabin-booking/internal/service"
)

const testSecret = "handler-test-secret"

// ---- mocks -----------------------------------------------------------------

// mockCabinServicer is a test double for handler.CabinServicer.
// Set only the method fields your test needs.
type mockCabinServicer struct {
	create  func(ctx context.Context, c domain.Cabin) (domain.Cabin, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Cabin, error)
	list    func(ctx context.Context) ([]domain.Cabin, error)
}

func (m *mockCabinServicer) Create(ctx context.Context, c domain.Cabin) (domain.Cabin, error) {
	return m.create(ctx, c)
}
func (m *mockCabinServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Cabin, error) {
	return m.getByID(ctx, id)
}
func (m *mockCabinServicer) List(ctx context.Context) ([]domain.Cabin, error) {
	return m.list(ctx)
}

var _ handler.CabinServicer = (*mockCabinServicer)(nil)

// mockReservationServicer is a test double for handler.ReservationServicer.
type mockReservationServicer struct {
	create            func(ctx context.Context, in domain.NewReservation) (domain.Reservation, error)
	getByID           func(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Reservation, error)
	list              func(ctx context.Context, f domain.ReservationFilter, p domain.PaginationParams, actor domain.Actor) ([]domain.Reservation, int64, error)
	updatePayment     func(ctx context.Context, u domain.PaymentUpdate) (domain.Reservation, error)
	applyPayment      func(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (domain.Reservation, error)
	updateStatus      func(ctx context.Context, u domain.StatusUpdate) (domain.Reservation, error)
	updateDates       func(ctx context.Context, u domain.DateUpdate) (domain.Reservation, error)
	checkAvailability func(ctx context.Context, req service.AvailabilityRequest) (service.Availability, error)
	calendar          func(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.DayStatus, error)
}

func (m *mockReservationServicer) Create(ctx context.Context, in domain.NewReservation) (domain.Reservation, error) {
	return m.create(ctx, in)
}
func (m *mockReservationServicer) GetByID(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Reservation, error) {
	return m.getByID(ctx, id, actor)
}
func (m *mockReservationServicer) List(ctx context.Context, f domain.ReservationFilter, p domain.PaginationParams, actor domain.Actor) ([]domain.Reservation, int64, error) {
	return m.list(ctx, f, p, actor)
}
func (m *mockReservationServicer) UpdatePayment(ctx context.Context, u domain.PaymentUpdate) (domain.Reservation, error) {
	return m.updatePayment(ctx, u)
}
func (m *mockReservationServicer) ApplyPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (domain.Reservation, error) {
	return m.applyPayment(ctx, id, amount)
}
func (m *mockReservationServicer) UpdateStatus(ctx context.Context, u domain.StatusUpdate) (domain.Reservation, error) {
	return m.updateStatus(ctx, u)
}
func (m *mockReservationServicer) UpdateDates(ctx context.Context, u domain.DateUpdate) (domain.Reservation, error) {
	return m.updateDates(ctx, u)
}
func (m *mockReservationServicer) CheckAvailability(ctx context.Context, req service.AvailabilityRequest) (service.Availability, error) {
	return m.checkAvailability(ctx, req)
}
func (m *mockReservationServicer) Calendar(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.DayStatus, error) {
	return m.calendar(ctx, cabinID, from, to)
}

var _ handler.ReservationServicer = (*mockReservationServicer)(nil)

type mockReconciler struct {
	reconcile func(ctx context.Context, today time.Time) (domain.ReconcileResult, error)
	today     time.Time
}

func (m *mockReconciler) Reconcile(ctx context.Context, today time.Time) (domain.ReconcileResult, error) {
	return m.reconcile(ctx, today)
}
func (m *mockReconciler) Today() time.Time { return m.today }

type mockReportServicer struct {
	summary func(ctx context.Context, from, to time.Time) (domain.FinancialSummary, error)
}

func (m *mockReportServicer) Summary(ctx context.Context, from, to time.Time) (domain.FinancialSummary, error) {
	return m.summary(ctx, from, to)
}

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into its router.
// This mirrors how main.go wires it in production.
func newHTTPHandler(d handler.Deps) http.Handler {
	if d.Cabins == nil {
		d.Cabins = &mockCabinServicer{}
	}
	if d.Reservations == nil {
		d.Reservations = &mockReservationServicer{}
	}
	d.Auth = middleware.NewAuthenticator(testSecret)
	d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(d).Routes()
}

func tokenFor(t *testing.T, a domain.Actor) string {
	t.Helper()
	tok, err := middleware.NewAuthenticator(testSecret).Issue(a, time.Hour)
	require.NoError(t, err)
	return tok
}

var (
	guestActor = domain.Actor{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
	staffActor = domain.Actor{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), IsStaff: true}
)

// do sends a request through h. A nil actor sends no token; a nil body sends none.
func do(t *testing.T, h http.Handler, method, path string, a *domain.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *a))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		BlockedBy string `json:"blocked_by"`
	} `json:"error"`
}

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func reservationFixture() domain.Reservation {
	owner := guestActor.ID
	return domain.Reservation{
		ID:            uuid.New(),
		CabinID:       uuid.New(),
		UserID:        &owner,
		CheckIn:       day("2024-07-10"),
		CheckOut:      day("2024-07-13"),
		Guests:        2,
		TotalPrice:    dec("1200"),
		AmountPaid:    dec("400"),
		PaymentStatus: domain.PaymentPartial,
		Status:        domain.StatusPending,
		Channel:       domain.ChannelOnline,
		IncludesAddOn: true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}
