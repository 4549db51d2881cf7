// Package handler implements the HTTP handlers for the cabin booking API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, cabin.go, reservation.go, admin.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/middleware"
	"github.com/pkordes/cabin-booking/internal/service"
)

// CabinServicer defines the business operations the cabin handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type CabinServicer interface {
	Create(ctx context.Context, cabin domain.Cabin) (domain.Cabin, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Cabin, error)
	List(ctx context.Context) ([]domain.Cabin, error)
}

// ReservationServicer defines the reservation operations the handlers depend on.
type ReservationServicer interface {
	Create(ctx context.Context, in domain.NewReservation) (domain.Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Reservation, error)
	List(ctx context.Context, f domain.ReservationFilter, p domain.PaginationParams, actor domain.Actor) ([]domain.Reservation, int64, error)
	UpdatePayment(ctx context.Context, u domain.PaymentUpdate) (domain.Reservation, error)
	ApplyPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (domain.Reservation, error)
	UpdateStatus(ctx context.Context, u domain.StatusUpdate) (domain.Reservation, error)
	UpdateDates(ctx context.Context, u domain.DateUpdate) (domain.Reservation, error)
	CheckAvailability(ctx context.Context, req service.AvailabilityRequest) (service.Availability, error)
	Calendar(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.DayStatus, error)
}

// Reconciler is the on-demand trigger of the lifecycle reconcile.
type Reconciler interface {
	Reconcile(ctx context.Context, today time.Time) (domain.ReconcileResult, error)
	Today() time.Time
}

// ReportServicer builds the admin financial summary.
type ReportServicer interface {
	Summary(ctx context.Context, from, to time.Time) (domain.FinancialSummary, error)
}

// Deps carries everything a Server needs. OpenAPI is the document served at
// /openapi.yaml; a nil Logger falls back to slog.Default.
type Deps struct {
	Cabins       CabinServicer
	Reservations ReservationServicer
	Reconciler   Reconciler
	Reports      ReportServicer
	Auth         *middleware.Authenticator
	OpenAPI      []byte
	Logger       *slog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	cabins       CabinServicer
	reservations ReservationServicer
	reconciler   Reconciler
	reports      ReportServicer
	auth         *middleware.Authenticator
	openAPI      []byte
	log          *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cabins:       d.Cabins,
		reservations: d.Reservations,
		reconciler:   d.Reconciler,
		reports:      d.Reports,
		auth:         d.Auth,
		openAPI:      d.OpenAPI,
		log:          log,
	}
}

// Routes returns the API router. Cross-cutting middleware (request id,
// logging, CORS, body limits) is applied by the caller around it.
//
// Cabin browsing and availability are public. Everything under
// /reservations needs a bearer token; inventory, payments, date changes and
// /admin additionally need a staff token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Get("/cabins", s.ListCabins)
	r.Get("/cabins/{id}", s.GetCabin)
	r.Get("/cabins/{id}/availability", s.GetAvailability)
	r.Get("/cabins/{id}/calendar", s.GetCalendar)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Authenticate)

		r.Post("/reservations", s.CreateReservation)
		r.Get("/reservations", s.ListReservations)
		r.Get("/reservations/{id}", s.GetReservation)
		r.Put("/reservations/{id}/status", s.UpdateReservationStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)

			r.Post("/cabins", s.CreateCabin)
			r.Put("/reservations/{id}/payment", s.UpdateReservationPayment)
			r.Post("/reservations/{id}/payments", s.ApplyReservationPayment)
			r.Put("/reservations/{id}/dates", s.UpdateReservationDates)
			r.Post("/admin/reconcile", s.RunReconcile)
			r.Get("/admin/reports/summary", s.GetSummaryReport)
		})
	})

	return r
}

// actor returns the authenticated caller. Only valid behind Authenticate.
func actor(r *http.Request) domain.Actor {
	a, _ := middleware.ActorFromContext(r.Context())
	return a
}
