package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/cabin-booking/internal/domain"
)

type createReservationRequest struct {
	CabinID       openapi_types.UUID  `json:"cabin_id" validate:"required"`
	CheckIn       openapi_types.Date  `json:"check_in" validate:"required"`
	CheckOut      openapi_types.Date  `json:"check_out" validate:"required"`
	Guests        int                 `json:"guests" validate:"required,min=1"`
	IncludesAddOn bool                `json:"includes_add_on"`
	Channel       string              `json:"channel" validate:"omitempty,oneof=online walk_in phone"`
	UserID        *openapi_types.UUID `json:"user_id"`
	GuestName     string              `json:"guest_name" validate:"max=200"`
	GuestPhone    string              `json:"guest_phone" validate:"max=50"`
	Notes         string              `json:"notes" validate:"max=2000"`
}

type updatePaymentRequest struct {
	AmountPaid *decimal.Decimal `json:"amount_paid" validate:"required"`
	TotalPrice *decimal.Decimal `json:"total_price"`
}

type applyPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

type updateDatesRequest struct {
	CheckIn  openapi_types.Date `json:"check_in" validate:"required"`
	CheckOut openapi_types.Date `json:"check_out" validate:"required"`
}

type reservationResponse struct {
	ID            openapi_types.UUID  `json:"id"`
	CabinID       openapi_types.UUID  `json:"cabin_id"`
	UserID        *openapi_types.UUID `json:"user_id,omitempty"`
	GuestName     string              `json:"guest_name,omitempty"`
	GuestPhone    string              `json:"guest_phone,omitempty"`
	CheckIn       openapi_types.Date  `json:"check_in"`
	CheckOut      openapi_types.Date  `json:"check_out"`
	Nights        int                 `json:"nights"`
	Guests        int                 `json:"guests"`
	TotalPrice    string              `json:"total_price"`
	AmountPaid    string              `json:"amount_paid"`
	Balance       string              `json:"balance"`
	PaymentStatus string              `json:"payment_status"`
	Status        string              `json:"status"`
	Channel       string              `json:"channel"`
	IncludesAddOn bool                `json:"includes_add_on"`
	Notes         string              `json:"notes,omitempty"`
	CreatedBy     *openapi_types.UUID `json:"created_by,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type reservationListResponse struct {
	Data       []reservationResponse `json:"data"`
	Pagination pagination            `json:"pagination"`
}

// CreateReservation handles POST /reservations.
//
// A guest always books online for their own account. Staff enter walk-in and
// phone bookings (walk_in when no channel is given) and are recorded as the
// creator.
func (s *Server) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var body createReservationRequest
	if !decodeBody(w, r, &body) {
		return
	}
	caller := actor(r)

	in := domain.NewReservation{
		CabinID:       body.CabinID,
		CheckIn:       body.CheckIn.Time,
		CheckOut:      body.CheckOut.Time,
		Guests:        body.Guests,
		IncludesAddOn: body.IncludesAddOn,
		GuestName:     body.GuestName,
		GuestPhone:    body.GuestPhone,
		Notes:         body.Notes,
	}
	if caller.IsStaff {
		in.Channel = domain.Channel(body.Channel)
		if in.Channel == "" {
			in.Channel = domain.ChannelWalkIn
		}
		in.UserID = body.UserID
		in.CreatedBy = &caller.ID
	} else {
		if body.Channel != "" && domain.Channel(body.Channel) != domain.ChannelOnline {
			writeError(w, http.StatusForbidden, "forbidden", "guests can only book online")
			return
		}
		in.Channel = domain.ChannelOnline
		in.UserID = &caller.ID
	}

	created, err := s.reservations.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/reservations/"+created.ID.String())
	writeJSON(w, http.StatusCreated, reservationToResponse(created))
}

// ListReservations handles GET /reservations.
// Supports cabin_id, status, from, to, page and limit query parameters
// (defaults: page=1, limit=20, max=100). Guests only ever see their own.
func (s *Server) ListReservations(w http.ResponseWriter, r *http.Request) {
	var (
		f           domain.ReservationFilter
		cabinID     *openapi_types.UUID
		status      *string
		from, to    *openapi_types.Date
		page, limit *int
	)
	if !queryParam(w, r, "cabin_id", false, &cabinID) ||
		!queryParam(w, r, "status", false, &status) ||
		!queryParam(w, r, "from", false, &from) ||
		!queryParam(w, r, "to", false, &to) ||
		!queryParam(w, r, "page", false, &page) ||
		!queryParam(w, r, "limit", false, &limit) {
		return
	}
	f.CabinID = cabinID
	if status != nil {
		st := domain.Status(*status)
		f.Status = &st
	}
	if from != nil {
		f.From = &from.Time
	}
	if to != nil {
		f.To = &to.Time
	}
	params := domain.NewPaginationParams(page, limit)

	items, total, err := s.reservations.List(r.Context(), f, params, actor(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	data := make([]reservationResponse, len(items))
	for i, it := range items {
		data[i] = reservationToResponse(it)
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, reservationListResponse{
		Data:       data,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetReservation handles GET /reservations/{id}.
func (s *Server) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.reservations.GetByID(r.Context(), id, actor(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

// UpdateReservationPayment handles PUT /reservations/{id}/payment.
func (s *Server) UpdateReservationPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body updatePaymentRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.reservations.UpdatePayment(r.Context(), domain.PaymentUpdate{
		ReservationID: id,
		AmountPaid:    *body.AmountPaid,
		TotalPrice:    body.TotalPrice,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(updated))
}

// ApplyReservationPayment handles POST /reservations/{id}/payments.
func (s *Server) ApplyReservationPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body applyPaymentRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.reservations.ApplyPayment(r.Context(), id, *body.Amount)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(updated))
}

// UpdateReservationStatus handles PUT /reservations/{id}/status.
// Guests may call it for their own reservation; whatever they ask for is
// treated as a cancellation.
func (s *Server) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body updateStatusRequest
	if !decodeBody(w, r, &body) {
		return
	}
	caller := actor(r)

	updated, err := s.reservations.UpdateStatus(r.Context(), domain.StatusUpdate{
		ReservationID: id,
		Requested:     domain.Status(body.Status),
		IsStaff:       caller.IsStaff,
		ActorID:       caller.ID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(updated))
}

// UpdateReservationDates handles PUT /reservations/{id}/dates.
func (s *Server) UpdateReservationDates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body updateDatesRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.reservations.UpdateDates(r.Context(), domain.DateUpdate{
		ReservationID: id,
		CheckIn:       body.CheckIn.Time,
		CheckOut:      body.CheckOut.Time,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(updated))
}

// --- mapping helpers --------------------------------------------------------

func reservationToResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:            r.ID,
		CabinID:       r.CabinID,
		UserID:        r.UserID,
		GuestName:     r.GuestName,
		GuestPhone:    r.GuestPhone,
		CheckIn:       openapi_types.Date{Time: r.CheckIn},
		CheckOut:      openapi_types.Date{Time: r.CheckOut},
		Nights:        r.Range().Nights(),
		Guests:        r.Guests,
		TotalPrice:    money(r.TotalPrice),
		AmountPaid:    money(r.AmountPaid),
		Balance:       money(r.Balance()),
		PaymentStatus: string(r.PaymentStatus),
		Status:        string(r.Status),
		Channel:       string(r.Channel),
		IncludesAddOn: r.IncludesAddOn,
		Notes:         r.Notes,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
