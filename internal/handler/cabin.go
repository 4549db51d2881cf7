package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/service"
)

type createCabinRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Capacity    int              `json:"capacity" validate:"required,min=1,max=50"`
	NightlyRate *decimal.Decimal `json:"nightly_rate" validate:"required"`
	Active      *bool            `json:"active"`
}

type cabinResponse struct {
	ID          openapi_types.UUID `json:"id"`
	Name        string             `json:"name"`
	Capacity    int                `json:"capacity"`
	NightlyRate string             `json:"nightly_rate"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type quoteResponse struct {
	Nights int    `json:"nights"`
	Base   string `json:"base"`
	AddOn  string `json:"add_on"`
	Total  string `json:"total"`
}

type availabilityResponse struct {
	Available bool                `json:"available"`
	BlockedBy *openapi_types.UUID `json:"blocked_by,omitempty"`
	Quote     quoteResponse       `json:"quote"`
}

type dayResponse struct {
	Date          openapi_types.Date  `json:"date"`
	Occupied      bool                `json:"occupied"`
	ReservationID *openapi_types.UUID `json:"reservation_id,omitempty"`
}

type calendarResponse struct {
	CabinID openapi_types.UUID `json:"cabin_id"`
	Days    []dayResponse      `json:"days"`
}

// CreateCabin handles POST /cabins. New cabins are active unless the body says otherwise.
func (s *Server) CreateCabin(w http.ResponseWriter, r *http.Request) {
	var body createCabinRequest
	if !decodeBody(w, r, &body) {
		return
	}
	cabin := domain.Cabin{
		Name:        body.Name,
		Capacity:    body.Capacity,
		NightlyRate: *body.NightlyRate,
		Active:      body.Active == nil || *body.Active,
	}

	created, err := s.cabins.Create(r.Context(), cabin)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cabinToResponse(created))
}

// ListCabins handles GET /cabins.
func (s *Server) ListCabins(w http.ResponseWriter, r *http.Request) {
	cabins, err := s.cabins.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	data := make([]cabinResponse, len(cabins))
	for i, c := range cabins {
		data[i] = cabinToResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// GetCabin handles GET /cabins/{id}.
func (s *Server) GetCabin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cabin, err := s.cabins.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cabinToResponse(cabin))
}

// GetAvailability handles GET /cabins/{id}/availability.
// Query: check_in, check_out (required); exclude, guests, add_on (optional).
func (s *Server) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var (
		checkIn, checkOut openapi_types.Date
		exclude           *openapi_types.UUID
		guests            *int
		addOn             *bool
	)
	if !queryParam(w, r, "check_in", true, &checkIn) ||
		!queryParam(w, r, "check_out", true, &checkOut) ||
		!queryParam(w, r, "exclude", false, &exclude) ||
		!queryParam(w, r, "guests", false, &guests) ||
		!queryParam(w, r, "add_on", false, &addOn) {
		return
	}

	req := service.AvailabilityRequest{
		CabinID:  id,
		CheckIn:  checkIn.Time,
		CheckOut: checkOut.Time,
		Exclude:  exclude,
	}
	if guests != nil {
		req.Guests = *guests
	}
	if addOn != nil {
		req.IncludesAddOn = *addOn
	}

	res, err := s.reservations.CheckAvailability(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := availabilityResponse{
		Available: res.Available,
		Quote: quoteResponse{
			Nights: res.Quote.Nights,
			Base:   money(res.Quote.Base),
			AddOn:  money(res.Quote.AddOn),
			Total:  money(res.Quote.Total),
		},
	}
	if !res.Available {
		blocked := res.BlockedBy
		out.BlockedBy = &blocked
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCalendar handles GET /cabins/{id}/calendar?from=&to=.
func (s *Server) GetCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var from, to openapi_types.Date
	if !queryParam(w, r, "from", true, &from) || !queryParam(w, r, "to", true, &to) {
		return
	}

	days, err := s.reservations.Calendar(r.Context(), id, from.Time, to.Time)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := calendarResponse{CabinID: id, Days: make([]dayResponse, len(days))}
	for i, d := range days {
		out.Days[i] = dayResponse{
			Date:          openapi_types.Date{Time: d.Date},
			Occupied:      d.Occupied,
			ReservationID: d.ReservationID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- mapping helpers --------------------------------------------------------

func cabinToResponse(c domain.Cabin) cabinResponse {
	return cabinResponse{
		ID:          c.ID,
		Name:        c.Name,
		Capacity:    c.Capacity,
		NightlyRate: money(c.NightlyRate),
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// money renders an amount with exactly two decimals, as a string so clients
// never round-trip it through a float.
func money(d decimal.Decimal) string {
	return d.StringFixed(domain.CurrencyPlaces)
}
