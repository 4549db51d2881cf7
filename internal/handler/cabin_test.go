package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/handler"
	"github.com/pkordes/cabin-booking/internal/service"
)

type cabinBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	NightlyRate string `json:"nightly_rate"`
	Active      bool   `json:"active"`
}

func TestCreateCabin(t *testing.T) {
	t.Run("staff creates an active cabin", func(t *testing.T) {
		var got domain.Cabin
		cabins := &mockCabinServicer{
			create: func(_ context.Context, c domain.Cabin) (domain.Cabin, error) {
				got = c
				c.ID = uuid.New()
				return c, nil
			},
		}
		h := newHTTPHandler(handler.Deps{Cabins: cabins})

		rec := do(t, h, http.MethodPost, "/cabins", &staffActor, map[string]any{
			"name": "Lakeside", "capacity": 4, "nightly_rate": "125.5",
		})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		body := decode[cabinBody](t, rec)
		assert.Equal(t, "Lakeside", body.Name)
		assert.Equal(t, "125.50", body.NightlyRate)
		assert.True(t, body.Active)
		assert.True(t, got.Active)
		assert.True(t, got.NightlyRate.Equal(dec("125.5")))
	})

	t.Run("guest is forbidden", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{})

		rec := do(t, h, http.MethodPost, "/cabins", &guestActor, map[string]any{
			"name": "Lakeside", "capacity": 4, "nightly_rate": "125",
		})

		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{})

		rec := do(t, h, http.MethodPost, "/cabins", nil, map[string]any{"name": "x"})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields are a validation error", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{})

		rec := do(t, h, http.MethodPost, "/cabins", &staffActor, map[string]any{"name": "Lakeside"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Contains(t, body.Error.Message, "capacity is required")
		assert.Contains(t, body.Error.Message, "nightly_rate is required")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{})

		rec := do(t, h, http.MethodPost, "/cabins", &staffActor, map[string]any{
			"name": "Lakeside", "capacity": 4, "nightly_rate": "125", "sauna": true,
		})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestListCabins_isPublic(t *testing.T) {
	cabins := &mockCabinServicer{
		list: func(context.Context) ([]domain.Cabin, error) {
			return []domain.Cabin{
				{ID: uuid.New(), Name: "A", Capacity: 2, NightlyRate: dec("80"), Active: true},
				{ID: uuid.New(), Name: "B", Capacity: 6, NightlyRate: dec("210"), Active: true},
			}, nil
		},
	}
	h := newHTTPHandler(handler.Deps{Cabins: cabins})

	rec := do(t, h, http.MethodGet, "/cabins", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Data []cabinBody `json:"data"`
	}](t, rec)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "80.00", body.Data[0].NightlyRate)
}

func TestGetCabin(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		cabins := &mockCabinServicer{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Cabin, error) {
				return domain.Cabin{}, fmt.Errorf("service.CabinService.GetByID: %w", domain.ErrCabinNotFound)
			},
		}
		h := newHTTPHandler(handler.Deps{Cabins: cabins})

		rec := do(t, h, http.MethodGet, "/cabins/"+uuid.NewString(), nil, nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{})

		rec := do(t, h, http.MethodGet, "/cabins/not-a-uuid", nil, nil)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("storage outage is 503", func(t *testing.T) {
		cabins := &mockCabinServicer{
			getByID: func(context.Context, uuid.UUID) (domain.Cabin, error) {
				return domain.Cabin{}, fmt.Errorf("repo.CabinRepo.GetByID: %w", domain.ErrStorageUnavailable)
			},
		}
		h := newHTTPHandler(handler.Deps{Cabins: cabins})

		rec := do(t, h, http.MethodGet, "/cabins/"+uuid.NewString(), nil, nil)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetAvailability(t *testing.T) {
	cabinID := uuid.New()
	blocker := uuid.New()

	t.Run("blocked stay reports the blocker and a quote", func(t *testing.T) {
		var got service.AvailabilityRequest
		res := &mockReservationServicer{
			checkAvailability: func(_ context.Context, req service.AvailabilityRequest) (service.Availability, error) {
				got = req
				return service.Availability{
					ConflictResult: domain.ConflictResult{Available: false, BlockedBy: blocker},
					Quote:          domain.Quote{Nights: 3, Base: dec("300"), AddOn: dec("450"), Total: dec("750")},
				}, nil
			},
		}
		h := newHTTPHandler(handler.Deps{Reservations: res})

		path := fmt.Sprintf("/cabins/%s/availability?check_in=2024-07-10&check_out=2024-07-13&guests=3&add_on=true", cabinID)
		rec := do(t, h, http.MethodGet, path, nil, nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode[struct {
			Available bool   `json:"available"`
			BlockedBy string `json:"blocked_by"`
			Quote     struct {
				Nights int    `json:"nights"`
				Total  string `json:"total"`
			} `json:"quote"`
		}](t, rec)
		assert.False(t, body.Available)
		assert.Equal(t, blocker.String(), body.BlockedBy)
		assert.Equal(t, 3, body.Quote.Nights)
		assert.Equal(t, "750.00", body.Quote.Total)

		assert.Equal(t, cabinID, got.CabinID)
		assert.Equal(t, day("2024-07-10"), got.CheckIn.UTC())
		assert.Equal(t, 3, got.Guests)
		assert.True(t, got.IncludesAddOn)
		assert.Nil(t, got.Exclude)
	})

	t.Run("available stay omits blocked_by", func(t *testing.T) {
		res := &mockReservationServicer{
			checkAvailability: func(context.Context, service.AvailabilityRequest) (service.Availability, error) {
				return service.Availability{ConflictResult: domain.ConflictResult{Available: true}}, nil
			},
		}
		h := newHTTPHandler(handler.Deps{Reservations: res})

		path := fmt.Sprintf("/cabins/%s/availability?check_in=2024-07-10&check_out=2024-07-13", cabinID)
		rec := do(t, h, http.MethodGet, path, nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "blocked_by")
	})

	t.Run("missing check_in never reaches the service", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{Reservations: &mockReservationServicer{}})

		rec := do(t, h, http.MethodGet, fmt.Sprintf("/cabins/%s/availability?check_out=2024-07-20", cabinID), nil, nil)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "check_in is required", decode[errorBody](t, rec).Error.Message)
	})

	t.Run("empty check_in", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{Reservations: &mockReservationServicer{}})

		rec := do(t, h, http.MethodGet, fmt.Sprintf("/cabins/%s/availability?check_in=&check_out=2024-07-20", cabinID), nil, nil)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "check_in is required", decode[errorBody](t, rec).Error.Message)
	})

	t.Run("missing check_out", func(t *testing.T) {
		h := newHTTPHandler(handler.Deps{})

		rec := do(t, h, http.MethodGet, fmt.Sprintf("/cabins/%s/availability?check_in=2024-07-10", cabinID), nil, nil)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "check_out is required", decode[errorBody](t, rec).Error.Message)
	})

	t.Run("inverted range from the service", func(t *testing.T) {
		res := &mockReservationServicer{
			checkAvailability: func(context.Context, service.AvailabilityRequest) (service.Availability, error) {
				return service.Availability{}, fmt.Errorf("service: %w", domain.ErrInvalidDateRange)
			},
		}
		h := newHTTPHandler(handler.Deps{Reservations: res})

		path := fmt.Sprintf("/cabins/%s/availability?check_in=2024-07-13&check_out=2024-07-10", cabinID)
		rec := do(t, h, http.MethodGet, path, nil, nil)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "invalid_date_range", decode[errorBody](t, rec).Error.Code)
	})
}

func TestGetCalendar(t *testing.T) {
	cabinID := uuid.New()
	resID := uuid.New()
	res := &mockReservationServicer{
		calendar: func(_ context.Context, id uuid.UUID, from, to time.Time) ([]domain.DayStatus, error) {
			assert.Equal(t, cabinID, id)
			return []domain.DayStatus{
				{Date: day("2024-07-10"), Occupied: true, ReservationID: &resID},
				{Date: day("2024-07-11")},
			}, nil
		},
	}
	h := newHTTPHandler(handler.Deps{Reservations: res})

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/cabins/%s/calendar?from=2024-07-10&to=2024-07-11", cabinID), nil, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		CabinID string `json:"cabin_id"`
		Days    []struct {
			Date          string `json:"date"`
			Occupied      bool   `json:"occupied"`
			ReservationID string `json:"reservation_id"`
		} `json:"days"`
	}](t, rec)
	assert.Equal(t, cabinID.String(), body.CabinID)
	require.Len(t, body.Days, 2)
	assert.Equal(t, "2024-07-10", body.Days[0].Date)
	assert.True(t, body.Days[0].Occupied)
	assert.Equal(t, resID.String(), body.Days[0].ReservationID)
	assert.False(t, body.Days[1].Occupied)
	assert.Empty(t, body.Days[1].ReservationID)
}

func TestGetCalendar_requiresRange(t *testing.T) {
	cabinID := uuid.New()
	h := newHTTPHandler(handler.Deps{Reservations: &mockReservationServicer{}})

	for _, tc := range []struct {
		query string
		want  string
	}{
		{"to=2024-07-11", "from is required"},
		{"from=2024-07-10", "to is required"},
		{"from=2024-07-10&to=July", "invalid to"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, fmt.Sprintf("/cabins/%s/calendar?%s", cabinID, tc.query), nil, nil)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tc.want, decode[errorBody](t, rec).Error.Message)
		})
	}
}
