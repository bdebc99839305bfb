package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelbooking/internal/auth"
	"hotelbooking/internal/errors"
	"hotelbooking/internal/model"
)

func setupBookingRoutes(svc *MockBookingService, claims *auth.Claims) *echo.Echo {
	e := newTestEcho(claims)
	h := NewBookingHandler(svc)
	e.GET("/bookings", h.List)
	e.GET("/bookings/availability", h.Availability)
	e.GET("/bookings/:id", h.Get)
	e.POST("/bookings", h.Create)
	e.PATCH("/bookings/:id", h.Update)
	e.DELETE("/bookings/:id", h.Delete)
	return e
}

func TestBookingHandler_Create(t *testing.T) {
	caller := uuid.New()
	other := uuid.New()
	claims := &auth.Claims{UserID: caller.String(), Email: "guest@mail.com"}
	start := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		body         string
		setupMock    func(*MockBookingService)
		expectedCode int
		expectedErr  string
	}{
		{
			name: "created for caller",
			body: `{"hotel":"Hotel A","startDate":"2024-12-01","endDate":"2024-12-05T00:00:00Z"}`,
			setupMock: func(m *MockBookingService) {
				m.On("CreateBooking", mock.Anything, "Hotel A", start, end, caller).
					Return(&model.Booking{ID: uuid.New(), Hotel: "Hotel A", StartDate: start, EndDate: end, UserID: caller}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "explicit user id",
			body: fmt.Sprintf(`{"hotel":"Hotel A","startDate":"2024-12-01","endDate":"2024-12-05","userId":"%s"}`, other),
			setupMock: func(m *MockBookingService) {
				m.On("CreateBooking", mock.Anything, "Hotel A", start, end, other).
					Return(&model.Booking{ID: uuid.New(), Hotel: "Hotel A", StartDate: start, EndDate: end, UserID: other}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "conflict",
			body: `{"hotel":"Hotel A","startDate":"2024-12-01","endDate":"2024-12-05"}`,
			setupMock: func(m *MockBookingService) {
				m.On("CreateBooking", mock.Anything, "Hotel A", start, end, caller).Return(nil, errors.ErrBookingConflict)
			},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "BOOKING_CONFLICT",
		},
		{
			name: "invalid range",
			body: `{"hotel":"Hotel A","startDate":"2024-12-05","endDate":"2024-12-01"}`,
			setupMock: func(m *MockBookingService) {
				m.On("CreateBooking", mock.Anything, "Hotel A", end, start, caller).Return(nil, errors.ErrInvalidRange)
			},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "INVALID_DATE_RANGE",
		},
		{
			name:         "missing hotel",
			body:         `{"startDate":"2024-12-01","endDate":"2024-12-05"}`,
			setupMock:    func(*MockBookingService) {},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "VALIDATION_ERROR",
		},
		{
			name:         "bad date",
			body:         `{"hotel":"Hotel A","startDate":"next week","endDate":"2024-12-05"}`,
			setupMock:    func(*MockBookingService) {},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "INVALID_DATE",
		},
		{
			name: "hotel busy",
			body: `{"hotel":"Hotel A","startDate":"2024-12-01","endDate":"2024-12-05"}`,
			setupMock: func(m *MockBookingService) {
				m.On("CreateBooking", mock.Anything, "Hotel A", start, end, caller).
					Return(nil, fmt.Errorf("%w: context deadline exceeded", errors.ErrLockTimeout))
			},
			expectedCode: http.StatusServiceUnavailable,
			expectedErr:  "HOTEL_BUSY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingService)
			tt.setupMock(svc)

			rec := doRequest(setupBookingRoutes(svc, claims), http.MethodPost, "/bookings", tt.body)

			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			if tt.expectedErr != "" {
				assert.Equal(t, tt.expectedErr, decodeError(t, rec).Code)
			} else {
				var booking model.Booking
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
				assert.Equal(t, "Hotel A", booking.Hotel)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestBookingHandler_Update(t *testing.T) {
	claims := &auth.Claims{UserID: uuid.New().String()}
	id := uuid.New()
	end := time.Date(2024, time.December, 9, 0, 0, 0, 0, time.UTC)
	hotel := "Hotel B"

	tests := []struct {
		name         string
		path         string
		body         string
		setupMock    func(*MockBookingService)
		expectedCode int
		expectedErr  string
	}{
		{
			name: "partial update",
			path: "/bookings/" + id.String(),
			body: `{"hotel":"Hotel B","endDate":"2024-12-09"}`,
			setupMock: func(m *MockBookingService) {
				m.On("UpdateBookingByID", mock.Anything, id, model.BookingPatch{Hotel: &hotel, EndDate: &end}).
					Return(&model.Booking{ID: id, Hotel: hotel, EndDate: end}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "empty body",
			path: "/bookings/" + id.String(),
			body: `{}`,
			setupMock: func(m *MockBookingService) {
				m.On("UpdateBookingByID", mock.Anything, id, model.BookingPatch{}).Return(nil, errors.ErrEmptyUpdate)
			},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "EMPTY_UPDATE",
		},
		{
			name: "unknown booking",
			path: "/bookings/" + id.String(),
			body: `{"hotel":"Hotel B"}`,
			setupMock: func(m *MockBookingService) {
				m.On("UpdateBookingByID", mock.Anything, id, model.BookingPatch{Hotel: &hotel}).Return(nil, errors.ErrBookingNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedErr:  "BOOKING_NOT_FOUND",
		},
		{
			name:         "invalid id",
			path:         "/bookings/not-a-uuid",
			body:         `{"hotel":"Hotel B"}`,
			setupMock:    func(*MockBookingService) {},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "INVALID_UUID",
		},
		{
			name:         "blank hotel",
			path:         "/bookings/" + id.String(),
			body:         `{"hotel":""}`,
			setupMock:    func(*MockBookingService) {},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingService)
			tt.setupMock(svc)

			rec := doRequest(setupBookingRoutes(svc, claims), http.MethodPatch, tt.path, tt.body)

			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			if tt.expectedErr != "" {
				assert.Equal(t, tt.expectedErr, decodeError(t, rec).Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestBookingHandler_Reads(t *testing.T) {
	caller := uuid.New()
	claims := &auth.Claims{UserID: caller.String()}
	id := uuid.New()

	t.Run("list", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("ListBookings", mock.Anything, caller).Return([]model.Booking{{ID: id, Hotel: "Hotel A", UserID: caller}}, nil)

		rec := doRequest(setupBookingRoutes(svc, claims), http.MethodGet, "/bookings", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var bookings []model.Booking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bookings))
		assert.Len(t, bookings, 1)
	})

	t.Run("list empty", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("ListBookings", mock.Anything, caller).Return(nil, errors.ErrBookingsNotFound)

		rec := doRequest(setupBookingRoutes(svc, claims), http.MethodGet, "/bookings", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "BOOKINGS_NOT_FOUND", decodeError(t, rec).Code)
	})

	t.Run("get", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("GetBookingByID", mock.Anything, id, caller).Return(&model.Booking{ID: id, Hotel: "Hotel A", UserID: caller}, nil)

		rec := doRequest(setupBookingRoutes(svc, claims), http.MethodGet, "/bookings/"+id.String(), "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"userId":"`+caller.String()+`"`)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("DeleteBooking", mock.Anything, id).Return(nil).Once()
		svc.On("DeleteBooking", mock.Anything, id).Return(errors.ErrBookingNotFound)
		e := setupBookingRoutes(svc, claims)

		rec := doRequest(e, http.MethodDelete, "/bookings/"+id.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(e, http.MethodDelete, "/bookings/"+id.String(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unexpected error hides detail", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("ListBookings", mock.Anything, caller).Return(nil, fmt.Errorf("list bookings: %w", assert.AnError))

		rec := doRequest(setupBookingRoutes(svc, claims), http.MethodGet, "/bookings", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})

	t.Run("missing claims", func(t *testing.T) {
		rec := doRequest(setupBookingRoutes(new(MockBookingService), nil), http.MethodGet, "/bookings", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBookingHandler_Availability(t *testing.T) {
	claims := &auth.Claims{UserID: uuid.New().String()}
	start := time.Date(2024, time.December, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.December, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		query         string
		serviceErr    error
		callsService  bool
		expectedCode  int
		wantAvailable bool
	}{
		{"free", "?hotel=Hotel+B&startDate=2024-12-03&endDate=2024-12-06", nil, true, http.StatusOK, true},
		{"taken", "?hotel=Hotel+A&startDate=2024-12-03&endDate=2024-12-06", errors.ErrBookingConflict, true, http.StatusOK, false},
		{"inverted", "?hotel=Hotel+A&startDate=2024-12-06&endDate=2024-12-03", errors.ErrInvalidRange, true, http.StatusBadRequest, false},
		{"missing hotel", "?startDate=2024-12-03&endDate=2024-12-06", nil, false, http.StatusBadRequest, false},
		{"missing date", "?hotel=Hotel+A&startDate=2024-12-03", nil, false, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingService)
			if tt.callsService {
				svc.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, uuid.Nil).Return(tt.serviceErr)
			}

			rec := doRequest(setupBookingRoutes(svc, claims), http.MethodGet, "/bookings/availability"+tt.query, "")

			require.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			if tt.expectedCode == http.StatusOK {
				var resp AvailabilityResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantAvailable, resp.Available)
				if tt.wantAvailable {
					assert.True(t, start.Equal(resp.StartDate))
					assert.True(t, end.Equal(resp.EndDate))
				}
			}
			svc.AssertExpectations(t)
		})
	}
}
