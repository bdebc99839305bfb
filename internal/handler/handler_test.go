package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelbooking/internal/auth"
	"hotelbooking/internal/errors"
	"hotelbooking/internal/model"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// newTestEcho returns an echo instance that authenticates every request as claims.
func newTestEcho(claims *auth.Claims) *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	if claims != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(ContextKeyClaims, claims)
				return next(c)
			}
		})
	}
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// MockBookingService is a mock implementation of service.BookingService.
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CheckAvailability(ctx context.Context, hotel string, start, end time.Time, excludeID uuid.UUID) error {
	return m.Called(ctx, hotel, start, end, excludeID).Error(0)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, hotel string, start, end time.Time, userID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, hotel, start, end, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateBookingByID(ctx context.Context, id uuid.UUID, patch model.BookingPatch) (*model.Booking, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingService) GetBookingByID(ctx context.Context, id, userID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name string) (auth.TokenPair, *model.User, error) {
	args := m.Called(ctx, email, password, name)
	user, _ := args.Get(1).(*model.User)
	return args.Get(0).(auth.TokenPair), user, args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (auth.TokenPair, *model.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(1).(*model.User)
	return args.Get(0).(auth.TokenPair), user, args.Error(2)
}

func (m *MockAuthService) Forgot(ctx context.Context, email, password string) (auth.TokenPair, *model.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(1).(*model.User)
	return args.Get(0).(auth.TokenPair), user, args.Error(2)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	return m.Called(ctx, access, refreshToken).Error(0)
}

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetCurrent(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateName(ctx context.Context, email, name string) (*model.User, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
