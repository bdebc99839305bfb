package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelbooking/internal/auth"
	"hotelbooking/internal/errors"
	"hotelbooking/internal/model"
	"hotelbooking/internal/repository"
	"hotelbooking/internal/service"
)

type mockAuth struct {
	service.AuthService
	mock.Mock
}

func (m *mockAuth) Register(ctx context.Context, email, password, name string) (auth.TokenPair, *model.User, error) {
	args := m.Called(ctx, email, password, name)
	user, _ := args.Get(0).(*model.User)
	return auth.TokenPair{}, user, args.Error(1)
}

type mockUsers struct {
	repository.UserRepository
	mock.Mock
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

type mockBookings struct {
	service.BookingService
	mock.Mock
}

func (m *mockBookings) CreateBooking(ctx context.Context, hotel string, start, end time.Time, userID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, hotel, start, end, userID)
	booking, _ := args.Get(0).(*model.Booking)
	return booking, args.Error(1)
}

const fixture = `[
  {
    "email": "alice@mail.com", "password": "pass", "name": "Alice",
    "bookings": [
      {"hotel": "Hotel A", "startDate": "2024-12-01T00:00:00Z", "endDate": "2024-12-05T00:00:00Z"},
      {"hotel": "Hotel A", "startDate": "2024-12-03T00:00:00Z", "endDate": "2024-12-06T00:00:00Z"}
    ]
  },
  {
    "email": "bob@mail.com", "password": "pass", "name": "Bob",
    "bookings": [
      {"hotel": "Hotel B", "startDate": "2024-12-03T00:00:00Z", "endDate": "2024-12-06T00:00:00Z"}
    ]
  }
]`

func TestDecode(t *testing.T) {
	fixtures, err := Decode(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Len(t, fixtures[0].Bookings, 2)
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), fixtures[0].Bookings[0].StartDate.UTC())

	_, err = Decode(strings.NewReader(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestSeeder_Run(t *testing.T) {
	fixtures, err := Decode(strings.NewReader(fixture))
	require.NoError(t, err)

	alice := &model.User{ID: uuid.New(), Email: "alice@mail.com"}
	bob := &model.User{ID: uuid.New(), Email: "bob@mail.com"}

	authSvc := new(mockAuth)
	authSvc.On("Register", mock.Anything, "alice@mail.com", "pass", "Alice").Return(alice, nil)
	authSvc.On("Register", mock.Anything, "bob@mail.com", "pass", "Bob").Return(nil, errors.ErrUserAlreadyExists)

	users := new(mockUsers)
	users.On("FindByEmail", mock.Anything, "bob@mail.com").Return(bob, nil)

	bookings := new(mockBookings)
	bookings.On("CreateBooking", mock.Anything, "Hotel A", mock.Anything, mock.Anything, alice.ID).Return(&model.Booking{}, nil).Once()
	bookings.On("CreateBooking", mock.Anything, "Hotel A", mock.Anything, mock.Anything, alice.ID).Return(nil, errors.ErrBookingConflict).Once()
	bookings.On("CreateBooking", mock.Anything, "Hotel B", mock.Anything, mock.Anything, bob.ID).Return(&model.Booking{}, nil)

	res, err := NewSeeder(authSvc, users, bookings, nil).Run(context.Background(), fixtures)

	require.NoError(t, err)
	assert.Equal(t, Result{UsersCreated: 1, UsersExisting: 1, BookingsCreated: 2, BookingsSkipped: 1}, res)
	bookings.AssertExpectations(t)
}

func TestSeeder_Run_AbortsOnUnexpectedError(t *testing.T) {
	authSvc := new(mockAuth)
	authSvc.On("Register", mock.Anything, "alice@mail.com", "pass", "Alice").Return(nil, assert.AnError)

	_, err := NewSeeder(authSvc, new(mockUsers), new(mockBookings), nil).Run(context.Background(), []UserFixture{
		{Email: "alice@mail.com", Password: "pass", Name: "Alice"},
	})

	assert.ErrorIs(t, err, assert.AnError)
}
