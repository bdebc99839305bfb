package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"hotelbooking/internal/events"
	"hotelbooking/internal/lock"
	"hotelbooking/internal/model"
	"hotelbooking/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateName(ctx context.Context, email, name string) (*model.User, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) (*model.User, error) {
	args := m.Called(ctx, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID string, email string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, email, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// MockHotelLocker is a mock implementation of lock.HotelLocker.
type MockHotelLocker struct {
	mock.Mock
}

func (m *MockHotelLocker) Lock(ctx context.Context, hotel string) (lock.Unlock, error) {
	args := m.Called(ctx, hotel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(lock.Unlock), args.Error(1)
}

// memoryBookingRepository keeps bookings in a map. It follows the same overlap
// predicate as the SQL query and rolls back writes when the transaction fails.
type memoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]model.Booking
	users    map[uuid.UUID]*model.User
	queries  int
	failWith error
}

var _ repository.BookingRepository = (*memoryBookingRepository)(nil)

func newMemoryBookingRepository(users ...*model.User) *memoryBookingRepository {
	r := &memoryBookingRepository{
		bookings: make(map[uuid.UUID]model.Booking),
		users:    make(map[uuid.UUID]*model.User),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	if r.failWith != nil {
		return r.failWith
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.User = r.users[booking.UserID]
	stored := *booking
	stored.User = nil
	r.bookings[booking.ID] = stored
	return nil
}

func (r *memoryBookingRepository) Update(_ context.Context, booking *model.Booking) error {
	if _, ok := r.bookings[booking.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	booking.UpdatedAt = time.Now().UTC()
	booking.User = r.users[booking.UserID]
	stored := *booking
	stored.User = nil
	r.bookings[booking.ID] = stored
	return nil
}

func (r *memoryBookingRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	b.User = r.users[b.UserID]
	return &b, nil
}

func (r *memoryBookingRepository) FindByUserID(_ context.Context, userID uuid.UUID) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			b.User = r.users[b.UserID]
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *memoryBookingRepository) FindOverlapping(_ context.Context, hotel string, start, end time.Time, excludeID uuid.UUID) ([]model.Booking, error) {
	r.queries++
	var out []model.Booking
	for _, b := range r.bookings {
		if b.Hotel != hotel || b.ID == excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memoryBookingRepository) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.bookings[id]; !ok {
		return false, nil
	}
	delete(r.bookings, id)
	return true, nil
}

func (r *memoryBookingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.BookingRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[uuid.UUID]model.Booking, len(r.bookings))
	for id, b := range r.bookings {
		snapshot[id] = b
	}
	if err := fn(ctx, r); err != nil {
		r.bookings = snapshot
		return err
	}
	return nil
}
