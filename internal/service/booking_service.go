package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hotelbooking/internal/errors"
	"hotelbooking/internal/events"
	"hotelbooking/internal/lock"
	"hotelbooking/internal/logger"
	"hotelbooking/internal/metrics"
	"hotelbooking/internal/model"
	"hotelbooking/internal/repository"
)

const (
	// lockWaitTimeout bounds how long a write waits for its hotel.
	lockWaitTimeout = 5 * time.Second
	// maxLockAttempts bounds retries when a concurrent update moved the booking to another hotel.
	maxLockAttempts = 3
	// defaultPublishTimeout bounds one event delivery, broker retries included.
	defaultPublishTimeout = 5 * time.Second
)

// BookingService handles booking operations and the hotel conflict check.
type BookingService interface {
	CheckAvailability(ctx context.Context, hotel string, start, end time.Time, excludeID uuid.UUID) error
	CreateBooking(ctx context.Context, hotel string, start, end time.Time, userID uuid.UUID) (*model.Booking, error)
	UpdateBookingByID(ctx context.Context, id uuid.UUID, patch model.BookingPatch) (*model.Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error
	ListBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
	GetBookingByID(ctx context.Context, id, userID uuid.UUID) (*model.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	locker      lock.HotelLocker
	publisher   events.Publisher
	metrics     *metrics.Metrics
	log         *logger.Logger

	publishTimeout time.Duration
}

// NewBookingService creates a new booking service. A nil publisher drops events,
// a nil logger discards output and nil metrics record nothing.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	locker lock.HotelLocker,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *logger.Logger,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &bookingService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		locker:      locker,
		publisher:   publisher,
		metrics:     m,
		log:         log,

		publishTimeout: defaultPublishTimeout,
	}
}

// CheckAvailability fails with ErrInvalidRange or ErrBookingConflict. It never writes.
func (s *bookingService) CheckAvailability(ctx context.Context, hotel string, start, end time.Time, excludeID uuid.UUID) error {
	return checkAvailability(ctx, s.bookingRepo, hotel, start.UTC(), end.UTC(), excludeID)
}

func checkAvailability(ctx context.Context, repo repository.BookingRepository, hotel string, start, end time.Time, excludeID uuid.UUID) error {
	if start.After(end) {
		return errors.ErrInvalidRange
	}

	overlapping, err := repo.FindOverlapping(ctx, hotel, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("find overlapping bookings: %w", err)
	}
	if len(overlapping) > 0 {
		return errors.ErrBookingConflict
	}
	return nil
}

// CreateBooking checks the interval and persists the booking under the hotel lock.
func (s *bookingService) CreateBooking(ctx context.Context, hotel string, start, end time.Time, userID uuid.UUID) (*model.Booking, error) {
	booking := &model.Booking{
		Hotel:     hotel,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		UserID:    userID,
	}

	// Reject bad ranges before touching the lock or the database
	if booking.StartDate.After(booking.EndDate) {
		s.metrics.BookingOutcome("create", metrics.OutcomeInvalidRange)
		return nil, errors.ErrInvalidRange
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find booking owner: %w", err)
	}

	err := s.withHotelLock(ctx, hotel, func() error {
		return s.bookingRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.BookingRepository) error {
			if err := checkAvailability(ctx, txRepo, booking.Hotel, booking.StartDate, booking.EndDate, uuid.Nil); err != nil {
				return err
			}
			return txRepo.Create(ctx, booking)
		})
	})
	if err != nil {
		s.recordFailure("create", err)
		return nil, wrapUnexpected("create booking", err)
	}

	s.metrics.BookingOutcome("create", metrics.OutcomeCreated)
	s.log.Info("booking created",
		"booking_id", booking.ID,
		"hotel", booking.Hotel,
		"user_id", booking.UserID,
	)
	s.publish(ctx, events.NewBookingEvent(events.BookingCreated, booking))
	return booking, nil
}

// UpdateBookingByID merges patch into the stored booking and re-runs the check without it.
func (s *bookingService) UpdateBookingByID(ctx context.Context, id uuid.UUID, patch model.BookingPatch) (*model.Booking, error) {
	if patch.IsEmpty() {
		return nil, errors.ErrEmptyUpdate
	}

	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		existing, err := s.findBooking(ctx, s.bookingRepo, id)
		if err != nil {
			return nil, err
		}

		hotel := patch.Apply(*existing).Hotel
		updated, err := s.updateUnderLock(ctx, id, hotel, patch)
		if errors.Is(err, errHotelMoved) {
			continue
		}
		if err != nil {
			s.recordFailure("update", err)
			return nil, wrapUnexpected("update booking", err)
		}

		s.metrics.BookingOutcome("update", metrics.OutcomeUpdated)
		s.log.Info("booking updated", "booking_id", updated.ID, "hotel", updated.Hotel)
		s.publish(ctx, events.NewBookingEvent(events.BookingUpdated, updated))
		return updated, nil
	}
	return nil, errors.ErrLockTimeout
}

// errHotelMoved signals that the booking changed hotel between lookup and lock.
var errHotelMoved = fmt.Errorf("booking moved to another hotel")

func (s *bookingService) updateUnderLock(ctx context.Context, id uuid.UUID, hotel string, patch model.BookingPatch) (*model.Booking, error) {
	var updated model.Booking
	err := s.withHotelLock(ctx, hotel, func() error {
		return s.bookingRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.BookingRepository) error {
			existing, err := s.findBooking(ctx, txRepo, id)
			if err != nil {
				return err
			}

			updated = patch.Apply(*existing)
			updated.StartDate = updated.StartDate.UTC()
			updated.EndDate = updated.EndDate.UTC()
			if updated.Hotel != hotel {
				return errHotelMoved
			}

			if err := checkAvailability(ctx, txRepo, updated.Hotel, updated.StartDate, updated.EndDate, id); err != nil {
				return err
			}
			return txRepo.Update(ctx, &updated)
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBooking removes a booking by id and publishes its last stored state.
func (s *bookingService) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	var removed *model.Booking
	err := s.bookingRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.BookingRepository) error {
		booking, err := s.findBooking(ctx, txRepo, id)
		if err != nil {
			return err
		}
		deleted, err := txRepo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return errors.ErrBookingNotFound
		}
		removed = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrBookingNotFound) {
			return err
		}
		s.metrics.BookingOutcome("delete", metrics.OutcomeError)
		return fmt.Errorf("delete booking: %w", err)
	}

	s.metrics.BookingOutcome("delete", metrics.OutcomeDeleted)
	s.log.Info("booking deleted", "booking_id", id, "hotel", removed.Hotel)
	s.publish(ctx, events.NewBookingEvent(events.BookingDeleted, removed))
	return nil
}

// ListBookings returns the bookings owned by userID, or ErrBookingsNotFound when there are none.
func (s *bookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	bookings, err := s.bookingRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if len(bookings) == 0 {
		return nil, errors.ErrBookingsNotFound
	}
	return bookings, nil
}

// GetBookingByID returns the booking only to its owner. Foreign bookings read as missing.
func (s *bookingService) GetBookingByID(ctx context.Context, id, userID uuid.UUID) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, s.bookingRepo, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, errors.ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) findBooking(ctx context.Context, repo repository.BookingRepository, id uuid.UUID) (*model.Booking, error) {
	booking, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return booking, nil
}

// withHotelLock runs fn while holding the hotel lock and releases it before returning.
func (s *bookingService) withHotelLock(ctx context.Context, hotel string, fn func() error) error {
	waitCtx, cancel := context.WithTimeout(ctx, lockWaitTimeout)
	defer cancel()

	start := time.Now()
	unlock, err := s.locker.Lock(waitCtx, hotel)
	s.metrics.LockWait(time.Since(start))
	if err != nil {
		s.log.Warn("hotel lock not acquired", "hotel", hotel, "error", err)
		return fmt.Errorf("%w: %v", errors.ErrLockTimeout, err)
	}
	defer unlock()

	return fn()
}

func (s *bookingService) recordFailure(operation string, err error) {
	switch {
	case errors.Is(err, errors.ErrBookingConflict):
		s.metrics.BookingOutcome(operation, metrics.OutcomeConflict)
	case errors.Is(err, errors.ErrInvalidRange):
		s.metrics.BookingOutcome(operation, metrics.OutcomeInvalidRange)
	case errors.IsDomain(err):
	default:
		s.metrics.BookingOutcome(operation, metrics.OutcomeError)
	}
}

// publish runs after commit and after the hotel lock is released. Delivery
// failures are logged and never undo the write.
func (s *bookingService) publish(ctx context.Context, event events.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("publish booking event failed",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}

// wrapUnexpected adds context to infrastructure errors and passes domain errors through as is.
func wrapUnexpected(op string, err error) error {
	if errors.IsDomain(err) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
