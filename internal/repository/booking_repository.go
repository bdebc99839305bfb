package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotelbooking/internal/model"
)

// BookingRepository defines booking persistence operations.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	Update(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
	// FindOverlapping returns bookings of hotel with start < end AND end > start,
	// skipping excludeID when it is not uuid.Nil. Inside a transaction the rows are locked.
	FindOverlapping(ctx context.Context, hotel string, start, end time.Time, excludeID uuid.UUID) ([]model.Booking, error)
	// Delete removes the booking and reports whether a row was affected.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookingRepository) error) error
}

type bookingRepository struct {
	db   *gorm.DB
	inTx bool
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a booking and loads its owner.
func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(booking).Error; err != nil {
		return err
	}
	return r.loadUser(ctx, booking)
}

// Update writes the conflict relevant fields, stamps updated_at and reloads the owner.
func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	db := r.db.WithContext(ctx)
	now := db.NowFunc()
	err := db.Model(&model.Booking{ID: booking.ID}).
		Updates(map[string]interface{}{
			"hotel":      booking.Hotel,
			"start_date": booking.StartDate,
			"end_date":   booking.EndDate,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}
	booking.UpdatedAt = now
	return r.loadUser(ctx, booking)
}

// FindByID finds a booking by ID together with its owner.
func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByUserID lists the bookings owned by a user, earliest first.
func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := r.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("start_date ASC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, hotel string, start, end time.Time, excludeID uuid.UUID) ([]model.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("hotel = ? AND start_date < ? AND end_date > ?", hotel, end, start)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var bookings []model.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Booking{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// WithTransaction executes a function within a database transaction.
func (r *bookingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &bookingRepository{db: tx, inTx: true}
		return fn(ctx, txRepo)
	})
}

func (r *bookingRepository) loadUser(ctx context.Context, booking *model.Booking) error {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", booking.UserID).First(&user).Error; err != nil {
		return err
	}
	booking.User = &user
	return nil
}
