package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is a reservation of a hotel for the closed interval [StartDate, EndDate].
// Two bookings of the same hotel conflict when each starts strictly before the other ends.
// Hotel names compare byte for byte, matching the per-hotel lock key.
type Booking struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Hotel     string    `json:"hotel" gorm:"type:varchar(255) COLLATE utf8mb4_0900_bin;size:255;not null;index:idx_bookings_hotel_range,priority:1"`
	StartDate time.Time `json:"startDate" gorm:"not null;index:idx_bookings_hotel_range,priority:2"`
	EndDate   time.Time `json:"endDate" gorm:"not null;index:idx_bookings_hotel_range,priority:3"`
	UserID    uuid.UUID `json:"userId" gorm:"type:char(36);not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Overlaps reports whether b strictly overlaps [start, end]. Touching endpoints do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}

// BookingPatch carries the optional fields of a partial booking update.
type BookingPatch struct {
	Hotel     *string
	StartDate *time.Time
	EndDate   *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p BookingPatch) IsEmpty() bool {
	return p.Hotel == nil && p.StartDate == nil && p.EndDate == nil
}

// Apply returns a copy of b with every present field of p replacing the stored one.
func (p BookingPatch) Apply(b Booking) Booking {
	if p.Hotel != nil {
		b.Hotel = *p.Hotel
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	return b
}
