package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hotelbooking/internal/model"
)

// EventType names a booking lifecycle change.
type EventType string

const (
	BookingCreated EventType = "booking.created"
	BookingUpdated EventType = "booking.updated"
	BookingDeleted EventType = "booking.deleted"
)

// BookingEvent is published after a booking write commits.
type BookingEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	Hotel      string    `json:"hotel,omitempty"`
	StartDate  time.Time `json:"start_date,omitzero"`
	EndDate    time.Time `json:"end_date,omitzero"`
	UserID     uuid.UUID `json:"user_id,omitzero"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewBookingEvent snapshots b. Deletions carry the last stored state.
func NewBookingEvent(t EventType, b *model.Booking) BookingEvent {
	ev := BookingEvent{
		ID:         uuid.New(),
		Type:       t,
		BookingID:  b.ID,
		Hotel:      b.Hotel,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
		UserID:     b.UserID,
		OccurredAt: time.Now().UTC(),
	}
	return ev
}

// Publisher delivers booking events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }
