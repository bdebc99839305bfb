// Package seed loads users and their bookings from a JSON fixture through the
// regular services, so seeded data obeys the same conflict rules as live traffic.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"hotelbooking/internal/errors"
	"hotelbooking/internal/logger"
	"hotelbooking/internal/repository"
	"hotelbooking/internal/service"
)

// UserFixture is one user entry of the seed file.
type UserFixture struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Name     string           `json:"name"`
	Bookings []BookingFixture `json:"bookings"`
}

// BookingFixture is a booking owned by the enclosing user.
type BookingFixture struct {
	Hotel     string    `json:"hotel"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Result counts what a run did.
type Result struct {
	UsersCreated    int
	UsersExisting   int
	BookingsCreated int
	BookingsSkipped int
}

// Decode parses a fixture file.
func Decode(r io.Reader) ([]UserFixture, error) {
	var fixtures []UserFixture
	if err := json.NewDecoder(r).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("parse seed fixture: %w", err)
	}
	return fixtures, nil
}

// Seeder registers users and books their hotels.
type Seeder struct {
	auth     service.AuthService
	users    repository.UserRepository
	bookings service.BookingService
	log      *logger.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(auth service.AuthService, users repository.UserRepository, bookings service.BookingService, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{auth: auth, users: users, bookings: bookings, log: log}
}

// Run seeds every fixture. Existing users are reused, and bookings that conflict or
// carry an inverted range are skipped. Any other error aborts the run.
func (s *Seeder) Run(ctx context.Context, fixtures []UserFixture) (Result, error) {
	var res Result

	for _, f := range fixtures {
		_, user, err := s.auth.Register(ctx, f.Email, f.Password, f.Name)
		switch {
		case err == nil:
			res.UsersCreated++
		case errors.Is(err, errors.ErrUserAlreadyExists):
			res.UsersExisting++
			user, err = s.users.FindByEmail(ctx, f.Email)
			if err != nil {
				return res, fmt.Errorf("load existing user %s: %w", logger.RedactEmail(f.Email), err)
			}
		default:
			return res, fmt.Errorf("register %s: %w", logger.RedactEmail(f.Email), err)
		}

		for _, b := range f.Bookings {
			_, err := s.bookings.CreateBooking(ctx, b.Hotel, b.StartDate, b.EndDate, user.ID)
			switch {
			case err == nil:
				res.BookingsCreated++
			case errors.Is(err, errors.ErrBookingConflict), errors.Is(err, errors.ErrInvalidRange):
				res.BookingsSkipped++
				s.log.Warn("skipping booking",
					"hotel", b.Hotel,
					"user", logger.RedactEmail(f.Email),
					"reason", err.Error(),
				)
			default:
				return res, fmt.Errorf("book %s for %s: %w", b.Hotel, logger.RedactEmail(f.Email), err)
			}
		}
	}
	return res, nil
}
