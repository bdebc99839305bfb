package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidRange is returned when a booking starts after it ends.
	ErrInvalidRange = errors.New("start date can't be later than end date")
	// ErrBookingConflict is returned when the hotel is already booked for an overlapping period.
	ErrBookingConflict = errors.New("this hotel is already booked during the selected time period")
	// ErrBookingNotFound is returned when a booking does not exist or is not visible to the caller.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookingsNotFound is returned when the caller owns no bookings.
	ErrBookingsNotFound = errors.New("bookings not found")
	// ErrEmptyUpdate is returned when an update carries none of hotel, startDate or endDate.
	ErrEmptyUpdate = errors.New("nothing to update: provide hotel, startDate or endDate")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when registering an e-mail that is taken.
	ErrUserAlreadyExists = errors.New("user with such e-mail exists")
	// ErrInvalidCredentials is returned when e-mail or password is wrong.
	ErrInvalidCredentials = errors.New("wrong e-mail or password")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or revoked.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrForeignAccount is returned when a caller targets an account other than their own.
	ErrForeignAccount = errors.New("only your own account can be changed")
	// ErrLockTimeout is returned when the hotel lock could not be acquired in time.
	ErrLockTimeout = errors.New("hotel is busy, try again")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var mappings = []struct {
	err    error
	status int
	code   string
}{
	{ErrInvalidRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
	{ErrBookingConflict, http.StatusBadRequest, "BOOKING_CONFLICT"},
	{ErrEmptyUpdate, http.StatusBadRequest, "EMPTY_UPDATE"},
	{ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{ErrBookingsNotFound, http.StatusNotFound, "BOOKINGS_NOT_FOUND"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrUserAlreadyExists, http.StatusBadRequest, "USER_ALREADY_EXISTS"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrForeignAccount, http.StatusForbidden, "FORBIDDEN"},
	{ErrLockTimeout, http.StatusServiceUnavailable, "HOTEL_BUSY"},
}

// MapErrorToHTTP maps domain errors, including wrapped ones, to HTTP errors.
// Anything unknown becomes a 500 without leaking its message.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "an unexpected error occurred", "INTERNAL_ERROR")
}

// IsDomain reports whether err maps to a non-5xx response.
func IsDomain(err error) bool {
	return MapErrorToHTTP(err).StatusCode < http.StatusInternalServerError
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
