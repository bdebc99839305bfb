package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hotelbooking/internal/model"
	"hotelbooking/internal/service"
)

// BookingHandler handles booking endpoints.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest represents a booking request. UserID defaults to the caller.
type CreateBookingRequest struct {
	Hotel     string `json:"hotel" validate:"required"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	UserID    string `json:"userId" validate:"omitempty,uuid"`
}

// UpdateBookingRequest carries the fields to change. Absent fields keep their value.
type UpdateBookingRequest struct {
	Hotel     *string `json:"hotel" validate:"omitempty,min=1"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// AvailabilityResponse reports whether a hotel is free for the interval.
type AvailabilityResponse struct {
	Hotel     string    `json:"hotel"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Available bool      `json:"available"`
}

// List godoc
// @Summary List the caller's bookings
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Booking
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	bookings, err := h.bookingService.ListBookings(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, bookings)
}

// Get godoc
// @Summary Get one of the caller's bookings
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} model.Booking
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	booking, err := h.bookingService.GetBookingByID(c.Request().Context(), id, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, booking)
}

// Create godoc
// @Summary Book a hotel
// @Tags booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Booking data"
// @Success 201 {object} model.Booking
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req CreateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return err
	}

	if req.UserID != "" {
		// validated as uuid above
		userID = uuid.MustParse(req.UserID)
	}

	booking, err := h.bookingService.CreateBooking(c.Request().Context(), req.Hotel, start, end, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, booking)
}

// Update godoc
// @Summary Change a booking
// @Tags booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body UpdateBookingRequest true "Fields to change"
// @Success 201 {object} model.Booking
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /bookings/{id} [patch]
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patch := model.BookingPatch{Hotel: req.Hotel}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return badRequest(err.Error(), "INVALID_DATE")
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return badRequest(err.Error(), "INVALID_DATE")
		}
		patch.EndDate = &end
	}

	booking, err := h.bookingService.UpdateBookingByID(c.Request().Context(), id, patch)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, booking)
}

// Delete godoc
// @Summary Cancel a booking
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.bookingService.DeleteBooking(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "booking deleted"})
}

// Availability godoc
// @Summary Check whether a hotel is free
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Param hotel query string true "Hotel"
// @Param startDate query string true "Start (ISO-8601)"
// @Param endDate query string true "End (ISO-8601)"
// @Success 200 {object} AvailabilityResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /bookings/availability [get]
func (h *BookingHandler) Availability(c echo.Context) error {
	hotel := c.QueryParam("hotel")
	if hotel == "" {
		return badRequest("hotel is required", "VALIDATION_ERROR")
	}

	start, end, err := parseRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return err
	}

	resp := AvailabilityResponse{Hotel: hotel, StartDate: start, EndDate: end, Available: true}
	err = h.bookingService.CheckAvailability(c.Request().Context(), hotel, start, end, uuid.Nil)
	switch {
	case err == nil:
	case isConflict(err):
		resp.Available = false
	default:
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func parseRange(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := parseDate(startValue)
	if err != nil {
		return time.Time{}, time.Time{}, badRequest(err.Error(), "INVALID_DATE")
	}
	end, err := parseDate(endValue)
	if err != nil {
		return time.Time{}, time.Time{}, badRequest(err.Error(), "INVALID_DATE")
	}
	return start, end, nil
}
