package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"hotelbooking/internal/service"
)

// UserHandler bundles profile handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateUserRequest renames a user. Email defaults to the caller's.
type UpdateUserRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name" validate:"required"`
}

// Current godoc
// @Summary Get the signed-in user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/current [get]
func (h *UserHandler) Current(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetCurrent(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Update godoc
// @Summary Update user name
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateUserRequest true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user [patch]
func (h *UserHandler) Update(c echo.Context) error {
	if _, err := claimsFrom(c); err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	email, err := ownEmail(c, req.Email)
	if err != nil {
		return err
	}

	user, err := h.svc.UpdateName(c.Request().Context(), email, req.Name)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, user)
}
