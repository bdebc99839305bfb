package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hotelbooking/internal/auth"
	"hotelbooking/internal/errors"
)

// ContextKeyClaims is where the bearer guard stores the validated *auth.Claims.
const ContextKeyClaims = "user"

// MessageResponse is returned by endpoints without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}

func claimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ContextKeyClaims).(*auth.Claims)
	if !ok || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid or expired token",
			Code:  "UNAUTHORIZED",
		})
	}
	return claims, nil
}

func callerID(c echo.Context) (uuid.UUID, error) {
	claims, err := claimsFrom(c)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid or expired token",
			Code:  "UNAUTHORIZED",
		})
	}
	return id, nil
}

// ownEmail returns email, or the caller's e-mail when it is empty, and rejects
// any other account.
func ownEmail(c echo.Context, email string) (string, error) {
	claims, err := claimsFrom(c)
	if err != nil {
		return "", err
	}
	if email == "" {
		return claims.Email, nil
	}
	if !strings.EqualFold(email, claims.Email) {
		return "", serviceError(errors.ErrForeignAccount)
	}
	return email, nil
}

// serviceError converts a service error into an echo error carrying an ErrorResponse.
// The original error is kept as Internal so the error handler can log it.
func serviceError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	if httpErr.StatusCode >= http.StatusInternalServerError {
		he = he.SetInternal(err)
	}
	return he
}

func badRequest(message, code string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}
	return nil
}

func parseIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid id", "INVALID_UUID")
	}
	return id, nil
}

func isConflict(err error) bool {
	return errors.Is(err, errors.ErrBookingConflict)
}
