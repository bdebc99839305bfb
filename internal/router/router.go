package router

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"hotelbooking/internal/auth"
	"hotelbooking/internal/errors"
	"hotelbooking/internal/handler"
	"hotelbooking/internal/logger"
	"hotelbooking/internal/metrics"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Booking *handler.BookingHandler
}

// Guard validates bearer tokens for the secured group.
type Guard struct {
	JWT        *auth.JWTService
	TokenStore auth.TokenStoreInterface
}

var errSessionEnded = stderrors.New("session has ended")

// Register wires routes and middleware.
func Register(e *echo.Echo, h Handlers, guard Guard, m *metrics.Metrics, log *logger.Logger) {
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler(e, log)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	if m != nil {
		e.Use(m.Middleware())
		e.GET("/metrics", m.Handler())
	}

	e.GET("/", handler.Hello)
	e.GET("/healthz", handler.Healthz)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Secured routes (require JWT authentication)
	secured := api.Group("", bearerGuard(guard))

	secured.POST("/auth/forgot", h.Auth.Forgot)
	secured.POST("/auth/logout", h.Auth.Logout)

	secured.GET("/user/current", h.User.Current)
	secured.PATCH("/user", h.User.Update)

	secured.GET("/bookings", h.Booking.List)
	secured.GET("/bookings/availability", h.Booking.Availability)
	secured.GET("/bookings/:id", h.Booking.Get)
	secured.POST("/bookings", h.Booking.Create)
	secured.PATCH("/bookings/:id", h.Booking.Update)
	secured.DELETE("/bookings/:id", h.Booking.Delete)
}

// bearerGuard parses tokens with the application's JWTService so claims land in the
// context as *auth.Claims, and rejects tokens blacklisted by logout.
func bearerGuard(guard Guard) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ContextKeyClaims,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := guard.JWT.ValidateToken(token)
			if err != nil {
				return nil, err
			}
			if claims.ID != "" {
				revoked, err := guard.TokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
				if err != nil {
					return nil, err
				}
				if revoked {
					return nil, errSessionEnded
				}
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			message := "invalid or expired token"
			switch {
			case errors.Is(err, echojwt.ErrJWTMissing):
				message = "authorization header missing"
			case errors.Is(err, errSessionEnded):
				message = "session has ended"
			}
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: message,
				Code:  "UNAUTHORIZED",
			})
		},
	})
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"duration_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
			}
			if v.Status >= http.StatusInternalServerError {
				log.Error("HTTP request failed", attrs...)
				return nil
			}
			log.Info("HTTP request completed", attrs...)
			return nil
		},
	})
}

// errorHandler logs the cause of 5xx responses and renders everything through echo's default handler.
func errorHandler(e *echo.Echo, log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !stderrors.As(err, &he) {
			he = echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
				Error: "an unexpected error occurred",
				Code:  "INTERNAL_ERROR",
			}).SetInternal(err)
		}

		if he.Code >= http.StatusInternalServerError {
			cause := err
			if he.Internal != nil {
				cause = he.Internal
			}
			log.Error("request failed",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"path", c.Path(),
				"error", cause,
			)
		}

		if msg, ok := he.Message.(string); ok {
			he = echo.NewHTTPError(he.Code, errors.ErrorResponse{Error: msg, Code: statusCode(he.Code)})
		}
		e.DefaultHTTPErrorHandler(he, c)
	}
}

// statusCode turns 404 into NOT_FOUND and so on.
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
