package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Hello godoc
// @Summary Greeting
// @Tags app
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func Hello(c echo.Context) error {
	return c.String(http.StatusOK, "Hello!")
}

// Healthz reports liveness.
func Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
