package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger func(ctx context.Context) error

// Health reports liveness.  It returns "ok" as plain text.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready checks every named dependency and answers 503 if any is down.
func Ready(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		status, code := echo.Map{}, http.StatusOK
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		return c.JSON(code, status)
	}
}
