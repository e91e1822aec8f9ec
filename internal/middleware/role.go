package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/guard"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

// RequireAuth rejects API calls from signed-out sessions with 401, and
// from sessions that could not be restored yet with 503.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := StoreFrom(c).State()
			if !st.Hydrated {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": guard.MsgChecking})
			}
			if st.Auth.Phase() == store.PhaseUnauthenticated {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
			}
			return next(c)
		}
	}
}

// RequireRole allows only the listed roles.  It expects RequireAuth to
// have run first.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := StoreFrom(c).State().Auth.Role()
			for _, r := range roles {
				if r == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}
