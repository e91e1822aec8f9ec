package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/guard"
)

// RouteGuard evaluates the page access rules on every navigation.  A
// redirect answers 302; an undecidable request answers 503 with the
// loading message and a Retry-After so the browser polls.
func RouteGuard(g *guard.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := g.Check(StoreFrom(c).State(), c.Request().URL.Path)
			switch {
			case d.Pending:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "pending", "message": guard.MsgChecking})
			case d.Redirect != "":
				return c.Redirect(http.StatusFound, d.Redirect)
			}
			return next(c)
		}
	}
}
