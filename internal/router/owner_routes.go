package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/model"
)

// RegisterOwner registers host listing management under /api/host.  All
// routes require a signed-in host.
func RegisterOwner(api *echo.Group, d Deps) {
	h := d.Owner
	mw := []echo.MiddlewareFunc{middleware.RequireAuth(), middleware.RequireRole(model.RoleHost)}

	api.GET("/host/my-listings", h.MyListings, mw...)
	api.POST("/host/villas", h.CreateVilla, mw...)
	api.PUT("/host/villas/:id", h.UpdateVilla, mw...)
	api.PATCH("/host/villas/:id", h.UpdateCapacity, mw...)
	api.DELETE("/host/villas/:id", h.DeleteVilla, mw...)
	api.POST("/host/villas/:id/unavailability", h.AddUnavailability, mw...)
}
