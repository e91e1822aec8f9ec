package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/middleware"
)

// RegisterCustomer registers the signed-in guest's cart, checkout and
// bookings.  Both roles may book.
func RegisterCustomer(api *echo.Group, d Deps) {
	h := d.Customer
	mw := []echo.MiddlewareFunc{middleware.RequireAuth()}

	api.GET("/cart", h.GetCart, mw...)
	api.POST("/cart", h.AddToCart, mw...)
	api.DELETE("/cart/:id", h.RemoveFromCart, mw...)
	api.POST("/cart/checkout", h.Checkout, mw...)

	api.POST("/payments/order", h.CreateOrder, mw...)
	api.POST("/payments/verify", h.VerifyPayment, mw...)

	api.GET("/bookings", h.ListBookings, mw...)
	api.GET("/bookings/:id", h.GetBooking, mw...)
}
