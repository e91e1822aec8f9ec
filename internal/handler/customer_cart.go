package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/service"
)

// CustomerHandler serves the guest's cart, checkout and bookings.
type CustomerHandler struct {
	Cart     *service.CartService
	Villas   *service.VillaService
	Payments *service.PaymentService
	Bookings *service.BookingService
}

func NewCustomerHandler(cart *service.CartService, villas *service.VillaService, pay *service.PaymentService, bookings *service.BookingService) *CustomerHandler {
	return &CustomerHandler{Cart: cart, Villas: villas, Payments: pay, Bookings: bookings}
}

type addToCartReq struct {
	VillaID  string `json:"villa" validate:"required"`
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
	Guests   int    `json:"guests" validate:"required,min=1"`
}

// GetCart: GET /api/cart re-reads the server cart.
func (h *CustomerHandler) GetCart(c echo.Context) error {
	st := middleware.StoreFrom(c)
	if _, err := h.Cart.Fetch(c.Request().Context(), st); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, st.State().Cart.View())
}

// AddToCart: POST /api/cart.  The villa is loaded first so capacity and
// blocked dates are checked against current data.
func (h *CustomerHandler) AddToCart(c echo.Context) error {
	var req addToCartReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, err)
	}
	in, err := req.stay()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please select a valid date range."})
	}
	ctx := c.Request().Context()
	st := middleware.StoreFrom(c)
	villa, err := h.Villas.Get(ctx, st, req.VillaID)
	if err != nil {
		return respond(c, err)
	}
	if _, err := h.Cart.Add(ctx, st, villa, in); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, st.State().Cart.View())
}

func (r addToCartReq) stay() (model.AddToCart, error) {
	in, err := parseDay(r.CheckIn)
	if err != nil {
		return model.AddToCart{}, err
	}
	out, err := parseDay(r.CheckOut)
	if err != nil {
		return model.AddToCart{}, err
	}
	return model.AddToCart{VillaID: r.VillaID, CheckIn: in, CheckOut: out, Guests: r.Guests}, nil
}

// RemoveFromCart: DELETE /api/cart/:id
func (h *CustomerHandler) RemoveFromCart(c echo.Context) error {
	st := middleware.StoreFrom(c)
	if _, err := h.Cart.Remove(c.Request().Context(), st, c.Param("id")); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, st.State().Cart.View())
}

// Checkout: POST /api/cart/checkout books the cart without the gateway.
func (h *CustomerHandler) Checkout(c echo.Context) error {
	if err := h.Cart.Checkout(c.Request().Context(), middleware.StoreFrom(c)); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "redirect": "/bookings"})
}

// CreateOrder: POST /api/payments/order returns the checkout widget options.
func (h *CustomerHandler) CreateOrder(c echo.Context) error {
	opts, err := h.Payments.CreateOrder(c.Request().Context(), middleware.StoreFrom(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

// VerifyPayment: POST /api/payments/verify
func (h *CustomerHandler) VerifyPayment(c echo.Context) error {
	var req model.PaymentVerification
	if err := bindValid(c, &req); err != nil {
		return respond(c, err)
	}
	s := middleware.SessionFrom(c)
	if err := h.Payments.Verify(c.Request().Context(), s.Store, s.ID, req); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "redirect": "/bookings"})
}

// ListBookings: GET /api/bookings
func (h *CustomerHandler) ListBookings(c echo.Context) error {
	list, err := h.Bookings.Mine(c.Request().Context(), middleware.StoreFrom(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// GetBooking: GET /api/bookings/:id
func (h *CustomerHandler) GetBooking(c echo.Context) error {
	b, err := h.Bookings.Get(c.Request().Context(), middleware.StoreFrom(c), c.Param("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
