package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/service"
)

// PageHandler answers page navigations with JSON view models.  Access
// rules were already applied by the route guard.
type PageHandler struct {
	Villas     *service.VillaService
	CartSvc    *service.CartService
	BookingSvc *service.BookingService
}

func NewPageHandler(villas *service.VillaService, cart *service.CartService, bookings *service.BookingService) *PageHandler {
	return &PageHandler{Villas: villas, CartSvc: cart, BookingSvc: bookings}
}

// page renders name with the session summary and any extra fields.
func page(c echo.Context, name string, extra echo.Map) error {
	out := echo.Map{"page": name, "auth": viewAuth(middleware.StoreFrom(c).State())}
	for k, v := range extra {
		out[k] = v
	}
	return c.JSON(http.StatusOK, out)
}

// loginRequired renders pages whose content needs an account; the browser
// shows the login modal instead.
func loginRequired(c echo.Context, name string) error {
	return page(c, name, echo.Map{"loginRequired": true})
}

func errText(err error) string {
	var se *service.Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// Home: GET /
func (h *PageHandler) Home(c echo.Context) error {
	v := middleware.StoreFrom(c).State().Villas
	return page(c, "home", echo.Map{"search": echo.Map{
		"query":   v.Query,
		"villas":  nonNil(v.Villas),
		"loading": v.Loading,
		"error":   v.Error,
	}})
}

// Browse: GET /browse
func (h *PageHandler) Browse(c echo.Context) error {
	villas, err := h.Villas.Browse(c.Request().Context(), middleware.StoreFrom(c))
	if err != nil {
		return page(c, "browse", echo.Map{"villas": []model.Villa{}, "error": errText(err)})
	}
	return page(c, "browse", echo.Map{"villas": nonNil(villas)})
}

// Villa: GET /villas/:id
func (h *PageHandler) Villa(c echo.Context) error {
	st := middleware.StoreFrom(c)
	v, err := h.Villas.Get(c.Request().Context(), st, c.Param("id"))
	if err != nil {
		return respond(c, err)
	}
	extra := villaDetail(v)
	extra["isOwner"] = v.OwnedBy(st.State().Auth.User)
	return page(c, "villa", extra)
}

// Cart: GET /cart.  A failed refresh still shows the last known items.
func (h *PageHandler) Cart(c echo.Context) error {
	if !signedIn(c) {
		return loginRequired(c, "cart")
	}
	st := middleware.StoreFrom(c)
	extra := echo.Map{}
	if _, err := h.CartSvc.Fetch(c.Request().Context(), st); err != nil {
		extra["error"] = errText(err)
	}
	extra["cart"] = st.State().Cart.View()
	return page(c, "cart", extra)
}

// Bookings: GET /bookings
func (h *PageHandler) Bookings(c echo.Context) error {
	if !signedIn(c) {
		return loginRequired(c, "bookings")
	}
	list, err := h.BookingSvc.Mine(c.Request().Context(), middleware.StoreFrom(c))
	if err != nil {
		return page(c, "bookings", echo.Map{"bookings": []model.Booking{}, "error": errText(err)})
	}
	return page(c, "bookings", echo.Map{"bookings": list})
}

// Booking: GET /bookings/:id
func (h *PageHandler) Booking(c echo.Context) error {
	if !signedIn(c) {
		return loginRequired(c, "booking")
	}
	b, err := h.BookingSvc.Get(c.Request().Context(), middleware.StoreFrom(c), c.Param("id"))
	if err != nil {
		return respond(c, err)
	}
	return page(c, "booking", echo.Map{"booking": b})
}

// MyListings: GET /my-listings
func (h *PageHandler) MyListings(c echo.Context) error {
	if !signedIn(c) {
		return loginRequired(c, "my-listings")
	}
	villas, err := h.Villas.MyListings(c.Request().Context(), middleware.StoreFrom(c))
	if err != nil {
		return page(c, "my-listings", echo.Map{"villas": []model.Villa{}, "error": errText(err)})
	}
	return page(c, "my-listings", echo.Map{"villas": nonNil(villas)})
}

// Welcome: GET /welcome is the role selection step.
func (h *PageHandler) Welcome(c echo.Context) error {
	return page(c, "welcome", echo.Map{"roles": []string{model.RoleUser.String(), model.RoleHost.String()}})
}

// HostVilla: GET /host/villa is the listing form.  ?edit=<id> preloads an
// existing listing.
func (h *PageHandler) HostVilla(c echo.Context) error {
	extra := echo.Map{"amenities": service.Amenities, "maxCapacity": service.MaxCapacity}
	if id := c.QueryParam("edit"); id != "" {
		v, err := h.Villas.Get(c.Request().Context(), middleware.StoreFrom(c), id)
		if err != nil {
			return respond(c, err)
		}
		extra["villa"] = v
	}
	return page(c, "host-villa", extra)
}
