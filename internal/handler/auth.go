package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/service"
	"github.com/iliyamo/villa-web/internal/store"
)

// AuthHandler serves sign-in, onboarding and sign-out.
type AuthHandler struct {
	Auth *service.AuthService
	Cart *service.CartService
}

func NewAuthHandler(a *service.AuthService, cart *service.CartService) *AuthHandler {
	return &AuthHandler{Auth: a, Cart: cart}
}

type roleReq struct {
	UserType string `json:"userType" validate:"required,oneof=user host"`
}

// Login: POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.Credentials
	if err := bindValid(c, &req); err != nil {
		return respond(c, err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	u, err := h.Auth.Login(c.Request().Context(), middleware.StoreFrom(c), req)
	if err != nil {
		return respond(c, err)
	}
	return h.signedIn(c, u)
}

// Signup: POST /api/auth/signup
func (h *AuthHandler) Signup(c echo.Context) error {
	var req service.Signup
	if err := bindValid(c, &req); err != nil {
		return respond(c, err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	u, err := h.Auth.Signup(c.Request().Context(), middleware.StoreFrom(c), req)
	if err != nil {
		return respond(c, err)
	}
	return h.signedIn(c, u)
}

// signedIn loads the cart of a fresh login and tells the browser where to
// go next: onboarding for a user without a role, home otherwise.
func (h *AuthHandler) signedIn(c echo.Context, u model.User) error {
	st := middleware.StoreFrom(c)
	next := "/"
	if !u.Role.Valid() {
		next = "/welcome"
	} else if _, err := h.Cart.Fetch(c.Request().Context(), st); err != nil {
		c.Logger().Warnf("cart after login: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "redirect": next})
}

// GoogleURL: GET /api/auth/google/url
func (h *AuthHandler) GoogleURL(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"url": h.Auth.GoogleAuthURL(uuid.NewString())})
}

// GoogleCallback: GET /auth/google/callback?code=...|error=...
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	st := middleware.StoreFrom(c)
	if c.QueryParam("error") != "" {
		h.Auth.CancelGoogle(st)
		return c.Redirect(http.StatusFound, "/")
	}
	u, err := h.Auth.LoginWithGoogle(c.Request().Context(), st, c.QueryParam("code"))
	if err != nil {
		st.Toast("error", service.MsgGoogleFailed)
		return c.Redirect(http.StatusFound, "/")
	}
	if !u.Role.Valid() {
		return c.Redirect(http.StatusFound, "/welcome")
	}
	return c.Redirect(http.StatusFound, "/")
}

// Role: PATCH /api/auth/role
func (h *AuthHandler) Role(c echo.Context) error {
	var req roleReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, err)
	}
	role := model.ParseRole(req.UserType)
	u, err := h.Auth.UpdateRole(c.Request().Context(), middleware.StoreFrom(c), role)
	if err != nil {
		return respond(c, err)
	}
	next := "/"
	if role == model.RoleHost {
		next = "/host/villa"
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "redirect": next})
}

// Logout: POST /api/auth/logout.  The session is cleared before the
// backend is told, so this never fails.
func (h *AuthHandler) Logout(c echo.Context) error {
	s := middleware.SessionFrom(c)
	h.Auth.Logout(c.Request().Context(), s.Store)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "redirect": "/"})
}

// Me: GET /api/me
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, viewAuth(middleware.StoreFrom(c).State()))
}

// Toasts: GET /api/toasts drains pending notifications.
func (h *AuthHandler) Toasts(c echo.Context) error {
	toasts := middleware.StoreFrom(c).DrainToasts()
	if toasts == nil {
		toasts = []store.Toast{}
	}
	return c.JSON(http.StatusOK, echo.Map{"toasts": toasts})
}
