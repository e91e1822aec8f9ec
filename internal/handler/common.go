package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/service"
	"github.com/iliyamo/villa-web/internal/store"
)

// Validator adapts go-playground/validator to echo.  Field names in
// messages use the json tag.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid body"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}

// bindValid decodes the body into dst and runs its validate tags.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &service.Error{Status: http.StatusBadRequest, Message: "invalid body", Err: service.ErrInvalid}
	}
	if err := c.Validate(dst); err != nil {
		return &service.Error{Status: http.StatusBadRequest, Message: validationMessage(err), Err: service.ErrInvalid}
	}
	return nil
}

// respond writes err in the {"error": msg} shape.
func respond(c echo.Context, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		status := se.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, echo.Map{"error": se.Message})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// authView is the session summary returned to the browser.
type authView struct {
	User            any    `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Loading         bool   `json:"loading"`
	Phase           string `json:"phase"`
	Error           string `json:"error,omitempty"`
	CartCount       int    `json:"cartCount"`
}

func viewAuth(st store.State) authView {
	v := authView{
		IsAuthenticated: st.Auth.IsAuthenticated,
		Loading:         st.Auth.Loading,
		Phase:           st.Auth.Phase().String(),
		Error:           st.Auth.Error,
		CartCount:       len(st.Cart.View().Items),
	}
	if st.Auth.User != nil {
		v.User = st.Auth.User
	}
	return v
}

func signedIn(c echo.Context) bool {
	return middleware.StoreFrom(c).State().Auth.Phase() != store.PhaseUnauthenticated
}

// parseDay accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
