// Package service runs the store's asynchronous actions: each operation
// dispatches a pending action, calls the villa booking API with the
// session's credentials, and dispatches the outcome.  Failures are
// narrowed to a user-facing message and returned as *Error.
package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/store"
)

// ErrInvalid marks input rejected before any API call was made.
var ErrInvalid = errors.New("invalid input")

// Error is a failed operation with the status and message to show the user.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// fail narrows an API failure.  Backend rejections keep their status;
// transport failures surface as 502.
func fail(err error, fallback string) *Error {
	status := apiclient.StatusCode(err)
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &Error{Status: status, Message: apiclient.UserMessage(err, fallback), Err: err}
}

func invalid(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Err: ErrInvalid}
}

// client binds api to the session's backend cookies.
func client(api *apiclient.Client, st *store.Store) *apiclient.Client {
	return api.WithJar(st.CookieJar())
}
