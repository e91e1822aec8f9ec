package middleware

// identity.go holds the context accessors shared by the middleware and the
// handlers: the browser session placed on the echo context by Session.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/session"
	"github.com/iliyamo/villa-web/internal/store"
)

const (
	sessionKey = "session"
	mintedKey  = "session_minted"
)

// SessionFrom returns the browser session of the request.  It panics when
// the Session middleware did not run, which is a routing bug.
func SessionFrom(c echo.Context) *session.Session {
	return c.Get(sessionKey).(*session.Session)
}

// StoreFrom is shorthand for SessionFrom(c).Store.
func StoreFrom(c echo.Context) *store.Store { return SessionFrom(c).Store }

// userID returns the signed-in user id, or "guest".
func userID(c echo.Context) string {
	s, ok := c.Get(sessionKey).(*session.Session)
	if !ok {
		return "guest"
	}
	if u := s.Store.State().Auth.User; u != nil && u.ID != "" {
		return u.ID
	}
	return "guest"
}

// minted reports a session created by this request because it carried no
// valid cookie.
func minted(c echo.Context) bool {
	m, _ := c.Get(mintedKey).(bool)
	return m
}

// sessionID returns the browser session id, or "anon" before Session ran.
func sessionID(c echo.Context) string {
	if s, ok := c.Get(sessionKey).(*session.Session); ok {
		return s.ID
	}
	return "anon"
}
