package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/session"
	"github.com/iliyamo/villa-web/internal/utils"
)

// CookieName is the browser cookie carrying the signed session id.
const CookieName = "villa_sid"

// SessionOptions configure the session cookie.
type SessionOptions struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// Session resolves the request's browser session from its signed cookie,
// starting a new one when the cookie is missing, forged or expired.  After
// the handler runs, the session's auth and cart partitions are persisted;
// a new session the request left blank is released instead.
func Session(mgr *session.Manager, opts SessionOptions, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			var s *session.Session

			if ck, err := c.Cookie(CookieName); err == nil {
				if sid, err := utils.ParseSessionToken(opts.Secret, ck.Value); err == nil {
					// a load failure still yields the (unhydrated) session;
					// the guard answers "pending" until the store is back
					s, err = mgr.Get(ctx, sid)
					if err != nil && s != nil {
						log.WithError(err).WithField("session", sid).Warn("session: serving unhydrated")
					}
				}
			}
			fresh := s == nil
			if fresh {
				s = mgr.New()
				c.Set(mintedKey, true)
			}
			if err := issueCookie(c, s.ID, opts); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
			}
			c.Set(sessionKey, s)

			err := next(c)
			if fresh && mgr.Release(s) {
				return err
			}
			if perr := mgr.Persist(ctx, s); perr != nil {
				log.WithError(perr).WithField("session", s.ID).Error("session: persist failed")
			}
			return err
		}
	}
}

// issueCookie (re)signs the cookie so an active browser never expires.
func issueCookie(c echo.Context, sid string, opts SessionOptions) error {
	tok, err := utils.NewSessionToken(opts.Secret, sid, opts.TTL)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
