// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/config"
	"github.com/iliyamo/villa-web/internal/guard"
	"github.com/iliyamo/villa-web/internal/handler"
	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/session"
)

// Deps is everything the routes need.  Redis may be nil, which turns the
// rate limiter and the response cache off.
type Deps struct {
	Sessions    *session.Manager
	SessionOpts middleware.SessionOptions
	Guard       *guard.Guard
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	Log         logrus.FieldLogger
	Ready       map[string]handler.Pinger

	Auth     *handler.AuthHandler
	Public   *handler.PublicHandler
	Customer *handler.CustomerHandler
	Owner    *handler.OwnerHandler
	Pages    *handler.PageHandler
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLog(d.Log))
	e.Use(echomw.Recover())

	RegisterRoutes(e, d)
	RegisterPages(e, d)
	api := e.Group("/api",
		echomw.BodyLimit("64M"),
		middleware.Session(d.Sessions, d.SessionOpts, d.Log),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
		middleware.NewRedisCache(d.Cache, d.Redis, d.Log),
	)
	RegisterPublic(api, d)
	RegisterCustomer(api, d)
	RegisterOwner(api, d)
	return e
}

// RegisterRoutes registers the probes.  They run without a session.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.Ready))
}

// RegisterPages registers the guarded page navigations.  The OAuth
// callback is a page too: the guard lets it through for a user without a
// role.
func RegisterPages(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.Session(d.Sessions, d.SessionOpts, d.Log),
		middleware.RouteGuard(d.Guard),
	}
	p := d.Pages
	e.GET("/", p.Home, mw...)
	e.GET("/browse", p.Browse, mw...)
	e.GET("/villas/:id", p.Villa, mw...)
	e.GET("/cart", p.Cart, mw...)
	e.GET("/bookings", p.Bookings, mw...)
	e.GET("/bookings/:id", p.Booking, mw...)
	e.GET("/my-listings", p.MyListings, mw...)
	e.GET("/welcome", p.Welcome, mw...)
	e.GET("/host/villa", p.HostVilla, mw...)
	e.GET("/auth/google/callback", d.Auth.GoogleCallback, mw...)
}

// RegisterPublic registers API routes open to signed-out sessions.
func RegisterPublic(api *echo.Group, d Deps) {
	a, p := d.Auth, d.Public
	api.GET("/me", a.Me)
	api.GET("/toasts", a.Toasts)

	api.POST("/auth/login", a.Login)
	api.POST("/auth/signup", a.Signup)
	api.GET("/auth/google/url", a.GoogleURL)
	api.POST("/auth/logout", a.Logout)
	api.PATCH("/auth/role", a.Role, middleware.RequireAuth())

	api.GET("/villas", p.ListVillas)
	api.GET("/villas/ai-search", p.AISearch)
	api.GET("/villas/:id", p.GetVilla)

	api.POST("/search/input", p.SearchInput)
	api.POST("/search", p.Search)
	api.GET("/search/results", p.SearchResults)
}
