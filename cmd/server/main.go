package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/config"
	"github.com/iliyamo/villa-web/internal/database"
	"github.com/iliyamo/villa-web/internal/guard"
	"github.com/iliyamo/villa-web/internal/handler"
	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/queue"
	"github.com/iliyamo/villa-web/internal/repository"
	"github.com/iliyamo/villa-web/internal/router"
	"github.com/iliyamo/villa-web/internal/service"
	"github.com/iliyamo/villa-web/internal/session"
)

// sessionIdle is how long an untouched in-memory store is kept before the
// sweeper drops it.  Its persisted partitions stay in the repository.
const sessionIdle = 30 * time.Minute

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Production() {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis serves the rate limiter and cache always, and sessions when
	// selected.  Without it those two features are switched off.
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		if cfg.SessionBackend == "redis" {
			log.WithError(err).Fatal("redis is required for SESSION_BACKEND=redis")
		}
		log.WithError(err).Warn("redis unavailable; rate limiting and caching disabled")
	}

	ready := map[string]handler.Pinger{}
	if rdb != nil {
		defer rdb.Close()
		ready["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	repo, db := sessionRepo(ctx, cfg, rdb, log)
	if db != nil {
		defer db.Close()
		ready["mysql"] = db.PingContext
	}

	api, err := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		log.WithError(err).Fatal("invalid API_BASE_URL")
	}

	routes, err := config.LoadRoutes(cfg.RoutesFile)
	if err != nil {
		log.WithError(err).Fatal("load route table")
	}
	g, err := guard.New(routes)
	if err != nil {
		log.WithError(err).Fatal("build route guard")
	}

	var pub service.EventPublisher
	if cfg.QueueEnabled {
		pub = queue.NewPublisher(cfg.RabbitURL)
		c := &queue.Consumer{URL: cfg.RabbitURL, Dir: "logs", Log: log.WithField("component", "booking-consumer")}
		go func() {
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("booking consumer stopped")
			}
		}()
	}

	auth := service.NewAuthService(api, service.GoogleOAuth{ClientID: cfg.GoogleClientID, RedirectURI: cfg.GoogleRedirectURI}, log)
	cart := service.NewCartService(api, log)
	villas := service.NewVillaService(api, log)
	bookings := service.NewBookingService(api, log)
	payments := service.NewPaymentService(api, cart, service.PaymentSettings{
		KeyID:    cfg.PaymentKeyID,
		Currency: cfg.PaymentCurrency,
		Merchant: cfg.MerchantName,
	}, pub, log)

	sessions := session.NewManager(repo, log)
	go sweep(ctx, sessions, log)

	e := router.New(router.Deps{
		Sessions:    sessions,
		SessionOpts: middleware.SessionOptions{Secret: cfg.SessionSecret, TTL: cfg.SessionTTL, Secure: cfg.CookieSecure},
		Guard:       g,
		Redis:       rdb,
		RateLimit:   config.LoadRateLimitConfig(),
		Cache:       config.LoadCacheConfig(),
		Log:         log,
		Ready:       ready,
		Auth:        handler.NewAuthHandler(auth, cart),
		Public:      handler.NewPublicHandler(ctx, villas, cfg.SearchDebounce),
		Customer:    handler.NewCustomerHandler(cart, villas, payments, bookings),
		Owner:       handler.NewOwnerHandler(villas),
		Pages:       handler.NewPageHandler(villas, cart, bookings),
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "sessions": cfg.SessionBackend}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	// let unawaited server logouts finish
	auth.Wait()
}

// sessionRepo picks the persistence backend named by SESSION_BACKEND.  The
// mysql backend also returns its pool and starts the expiry sweeper.
func sessionRepo(ctx context.Context, cfg config.Config, rdb *redis.Client, log *logrus.Logger) (repository.SessionRepo, *sql.DB) {
	switch cfg.SessionBackend {
	case "redis":
		return repository.NewRedisSessionRepo(rdb, cfg.SessionTTL), nil
	case "mysql":
		db, err := database.Open(ctx, database.Params{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			log.WithError(err).Fatal("mysql connect")
		}
		repo := repository.NewMySQLSessionRepo(db, cfg.SessionTTL)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("mysql session schema")
		}
		go expire(ctx, repo, log)
		return repo, db
	case "memory":
		log.Warn("SESSION_BACKEND=memory: sessions are lost on restart")
		return repository.NewMemorySessionRepo(cfg.SessionTTL), nil
	default:
		log.WithField("backend", cfg.SessionBackend).Fatal("unknown SESSION_BACKEND")
		return nil, nil
	}
}

func sweep(ctx context.Context, m *session.Manager, log *logrus.Logger) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(sessionIdle); n > 0 {
				log.WithFields(logrus.Fields{"evicted": n, "live": m.Len()}).Debug("sessions: swept")
			}
		}
	}
}

func expire(ctx context.Context, repo *repository.MySQLSessionRepo, log *logrus.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("sessions: expiry sweep failed")
				continue
			}
			log.WithField("deleted", n).Debug("sessions: expired rows removed")
		}
	}
}
