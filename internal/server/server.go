package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hongminglow/smartcard/internal/auth"
	"github.com/hongminglow/smartcard/internal/config"
	"github.com/hongminglow/smartcard/internal/events"
	"github.com/hongminglow/smartcard/internal/http/handlers"
	"github.com/hongminglow/smartcard/internal/middleware"
	"github.com/hongminglow/smartcard/internal/ratelimit"
	"github.com/hongminglow/smartcard/internal/storage"
)

// Deps are the collaborators the routes are built on.
type Deps struct {
	Store       storage.Store
	Finder      handlers.DealFinder
	Recommender handlers.Recommender
	Publisher   events.Publisher
	// Merchants is reported by /health.
	Merchants int
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner    *http.Server
	limiters []*ratelimit.Limiter
	stop     chan struct{}
	stopOnce sync.Once
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, tuning config.Tuning, deps Deps) *Server {
	if deps.Publisher == nil {
		deps.Publisher = events.Discard{}
	}

	limits := tuning.RateLimits
	defaultLimiter := ratelimit.New(limits.Default, limits.Window)
	authLimiter := ratelimit.New(limits.Auth, limits.Window)
	dealsLimiter := ratelimit.New(limits.Deals, limits.Window)

	tokens := auth.NewTokenManager(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)
	guard := handlers.NewGuard(tokens)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), deps.Merchants).Register(mux)
	handlers.NewAuthHandler(deps.Store, tokens, authLimiter, defaultLimiter).Register(mux)
	handlers.NewGiftCardHandler(deps.Store, deps.Publisher, guard, defaultLimiter).Register(mux)
	handlers.NewDealsHandler(deps.Finder, deps.Publisher, guard, dealsLimiter).Register(mux)
	handlers.NewRateLimitHandler(guard, defaultLimiter).Register(mux)
	handlers.NewCardHandler(deps.Store, deps.Store, deps.Publisher, guard, defaultLimiter).Register(mux)
	handlers.NewLocationHandler(deps.Store, deps.Recommender, deps.Publisher, guard, defaultLimiter).Register(mux)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Deal generation calls out to the model once per store.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		inner:    httpServer,
		limiters: []*ratelimit.Limiter{defaultLimiter, authLimiter, dealsLimiter},
		stop:     make(chan struct{}),
	}
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic. It also sweeps idle rate limit entries
// once a minute until Shutdown.
func (s *Server) Start() error {
	go s.sweep(time.Minute)
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	return s.inner.Shutdown(ctx)
}

func (s *Server) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, l := range s.limiters {
				l.Sweep()
			}
		case <-s.stop:
			return
		}
	}
}
