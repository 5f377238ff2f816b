package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/timeweaver/internal/auth"
	"github.com/danmuck/timeweaver/internal/lifecycle"
	"github.com/danmuck/timeweaver/internal/observability"
	"github.com/danmuck/timeweaver/internal/scheduler"
	"github.com/danmuck/timeweaver/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

var ErrAddrRequired = errors.New("api: listen address is required")

// Config configures the HTTP surface.
// An empty Token leaves the alarm, notification and lifecycle endpoints unguarded.
type Config struct {
	ID              string
	Addr            string
	CorsOrigins     []string
	Token           string
	ShutdownTimeout time.Duration
}

// Server exposes alarms, notifications and host lifecycle delivery over HTTP.
type Server struct {
	ID       string
	Addr     string
	Appeared time.Time

	store     store.Store
	scheduler *scheduler.Scheduler
	notifier  *lifecycle.Notifier
	hostAuth  auth.Validator
	shutdown  time.Duration
	logger    zerolog.Logger
	router    *gin.Engine

	// mutateMu orders a store write with the arming of its result.
	mutateMu sync.Mutex
}

func New(cfg Config, st store.Store, sch *scheduler.Scheduler, n *lifecycle.Notifier) *Server {
	observability.RegisterMetrics()
	logger := log.Logger.With().Str("component", "api").Logger()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	var hostAuth auth.Validator
	if cfg.Token != "" {
		hostAuth = auth.StaticToken{Token: cfg.Token}
	}
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 5 * time.Second
	}

	s := &Server{
		ID:        cfg.ID,
		Addr:      cfg.Addr,
		Appeared:  time.Now(),
		store:     st,
		scheduler: sch,
		notifier:  n,
		hostAuth:  hostAuth,
		shutdown:  shutdown,
		logger:    logger,
		router:    r,
	}
	s.RegisterRoutes()
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr == "" {
		return ErrAddrRequired
	}
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr).Msg("http listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
