package daemon

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/timeweaver/internal/api"
	"github.com/danmuck/timeweaver/internal/config"
	"github.com/danmuck/timeweaver/internal/lifecycle"
	"github.com/danmuck/timeweaver/internal/scheduler"
	"github.com/danmuck/timeweaver/internal/store"
	"github.com/danmuck/timeweaver/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidTickInterval      = errors.New("daemon: invalid tick interval")
	ErrInvalidHeartbeatInterval = errors.New("daemon: invalid heartbeat interval")
	ErrInvalidSinkKind          = errors.New("daemon: invalid sink kind")
	ErrHostTokenRequired        = errors.New("daemon: host token required when listen is not loopback")
	ErrNotBootstrapped          = errors.New("daemon: service not bootstrapped")
)

// SinkKind selects how fired alarms are delivered.
type SinkKind string

const (
	SinkLog     SinkKind = "log"
	SinkCommand SinkKind = "command"
)

// SinkConfig configures alarm delivery.
type SinkConfig struct {
	Kind    SinkKind
	Command string
	Args    []string
	Timeout time.Duration
}

// ServiceConfig configures the alarm daemon.
type ServiceConfig struct {
	ServiceID          string
	StorePath          string
	ListenAddr         string
	CorsOrigins        []string
	HostToken          string
	TickInterval       time.Duration
	HeartbeatInterval  time.Duration
	RescheduleOnSignal bool
	RescheduleTimeout  time.Duration
	Sink               SinkConfig
}

// Daemon defaults for standalone runtime configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ServiceID:          "alarmd.local",
		StorePath:          "local/alarms.toml",
		ListenAddr:         "127.0.0.1:7420",
		TickInterval:       time.Second,
		HeartbeatInterval:  time.Minute,
		RescheduleOnSignal: true,
		RescheduleTimeout:  10 * time.Second,
		Sink:               SinkConfig{Kind: SinkLog, Timeout: 30 * time.Second},
	}
}

// Service runs the alarm daemon.
type Service struct {
	cfg       ServiceConfig
	store     store.Store
	scheduler *scheduler.Scheduler
	notifier  *lifecycle.Notifier
	api       *api.Server
}

func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) *Service {
	if strings.TrimSpace(string(cfg.Sink.Kind)) == "" {
		cfg.Sink.Kind = SinkLog
	}
	return &Service{cfg: cfg}
}

// Run blocks until SIGINT or SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.bootstrap(ctx); err != nil {
		return err
	}
	return s.serve(ctx)
}

func (s *Service) Notifier() *lifecycle.Notifier {
	return s.notifier
}

func (s *Service) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *Service) Store() store.Store {
	return s.store
}

// Validate checks the settings bootstrap depends on.
func (c ServiceConfig) Validate() error {
	if c.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}
	if c.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}
	if strings.TrimSpace(c.HostToken) == "" && !config.IsLoopback(c.ListenAddr) {
		return fmt.Errorf("%w: %q", ErrHostTokenRequired, c.ListenAddr)
	}
	return nil
}

// bootstrap wires collaborators and re-arms every enabled alarm, the same
// recovery a lifecycle signal requests later on.
func (s *Service) bootstrap(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	sink, err := buildSink(s.cfg.Sink)
	if err != nil {
		return err
	}

	st, err := openStore(s.cfg.StorePath)
	if err != nil {
		return err
	}
	sch, err := scheduler.New(scheduler.Config{Store: st, Sink: sink})
	if err != nil {
		return err
	}
	notifier := lifecycle.NewNotifier(lifecycle.NotifierConfig{Trigger: s.cfg.RescheduleOnSignal})

	s.store = st
	s.scheduler = sch
	s.notifier = notifier
	s.api = api.New(api.Config{
		ID:          s.cfg.ServiceID,
		Addr:        s.cfg.ListenAddr,
		CorsOrigins: s.cfg.CorsOrigins,
		Token:       s.cfg.HostToken,
	}, st, sch, notifier)

	if err := sch.RescheduleAll(ctx); err != nil {
		return err
	}
	log.Info().
		Str("service_id", s.cfg.ServiceID).
		Str("store", storeLabel(s.cfg.StorePath)).
		Str("sink", string(s.cfg.Sink.Kind)).
		Bool("reschedule_on_signal", s.cfg.RescheduleOnSignal).
		Int("pending", len(sch.Pending())).
		Msg("daemon ready")
	return nil
}

// serve runs the HTTP surface, tick loop and reschedule drain until ctx is done.
func (s *Service) serve(ctx context.Context) error {
	if s.scheduler == nil {
		return ErrNotBootstrapped
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	errs := make(chan error, 3)
	go func() {
		errs <- s.scheduler.Run(ctx, s.cfg.TickInterval)
	}()
	go func() {
		errs <- s.notifier.ServeReschedules(ctx, s.scheduler, s.cfg.RescheduleTimeout)
	}()
	if strings.TrimSpace(s.cfg.ListenAddr) != "" {
		go func() {
			errs <- s.api.Serve(ctx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("daemon shutdown")
			return nil
		case err := <-errs:
			if err != nil {
				return err
			}
		case <-heartbeat.C:
			log.Info().
				Str("service_id", s.cfg.ServiceID).
				Int("pending", len(s.scheduler.Pending())).
				Msg("daemon heartbeat")
		}
	}
}

func openStore(path string) (store.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == ":memory:" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenFileStore(path)
}

func storeLabel(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == ":memory:" {
		return "memory"
	}
	return path
}

func buildSink(cfg SinkConfig) (scheduler.Sink, error) {
	switch cfg.Kind {
	case SinkLog:
		return scheduler.LogSink{Logger: log.Logger.With().Str("component", "sink").Logger()}, nil
	case SinkCommand:
		if strings.TrimSpace(cfg.Command) == "" {
			return nil, scheduler.ErrSinkCommandRequired
		}
		return scheduler.CommandSink{
			Runner:  tools.ExecRunner{},
			Command: cfg.Command,
			Args:    cfg.Args,
			Timeout: cfg.Timeout,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSinkKind, cfg.Kind)
	}
}
