package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
	"github.com/danmuck/timeweaver/internal/lifecycle"
	"github.com/danmuck/timeweaver/internal/scheduler"
	"github.com/danmuck/timeweaver/internal/testutil/testlog"
)

func testConfig(t *testing.T) ServiceConfig {
	t.Helper()
	cfg := DefaultServiceConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "alarms.toml")
	cfg.ListenAddr = ""
	cfg.TickInterval = 10 * time.Millisecond
	cfg.HeartbeatInterval = time.Hour
	return cfg
}

func TestBootstrapRejectsBadIntervals(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig(t)
	cfg.TickInterval = 0
	if err := NewServiceWithConfig(cfg).bootstrap(context.Background()); !errors.Is(err, ErrInvalidTickInterval) {
		t.Fatalf("expected ErrInvalidTickInterval, got %v", err)
	}
	cfg = testConfig(t)
	cfg.HeartbeatInterval = -time.Second
	if err := NewServiceWithConfig(cfg).bootstrap(context.Background()); !errors.Is(err, ErrInvalidHeartbeatInterval) {
		t.Fatalf("expected ErrInvalidHeartbeatInterval, got %v", err)
	}
}

func TestValidateRequiresTokenOffLoopback(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig(t)
	cfg.ListenAddr = "0.0.0.0:7420"
	cfg.HostToken = ""
	if err := cfg.Validate(); !errors.Is(err, ErrHostTokenRequired) {
		t.Fatalf("expected ErrHostTokenRequired, got %v", err)
	}
	if err := NewServiceWithConfig(cfg).bootstrap(context.Background()); !errors.Is(err, ErrHostTokenRequired) {
		t.Fatalf("bootstrap should refuse an unguarded public listener, got %v", err)
	}

	cfg.HostToken = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token should satisfy validation: %v", err)
	}
	cfg.HostToken = ""
	cfg.ListenAddr = "127.0.0.1:7420"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loopback without token should pass: %v", err)
	}
}

func TestBuildSink(t *testing.T) {
	testlog.Start(t)
	if _, err := buildSink(SinkConfig{Kind: SinkLog}); err != nil {
		t.Fatalf("log sink: %v", err)
	}
	if _, err := buildSink(SinkConfig{Kind: SinkCommand}); !errors.Is(err, scheduler.ErrSinkCommandRequired) {
		t.Fatalf("expected ErrSinkCommandRequired, got %v", err)
	}
	sink, err := buildSink(SinkConfig{Kind: SinkCommand, Command: "paplay", Args: []string{"{sound}"}})
	if err != nil {
		t.Fatalf("command sink: %v", err)
	}
	if _, ok := sink.(scheduler.CommandSink); !ok {
		t.Fatalf("unexpected sink type %T", sink)
	}
	if _, err := buildSink(SinkConfig{Kind: "pager"}); !errors.Is(err, ErrInvalidSinkKind) {
		t.Fatalf("expected ErrInvalidSinkKind, got %v", err)
	}
}

func TestServeBeforeBootstrap(t *testing.T) {
	testlog.Start(t)
	if err := NewServiceWithConfig(testConfig(t)).serve(context.Background()); !errors.Is(err, ErrNotBootstrapped) {
		t.Fatalf("expected ErrNotBootstrapped, got %v", err)
	}
}

func TestBootstrapRestoresPersistedAlarms(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig(t)

	first := NewServiceWithConfig(cfg)
	if err := first.bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := first.Store().Add(alarm.Alarm{Title: "Wake", Time: "07:00", Enabled: true, Days: []alarm.Weekday{alarm.Monday}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := first.Store().Add(alarm.Alarm{Title: "Off", Time: "08:00"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	second := NewServiceWithConfig(cfg)
	if err := second.bootstrap(context.Background()); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if got := len(second.Scheduler().Pending()); got != 1 {
		t.Fatalf("expected persisted enabled alarm re-armed, got %d", got)
	}
}

func TestLifecycleSignalTriggersReschedule(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig(t)
	cfg.StorePath = ":memory:"
	svc := NewServiceWithConfig(cfg)
	if err := svc.bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.serve(ctx) }()

	// stored directly, so only a reschedule can arm it
	if _, err := svc.Store().Add(alarm.Alarm{Title: "Restored", Time: "06:00", Enabled: true}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(svc.Scheduler().Pending()) != 0 {
		t.Fatalf("alarm should not be armed before the signal")
	}

	svc.Notifier().Handle(lifecycle.BootCompleted)

	deadline := time.Now().Add(2 * time.Second)
	for len(svc.Scheduler().Pending()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(svc.Scheduler().Pending()) != 1 {
		t.Fatalf("expected alarm re-armed after boot signal")
	}
}

func TestLifecycleSignalWithoutTriggerOnlyLogs(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig(t)
	cfg.StorePath = ":memory:"
	cfg.RescheduleOnSignal = false
	svc := NewServiceWithConfig(cfg)
	if err := svc.bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := svc.Store().Add(alarm.Alarm{Title: "Later", Time: "06:00", Enabled: true}); err != nil {
		t.Fatalf("add: %v", err)
	}
	svc.Notifier().Handle(lifecycle.BootCompleted)
	if svc.Notifier().Requests() != nil || len(svc.Scheduler().Pending()) != 0 {
		t.Fatalf("notifier without trigger must not reschedule")
	}
}
