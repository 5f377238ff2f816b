package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/danmuck/timeweaver/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Rescheduler re-arms every enabled alarm.
type Rescheduler interface {
	RescheduleAll(ctx context.Context) error
}

// NotifierConfig configures a Notifier.
// With Trigger unset the notifier only logs and makes no external calls.
type NotifierConfig struct {
	Logger  *zerolog.Logger
	Trigger bool
}

// Notifier handles host lifecycle signals.
type Notifier struct {
	logger   zerolog.Logger
	requests chan Signal
}

func NewNotifier(cfg NotifierConfig) *Notifier {
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	n := &Notifier{logger: logger.With().Str("component", "lifecycle").Logger()}
	if cfg.Trigger {
		n.requests = make(chan Signal, 1)
	}
	return n
}

// Handle reacts to one host signal. It never blocks and never fails;
// unrecognized signals are dropped without any side effect.
func (n *Notifier) Handle(signal Signal) {
	if !signal.Known() {
		return
	}
	n.logger.Info().
		Str("signal", signal.String()).
		Msg("boot completed or package replaced, alarms need restoring")
	observability.RecordSignal(signal.String())

	if n.requests == nil {
		return
	}
	select {
	case n.requests <- signal:
	default:
		// a reschedule is already pending and will cover this signal
		observability.RecordRescheduleCoalesced()
	}
}

// HandleAction parses a host action string and handles it.
func (n *Notifier) HandleAction(action string) Signal {
	signal := ParseSignal(action)
	n.Handle(signal)
	return signal
}

// Requests returns the pending reschedule queue, or nil when triggering is disabled.
func (n *Notifier) Requests() <-chan Signal {
	return n.requests
}

// ServeReschedules drains reschedule requests into r until ctx is done.
// Each run is bounded by timeout; failures are logged and do not stop the loop.
func (n *Notifier) ServeReschedules(ctx context.Context, r Rescheduler, timeout time.Duration) error {
	if n.requests == nil || r == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case signal := <-n.requests:
			n.reschedule(ctx, r, signal, timeout)
		}
	}
}

func (n *Notifier) reschedule(ctx context.Context, r Rescheduler, signal Signal, timeout time.Duration) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err := r.RescheduleAll(runCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}
		n.logger.Warn().
			Str("signal", signal.String()).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("reschedule after lifecycle signal failed")
		return
	}
	n.logger.Info().
		Str("signal", signal.String()).
		Dur("elapsed", time.Since(start)).
		Msg("alarms rescheduled after lifecycle signal")
}
