package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/timeweaver/internal/schedule"
	"github.com/danmuck/timeweaver/internal/tools"
	"github.com/rs/zerolog"
)

// Delivery is one firing of a notification.
type Delivery struct {
	ID           string
	FiredAt      time.Time
	Notification schedule.Notification
}

// Sink receives fired notifications.
type Sink interface {
	Deliver(ctx context.Context, d Delivery) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, d Delivery) error

func (f SinkFunc) Deliver(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}

// LogSink writes each delivery as a log entry.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Deliver(_ context.Context, d Delivery) error {
	n := d.Notification
	s.Logger.Info().
		Str("delivery_id", d.ID).
		Int64("notification_id", n.ID).
		Int64("alarm_id", n.Extra.AlarmID).
		Str("kind", n.Kind()).
		Str("title", n.Title).
		Str("sound", n.Sound).
		Int("volume", n.Extra.Volume).
		Bool("vibration", n.Extra.Vibration).
		Msg("alarm ringing")
	return nil
}

// CommandSink runs an external command for each delivery, e.g. a sound player.
// Args may reference {sound}, {title}, {volume}, {alarm_id} and {notification_id}.
type CommandSink struct {
	Runner  tools.CommandRunner
	Command string
	Args    []string
	Timeout time.Duration
}

func (s CommandSink) Deliver(ctx context.Context, d Delivery) error {
	if strings.TrimSpace(s.Command) == "" {
		return ErrSinkCommandRequired
	}
	runner := s.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	n := d.Notification
	replacer := strings.NewReplacer(
		"{sound}", n.Sound,
		"{title}", n.Title,
		"{volume}", strconv.Itoa(n.Extra.Volume),
		"{alarm_id}", strconv.FormatInt(n.Extra.AlarmID, 10),
		"{notification_id}", strconv.FormatInt(n.ID, 10),
	)
	args := make([]string, 0, len(s.Args))
	for _, arg := range s.Args {
		args = append(args, replacer.Replace(arg))
	}

	_, stderr, exitCode, err := runner.Run(ctx, s.Command, args...)
	if err != nil {
		return fmt.Errorf(
			"scheduler: sink command failed command=%q exit=%d stderr=%q: %w",
			s.Command,
			exitCode,
			strings.TrimSpace(string(stderr)),
			err,
		)
	}
	return nil
}
