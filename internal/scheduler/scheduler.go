// Package scheduler owns armed alarm notifications.
//
// Ownership boundary:
// - pending notification set
//
// - firing due notifications into a Sink
//
// - snooze/dismiss actions
//
// - full re-arm from the store (RescheduleAll)
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
	"github.com/danmuck/timeweaver/internal/observability"
	"github.com/danmuck/timeweaver/internal/schedule"
	"github.com/danmuck/timeweaver/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrReschedule           = errors.New("scheduler: reschedule failed")
	ErrStoreRequired        = errors.New("scheduler: store is required")
	ErrUnknownAction        = errors.New("scheduler: unknown action")
	ErrNotificationNotFound = errors.New("scheduler: notification not found")
	ErrSinkCommandRequired  = errors.New("scheduler: sink command is required")
	ErrInvalidTickInterval  = errors.New("scheduler: invalid tick interval")
)

const (
	ActionSnooze  = "snooze"
	ActionDismiss = "dismiss"

	recentLimit = 256
)

// armedKey identifies a notification by its owning alarm as well as its id.
// Notification ids derive from alarm ids and can coincide across alarms.
type armedKey struct {
	alarmID int64
	id      int64
}

func keyOf(n schedule.Notification) armedKey {
	return armedKey{alarmID: n.Extra.AlarmID, id: n.ID}
}

// Config wires a Scheduler to its collaborators.
type Config struct {
	Store  store.Store
	Sink   Sink
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Scheduler keeps the set of armed notifications and fires them when due.
type Scheduler struct {
	store  store.Store
	sink   Sink
	now    func() time.Time
	logger zerolog.Logger

	mu      sync.Mutex
	pending map[armedKey]schedule.Notification
	recent  map[armedKey]schedule.Notification
	order   []armedKey
}

func New(cfg Config) (*Scheduler, error) {
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	logger = logger.With().Str("component", "scheduler").Logger()
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sink == nil {
		cfg.Sink = LogSink{Logger: logger}
	}
	return &Scheduler{
		store:   cfg.Store,
		sink:    cfg.Sink,
		now:     cfg.Now,
		logger:  logger,
		pending: make(map[armedKey]schedule.Notification),
		recent:  make(map[armedKey]schedule.Notification),
	}, nil
}

// ScheduleAlarm replaces every armed notification of a with its fresh plan.
// A disabled alarm ends up with nothing armed.
func (s *Scheduler) ScheduleAlarm(a alarm.Alarm) error {
	plan, err := schedule.Plan(a, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cancelLocked(a.ID)
	for _, n := range plan {
		s.pending[keyOf(n)] = n
	}
	count := len(s.pending)
	s.mu.Unlock()

	observability.SetPendingNotifications(count)
	s.logger.Debug().
		Int64("alarm_id", a.ID).
		Str("title", a.Title).
		Str("time", a.Time).
		Int("notifications", len(plan)).
		Msg("alarm scheduled")
	return nil
}

// CancelAlarm disarms every notification of the alarm and returns how many were removed.
func (s *Scheduler) CancelAlarm(alarmID int64) int {
	s.mu.Lock()
	removed := s.cancelLocked(alarmID)
	count := len(s.pending)
	s.mu.Unlock()

	observability.SetPendingNotifications(count)
	if removed > 0 {
		s.logger.Debug().Int64("alarm_id", alarmID).Int("removed", removed).Msg("alarm cancelled")
	}
	return removed
}

// CancelAll disarms everything.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	removed := len(s.pending)
	s.pending = make(map[armedKey]schedule.Notification)
	s.mu.Unlock()

	observability.SetPendingNotifications(0)
	s.logger.Debug().Int("removed", removed).Msg("all alarms cancelled")
	return removed
}

func (s *Scheduler) cancelLocked(alarmID int64) int {
	removed := 0
	for key := range s.pending {
		if key.alarmID == alarmID {
			delete(s.pending, key)
			removed++
		}
	}
	return removed
}

// Pending lists armed notifications ordered by fire time, then id.
func (s *Scheduler) Pending() []schedule.Notification {
	s.mu.Lock()
	out := make([]schedule.Notification, 0, len(s.pending))
	for _, n := range s.pending {
		out = append(out, n)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			if out[i].ID == out[j].ID {
				return out[i].Extra.AlarmID < out[j].Extra.AlarmID
			}
			return out[i].ID < out[j].ID
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

// RescheduleAll disarms everything and re-arms every enabled alarm in the store.
// Alarms that fail to plan are skipped and logged; a store failure aborts the
// run and leaves the current armed set untouched.
func (s *Scheduler) RescheduleAll(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordReschedule(time.Since(start), err == nil)
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrReschedule, err)
	}
	alarms, err := s.store.List()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReschedule, err)
	}

	now := s.now()
	next := make(map[armedKey]schedule.Notification)
	enabled := 0
	for _, a := range alarms {
		if !a.Enabled {
			continue
		}
		plan, err := schedule.Plan(a, now)
		if err != nil {
			s.logger.Warn().Int64("alarm_id", a.ID).Err(err).Msg("alarm skipped during reschedule")
			continue
		}
		enabled++
		for _, n := range plan {
			next[keyOf(n)] = n
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrReschedule, err)
	}

	s.mu.Lock()
	s.pending = next
	s.mu.Unlock()

	observability.SetPendingNotifications(len(next))
	s.logger.Info().
		Int("alarms", len(alarms)).
		Int("enabled", enabled).
		Int("notifications", len(next)).
		Msg("all alarms rescheduled")
	return nil
}

// Tick fires every notification due at or before now and returns how many fired.
// Weekly notifications are re-armed for the following week; others are dropped.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	due := make([]schedule.Notification, 0)
	for key, n := range s.pending {
		if n.At.After(now) {
			continue
		}
		due = append(due, n)
		if n.Weekly {
			next := schedule.Next(n)
			for !next.At.After(now) {
				next = schedule.Next(next)
			}
			s.pending[key] = next
		} else {
			delete(s.pending, key)
		}
		s.rememberLocked(n)
	}
	count := len(s.pending)
	s.mu.Unlock()

	if len(due) == 0 {
		return 0
	}
	observability.SetPendingNotifications(count)
	sort.Slice(due, func(i, j int) bool {
		return due[i].At.Before(due[j].At)
	})

	for _, n := range due {
		d := Delivery{ID: uuid.NewString(), FiredAt: now, Notification: n}
		err := s.sink.Deliver(ctx, d)
		observability.RecordFired(n.Kind(), err == nil)
		if err != nil {
			s.logger.Error().
				Str("delivery_id", d.ID).
				Int64("notification_id", n.ID).
				Err(err).
				Msg("alarm delivery failed")
		}
	}
	return len(due)
}

// rememberLocked keeps recently fired notifications so actions can resolve them.
func (s *Scheduler) rememberLocked(n schedule.Notification) {
	key := keyOf(n)
	if _, ok := s.recent[key]; !ok {
		s.order = append(s.order, key)
	}
	s.recent[key] = n
	for len(s.order) > recentLimit {
		delete(s.recent, s.order[0])
		s.order = s.order[1:]
	}
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Act applies a user action to a fired or pending notification.
func (s *Scheduler) Act(notificationID int64, action string) error {
	s.mu.Lock()
	n, ok := s.lookupLocked(notificationID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: id=%d", ErrNotificationNotFound, notificationID)
	}

	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionSnooze:
		return s.snooze(n)
	case ActionDismiss:
		s.logger.Info().
			Int64("notification_id", n.ID).
			Int64("alarm_id", n.Extra.AlarmID).
			Msg("alarm dismissed")
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// lookupLocked resolves a notification id, preferring the most recently fired
// match and then the earliest pending one.
func (s *Scheduler) lookupLocked(id int64) (schedule.Notification, bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		key := s.order[i]
		if key.id == id {
			return s.recent[key], true
		}
	}
	var (
		found schedule.Notification
		ok    bool
	)
	for key, n := range s.pending {
		if key.id != id {
			continue
		}
		if !ok || n.At.Before(found.At) {
			found, ok = n, true
		}
	}
	return found, ok
}

func (s *Scheduler) snooze(n schedule.Notification) error {
	a, err := s.store.Get(n.Extra.AlarmID)
	if err != nil {
		return err
	}
	follow := schedule.Snooze(a, s.now())

	s.mu.Lock()
	s.pending[keyOf(follow)] = follow
	count := len(s.pending)
	s.mu.Unlock()

	observability.SetPendingNotifications(count)
	s.logger.Info().
		Int64("alarm_id", a.ID).
		Int("minutes", a.Snooze).
		Time("at", follow.At).
		Msg("alarm snoozed")
	return nil
}
