// Package schedule computes notification plans for alarms.
//
// Planning is pure: given an alarm and a reference time it returns the
// notifications that should be armed. It holds no state.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
)

const (
	ActionTypeAlarm = "ALARM_ACTIONS"

	// weekdayIDStride separates per-weekday notification ids of one alarm.
	weekdayIDStride = 1_000_000
	snoozeIDOffset  = 999_999
)

// Extra is the alarm context carried by every notification.
type Extra struct {
	AlarmID   int64 `json:"alarm_id"`
	Volume    int   `json:"volume"`
	Vibration bool  `json:"vibration"`
	Snooze    int   `json:"snooze"`
}

// Notification is one armed firing of an alarm.
type Notification struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	At           time.Time `json:"at"`
	Weekly       bool      `json:"weekly"`
	Snooze       bool      `json:"snooze"`
	Sound        string    `json:"sound,omitempty"`
	ActionTypeID string    `json:"action_type_id"`
	Extra        Extra     `json:"extra"`
}

// Kind labels the notification for logs and metrics.
func (n Notification) Kind() string {
	switch {
	case n.Snooze:
		return "snooze"
	case n.Weekly:
		return "weekly"
	default:
		return "once"
	}
}

// Plan returns the notifications to arm for a. Disabled alarms plan nothing.
// One-shot alarms fire at the next HH:MM strictly after now; recurring alarms
// get one weekly notification per day at that day's next occurrence.
func Plan(a alarm.Alarm, now time.Time) ([]Notification, error) {
	if !a.Enabled {
		return nil, nil
	}
	hour, minute, err := alarm.ParseClock(a.Time)
	if err != nil {
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !a.Recurring() {
		at := today
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return []Notification{newNotification(a, at, false)}, nil
	}

	out := make([]Notification, 0, len(a.Days))
	for _, d := range a.Days {
		target, ok := d.Time()
		if !ok {
			return nil, fmt.Errorf("%w: %q", alarm.ErrInvalidWeekday, d)
		}
		days := int(target) - int(now.Weekday())
		if days < 0 {
			days += 7
		} else if days == 0 && !today.After(now) {
			days = 7
		}
		out = append(out, newNotification(a, today.AddDate(0, 0, days), true))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

// Snooze returns the follow-up notification for a snoozed alarm.
func Snooze(a alarm.Alarm, now time.Time) Notification {
	n := newNotification(a, now.Add(time.Duration(a.Snooze)*time.Minute), false)
	n.ID = a.ID + snoozeIDOffset
	n.Title = a.Title + " (snoozed)"
	n.Body = fmt.Sprintf("Ringing again in %d minutes", a.Snooze)
	n.Snooze = true
	return n
}

// Next returns the following occurrence of a weekly notification.
func Next(n Notification) Notification {
	n.At = n.At.AddDate(0, 0, 7)
	return n
}

func newNotification(a alarm.Alarm, at time.Time, weekly bool) Notification {
	id := a.ID
	if weekly {
		id += int64(at.Weekday()) * weekdayIDStride
	}
	return Notification{
		ID:           id,
		Title:        a.Title,
		Body:         "Alarm time: " + a.Time,
		At:           at,
		Weekly:       weekly,
		Sound:        alarm.SoundFor(a.Ringtone),
		ActionTypeID: ActionTypeAlarm,
		Extra: Extra{
			AlarmID:   a.ID,
			Volume:    a.Volume,
			Vibration: a.Vibration,
			Snooze:    a.Snooze,
		},
	}
}
