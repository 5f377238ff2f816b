// Package store owns the persisted alarm list.
//
// Ownership boundary:
// - alarm identity assignment
//
// - durable alarm list
//
// The store never arms alarms; callers reschedule after each mutation.
package store

import (
	"errors"
	"sort"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
)

var ErrAlarmNotFound = errors.New("store: alarm not found")

// Store is the alarm persistence boundary.
type Store interface {
	List() ([]alarm.Alarm, error)
	Get(id int64) (alarm.Alarm, error)
	Add(a alarm.Alarm) (alarm.Alarm, error)
	Update(id int64, a alarm.Alarm) (alarm.Alarm, error)
	Delete(id int64) error
	Toggle(id int64) (alarm.Alarm, error)
}

// list is the shared in-memory representation used by both stores.
type list struct {
	items []alarm.Alarm
	now   func() time.Time
}

func (l *list) snapshot() []alarm.Alarm {
	out := make([]alarm.Alarm, 0, len(l.items))
	for _, a := range l.items {
		out = append(out, a.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (l *list) index(id int64) int {
	for i, a := range l.items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// nextID derives an id from the wall clock in milliseconds, bumped past collisions.
func (l *list) nextID() int64 {
	id := l.now().UnixMilli()
	for l.index(id) >= 0 {
		id++
	}
	return id
}

func (l *list) add(a alarm.Alarm) (alarm.Alarm, error) {
	norm, err := a.Normalize()
	if err != nil {
		return alarm.Alarm{}, err
	}
	norm.ID = l.nextID()
	l.items = append(l.items, norm)
	return norm.Clone(), nil
}

func (l *list) update(id int64, a alarm.Alarm) (alarm.Alarm, error) {
	i := l.index(id)
	if i < 0 {
		return alarm.Alarm{}, ErrAlarmNotFound
	}
	norm, err := a.Normalize()
	if err != nil {
		return alarm.Alarm{}, err
	}
	norm.ID = id
	l.items[i] = norm
	return norm.Clone(), nil
}

func (l *list) delete(id int64) error {
	i := l.index(id)
	if i < 0 {
		return ErrAlarmNotFound
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

func (l *list) toggle(id int64) (alarm.Alarm, error) {
	i := l.index(id)
	if i < 0 {
		return alarm.Alarm{}, ErrAlarmNotFound
	}
	l.items[i].Enabled = !l.items[i].Enabled
	return l.items[i].Clone(), nil
}

func (l *list) get(id int64) (alarm.Alarm, error) {
	i := l.index(id)
	if i < 0 {
		return alarm.Alarm{}, ErrAlarmNotFound
	}
	return l.items[i].Clone(), nil
}
