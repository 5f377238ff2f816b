package store

import (
	"sync"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
)

// MemoryStore keeps alarms in process memory only.
type MemoryStore struct {
	mu   sync.RWMutex
	list list
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{list: list{now: now}}
}

func (s *MemoryStore) List() ([]alarm.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.snapshot(), nil
}

func (s *MemoryStore) Get(id int64) (alarm.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.get(id)
}

func (s *MemoryStore) Add(a alarm.Alarm) (alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.add(a)
}

func (s *MemoryStore) Update(id int64, a alarm.Alarm) (alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.update(id, a)
}

func (s *MemoryStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.delete(id)
}

func (s *MemoryStore) Toggle(id int64) (alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.toggle(id)
}
