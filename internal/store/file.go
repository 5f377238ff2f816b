package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/timeweaver/internal/alarm"
	"github.com/rs/zerolog/log"
)

var (
	ErrStorePath   = errors.New("store: path is required")
	ErrDuplicateID = errors.New("store: duplicate alarm id")
)

type fileDoc struct {
	Alarms []alarm.Alarm `toml:"alarms"`
}

// FileStore persists alarms as [[alarms]] tables in one TOML file.
// Every mutation rewrites the file atomically; a failed write leaves memory unchanged.
type FileStore struct {
	mu   sync.RWMutex
	path string
	list list
}

// OpenFileStore loads path, treating a missing file as an empty list.
func OpenFileStore(path string) (*FileStore, error) {
	return OpenFileStoreWithClock(path, time.Now)
}

func OpenFileStoreWithClock(path string, now func() time.Time) (*FileStore, error) {
	if path == "" {
		return nil, ErrStorePath
	}
	s := &FileStore{path: path, list: list{now: now}}

	var doc fileDoc
	_, err := toml.DecodeFile(path, &doc)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("alarm store empty, file not found")
	case err != nil:
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	default:
		for i, a := range doc.Alarms {
			norm, err := a.Normalize()
			if err != nil {
				return nil, fmt.Errorf("store: alarm[%d] id=%d: %w", i, a.ID, err)
			}
			if s.list.index(norm.ID) >= 0 {
				return nil, fmt.Errorf("%w: alarm[%d] id=%d", ErrDuplicateID, i, norm.ID)
			}
			s.list.items = append(s.list.items, norm)
		}
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List() ([]alarm.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.snapshot(), nil
}

func (s *FileStore) Get(id int64) (alarm.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.get(id)
}

func (s *FileStore) Add(a alarm.Alarm) (alarm.Alarm, error) {
	return s.mutate(func(l *list) (alarm.Alarm, error) { return l.add(a) })
}

func (s *FileStore) Update(id int64, a alarm.Alarm) (alarm.Alarm, error) {
	return s.mutate(func(l *list) (alarm.Alarm, error) { return l.update(id, a) })
}

func (s *FileStore) Delete(id int64) error {
	_, err := s.mutate(func(l *list) (alarm.Alarm, error) { return alarm.Alarm{}, l.delete(id) })
	return err
}

func (s *FileStore) Toggle(id int64) (alarm.Alarm, error) {
	return s.mutate(func(l *list) (alarm.Alarm, error) { return l.toggle(id) })
}

func (s *FileStore) mutate(fn func(l *list) (alarm.Alarm, error)) (alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := list{items: make([]alarm.Alarm, 0, len(s.list.items)), now: s.list.now}
	for _, a := range s.list.items {
		next.items = append(next.items, a.Clone())
	}
	out, err := fn(&next)
	if err != nil {
		return alarm.Alarm{}, err
	}
	if err := s.write(next.snapshot()); err != nil {
		return alarm.Alarm{}, err
	}
	s.list = next
	return out, nil
}

func (s *FileStore) write(items []alarm.Alarm) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fileDoc{Alarms: items}); err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".alarms-*.toml")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("store: rename %s: %w", s.path, err)
	}
	return nil
}
