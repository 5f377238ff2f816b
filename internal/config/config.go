package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
	"github.com/pelletier/go-toml/v2"
)

type AlarmdConfig struct {
	ID                 string     `toml:"id"`
	Store              string     `toml:"store"`
	Listen             string     `toml:"listen"`
	CorsOrigins        []string   `toml:"cors_origins"`
	HostToken          string     `toml:"host_token"`
	Tick               string     `toml:"tick"`
	TickMS             int64      `toml:"tick_ms"`
	Heartbeat          string     `toml:"heartbeat"`
	RescheduleOnSignal *bool      `toml:"reschedule_on_signal"`
	RescheduleTimeout  string     `toml:"reschedule_timeout"`
	Sink               SinkConfig `toml:"sink"`
}

type SinkConfig struct {
	Kind    string   `toml:"kind"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Timeout string   `toml:"timeout"`
}

type AlarmsFile struct {
	Alarms []alarm.Alarm `toml:"alarms"`
}

func LoadAlarmdConfig(path string) (AlarmdConfig, error) {
	var cfg AlarmdConfig
	if err := loadToml(path, &cfg); err != nil {
		return AlarmdConfig{}, err
	}
	if cfg.ID == "" {
		cfg.ID = "alarmd.local"
	}
	if err := ValidateAlarmdConfig(cfg); err != nil {
		return AlarmdConfig{}, err
	}
	return cfg, nil
}

func LoadAlarmsFile(path string) (AlarmsFile, error) {
	var file AlarmsFile
	if err := loadToml(path, &file); err != nil {
		return AlarmsFile{}, err
	}
	if err := ValidateAlarmsFile(file); err != nil {
		return AlarmsFile{}, err
	}
	return file, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateAlarmdConfig(cfg AlarmdConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("alarmd config missing id")
	}
	durations := map[string]string{
		"tick":               cfg.Tick,
		"heartbeat":          cfg.Heartbeat,
		"reschedule_timeout": cfg.RescheduleTimeout,
		"sink.timeout":       cfg.Sink.Timeout,
	}
	for key, raw := range durations {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s invalid: %w", key, err)
		}
		if d <= 0 && key != "reschedule_timeout" && key != "sink.timeout" {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if cfg.TickMS < 0 {
		return fmt.Errorf("tick_ms must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Sink.Kind)) {
	case "", "log":
	case "command":
		if strings.TrimSpace(cfg.Sink.Command) == "" {
			return fmt.Errorf("sink.command required when sink.kind is command")
		}
	default:
		return fmt.Errorf("sink.kind unknown: %q", cfg.Sink.Kind)
	}
	if strings.TrimSpace(cfg.HostToken) == "" && !IsLoopback(cfg.Listen) {
		return fmt.Errorf("host_token required when listen is not loopback")
	}
	return nil
}

func ValidateAlarmsFile(file AlarmsFile) error {
	seen := make(map[int64]struct{}, len(file.Alarms))
	for i, a := range file.Alarms {
		if _, err := a.Normalize(); err != nil {
			return fmt.Errorf("alarms[%d] invalid: %w", i, err)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("alarms[%d] duplicate id %d", i, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// IsLoopback reports whether a listen address only accepts local connections.
// An empty address counts as loopback since nothing listens.
func IsLoopback(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return true
	}
	for _, prefix := range []string{"127.0.0.1:", "localhost:", "[::1]:"} {
		if strings.HasPrefix(addr, prefix) {
			return true
		}
	}
	return false
}
