package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/timeweaver/internal/daemon"
)

type fileConfig struct {
	ID                 string   `toml:"id"`
	Store              string   `toml:"store"`
	Listen             string   `toml:"listen"`
	CorsOrigins        []string `toml:"cors_origins"`
	HostToken          string   `toml:"host_token"`
	Tick               string   `toml:"tick"`
	TickMS             int64    `toml:"tick_ms"`
	Heartbeat          string   `toml:"heartbeat"`
	RescheduleOnSignal bool     `toml:"reschedule_on_signal"`
	RescheduleTimeout  string   `toml:"reschedule_timeout"`
	Sink               fileSink `toml:"sink"`
}

type fileSink struct {
	Kind    string   `toml:"kind"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Timeout string   `toml:"timeout"`
}

func loadServiceConfig(path string) (daemon.ServiceConfig, error) {
	cfg := daemon.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return daemon.ServiceConfig{}, fmt.Errorf("load alarmd config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return daemon.ServiceConfig{}, fmt.Errorf("load alarmd config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("id") {
		if id := strings.TrimSpace(raw.ID); id != "" {
			cfg.ServiceID = id
		}
	}
	if meta.IsDefined("store") {
		cfg.StorePath = strings.TrimSpace(raw.Store)
	}
	if meta.IsDefined("listen") {
		cfg.ListenAddr = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("host_token") {
		cfg.HostToken = strings.TrimSpace(raw.HostToken)
	}

	if meta.IsDefined("tick") {
		d, err := parseDuration("tick", raw.Tick)
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.TickInterval = d
	}
	if meta.IsDefined("tick_ms") {
		cfg.TickInterval = time.Duration(raw.TickMS) * time.Millisecond
	}
	if meta.IsDefined("heartbeat") {
		d, err := parseDuration("heartbeat", raw.Heartbeat)
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.HeartbeatInterval = d
	}
	if meta.IsDefined("reschedule_on_signal") {
		cfg.RescheduleOnSignal = raw.RescheduleOnSignal
	}
	if meta.IsDefined("reschedule_timeout") {
		d, err := parseDuration("reschedule_timeout", raw.RescheduleTimeout)
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.RescheduleTimeout = d
	}

	if meta.IsDefined("sink", "kind") {
		cfg.Sink.Kind = daemon.SinkKind(strings.ToLower(strings.TrimSpace(raw.Sink.Kind)))
	}
	if meta.IsDefined("sink", "command") {
		cfg.Sink.Command = strings.TrimSpace(raw.Sink.Command)
	}
	if meta.IsDefined("sink", "args") {
		cfg.Sink.Args = raw.Sink.Args
	}
	if meta.IsDefined("sink", "timeout") {
		d, err := parseDuration("sink.timeout", raw.Sink.Timeout)
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.Sink.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return daemon.ServiceConfig{}, fmt.Errorf("load alarmd config: %w", err)
	}
	return cfg, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
