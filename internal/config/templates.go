package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "alarmd":
		return alarmdTemplate, nil
	case "alarms":
		return alarmsTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const alarmdTemplate = `id = "alarmd.local"
store = "local/alarms.toml"
listen = "127.0.0.1:7420"
cors_origins = ["http://localhost:3000"]
host_token = ""
tick = "1s"
heartbeat = "1m"
reschedule_on_signal = true
reschedule_timeout = "10s"

[sink]
kind = "log"
command = ""
args = []
timeout = "30s"
`

const alarmsTemplate = `[[alarms]]
id = 1
title = "Wake up"
time = "07:00"
days = ["Mon", "Tue", "Wed", "Thu", "Fri"]
enabled = true
ringtone = "gentle"
volume = 80
vibration = true
snooze = 5

[[alarms]]
id = 2
title = "Nap"
time = "14:30"
enabled = false
ringtone = "classic"
volume = 50
vibration = false
snooze = 10
`
