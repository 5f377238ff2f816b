package alarm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTime    = errors.New("alarm: invalid time")
	ErrInvalidWeekday = errors.New("alarm: invalid weekday")
	ErrInvalidAlarm   = errors.New("alarm: invalid alarm")
)

const (
	DefaultRingtone = "default"
	DefaultVolume   = 80
	DefaultSnooze   = 10
	MaxVolume       = 100
)

// Weekday is a three-letter day name (Sun..Sat).
type Weekday string

const (
	Sunday    Weekday = "Sun"
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
)

var weekdays = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// ParseWeekday accepts "Mon", "mon" or "monday".
func ParseWeekday(raw string) (Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if len(v) >= 3 {
		candidate := Weekday(strings.ToUpper(v[:1]) + v[1:3])
		if _, ok := weekdays[candidate]; ok {
			full := strings.ToLower(weekdays[candidate].String())
			if v == full[:3] || v == full {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
}

// Time converts the name to a time.Weekday.
func (d Weekday) Time() (time.Weekday, bool) {
	wd, ok := weekdays[d]
	return wd, ok
}

// ParseClock parses an "HH:MM" 24-hour clock string.
func ParseClock(raw string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: minute in %q", ErrInvalidTime, raw)
	}
	return hour, minute, nil
}

// Alarm is one user-defined alarm. Empty Days means a one-shot alarm.
type Alarm struct {
	ID        int64     `toml:"id" json:"id"`
	Title     string    `toml:"title" json:"title"`
	Time      string    `toml:"time" json:"time"`
	Days      []Weekday `toml:"days" json:"days"`
	Enabled   bool      `toml:"enabled" json:"enabled"`
	Ringtone  string    `toml:"ringtone" json:"ringtone"`
	Volume    int       `toml:"volume" json:"volume"`
	Vibration bool      `toml:"vibration" json:"vibration"`
	Snooze    int       `toml:"snooze" json:"snooze"`
}

// Recurring reports whether the alarm repeats weekly.
func (a Alarm) Recurring() bool {
	return len(a.Days) > 0
}

// Validate checks field ranges; ID is assigned by the store and not checked here.
func (a Alarm) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidAlarm)
	}
	if _, _, err := ParseClock(a.Time); err != nil {
		return err
	}
	seen := make(map[Weekday]struct{}, len(a.Days))
	for _, d := range a.Days {
		if _, ok := weekdays[d]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidWeekday, d)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("%w: duplicate day %q", ErrInvalidAlarm, d)
		}
		seen[d] = struct{}{}
	}
	if a.Volume < 0 || a.Volume > MaxVolume {
		return fmt.Errorf("%w: volume %d out of range", ErrInvalidAlarm, a.Volume)
	}
	if a.Snooze < 0 {
		return fmt.Errorf("%w: negative snooze", ErrInvalidAlarm)
	}
	return nil
}

// Normalize trims text fields, canonicalizes day names and fills defaults.
func (a Alarm) Normalize() (Alarm, error) {
	out := a.Clone()
	out.Title = strings.TrimSpace(out.Title)
	out.Time = strings.TrimSpace(out.Time)
	out.Ringtone = strings.TrimSpace(out.Ringtone)
	if out.Ringtone == "" {
		out.Ringtone = DefaultRingtone
	}
	// zero means unset, as in the alarm form
	if out.Volume == 0 {
		out.Volume = DefaultVolume
	}
	if out.Snooze == 0 {
		out.Snooze = DefaultSnooze
	}
	for i, d := range out.Days {
		wd, err := ParseWeekday(string(d))
		if err != nil {
			return Alarm{}, err
		}
		out.Days[i] = wd
	}
	if err := out.Validate(); err != nil {
		return Alarm{}, err
	}
	return out, nil
}

// Clone returns a copy that shares no slices with a.
func (a Alarm) Clone() Alarm {
	out := a
	if a.Days != nil {
		out.Days = append([]Weekday(nil), a.Days...)
	}
	return out
}

var sounds = map[string]string{
	"default":   "beep.wav",
	"gentle":    "gentle.wav",
	"energetic": "energetic.wav",
	"classic":   "classic.wav",
}

// SoundFor maps a ringtone name to its sound file. Unknown ringtones are silent.
func SoundFor(ringtone string) string {
	return sounds[strings.ToLower(strings.TrimSpace(ringtone))]
}
