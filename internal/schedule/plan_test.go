package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/timeweaver/internal/alarm"
	"github.com/danmuck/timeweaver/internal/testutil/testlog"
)

// 2026-03-04 is a Wednesday.
var wednesday = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func sample(days ...alarm.Weekday) alarm.Alarm {
	return alarm.Alarm{
		ID:       1000,
		Title:    "Wake",
		Time:     "08:30",
		Days:     days,
		Enabled:  true,
		Ringtone: "gentle",
		Volume:   60,
		Snooze:   10,
	}
}

func TestPlanOneShotRollsToTomorrowWhenPassed(t *testing.T) {
	testlog.Start(t)
	got, err := Plan(sample(), wednesday)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	want := time.Date(2026, 3, 5, 8, 30, 0, 0, time.UTC)
	if !got[0].At.Equal(want) || got[0].Weekly || got[0].ID != 1000 {
		t.Fatalf("unexpected one-shot: %+v", got[0])
	}
	if got[0].Sound != "gentle.wav" || got[0].ActionTypeID != ActionTypeAlarm || got[0].Extra.AlarmID != 1000 {
		t.Fatalf("unexpected notification details: %+v", got[0])
	}
}

func TestPlanOneShotLaterToday(t *testing.T) {
	testlog.Start(t)
	a := sample()
	a.Time = "21:15"
	got, _ := Plan(a, wednesday)
	want := time.Date(2026, 3, 4, 21, 15, 0, 0, time.UTC)
	if !got[0].At.Equal(want) {
		t.Fatalf("unexpected at: %v", got[0].At)
	}
}

func TestPlanOneShotExactlyNowIsTomorrow(t *testing.T) {
	testlog.Start(t)
	a := sample()
	a.Time = "09:00"
	got, _ := Plan(a, wednesday)
	if got[0].At.Day() != 5 {
		t.Fatalf("time equal to now must roll over, got %v", got[0].At)
	}
}

func TestPlanRecurringDays(t *testing.T) {
	testlog.Start(t)
	got, err := Plan(sample(alarm.Monday, alarm.Wednesday, alarm.Friday), wednesday)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected three notifications, got %d", len(got))
	}
	wants := []struct {
		at time.Time
		id int64
	}{
		{at: time.Date(2026, 3, 6, 8, 30, 0, 0, time.UTC), id: 1000 + 5*1_000_000},
		{at: time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC), id: 1000 + 1*1_000_000},
		{at: time.Date(2026, 3, 11, 8, 30, 0, 0, time.UTC), id: 1000 + 3*1_000_000},
	}
	for i, w := range wants {
		if !got[i].At.Equal(w.at) || got[i].ID != w.id || !got[i].Weekly {
			t.Fatalf("notification[%d] = %+v, want at=%v id=%d", i, got[i], w.at, w.id)
		}
	}
}

func TestPlanRecurringTodayNotYetPassed(t *testing.T) {
	testlog.Start(t)
	a := sample(alarm.Wednesday)
	a.Time = "18:00"
	got, _ := Plan(a, wednesday)
	if !got[0].At.Equal(time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected at: %v", got[0].At)
	}
}

func TestPlanDisabledAndInvalid(t *testing.T) {
	testlog.Start(t)
	a := sample()
	a.Enabled = false
	if got, err := Plan(a, wednesday); err != nil || len(got) != 0 {
		t.Fatalf("disabled alarm planned %v err=%v", got, err)
	}
	a = sample()
	a.Time = "bad"
	if _, err := Plan(a, wednesday); !errors.Is(err, alarm.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
	a = sample("Funday")
	if _, err := Plan(a, wednesday); !errors.Is(err, alarm.ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
}

func TestSnoozeAndNext(t *testing.T) {
	testlog.Start(t)
	n := Snooze(sample(), wednesday)
	if n.ID != 1000+999_999 || !n.Snooze || n.Kind() != "snooze" {
		t.Fatalf("unexpected snooze: %+v", n)
	}
	if !n.At.Equal(wednesday.Add(10 * time.Minute)) {
		t.Fatalf("unexpected snooze at: %v", n.At)
	}

	weekly, _ := Plan(sample(alarm.Friday), wednesday)
	next := Next(weekly[0])
	if next.At.Sub(weekly[0].At) != 7*24*time.Hour || next.ID != weekly[0].ID {
		t.Fatalf("unexpected next: %+v", next)
	}
}
