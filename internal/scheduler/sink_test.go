package scheduler

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/danmuck/timeweaver/internal/schedule"
	"github.com/danmuck/timeweaver/internal/testutil/testlog"
)

type fakeRunner struct {
	name string
	args []string
	err  error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	f.name = name
	f.args = args
	if f.err != nil {
		return nil, []byte("no device\n"), 2, f.err
	}
	return nil, nil, 0, nil
}

func sampleDelivery() Delivery {
	return Delivery{
		ID:      "d-1",
		FiredAt: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		Notification: schedule.Notification{
			ID:    42,
			Title: "Wake",
			Sound: "beep.wav",
			Extra: schedule.Extra{AlarmID: 40, Volume: 70},
		},
	}
}

func TestCommandSinkExpandsPlaceholders(t *testing.T) {
	testlog.Start(t)
	runner := &fakeRunner{}
	sink := CommandSink{Runner: runner, Command: "paplay", Args: []string{"--volume={volume}", "sounds/{sound}", "{alarm_id}:{notification_id}"}}
	if err := sink.Deliver(context.Background(), sampleDelivery()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	want := []string{"--volume=70", "sounds/beep.wav", "40:42"}
	if runner.name != "paplay" || !reflect.DeepEqual(runner.args, want) {
		t.Fatalf("unexpected invocation: %s %v", runner.name, runner.args)
	}
}

func TestCommandSinkErrors(t *testing.T) {
	testlog.Start(t)
	if err := (CommandSink{}).Deliver(context.Background(), sampleDelivery()); !errors.Is(err, ErrSinkCommandRequired) {
		t.Fatalf("expected ErrSinkCommandRequired, got %v", err)
	}
	cause := errors.New("exit status 2")
	sink := CommandSink{Runner: &fakeRunner{err: cause}, Command: "paplay", Timeout: time.Second}
	if err := sink.Deliver(context.Background(), sampleDelivery()); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}

func TestSinkFuncAndLogSink(t *testing.T) {
	testlog.Start(t)
	called := false
	f := SinkFunc(func(context.Context, Delivery) error {
		called = true
		return nil
	})
	if err := f.Deliver(context.Background(), sampleDelivery()); err != nil || !called {
		t.Fatalf("sink func not invoked")
	}
	if err := (LogSink{}).Deliver(context.Background(), sampleDelivery()); err != nil {
		t.Fatalf("log sink: %v", err)
	}
}
