package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/timeweaver/internal/api"
	"github.com/danmuck/timeweaver/internal/lifecycle"
	"github.com/danmuck/timeweaver/internal/scheduler"
	"github.com/danmuck/timeweaver/internal/store"
	"github.com/danmuck/timeweaver/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func newDaemon(t *testing.T, token string) (*httptest.Server, *lifecycle.Notifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemoryStore()
	sch, err := scheduler.New(scheduler.Config{Store: st})
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	n := lifecycle.NewNotifier(lifecycle.NotifierConfig{Trigger: true})
	srv := api.New(api.Config{ID: "alarmd.test", Token: token}, st, sch, n)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, n
}

func TestNotifyDeliversBootAction(t *testing.T) {
	testlog.Start(t)
	ts, n := newDaemon(t, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := notify(ctx, ts.Client(), ts.URL+"/", lifecycle.ActionBootCompleted, "secret")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if res.Signal != "boot_completed" || !res.Handled {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(n.Requests()) != 1 {
		t.Fatalf("expected reschedule request queued")
	}
}

func TestNotifyUnknownActionIsAcceptedButUnhandled(t *testing.T) {
	testlog.Start(t)
	ts, n := newDaemon(t, "")
	res, err := notify(context.Background(), ts.Client(), ts.URL, "android.intent.action.TIME_TICK", "")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if res.Handled || len(n.Requests()) != 0 {
		t.Fatalf("unknown action must be dropped: %+v", res)
	}
}

func TestNotifyRejectedToken(t *testing.T) {
	testlog.Start(t)
	ts, _ := newDaemon(t, "secret")
	if _, err := notify(context.Background(), ts.Client(), ts.URL, "boot", "wrong"); err == nil {
		t.Fatalf("expected unauthorized error")
	}
}

func TestNotifyUnreachable(t *testing.T) {
	testlog.Start(t)
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	if _, err := notify(context.Background(), http.DefaultClient, url, "boot", ""); err == nil {
		t.Fatalf("expected connection error")
	}
}
