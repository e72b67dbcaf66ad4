package alert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	at    []time.Time
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, message)
	f.at = append(f.at, time.Now())
	return f.err
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *fakeRecorder) RecordAlert(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeRecorder) Close() error { return nil }

func testEvent() Event {
	return Event{Symbol: "BTCUSDT", Kind: BelowTriggered, Threshold: 100, Price: 99, Time: time.Now()}
}

// go test -v --run TestDispatcherRepeatsWithDelay
func TestDispatcherRepeatsWithDelay(t *testing.T) {
	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	d := NewDispatcher(context.Background(), n, rec, 3, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	d.Dispatch(testEvent())
	if time.Since(start) > 10*time.Millisecond {
		t.Error("Dispatch must not block the caller")
	}
	d.Wait()

	if len(n.calls) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(n.calls))
	}
	for i := 1; i < len(n.at); i++ {
		if gap := n.at[i].Sub(n.at[i-1]); gap < 20*time.Millisecond {
			t.Errorf("notification %d came %v after the previous one", i, gap)
		}
	}
	if len(rec.events) != 1 || rec.events[0].Price != 99 {
		t.Errorf("expected the event journaled once, got %+v", rec.events)
	}
}

func TestDispatcherKeepsGoingOnNotifyError(t *testing.T) {
	n := &fakeNotifier{err: errors.New("boom")}
	d := NewDispatcher(context.Background(), n, nil, 2, time.Millisecond, zap.NewNop())
	d.Dispatch(testEvent())
	d.Wait()

	if len(n.calls) != 2 {
		t.Errorf("expected 2 attempts despite errors, got %d", len(n.calls))
	}
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := &fakeNotifier{}
	d := NewDispatcher(ctx, n, nil, 3, time.Hour, zap.NewNop())

	d.Dispatch(testEvent())
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() { d.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delivery did not stop after cancel")
	}
	if len(n.calls) != 1 {
		t.Errorf("expected a single notification before cancel, got %d", len(n.calls))
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL).Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["message"] != "hello" {
		t.Errorf("unexpected payload %+v", got)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	if err := NewWebhookNotifier(failing.URL).Notify(context.Background(), "x"); err == nil {
		t.Error("expected error on 500")
	}
}

func TestCommandNotifier(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true(1) not available")
	}
	if err := NewCommandNotifier("true").Notify(context.Background(), "msg"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := NewCommandNotifier("wschart-no-such-command").Notify(context.Background(), "msg"); err == nil {
		t.Error("expected error for a missing command")
	}
}

func TestMultiNotifier(t *testing.T) {
	a, b := &fakeNotifier{}, &fakeNotifier{err: errors.New("down")}
	err := MultiNotifier{a, b}.Notify(context.Background(), "m")
	if err == nil {
		t.Error("expected joined error")
	}
	if len(a.calls) != 1 || len(b.calls) != 1 {
		t.Errorf("expected both notifiers called, got %d and %d", len(a.calls), len(b.calls))
	}
}
