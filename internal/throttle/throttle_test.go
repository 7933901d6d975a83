package throttle

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAllowFiresImmediatelyOnFirstCall(t *testing.T) {
	t.Parallel()

	th := New(1, testLogger())
	if !th.Allow("cancel_order") {
		t.Fatal("expected first invocation to fire")
	}
}

func TestAllowDropsWithinInterval(t *testing.T) {
	t.Parallel()

	th := New(1, testLogger()) // 1/sec
	if !th.Allow("cancel_order") {
		t.Fatal("expected first invocation to fire")
	}
	if th.Allow("cancel_order") {
		t.Fatal("expected immediate second invocation to be dropped")
	}
}

func TestAllowIsPerOperationName(t *testing.T) {
	t.Parallel()

	th := New(1, testLogger())
	if !th.Allow("cancel_order") {
		t.Fatal("expected cancel_order to fire")
	}
	if !th.Allow("new_order") {
		t.Fatal("expected new_order to fire independently of cancel_order's throttle")
	}
}

func TestAllowRefillsAfterInterval(t *testing.T) {
	t.Parallel()

	th := New(20, testLogger()) // 50ms interval
	if !th.Allow("ping") {
		t.Fatal("expected first invocation to fire")
	}
	time.Sleep(80 * time.Millisecond)
	if !th.Allow("ping") {
		t.Fatal("expected invocation to fire after interval elapsed")
	}
}

func TestDoReturnsErrThrottledWhenDropped(t *testing.T) {
	t.Parallel()

	th := New(1, testLogger())
	calls := 0
	run := func() error { calls++; return nil }

	if err := th.Do("new_order", run); err != nil {
		t.Fatalf("first Do: %v", err)
	}
	if err := th.Do("new_order", run); err != ErrThrottled {
		t.Fatalf("second Do error = %v, want ErrThrottled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second call must not invoke fn)", calls)
	}
}
