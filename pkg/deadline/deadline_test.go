package deadline

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/querydeadline/internal/testutil"
)

var testBase = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestDeadline(after time.Duration, c Canceler) *Deadline {
	return New(testBase.Add(after), testBase, c)
}

func TestNew(t *testing.T) {
	d := newTestDeadline(time.Second, nil)

	if d.ID() == "" {
		t.Error("deadline should have an id")
	}
	testutil.AssertEqual(t, d.State(), Armed)
	testutil.AssertEqual(t, d.Expiry(), testBase.Add(time.Second))
	testutil.AssertEqual(t, d.ArmedAt(), testBase)
	testutil.AssertEqual(t, d.Fired(), false)
}

func TestIDsAreUnique(t *testing.T) {
	a := newTestDeadline(time.Second, nil)
	b := newTestDeadline(time.Second, nil)
	testutil.AssertNotEqual(t, a.ID(), b.ID())
}

func TestDisarm(t *testing.T) {
	d := newTestDeadline(time.Second, nil)

	if !d.Disarm() {
		t.Fatal("first Disarm should succeed")
	}
	testutil.AssertEqual(t, d.State(), Disarmed)

	if d.Disarm() {
		t.Error("second Disarm should report false")
	}
	if d.Fire() {
		t.Error("Fire after Disarm should report false")
	}
	testutil.AssertEqual(t, d.Fired(), false)
}

func TestFire(t *testing.T) {
	d := newTestDeadline(time.Second, nil)

	if !d.Fire() {
		t.Fatal("first Fire should succeed")
	}
	testutil.AssertEqual(t, d.State(), Fired)
	testutil.AssertEqual(t, d.Fired(), true)

	select {
	case <-d.Done():
	default:
		t.Error("Done channel should be closed after Fire")
	}

	if d.Fire() {
		t.Error("second Fire should report false")
	}
	if d.Disarm() {
		t.Error("Disarm after Fire should report false")
	}
}

func TestSettle(t *testing.T) {
	d := newTestDeadline(time.Second, nil)

	if d.Settle() {
		t.Error("Settle before Fire should report false")
	}

	d.Fire()
	if !d.Settle() {
		t.Fatal("Settle after Fire should succeed")
	}
	testutil.AssertEqual(t, d.State(), Disarmed)

	// Settling does not erase the fact that the deadline fired.
	testutil.AssertEqual(t, d.Fired(), true)
}

func TestDisarmFireRace(t *testing.T) {
	// A completion racing an expiry must resolve to exactly one winner.
	for i := 0; i < 1000; i++ {
		d := newTestDeadline(time.Second, nil)

		var wins int32
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if d.Disarm() {
				atomic.AddInt32(&wins, 1)
			}
		}()
		go func() {
			defer wg.Done()
			if d.Fire() {
				atomic.AddInt32(&wins, 1)
			}
		}()
		wg.Wait()

		if wins != 1 {
			t.Fatalf("iteration %d: %d transitions won, want exactly 1", i, wins)
		}
	}
}

func TestCancel(t *testing.T) {
	t.Run("cancel func", func(t *testing.T) {
		tracker := testutil.NewCallbackTracker()
		d := newTestDeadline(time.Second, CancelFunc(func() error {
			tracker.Mark()
			return nil
		}))

		testutil.AssertNoError(t, d.Cancel())
		tracker.AssertCallCount(t, 1)
	})

	t.Run("cancel error propagates", func(t *testing.T) {
		want := errors.New("connection already closed")
		d := newTestDeadline(time.Second, CancelFunc(func() error {
			return want
		}))

		if err := d.Cancel(); !errors.Is(err, want) {
			t.Errorf("Cancel() = %v, want %v", err, want)
		}
	})

	t.Run("nil canceler", func(t *testing.T) {
		d := newTestDeadline(time.Second, nil)
		testutil.AssertNoError(t, d.Cancel())
	})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Armed, "armed"},
		{Fired, "fired"},
		{Disarmed, "disarmed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
