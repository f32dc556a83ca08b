package sched

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPhaseOrdering(t *testing.T) {
	var s Scheduler
	var got []string

	mk := func(name string) *Event {
		return NewEvent(name, func() { got = append(got, name) })
	}

	// Same cycle: all Phi1 events fire before any Phi2 event, and events
	// on the same (time, phase) fire in insertion order.
	s.Schedule(mk("b-phi2"), 1, Phi2)
	s.Schedule(mk("a-phi1"), 1, Phi1)
	s.Schedule(mk("c-phi1"), 1, Phi1)
	s.Schedule(mk("d-phi2"), 1, Phi2)

	for s.firstEvent != nil {
		s.Clock()
	}

	want := []string{"a-phi1", "c-phi1", "b-phi2", "d-phi2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestCancelIdempotent(t *testing.T) {
	var s Scheduler
	ev := NewEvent("ev", func() {})

	s.Schedule(ev, 10, Phi1)
	s.Cancel(ev)
	s.Cancel(ev) // second cancel must be a no-op

	if s.IsPending(ev) {
		t.Error("event still pending after cancel")
	}
}

func TestCancelRescheduleKeepsOrder(t *testing.T) {
	var s Scheduler
	var got []string

	a := NewEvent("a", func() { got = append(got, "a") })
	b := NewEvent("b", func() { got = append(got, "b") })

	s.Schedule(a, 5, Phi1)
	s.Schedule(b, 5, Phi1)

	// Cancelling and rescheduling b with the same delay moves it after a,
	// which is where it already was: future dispatch order is unchanged.
	s.Cancel(b)
	s.Schedule(b, 5, Phi1)

	s.Clock()
	s.Clock()

	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestSelfReschedule(t *testing.T) {
	var s Scheduler
	n := 0
	var tick *Event
	tick = NewEvent("tick", func() {
		n++
		if n < 5 {
			s.Schedule(tick, 1, Phi1)
		}
	})

	s.Schedule(tick, 1, Phi1)
	for s.firstEvent != nil {
		s.Clock()
	}

	if n != 5 {
		t.Errorf("got %d ticks, want 5", n)
	}
	if want := uint64(5); s.Time(Phi1) != want {
		t.Errorf("got time %d, want %d", s.Time(Phi1), want)
	}
}

func TestTimePerPhase(t *testing.T) {
	var s Scheduler

	fired := false
	s.Schedule(NewEvent("probe", func() { fired = true }), 3, Phi2)
	s.Clock()

	if !fired {
		t.Fatal("event did not fire")
	}
	if got := s.Time(Phi2); got != 3 {
		t.Errorf("Time(Phi2) = %d, want 3", got)
	}
	if got := s.Phase(); got != Phi2 {
		t.Errorf("Phase() = %v, want Phi2", got)
	}
}
