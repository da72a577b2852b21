package game

import (
	"context"
	"testing"
	"time"
)

func TestRestoredMissionCompletesOnSchedule(t *testing.T) {
	st := fixture()
	st.Crew[0].Status = StatusOnMission
	start := int64(1_700_000_000_000)
	st.ActiveMissions = []ActiveMission{{
		ID:        "am1",
		MemberIDs: []string{"m1"},
		Mission:   st.AvailableMissions[0],
		StartTime: start - 59_000,
		EndTime:   start + 1_000,
	}}
	st.AvailableMissions = nil
	saver := &memorySaver{}
	h := newHarness(t, st, WithSaver(saver))

	if n := h.engine.Advance(h.clock.advance(999 * time.Millisecond)); n != 0 {
		t.Fatalf("nothing should fire early, %d jobs fired", n)
	}
	h.engine.Advance(h.clock.advance(time.Millisecond))

	got := h.engine.State()
	if len(got.ActiveMissions) != 0 {
		t.Fatal("restored mission did not complete")
	}
	if m := findMember(t, got, "m1"); m.Status == StatusOnMission {
		t.Fatal("member still on mission")
	}
	if len(saver.saves) != 1 {
		t.Fatalf("expected a save on completion, got %d", len(saver.saves))
	}
	assertInvariants(t, got)
}

func TestAutosaveRuns(t *testing.T) {
	saver := &memorySaver{}
	h := newHarness(t, fixture(), WithSaver(saver))

	h.engine.Advance(h.clock.advance(30 * time.Second))
	if len(saver.saves) != 1 {
		t.Fatalf("expected one autosave, got %d", len(saver.saves))
	}
	h.engine.Advance(h.clock.advance(29 * time.Second))
	if len(saver.saves) != 1 {
		t.Fatalf("autosave fired early, got %d saves", len(saver.saves))
	}
}

func TestStalledLoopsDoNotPileUp(t *testing.T) {
	h := newHarness(t, fixture())
	before := h.engine.PendingJobs()

	// Ten minutes in one step fires each loop once and requeues it once.
	h.engine.Advance(h.clock.advance(10 * time.Minute))
	if got := h.engine.PendingJobs(); got > before+1 {
		t.Fatalf("expected at most %d pending jobs, got %d", before+1, got)
	}
}

func TestResetStartsOver(t *testing.T) {
	saver := &memorySaver{}
	st := fixture()
	st.Eddies = 9999
	h := newHarness(t, st, WithSaver(saver))

	var events []string
	h.engine.Listen(func(n Notification) { events = append(events, n.Message) })

	if err := h.engine.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got := h.engine.State()
	c := h.engine.Content()
	if saver.resets != 1 {
		t.Fatal("durable storage was not cleared")
	}
	if got.Eddies != c.Balance.StartingEddies || len(got.Gangs) != len(c.Gangs) || len(got.AvailableMissions) == 0 {
		t.Fatalf("expected a fresh game, got eddies %d gangs %d", got.Eddies, len(got.Gangs))
	}
	if h.engine.PendingJobs() == 0 {
		t.Fatal("loops were not rescheduled")
	}
	if len(events) != 1 {
		t.Fatalf("expected one reset notification, got %v", events)
	}
}

func TestSubscribersSeeEveryAction(t *testing.T) {
	h := newHarness(t, fixture())
	var eddies []int
	h.engine.Subscribe(func(st State) { eddies = append(eddies, st.Eddies) })

	h.engine.AddEddies(50)
	h.engine.RefreshMissions()

	want := []int{500, 550, 500}
	if len(eddies) != len(want) {
		t.Fatalf("expected %v, got %v", want, eddies)
	}
	for i := range want {
		if eddies[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, eddies)
		}
	}
}
