package game

import "testing"

func TestRecruit(t *testing.T) {
	h := newHarness(t, fixture())

	res := h.engine.Recruit(ClassNetrunner)
	if !res.Success || res.Member == nil {
		t.Fatalf("recruit failed: %s", res.Reason)
	}
	m := res.Member
	if m.Class != ClassNetrunner || m.Level != 1 || m.Cool != 6 || m.Reflex != 3 || m.Health != 80 || m.Status != StatusIdle {
		t.Fatalf("unexpected recruit %+v", m)
	}
	got := h.engine.State()
	if got.Eddies != 250 || len(got.Crew) != 3 {
		t.Fatalf("expected 250 eddies and 3 crew, got %d/%d", got.Eddies, len(got.Crew))
	}

	if res := h.engine.Recruit(Class("SAMURAI")); res.Success {
		t.Fatal("unknown class should fail")
	}
	h.engine.Recruit(ClassSolo)
	if res := h.engine.Recruit(ClassSolo); res.Success {
		t.Fatal("expected recruiting without funds to fail")
	}
}

func TestHealClearsInjury(t *testing.T) {
	st := fixture()
	st.Crew[0].Health = 0
	st.Crew[0].Injured = true
	st.Crew[0].Status = StatusInjured
	h := newHarness(t, st)

	if res := h.engine.HealMember("m2"); res.Success {
		t.Fatal("healthy member should not be healed")
	}
	if res := h.engine.HealMember("m1"); !res.Success {
		t.Fatalf("heal failed: %s", res.Reason)
	}
	got := h.engine.State()
	m := findMember(t, got, "m1")
	if m.Health != 100 || m.Injured || m.Status != StatusIdle {
		t.Fatalf("expected a full recovery, got %+v", m)
	}
	if got.Eddies != 300 {
		t.Fatalf("expected 100 hp at 2 each, got eddies %d", got.Eddies)
	}
}

func TestUpgradeMember(t *testing.T) {
	h := newHarness(t, fixture())

	if res := h.engine.UpgradeMember("m1", StatCool); !res.Success {
		t.Fatalf("cool upgrade failed: %s", res.Reason)
	}
	if res := h.engine.UpgradeMember("m1", StatHealth); !res.Success {
		t.Fatalf("health upgrade failed: %s", res.Reason)
	}
	if res := h.engine.UpgradeMember("m1", "luck"); res.Success {
		t.Fatal("unknown stat should fail")
	}

	got := h.engine.State()
	m := findMember(t, got, "m1")
	if m.Cool != 5 || m.MaxHealth != 110 || m.Health != 110 {
		t.Fatalf("unexpected member %+v", m)
	}
	// 60*4 + 150
	if got.Eddies != 110 {
		t.Fatalf("expected 110 eddies left, got %d", got.Eddies)
	}
}

func TestResourceActions(t *testing.T) {
	h := newHarness(t, fixture())
	h.engine.AddEddies(-1000)
	h.engine.AddRep(7)
	if got := h.engine.State(); got.Eddies != 0 || got.Rep != 7 {
		t.Fatalf("expected eddies clamped to 0 and rep 7, got %d/%d", got.Eddies, got.Rep)
	}

	if res := h.engine.SetGangName("   "); res.Success {
		t.Fatal("blank name should fail")
	}
	if res := h.engine.SetGangName("  Maelstrom "); !res.Success {
		t.Fatalf("rename failed: %s", res.Reason)
	}
	if got := h.engine.State().GangName; got != "Maelstrom" {
		t.Fatalf("expected Maelstrom, got %q", got)
	}
}
