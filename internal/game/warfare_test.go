package game

import (
	"testing"
	"time"
)

// withOp appends an in-progress operation that is already due.
func withOp(st *State, op Operation) {
	op.Status = OpInProgress
	st.Operations = append(st.Operations, op)
}

func TestSabotageStaysInBounds(t *testing.T) {
	st := fixture()
	st.Territories[1].Defense = 5
	st.Territories[1].Heat = 98
	withOp(&st, Operation{ID: "op1", Type: OpSabotage, TargetID: "north", InitiatorID: InitiatorPlayer})
	h := newHarness(t, st)

	h.engine.ResolveOperation("op1")
	got := h.engine.State()
	north := findTerritory(t, got, "north")
	if north.Defense != 0 || north.Heat != 100 {
		t.Fatalf("expected defense 0 heat 100, got %d/%d", north.Defense, north.Heat)
	}
	if len(got.Operations) != 0 {
		t.Fatal("resolved operation not purged")
	}
	assertInvariants(t, got)
}

func TestScoutIntelIncludesNetworkBonus(t *testing.T) {
	st := fixture()
	st.Territories[0].Upgrades = []Upgrade{{Type: UpgradeSurveillance, Level: 2}}
	withOp(&st, Operation{ID: "op1", Type: OpScout, TargetID: "north", InitiatorID: InitiatorPlayer})
	h := newHarness(t, st)

	h.engine.ResolveOperation("op1")
	// 25 base + 5 for bordering home + 10 for home's cameras
	if intel := findTerritory(t, h.engine.State(), "north").Intel; intel != 40 {
		t.Fatalf("expected intel 40, got %d", intel)
	}

	rep, _ := h.engine.Intel("north")
	if rep.Defense == nil || rep.Income != nil || rep.Garrison != nil || rep.CombatBonus {
		t.Fatalf("expected only the first tier at 40 intel, got %+v", rep)
	}
}

func TestIntelThresholds(t *testing.T) {
	st := fixture()
	st.Territories[1].Intel = 100
	h := newHarness(t, st)

	rep, found := h.engine.Intel("north")
	if !found {
		t.Fatal("north not found")
	}
	if rep.Defense == nil || rep.Income == nil || rep.Slots == nil || rep.Garrison == nil || !rep.CombatBonus {
		t.Fatalf("expected a full report, got %+v", rep)
	}
	if *rep.Garrison != 90 {
		t.Fatalf("expected garrison 90, got %d", *rep.Garrison)
	}
}

func TestRaidLootsForPlayerOnly(t *testing.T) {
	st := fixture()
	withOp(&st, Operation{ID: "mine", Type: OpRaid, TargetID: "north", InitiatorID: InitiatorPlayer, Power: 200})
	withOp(&st, Operation{ID: "theirs", Type: OpRaid, TargetID: "home", InitiatorID: "g1", Power: 200})
	h := newHarness(t, st)

	h.engine.ResolveOperation("mine")
	h.engine.ResolveOperation("theirs")
	got := h.engine.State()
	if got.Eddies != 620 {
		t.Fatalf("expected 120 loot once, got eddies %d", got.Eddies)
	}
	for _, id := range []string{"north", "home"} {
		tr := findTerritory(t, got, id)
		if tr.Defense != 20 || tr.Stability != 50 || tr.Heat != 10 {
			t.Fatalf("%s: expected 20/50/10, got %d/%d/%d", id, tr.Defense, tr.Stability, tr.Heat)
		}
	}
}

func TestPlayerAssaultCapturesTerritory(t *testing.T) {
	st := fixture()
	st.Crew[0] = member("m1", ClassSolo, 20, 20, 2) // 86 operation power
	st.Territories[1].Defense = 5                   // 50 defender power
	h := newHarness(t, st)

	start := h.engine.InitiatePlayerAssault("north", []string{"m1"})
	if !start.Success {
		t.Fatalf("assault refused: %s", start.Reason)
	}
	if start.Operation.Power != 86 || start.Operation.EndTime-start.Operation.StartTime != 30000 {
		t.Fatalf("unexpected operation %+v", start.Operation)
	}
	if m := findMember(t, h.engine.State(), "m1"); m.Status != StatusOnMission || m.CurrentMission != "Assault: north" {
		t.Fatalf("member not locked: %+v", m)
	}

	h.rng.script(0.5)
	h.engine.ResolveOperation(start.Operation.ID)
	got := h.engine.State()
	north := findTerritory(t, got, "north")
	if !north.Controlled || north.RivalGang != "" {
		t.Fatalf("north not captured: %+v", north)
	}
	if north.Defense != captureDefense || north.Stability != captureStability || north.Heat != assaultHeat {
		t.Fatalf("unexpected post-capture attributes %+v", north)
	}
	if m := findMember(t, got, "m1"); m.Status != StatusIdle {
		t.Fatalf("member not released: %+v", m)
	}
	assertInvariants(t, got)
}

func TestPlayerAssaultArmoryBoost(t *testing.T) {
	st := fixture()
	st.Territories[0].Upgrades = []Upgrade{{Type: UpgradeArmory, Level: 2}}
	h := newHarness(t, st)

	start := h.engine.InitiatePlayerAssault("north", []string{"m1"})
	// (4+4)*2 + 3 = 19, x1.10
	if !start.Success || start.Operation.Power != 20 {
		t.Fatalf("expected power 20, got %+v", start)
	}
}

func TestPlayerAssaultFailureInjuryRoll(t *testing.T) {
	st := fixture()
	withOp(&st, Operation{ID: "op1", Type: OpAssault, TargetID: "north", InitiatorID: InitiatorPlayer, Power: 10, MemberIDs: []string{"m1"}, Label: "Assault: north"})
	st.Crew[0].Status = StatusOnMission
	st.Crew[0].CurrentMission = "Assault: north"
	h := newHarness(t, st)

	// variance, injury hit, 10 damage
	h.rng.script(0.5, 0.0, 0.0)
	h.engine.ResolveOperation("op1")
	got := h.engine.State()
	if findTerritory(t, got, "north").RivalGang != "g1" {
		t.Fatal("failed assault flipped the territory")
	}
	if m := findMember(t, got, "m1"); m.Health != 90 || m.Status != StatusIdle {
		t.Fatalf("expected 10 damage and release, got %+v", m)
	}
	if heat := findTerritory(t, got, "north").Heat; heat != assaultHeat {
		t.Fatalf("expected heat %d after a failed assault, got %d", assaultHeat, heat)
	}
}

func TestGangAssaultConsumesDefend(t *testing.T) {
	st := fixture()
	withOp(&st, Operation{ID: "atk", Type: OpAssault, TargetID: "home", InitiatorID: "g1", Power: 500})
	withOp(&st, Operation{ID: "def", Type: OpDefend, TargetID: "home", InitiatorID: InitiatorPlayer, Power: 100})
	h := newHarness(t, st)

	// 400 + 50 + 100 = 550 defending against 500
	h.rng.script(0.5)
	h.engine.ResolveOperation("atk")
	got := h.engine.State()
	if !findTerritory(t, got, "home").Controlled {
		t.Fatal("defended territory fell")
	}
	if len(got.Operations) != 1 || !got.Operations[0].Consumed {
		t.Fatalf("expected the defend to be consumed, got %+v", got.Operations)
	}

	h.engine.ResolveOperation("def")
	if stab := findTerritory(t, h.engine.State(), "home").Stability; stab != 60 {
		t.Fatalf("consumed defend should not add stability, got %d", stab)
	}
}

func TestGangAssaultTakesPlayerTerritory(t *testing.T) {
	st := fixture()
	st.Territories[0].Defense = 10 // 100 + 50
	withOp(&st, Operation{ID: "atk", Type: OpAssault, TargetID: "home", InitiatorID: "g1", Power: 300})
	h := newHarness(t, st)

	h.rng.script(0.5)
	h.engine.ResolveOperation("atk")
	got := h.engine.State()
	home := findTerritory(t, got, "home")
	if home.Controlled || home.RivalGang != "g1" {
		t.Fatalf("expected g1 to hold home, got %+v", home)
	}
	if g := got.Gangs[gangIndex(got.Gangs, "g1")]; len(g.Territories) != 3 {
		t.Fatalf("gang list not updated: %+v", g)
	}
	assertInvariants(t, got)
}

func TestAlliesBluntGangAssault(t *testing.T) {
	st := fixture()
	st.Territories[0].Defense = 10 // 150 defending
	st.Gangs[1].Relationship = allyRelationship
	withOp(&st, Operation{ID: "atk", Type: OpAssault, TargetID: "home", InitiatorID: "g1", Power: 180})
	h := newHarness(t, st)

	// 180 * 0.8 = 144 < 150
	h.rng.script(0.5)
	h.engine.ResolveOperation("atk")
	if !findTerritory(t, h.engine.State(), "home").Controlled {
		t.Fatal("allied support should have held home")
	}
}

func TestUnconsumedDefendAddsStability(t *testing.T) {
	st := fixture()
	withOp(&st, Operation{ID: "def", Type: OpDefend, TargetID: "home", InitiatorID: InitiatorPlayer, Power: 40})
	withOp(&st, Operation{ID: "fort", Type: OpFortify, TargetID: "home", InitiatorID: InitiatorPlayer})
	h := newHarness(t, st)

	h.engine.ResolveOperation("def")
	h.engine.ResolveOperation("fort")
	home := findTerritory(t, h.engine.State(), "home")
	if home.Stability != 75 || home.Defense != 60 {
		t.Fatalf("expected stability 75 defense 60, got %d/%d", home.Stability, home.Defense)
	}
}

func TestLaunchOperationValidation(t *testing.T) {
	h := newHarness(t, fixture())
	cases := []struct {
		kind   OperationType
		target string
	}{
		{OpFortify, "north"},
		{OpRaid, "home"},
		{OpSabotage, "west"},
		{OperationType("BRIBE"), "north"},
	}
	for _, tc := range cases {
		if res := h.engine.LaunchOperation(tc.kind, tc.target, []string{"m1"}); res.Success {
			t.Fatalf("%s on %s should fail", tc.kind, tc.target)
		}
	}

	res := h.engine.LaunchOperation(OpScout, "west", []string{"m1"})
	if !res.Success {
		t.Fatalf("scout refused: %s", res.Reason)
	}
	if got := res.Operation.EndTime - res.Operation.StartTime; got != 20000 {
		t.Fatalf("expected the 20s scout window, got %d", got)
	}
	if ops := h.engine.Operations("west"); len(ops) != 1 {
		t.Fatalf("expected one operation on west, got %d", len(ops))
	}
	if ops := h.engine.Operations("north"); len(ops) != 0 {
		t.Fatalf("expected nothing on north, got %d", len(ops))
	}
}

func TestStartOperationLocksBoundCrew(t *testing.T) {
	h := newHarness(t, fixture())

	res := h.engine.StartOperation(OpScout, "north", InitiatorPlayer, 10, time.Second, []string{"m1"})
	if !res.Success {
		t.Fatalf("scout refused: %s", res.Reason)
	}
	if m := findMember(t, h.engine.State(), "m1"); m.Status != StatusOnMission || m.CurrentMission != "Scout: north" {
		t.Fatalf("member not locked: %+v", m)
	}
	if ms := h.engine.StartMission([]string{"m1"}, "job1"); ms.Success {
		t.Fatal("a member on an operation was sent on a mission")
	}
	if again := h.engine.StartOperation(OpRaid, "north", InitiatorPlayer, 10, time.Second, []string{"m1"}); again.Success {
		t.Fatal("a member was bound to two operations")
	}
	if bad := h.engine.StartOperation(OpScout, "north", InitiatorPlayer, 10, time.Second, []string{"ghost"}); bad.Success {
		t.Fatal("an unknown member was bound")
	}

	h.engine.ResolveOperation(res.Operation.ID)
	if m := findMember(t, h.engine.State(), "m1"); m.Status != StatusIdle || m.CurrentMission != "" {
		t.Fatalf("member not released: %+v", m)
	}
}

func TestResolveLeavesRedeployedCrewAlone(t *testing.T) {
	st := fixture()
	withOp(&st, Operation{ID: "op1", Type: OpScout, TargetID: "north", InitiatorID: InitiatorPlayer, MemberIDs: []string{"m1"}, Label: "Scout: north"})
	st.Crew[0].Status = StatusOnMission
	st.Crew[0].CurrentMission = "Data Heist"
	h := newHarness(t, st)

	h.engine.ResolveOperation("op1")
	if m := findMember(t, h.engine.State(), "m1"); m.Status != StatusOnMission || m.CurrentMission != "Data Heist" {
		t.Fatalf("redeployed member was released: %+v", m)
	}
	if res := h.engine.AttackTerritory("south", []string{"m1"}); res.Success {
		t.Fatal("a busy member attacked")
	}
}

func TestOperationsOnTurfThatChangedHands(t *testing.T) {
	st := fixture()
	st.Crew[0] = member("m1", ClassSolo, 20, 20, 2)
	st.Territories[1].Defense = 5
	withOp(&st, Operation{ID: "fort", Type: OpFortify, TargetID: "north", InitiatorID: "g1"})
	withOp(&st, Operation{ID: "raid", Type: OpRaid, TargetID: "north", InitiatorID: InitiatorPlayer, Power: 200})
	withOp(&st, Operation{ID: "def", Type: OpDefend, TargetID: "south", InitiatorID: InitiatorPlayer, Power: 40})
	h := newHarness(t, st)

	start := h.engine.InitiatePlayerAssault("north", []string{"m1"})
	if !start.Success {
		t.Fatalf("assault refused: %s", start.Reason)
	}
	h.rng.script(0.5)
	h.engine.ResolveOperation(start.Operation.ID)
	if !findTerritory(t, h.engine.State(), "north").Controlled {
		t.Fatal("north not captured")
	}

	var events []Notification
	h.engine.Listen(func(n Notification) { events = append(events, n) })
	for _, id := range []string{"fort", "raid", "def"} {
		h.engine.ResolveOperation(id)
	}
	got := h.engine.State()
	north := findTerritory(t, got, "north")
	if north.Defense != captureDefense || north.Stability != captureStability || north.Heat != assaultHeat {
		t.Fatalf("stale operations touched north: %+v", north)
	}
	if got.Eddies != 500 {
		t.Fatalf("raid on own turf paid out, eddies %d", got.Eddies)
	}
	if south := findTerritory(t, got, "south"); south.Stability != 60 {
		t.Fatalf("defend on lost turf added stability: %d", south.Stability)
	}
	if len(got.Operations) != 0 {
		t.Fatalf("expected every operation purged, got %+v", got.Operations)
	}
	// The gang's fortify is invisible; both player operations report a failure.
	if len(events) != 2 {
		t.Fatalf("expected two notifications, got %+v", events)
	}
	for _, n := range events {
		p, _ := n.Payload.(OperationPayload)
		if p.Operation.Status != OpFailed || n.Severity != SeverityNeutral {
			t.Fatalf("expected a neutral failure, got %+v", n)
		}
	}
	assertInvariants(t, got)
}

func TestWarfareTickResolvesDueOperations(t *testing.T) {
	h := newHarness(t, fixture())
	res := h.engine.LaunchOperation(OpFortify, "home", []string{"m2"})
	if !res.Success {
		t.Fatalf("fortify refused: %s", res.Reason)
	}

	// High draws keep the AI and the passive rolls quiet.
	h.rng.fallback = 0.99
	h.engine.Advance(h.clock.advance(45 * time.Second))
	got := h.engine.State()
	if len(got.Operations) != 0 {
		t.Fatalf("expected the fortify to resolve, got %+v", got.Operations)
	}
	if d := findTerritory(t, got, "home").Defense; d != 60 {
		t.Fatalf("expected defense 60, got %d", d)
	}
	assertInvariants(t, got)
}

func TestPassiveDynamicsSkipContested(t *testing.T) {
	st := fixture()
	for i := range st.Territories {
		st.Territories[i].Heat = 50
	}
	withOp(&st, Operation{ID: "op1", Type: OpRaid, TargetID: "north", InitiatorID: "g2", EndTime: 1 << 62})
	h := newHarness(t, st)

	h.rng.fallback = 0
	h.engine.warfare.passive()
	got := h.engine.State()
	if n := findTerritory(t, got, "north"); n.Defense != 40 || n.Heat != 50 {
		t.Fatalf("contested territory changed: %+v", n)
	}
	if w := findTerritory(t, got, "west"); w.Defense != 41 || w.Stability != 61 || w.Heat != 49 {
		t.Fatalf("expected +1/+1/-1 on west, got %+v", w)
	}
}

func TestPoliceRaidOnHotTurf(t *testing.T) {
	st := fixture()
	st.Territories[0].Heat = 90
	h := newHarness(t, st)

	var events []Notification
	h.engine.Listen(func(n Notification) { events = append(events, n) })

	h.rng.script(0.0)
	h.engine.warfare.policeRaids()
	got := h.engine.State()
	home := findTerritory(t, got, "home")
	if home.Defense != 30 || home.Stability != 50 || home.Heat != 60 {
		t.Fatalf("unexpected raid damage %+v", home)
	}
	if got.Eddies != 300 {
		t.Fatalf("expected the 200 penalty, got %d", got.Eddies)
	}
	if len(events) != 1 || events[0].Severity != SeverityBad {
		t.Fatalf("expected one bad game event, got %+v", events)
	}
}
