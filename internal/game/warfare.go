/*
Package game
File: warfare.go
Description:
    The territorial warfare simulation.
    Operations (scout, raid, assault, sabotage, fortify, defend) run until their
    end time and resolve on the fast warfare tick. The same tick asks every gang
    for a move, applies passive recovery and decay, and rolls police raids on
    hot player turf.
*/

package game

import (
	"fmt"
	"slices"
	"time"
)

// Tuning for operation effects.
const (
	scoutIntel          = 25
	surveillanceIntel   = 5 // Per SURVEILLANCE level
	networkIntel        = 5 // Per adjacent player territory
	sabotageDefense     = 15
	sabotageHeat        = 5
	raidHeat            = 10
	assaultHeat         = 25
	fortifyDefense      = 20
	defendStability     = 15
	playerHoldBonus     = 50
	bunkerPower         = 10 // Per BUNKER level
	captureDefense      = 20
	captureStability    = 30
	assaultInjuryChance = 0.3
	policeHeat          = 80
	policeChance        = 0.02
	policeDamage        = 10
	policeHeatDrop      = 30
	playerAssaultTime   = 30 * time.Second
)

// OperationStart is the result of a player-launched operation.
type OperationStart struct {
	Result
	Operation *Operation `json:"operation,omitempty"`
}

// IntelReport is what the player knows about a territory. Fields unlock as
// intel crosses 25, 50, 75 and 100.
type IntelReport struct {
	TerritoryID string `json:"territory_id"`
	Intel       int    `json:"intel"`
	Defense     *int   `json:"defense,omitempty"`
	Stability   *int   `json:"stability,omitempty"`
	Income      *int   `json:"income,omitempty"`
	Slots       *int   `json:"slots,omitempty"`
	Garrison    *int   `json:"garrison,omitempty"`
	CombatBonus bool   `json:"combat_bonus"`
}

// Warfare runs operations and the territory simulation.
type Warfare struct {
	*world
}

// Start records a new in-progress operation. Bound members must be available
// and stay locked to the operation until it resolves.
func (w *Warfare) Start(kind OperationType, targetID, initiatorID string, power int, duration time.Duration, memberIDs []string) OperationStart {
	st := w.store.Get()
	label := ""
	if len(memberIDs) > 0 {
		if reason := checkCrew(st.Crew, memberIDs); reason != "" {
			return OperationStart{Result: fail(reason)}
		}
		name := targetID
		if ti := territoryIndex(st.Territories, targetID); ti >= 0 {
			name = st.Territories[ti].Name
		}
		label = fmt.Sprintf("%s: %s", titleCase(string(kind)), name)
	}

	now := w.now()
	op := Operation{
		ID:          newID("OP"),
		Type:        kind,
		TargetID:    targetID,
		InitiatorID: initiatorID,
		StartTime:   now,
		EndTime:     now + duration.Milliseconds(),
		Power:       power,
		Status:      OpInProgress,
		MemberIDs:   slices.Clone(memberIDs),
		Label:       label,
	}
	w.store.Update(func(s *State) {
		deploy(s.Crew, memberIDs, label)
		s.Operations = append(s.Operations, op)
	})
	return OperationStart{Result: ok(), Operation: &op}
}

// Operations lists operations, optionally only those targeting territoryID.
func (w *Warfare) Operations(territoryID string) []Operation {
	st := w.store.Get()
	if territoryID == "" {
		return st.Operations
	}
	return slices.DeleteFunc(st.Operations, func(o Operation) bool { return o.TargetID != territoryID })
}

// Intel returns the player's intelligence report on a territory.
func (w *Warfare) Intel(territoryID string) (IntelReport, bool) {
	st := w.store.Get()
	ti := territoryIndex(st.Territories, territoryID)
	if ti < 0 {
		return IntelReport{}, false
	}
	t := st.Territories[ti]
	rep := IntelReport{TerritoryID: t.ID, Intel: t.Intel}
	if t.Controlled {
		rep.Intel = 100
	}
	if rep.Intel >= 25 {
		rep.Defense, rep.Stability = &t.Defense, &t.Stability
	}
	if rep.Intel >= 50 {
		rep.Income, rep.Slots = &t.Income, &t.Slots
	}
	if rep.Intel >= 75 {
		garrison := 0
		if gi := gangIndex(st.Gangs, t.RivalGang); gi >= 0 {
			garrison = st.Gangs[gi].Strength
		}
		rep.Garrison = &garrison
	}
	rep.CombatBonus = rep.Intel >= 100
	return rep, true
}

// PlayerAssault launches a 30s capture attempt on rival turf.
func (w *Warfare) PlayerAssault(territoryID string, memberIDs []string) OperationStart {
	return w.launch(OpAssault, territoryID, memberIDs, playerAssaultTime)
}

// Launch starts a player operation of any type. ASSAULT uses the fixed
// assault window; the others use the configured per-type duration.
func (w *Warfare) Launch(kind OperationType, territoryID string, memberIDs []string) OperationStart {
	if kind == OpAssault {
		return w.PlayerAssault(territoryID, memberIDs)
	}
	return w.launch(kind, territoryID, memberIDs, w.content.Balance.OperationDuration(kind))
}

func (w *Warfare) launch(kind OperationType, territoryID string, memberIDs []string, duration time.Duration) OperationStart {
	st := w.store.Get()

	// 1. Validation
	if _, known := moveCost[kind]; !known {
		return OperationStart{Result: fail("Unknown operation")}
	}
	ti := territoryIndex(st.Territories, territoryID)
	if ti < 0 {
		return OperationStart{Result: fail("Unknown territory")}
	}
	t := st.Territories[ti]
	switch {
	case kind.Hostile() && t.Controlled:
		return OperationStart{Result: fail("You already control " + t.Name)}
	case !kind.Hostile() && !t.Controlled:
		return OperationStart{Result: fail("You do not control " + t.Name)}
	case (kind == OpAssault || kind == OpRaid || kind == OpSabotage) && t.RivalGang == "":
		return OperationStart{Result: fail("No rival gang holds " + t.Name)}
	}
	if reason := checkCrew(st.Crew, memberIDs); reason != "" {
		return OperationStart{Result: fail(reason)}
	}

	// 2. Power, boosted by armories across player turf
	power := 0
	for _, m := range team(st.Crew, memberIDs) {
		power += operationPower(m)
	}
	power = int(float64(power) * (1 + 0.05*float64(playerUpgradeLevels(st.Territories, UpgradeArmory))))

	// 3. Lock the crew and record the operation
	res := w.Start(kind, territoryID, InitiatorPlayer, power, duration, memberIDs)
	if !res.Success {
		return res
	}

	w.bus.Notify(Notification{
		Kind:    NotifyOperationUpdated,
		Message: res.Operation.Label + " underway",
		Payload: OperationPayload{Operation: *res.Operation, Outcome: "started"},
	})
	return res
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	out := []byte(s)
	for i := 1; i < len(out); i++ {
		if out[i] >= 'A' && out[i] <= 'Z' {
			out[i] += 'a' - 'A'
		}
	}
	return string(out)
}

// Tick is the fast warfare loop.
func (w *Warfare) Tick() {
	now := w.now()

	// 1. Resolve due operations
	for _, op := range w.store.Get().Operations {
		if op.Status == OpInProgress && op.EndTime <= now {
			w.Resolve(op.ID)
		}
	}

	// 2. AI moves
	w.aiMoves(now)

	// 3. Passive dynamics, then the police
	w.passive()
	w.policeRaids()
}

func (w *Warfare) aiMoves(now int64) {
	st := w.store.Get()
	var moves []Operation
	for _, g := range st.Gangs {
		if op, ok := DecideMove(g, st, w.content, w.rng, now); ok {
			moves = append(moves, op)
			st.Operations = append(st.Operations, op)
		}
	}
	if len(moves) == 0 {
		return
	}

	w.store.Update(func(s *State) {
		for _, op := range moves {
			if gi := gangIndex(s.Gangs, op.InitiatorID); gi >= 0 {
				s.Gangs[gi].Resources -= moveCost[op.Type]
			}
			s.Operations = append(s.Operations, op)
		}
	})

	for _, op := range moves {
		if op.Type.Hostile() && w.targetsPlayer(op) {
			w.bus.Notify(Notification{
				Kind:     NotifyOperationUpdated,
				Message:  fmt.Sprintf("%s spotted moving on your turf", w.gangName(op.InitiatorID)),
				Severity: SeverityBad,
				Payload:  OperationPayload{Operation: op, Outcome: "started"},
			})
		}
	}
}

func (w *Warfare) targetsPlayer(op Operation) bool {
	st := w.store.Get()
	ti := territoryIndex(st.Territories, op.TargetID)
	return ti >= 0 && st.Territories[ti].Controlled
}

func (w *Warfare) gangName(id string) string {
	st := w.store.Get()
	if gi := gangIndex(st.Gangs, id); gi >= 0 {
		return st.Gangs[gi].Name
	}
	return "A rival gang"
}

// Resolve applies an operation's effect and purges it. Unknown ids are ignored.
func (w *Warfare) Resolve(opID string) {
	var (
		notes      []Notification
		eliminated *RivalGang
	)

	w.store.Update(func(s *State) {
		oi := operationIndex(s.Operations, opID)
		if oi < 0 {
			return
		}
		op := s.Operations[oi]
		op.Status = OpCompleted
		outcome := ""
		playerSide := op.InitiatorID == InitiatorPlayer

		if ti := territoryIndex(s.Territories, op.TargetID); ti >= 0 {
			t := &s.Territories[ti]
			playerSide = playerSide || t.Controlled
			held := owner(*t) == op.InitiatorID
			switch {
			case op.Type.Hostile() && held:
				// The target changed hands while the operation ran.
				op.Status = OpFailed
				outcome = fmt.Sprintf("%s on %s called off", titleCase(string(op.Type)), t.Name)
			case !op.Type.Hostile() && !held:
				op.Status = OpFailed
				outcome = fmt.Sprintf("%s of %s abandoned", titleCase(string(op.Type)), t.Name)
				playerSide = op.InitiatorID == InitiatorPlayer
			case op.Type == OpScout:
				gain := scoutIntel + w.scoutBonus(s.Territories, *t)
				t.Intel += gain
				outcome = fmt.Sprintf("Intel on %s +%d", t.Name, gain)
			case op.Type == OpSabotage:
				t.Defense -= sabotageDefense
				t.Heat += sabotageHeat
				outcome = fmt.Sprintf("%s defenses sabotaged", t.Name)
			case op.Type == OpRaid:
				t.Defense -= op.Power / 10
				t.Stability -= op.Power / 20
				t.Heat += raidHeat
				outcome = fmt.Sprintf("%s raided", t.Name)
				if op.InitiatorID == InitiatorPlayer {
					loot := t.Income * 2
					s.Eddies += loot
					outcome = fmt.Sprintf("%s raided for %d eddies", t.Name, loot)
				}
			case op.Type == OpAssault:
				var won bool
				won, eliminated = w.assault(s, oi, ti)
				t = &s.Territories[territoryIndex(s.Territories, op.TargetID)]
				if won {
					outcome = t.Name + " captured"
				} else {
					op.Status = OpFailed
					outcome = "Assault on " + t.Name + " repelled"
				}
			case op.Type == OpFortify:
				t.Defense += fortifyDefense
				outcome = t.Name + " fortified"
				playerSide = op.InitiatorID == InitiatorPlayer
			case op.Type == OpDefend:
				if !op.Consumed {
					t.Stability += defendStability
				}
				outcome = "Defense of " + t.Name + " stood down"
				playerSide = op.InitiatorID == InitiatorPlayer
			}
			clampTerritory(t)
		}

		// Release bound crew still deployed here, then purge
		for _, id := range op.MemberIDs {
			i := memberIndex(s.Crew, id)
			if i < 0 || op.Label == "" {
				continue
			}
			if m := &s.Crew[i]; m.Status == StatusOnMission && m.CurrentMission == op.Label {
				release(m)
			}
		}
		s.Operations = slices.Delete(s.Operations, oi, oi+1)

		if playerSide && outcome != "" {
			sev := SeverityNeutral
			switch {
			case op.InitiatorID == InitiatorPlayer && op.Status == OpCompleted:
				sev = SeverityGood
			case op.InitiatorID != InitiatorPlayer && op.Status == OpCompleted:
				sev = SeverityBad
			}
			notes = append(notes, Notification{
				Kind:     NotifyOperationUpdated,
				Message:  outcome,
				Severity: sev,
				Payload:  OperationPayload{Operation: op, Outcome: outcome},
			})
		}
	})

	for _, n := range notes {
		w.bus.Notify(n)
	}
	if eliminated != nil {
		(&Rivals{w.world}).eliminated(*eliminated)
	}
}

// scoutBonus counts SURVEILLANCE on the target and on bordering player turf,
// plus the player's network of adjacent holdings.
func (w *Warfare) scoutBonus(ts []Territory, target Territory) int {
	bonus := 0
	if target.Controlled {
		bonus += surveillanceIntel * target.UpgradeLevel(UpgradeSurveillance)
	}
	for _, id := range target.Neighbors {
		ni := territoryIndex(ts, id)
		if ni < 0 || !ts[ni].Controlled {
			continue
		}
		bonus += networkIntel + surveillanceIntel*ts[ni].UpgradeLevel(UpgradeSurveillance)
	}
	return bonus
}

// assault resolves an ASSAULT in place. Returns whether the attacker won and
// any gang eliminated by the capture.
func (w *Warfare) assault(s *State, oi, ti int) (bool, *RivalGang) {
	op := &s.Operations[oi]
	t := &s.Territories[ti]
	holder := owner(*t)
	player := op.InitiatorID == InitiatorPlayer

	// An attacker already holding the turf, or a gang wiped out in the
	// meantime, has nothing to fight for.
	if holder == op.InitiatorID || (!player && gangIndex(s.Gangs, op.InitiatorID) < 0) {
		return false, nil
	}

	// 1. Defender power
	defender := float64(t.Defense * 10)
	if t.Controlled {
		defender += playerHoldBonus + float64(bunkerPower*t.UpgradeLevel(UpgradeBunker))
	}
	for j := range s.Operations {
		d := &s.Operations[j]
		if j == oi || d.Type != OpDefend || d.Status != OpInProgress || d.Consumed {
			continue
		}
		if d.TargetID == t.ID && d.InitiatorID == holder {
			defender += float64(d.Power)
			d.Consumed = true
		}
	}
	if player && t.Intel >= 100 {
		defender *= 0.9
	}

	// 2. Attacker power
	attacker := float64(op.Power)
	if !player && t.Controlled && slices.ContainsFunc(s.Gangs, func(g RivalGang) bool {
		return g.ID != op.InitiatorID && g.Relationship >= allyRelationship
	}) {
		attacker *= 0.8
	}
	attacker *= uniform(w.rng, 0.9, 1.1)

	// 3. Outcome
	t.Heat += assaultHeat
	if attacker > defender {
		gone, _ := transferTerritory(s, t.ID, op.InitiatorID)
		t = &s.Territories[territoryIndex(s.Territories, op.TargetID)]
		t.Defense = captureDefense
		t.Stability = captureStability
		return true, gone
	}
	if player {
		for _, id := range op.MemberIDs {
			if i := memberIndex(s.Crew, id); i >= 0 && chance(w.rng, assaultInjuryChance) {
				applyDamage(&s.Crew[i], between(w.rng, 10, 40))
			}
		}
	}
	return false, nil
}

// passive regenerates defense and stability and cools heat on territories no
// hostile operation is touching. Every roll is independent.
func (w *Warfare) passive() {
	st := w.store.Get()
	contested := map[string]bool{}
	for _, op := range st.Operations {
		if op.Status == OpInProgress && op.Type.Hostile() {
			contested[op.TargetID] = true
		}
	}

	ts := st.Territories
	for i := range ts {
		if contested[ts[i].ID] {
			continue
		}
		if chance(w.rng, 0.1) {
			ts[i].Defense++
		}
		if chance(w.rng, 0.1) {
			ts[i].Stability++
		}
		if chance(w.rng, 0.15) {
			ts[i].Heat--
		}
		clampTerritory(&ts[i])
	}
	w.store.SetTerritories(ts)
}

// policeRaids rolls a raid on each hot player territory.
func (w *Warfare) policeRaids() {
	st := w.store.Get()
	ts := st.Territories
	penalty := w.content.Balance.PoliceRaidPenalty
	var raided []string

	for i := range ts {
		t := &ts[i]
		if !t.Controlled || t.Heat < policeHeat || !chance(w.rng, policeChance) {
			continue
		}
		t.Defense -= policeDamage
		t.Stability -= policeDamage
		t.Heat -= policeHeatDrop
		clampTerritory(t)
		raided = append(raided, t.Name)
	}
	if len(raided) == 0 {
		return
	}

	w.store.Update(func(s *State) {
		s.Territories = ts
		s.Eddies -= penalty * len(raided)
	})
	for _, name := range raided {
		w.bus.Notify(Notification{
			Kind:     NotifyGameEvent,
			Message:  fmt.Sprintf("NCPD raid on %s! Lost %d eddies.", name, penalty),
			Severity: SeverityBad,
		})
	}
}
