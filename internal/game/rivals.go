/*
Package game
File: rivals.go
Description:
    The rival gang AI.
    Gangs act on the AI tick (capture, escalate, consolidate), pick warfare
    operations through DecideMove, and can be attacked, eliminated and
    replaced. Diplomacy is a single relationship axis moved by attacks and
    tribute.
*/

package game

import (
	"fmt"
	"slices"
)

const (
	allyRelationship     = 80 // Allies back the player in assaults
	friendlyRelationship = 50 // Friendly gangs never target the player
	attackRelationHit    = 15
)

// AttackResult is the outcome of AttackTerritory.
type AttackResult struct {
	Result
	Won           bool     `json:"won"`
	PlayerPower   int      `json:"player_power"`
	DefenderPower int      `json:"defender_power"`
	Loot          int      `json:"loot"`
	Eliminated    bool     `json:"eliminated"`
	Injured       []string `json:"injured"`
}

// Rivals runs the gang AI.
type Rivals struct {
	*world
}

func infoOf(g RivalGang) GangInfo {
	return GangInfo{
		ID:             g.ID,
		Name:           g.Name,
		TerritoryCount: len(g.Territories),
		Strength:       g.Strength,
		Personality:    g.Personality,
		Relationship:   g.Relationship,
	}
}

// Info returns a read-only summary of every gang.
func (r *Rivals) Info() []GangInfo {
	st := r.store.Get()
	out := make([]GangInfo, len(st.Gangs))
	for i, g := range st.Gangs {
		out[i] = infoOf(g)
	}
	return out
}

// ByTerritory returns the gang owning a territory.
func (r *Rivals) ByTerritory(territoryID string) (GangInfo, bool) {
	st := r.store.Get()
	for _, g := range st.Gangs {
		if slices.Contains(g.Territories, territoryID) {
			return infoOf(g), true
		}
	}
	return GangInfo{}, false
}

func unclaimedTerritories(ts []Territory) []string {
	var out []string
	for _, t := range ts {
		if t.Unclaimed() {
			out = append(out, t.ID)
		}
	}
	return out
}

// Tick gives each gang one chance to act, weighted by its aggression.
func (r *Rivals) Tick() {
	var narration []Notification

	r.store.Update(func(s *State) {
		for gi := range s.Gangs {
			g := &s.Gangs[gi]
			if !chance(r.rng, g.Aggression) {
				continue
			}

			action := r.rng.Float64()
			switch {
			case action < 0.5:
				// Capture unclaimed turf
				free := unclaimedTerritories(s.Territories)
				if len(free) == 0 {
					continue
				}
				tid := free[intn(r.rng, len(free))]
				ti := territoryIndex(s.Territories, tid)
				s.Territories[ti].RivalGang = g.ID
				g.Territories = append(g.Territories, tid)
				g.Strength = gangStrength(len(g.Territories))
				narration = append(narration, Notification{
					Kind:     NotifyGangNarration,
					Message:  fmt.Sprintf("%s claimed %s", g.Name, s.Territories[ti].Name),
					Severity: SeverityNeutral,
				})
			case action < 0.7:
				// Escalate
				g.Aggression = clampFloat(g.Aggression+0.05, 0, 1)
			default:
				// Consolidate
				g.Aggression = max(g.Personality.BaseAggression()/2, g.Aggression-0.05)
				g.Strength += 5
			}
		}
	})

	for _, n := range narration {
		r.bus.Notify(n)
	}
}

// Attack resolves an immediate player attack on a rival-held territory.
func (r *Rivals) Attack(territoryID string, memberIDs []string) AttackResult {
	st := r.store.Get()

	// 1. Validation
	ti := territoryIndex(st.Territories, territoryID)
	if ti < 0 {
		return AttackResult{Result: fail("Unknown territory")}
	}
	target := st.Territories[ti]
	gi := gangIndex(st.Gangs, target.RivalGang)
	if target.Controlled || gi < 0 {
		return AttackResult{Result: fail("No rival gang holds " + target.Name)}
	}
	if reason := checkCrew(st.Crew, memberIDs); reason != "" {
		return AttackResult{Result: fail(reason)}
	}
	gang := st.Gangs[gi]

	// 2. Power comparison
	playerPower := 0
	for _, m := range team(st.Crew, memberIDs) {
		playerPower += attackPower(m)
	}
	defenderPower := int(float64(gang.Strength) * uniform(r.rng, 0.9, 1.1))
	res := AttackResult{
		Result:        ok(),
		Won:           playerPower > defenderPower,
		PlayerPower:   playerPower,
		DefenderPower: defenderPower,
		Injured:       []string{},
	}

	// 3. Damage rolls happen before the commit so the draw order is fixed
	damage := map[string]int{}
	if !res.Won {
		for _, id := range memberIDs {
			damage[id] = between(r.rng, 10, 40)
		}
	}

	var eliminated *RivalGang
	r.store.Update(func(s *State) {
		if gi := gangIndex(s.Gangs, gang.ID); gi >= 0 {
			s.Gangs[gi].Relationship = clampInt(s.Gangs[gi].Relationship-attackRelationHit, -100, 100)
		}
		if res.Won {
			eliminated, res.Eliminated = transferTerritory(s, territoryID, InitiatorPlayer)
			res.Loot = defenderPower * 2
			if res.Eliminated {
				res.Loot = defenderPower * 3
			}
			s.Eddies += res.Loot
			return
		}
		for _, id := range memberIDs {
			if i := memberIndex(s.Crew, id); i >= 0 && applyDamage(&s.Crew[i], damage[id]) {
				res.Injured = append(res.Injured, id)
			}
		}
	})

	// 4. Narration
	switch {
	case res.Eliminated:
		r.eliminated(*eliminated)
	case res.Won:
		r.bus.Notify(Notification{
			Kind:     NotifyGangNarration,
			Message:  fmt.Sprintf("You took %s from %s", target.Name, gang.Name),
			Severity: SeverityGood,
		})
	default:
		r.bus.Notify(Notification{
			Kind:     NotifyGangNarration,
			Message:  fmt.Sprintf("%s held %s. Your crew retreats bloodied.", gang.Name, target.Name),
			Severity: SeverityBad,
		})
	}
	return res
}

// eliminated announces a wiped-out gang and queues a replacement.
func (r *Rivals) eliminated(g RivalGang) {
	r.bus.Notify(Notification{
		Kind:     NotifyGangNarration,
		Message:  g.Name + " has been wiped off the map",
		Severity: SeverityGood,
	})
	r.sched.Schedule(r.now()+r.content.Balance.GangRespawnMS, JobGangRespawn, "")
}

// Respawn founds a new gang under an unused name when the roster is short.
// The newcomer claims one unclaimed territory if any is left.
func (r *Rivals) Respawn() bool {
	st := r.store.Get()
	if len(st.Gangs) >= r.content.Balance.MaxRivals {
		return false
	}

	var names []string
	for _, n := range r.content.GangNames {
		if !slices.ContainsFunc(st.Gangs, func(g RivalGang) bool { return g.Name == n }) {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return false
	}
	name := names[intn(r.rng, len(names))]
	personality := Personalities[intn(r.rng, len(Personalities))]
	g := newGang(name, personality, nil, r.content.Balance.StartingGangResources)

	free := unclaimedTerritories(st.Territories)
	claim := ""
	if len(free) > 0 {
		claim = free[intn(r.rng, len(free))]
	}

	r.store.Update(func(s *State) {
		if claim != "" {
			if ti := territoryIndex(s.Territories, claim); ti >= 0 && s.Territories[ti].Unclaimed() {
				s.Territories[ti].RivalGang = g.ID
				g.Territories = append(g.Territories, claim)
				g.Strength = gangStrength(len(g.Territories))
			}
		}
		s.Gangs = append(s.Gangs, g)
	})

	r.bus.Notify(Notification{
		Kind:     NotifyGangNarration,
		Message:  "A new gang moves in: " + g.Name,
		Severity: SeverityBad,
	})
	return true
}

// SendTribute pays a gang to improve relations. Every 10 eddies buys one point.
func (r *Rivals) SendTribute(gangID string, eddies int) Result {
	st := r.store.Get()
	gi := gangIndex(st.Gangs, gangID)
	switch {
	case gi < 0:
		return fail("Unknown gang")
	case eddies < 10:
		return fail("Tribute must be at least 10 eddies")
	case st.Eddies < eddies:
		return fail("Not enough eddies!")
	}

	r.store.Update(func(s *State) {
		s.Eddies -= eddies
		if gi := gangIndex(s.Gangs, gangID); gi >= 0 {
			s.Gangs[gi].Relationship = clampInt(s.Gangs[gi].Relationship+eddies/10, -100, 100)
		}
	})
	return ok()
}

// Move costs in gang resources.
var moveCost = map[OperationType]int{
	OpScout:    20,
	OpSabotage: 40,
	OpRaid:     50,
	OpAssault:  100,
	OpFortify:  40,
	OpDefend:   30,
}

// DecideMove picks the next warfare operation for a gang, if any. It reads the
// world but never mutates it; the caller commits the returned operation and
// debits moveCost from the gang.
func DecideMove(g RivalGang, st State, c *Content, r Rand, now int64) (Operation, bool) {
	// 1. Gate on appetite and on a running operation
	if !chance(r, c.Balance.AIMoveChance*g.Aggression) {
		return Operation{}, false
	}
	if slices.ContainsFunc(st.Operations, func(o Operation) bool {
		return o.InitiatorID == g.ID && o.Status == OpInProgress
	}) {
		return Operation{}, false
	}

	// 2. Pick a type by personality
	d := r.Float64()
	var kind OperationType
	switch g.Personality {
	case PersonalityAggressive:
		kind = pick(d, []float64{0.4, 0.8, 1}, OpAssault, OpRaid, OpSabotage)
	case PersonalityDefensive:
		kind = pick(d, []float64{0.1, 0.3, 0.65, 1}, OpRaid, OpSabotage, OpFortify, OpDefend)
	default:
		kind = pick(d, []float64{0.2, 0.5, 0.7, 1}, OpAssault, OpRaid, OpSabotage, OpFortify)
	}
	if g.Resources < moveCost[kind] {
		return Operation{}, false
	}

	// 3. Pick a target
	targets := moveTargets(g, st, kind)
	if len(targets) == 0 {
		return Operation{}, false
	}
	target := targets[intn(r, len(targets))]

	power := g.Strength
	if kind == OpAssault {
		power *= 3
	}
	return Operation{
		ID:          newID("OP"),
		Type:        kind,
		TargetID:    target,
		InitiatorID: g.ID,
		StartTime:   now,
		EndTime:     now + c.Balance.OperationDuration(kind).Milliseconds(),
		Power:       power,
		Status:      OpInProgress,
	}, true
}

func pick(d float64, bounds []float64, kinds ...OperationType) OperationType {
	for i, b := range bounds {
		if d < b {
			return kinds[i]
		}
	}
	return kinds[len(kinds)-1]
}

// moveTargets lists candidate territories. Defensive moves target the gang's
// own turf; hostile moves prefer turf bordering it.
func moveTargets(g RivalGang, st State, kind OperationType) []string {
	if !kind.Hostile() {
		return slices.Clone(g.Territories)
	}

	var near, far []string
	for _, t := range st.Territories {
		o := owner(t)
		if o == "" || o == g.ID {
			continue
		}
		if o == InitiatorPlayer && g.Relationship >= friendlyRelationship {
			continue
		}
		bordering := slices.ContainsFunc(t.Neighbors, func(n string) bool {
			return slices.Contains(g.Territories, n)
		})
		if bordering {
			near = append(near, t.ID)
		} else {
			far = append(far, t.ID)
		}
	}
	if len(near) > 0 {
		return near
	}
	return far
}
