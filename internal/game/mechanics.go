/*
Package game
File: mechanics.go
Description:
    Contains the combat and progression rules shared by every component.
    This includes the three power formulas, lookup helpers, experience and
    level-up, damage, and the territory ownership transfer that keeps the
    "one owner at most" rule intact.
*/

package game

import "slices"

// Result is the outcome of a player action. Failed actions never mutate state.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

func ok() Result { return Result{Success: true} }

func fail(reason string) Result { return Result{Reason: reason} }

// gangStrength is the derived strength of a gang holding n territories.
func gangStrength(n int) int {
	return n*20 + 50
}

// missionPower is a member's contribution to a mission team.
// Formula: (Cool + Reflex) * 2 + Level * 5
func missionPower(m Member) int {
	return (m.Cool+m.Reflex)*2 + m.Level*5
}

// attackPower is a member's contribution to a direct attack on rival turf.
// Formula: 10 + Cool * 2 + Reflex * 2 + Level * 5
func attackPower(m Member) int {
	return 10 + m.Cool*2 + m.Reflex*2 + m.Level*5
}

// operationPower is a member's contribution to a warfare operation.
// Formula: (Cool + Reflex) * 2 + Level * 3
func operationPower(m Member) int {
	return (m.Cool+m.Reflex)*2 + m.Level*3
}

func territoryIndex(ts []Territory, id string) int {
	return slices.IndexFunc(ts, func(t Territory) bool { return t.ID == id })
}

func memberIndex(crew []Member, id string) int {
	return slices.IndexFunc(crew, func(m Member) bool { return m.ID == id })
}

func gangIndex(gs []RivalGang, id string) int {
	return slices.IndexFunc(gs, func(g RivalGang) bool { return g.ID == id })
}

func operationIndex(ops []Operation, id string) int {
	return slices.IndexFunc(ops, func(o Operation) bool { return o.ID == id })
}

// owner returns InitiatorPlayer, the owning gang id, or "" for unclaimed turf.
func owner(t Territory) string {
	if t.Controlled {
		return InitiatorPlayer
	}
	return t.RivalGang
}

// checkCrew validates that every id names an available member.
// Returns the reason of the first failure, or "" when the whole team is usable.
func checkCrew(crew []Member, ids []string) string {
	if len(ids) == 0 {
		return "Select at least one crew member"
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return "Crew member listed twice"
		}
		seen[id] = true

		i := memberIndex(crew, id)
		if i < 0 {
			return "Unknown crew member"
		}
		m := crew[i]
		if m.Injured {
			return m.Name + " is injured"
		}
		if m.Status != StatusIdle {
			return m.Name + " is busy"
		}
	}
	return ""
}

// team returns copies of the members with the given ids, skipping unknown ones.
func team(crew []Member, ids []string) []Member {
	out := make([]Member, 0, len(ids))
	for _, id := range ids {
		if i := memberIndex(crew, id); i >= 0 {
			out = append(out, crew[i])
		}
	}
	return out
}

// deploy locks members to a mission or operation under the given label.
func deploy(crew []Member, ids []string, label string) {
	for _, id := range ids {
		if i := memberIndex(crew, id); i >= 0 {
			crew[i].Status = StatusOnMission
			crew[i].CurrentMission = label
		}
	}
}

// release returns a member from deployment. Injured members stay out of action.
func release(m *Member) {
	m.CurrentMission = ""
	if m.Injured {
		m.Status = StatusInjured
	} else {
		m.Status = StatusIdle
	}
}

// applyXP grants xp and runs the level-up loop. Each level multiplies the
// threshold by 1.5, raises cool and reflex by 1..2 and adds 10 max health with
// a full heal. Returns true if at least one level was gained.
func applyXP(m *Member, xp int, r Rand) bool {
	m.XP += xp
	if m.XPToNext <= 0 {
		m.XPToNext = 100
	}

	leveled := false
	for m.XP >= m.XPToNext {
		m.XP -= m.XPToNext
		m.Level++
		m.XPToNext = int(float64(m.XPToNext) * 1.5)
		m.Cool += between(r, 1, 2)
		m.Reflex += between(r, 1, 2)
		m.MaxHealth += 10
		m.Health = m.MaxHealth
		leveled = true
	}
	return leveled
}

// applyDamage removes health, flooring at zero. A member driven to zero is
// injured; idle members also switch status. Returns true if this hit injured them.
func applyDamage(m *Member, dmg int) bool {
	if dmg <= 0 || m.Health <= 0 {
		return false
	}
	m.Health = max(0, m.Health-dmg)
	if m.Health > 0 {
		return false
	}
	m.Injured = true
	if m.Status == StatusIdle {
		m.Status = StatusInjured
	}
	return true
}

// transferTerritory moves a territory to newOwner (InitiatorPlayer or a gang
// id), updating both gangs' lists and strengths. A gang left without territory
// is removed from the roster and returned.
func transferTerritory(st *State, territoryID, newOwner string) (*RivalGang, bool) {
	ti := territoryIndex(st.Territories, territoryID)
	if ti < 0 {
		return nil, false
	}
	t := &st.Territories[ti]
	prev := t.RivalGang

	// 1. Flip ownership
	if newOwner == InitiatorPlayer {
		t.Controlled = true
		t.RivalGang = ""
	} else {
		t.Controlled = false
		t.RivalGang = newOwner
	}

	// 2. Credit the new gang
	if newOwner != InitiatorPlayer {
		if gi := gangIndex(st.Gangs, newOwner); gi >= 0 {
			g := &st.Gangs[gi]
			if !slices.Contains(g.Territories, territoryID) {
				g.Territories = append(g.Territories, territoryID)
			}
			g.Strength = gangStrength(len(g.Territories))
		}
	}

	// 3. Debit the previous gang, eliminating it if nothing is left
	if prev == "" || prev == newOwner {
		return nil, false
	}
	gi := gangIndex(st.Gangs, prev)
	if gi < 0 {
		return nil, false
	}
	g := &st.Gangs[gi]
	g.Territories = slices.DeleteFunc(g.Territories, func(id string) bool { return id == territoryID })
	g.Strength = gangStrength(len(g.Territories))
	if len(g.Territories) > 0 {
		return nil, false
	}
	gone := *g
	st.Gangs = slices.Delete(st.Gangs, gi, gi+1)
	return &gone, true
}

// playerUpgradeLevels sums an upgrade type across player territory.
func playerUpgradeLevels(ts []Territory, ut UpgradeType) int {
	total := 0
	for _, t := range ts {
		if t.Controlled {
			total += t.UpgradeLevel(ut)
		}
	}
	return total
}

// clampTerritory bounds every warfare attribute to [0,100].
func clampTerritory(t *Territory) {
	t.Defense = clampStat(t.Defense)
	t.Stability = clampStat(t.Stability)
	t.Heat = clampStat(t.Heat)
	t.Intel = clampStat(t.Intel)
}
