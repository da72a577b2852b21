/*
Package game
File: missions.go
Description:
    Handles the job board and timed mission resolution.
    This includes:
    1. Generating rep-gated mission offers (unique by name where possible).
    2. Starting missions: validation, crew lock, NOMAD speed-up, scheduling.
    3. Resolving missions: success roll, rewards, injuries, level-ups.
*/

package game

import (
	"math"
	"slices"
	"time"
)

// Reputation needed to see each tier on the job board.
var tierRep = map[Difficulty]int{
	DifficultyEasy:    0,
	DifficultyMedium:  10,
	DifficultyHard:    30,
	DifficultyExtreme: 50,
}

// MissionStart is the result of StartMission.
type MissionStart struct {
	Result
	ActiveMissionID string `json:"active_mission_id,omitempty"`
	EndTime         int64  `json:"end_time,omitempty"`
}

// MissionProgress describes a member's running mission.
type MissionProgress struct {
	ActiveMissionID string  `json:"active_mission_id"`
	MissionName     string  `json:"mission_name"`
	RemainingMS     int64   `json:"remaining_ms"`
	Progress        float64 `json:"progress"` // 0..1
}

// Missions runs the mission economy.
type Missions struct {
	*world
}

// eligibleTemplates returns templates unlocked at the given reputation.
func eligibleTemplates(c *Content, rep int) []MissionTemplate {
	out := make([]MissionTemplate, 0, len(c.Missions))
	for _, t := range c.Missions {
		if rep >= tierRep[t.Difficulty] {
			out = append(out, t)
		}
	}
	return out
}

// generateMission instantiates one eligible template, avoiding the names in
// taken while any alternative exists.
func generateMission(c *Content, r Rand, rep int, taken []string) Mission {
	pool := eligibleTemplates(c, rep)
	fresh := slices.DeleteFunc(slices.Clone(pool), func(t MissionTemplate) bool {
		return slices.Contains(taken, t.Name)
	})
	if len(fresh) > 0 {
		pool = fresh
	}
	if len(pool) == 0 {
		pool = c.Missions
	}
	return Mission{ID: newID("MSN"), MissionTemplate: pool[intn(r, len(pool))]}
}

// generateMissionPool builds up to n offers unique by name.
func generateMissionPool(c *Content, r Rand, rep, n int) []Mission {
	unique := len(eligibleTemplates(c, rep))
	if n > unique {
		n = unique
	}
	out := make([]Mission, 0, n)
	names := make([]string, 0, n)
	for range n {
		m := generateMission(c, r, rep, names)
		out = append(out, m)
		names = append(names, m.Name)
	}
	return out
}

func missionNames(ms []Mission) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return names
}

// Start validates the team and mission, locks the crew and schedules completion.
func (ms *Missions) Start(memberIDs []string, missionID string) MissionStart {
	st := ms.store.Get()

	// 1. Validation, first failure wins
	mi := slices.IndexFunc(st.AvailableMissions, func(m Mission) bool { return m.ID == missionID })
	if mi < 0 {
		return MissionStart{Result: fail("Mission not available")}
	}
	mission := st.AvailableMissions[mi]
	if len(memberIDs) == 0 {
		return MissionStart{Result: fail("Select at least one crew member")}
	}
	if reason := checkCrew(st.Crew, memberIDs); reason != "" {
		return MissionStart{Result: fail(reason)}
	}
	members := team(st.Crew, memberIDs)
	for _, m := range members {
		if m.Level < mission.MinLevel {
			return MissionStart{Result: fail(m.Name + " does not meet the level requirement")}
		}
		if m.Cool < mission.MinCool {
			return MissionStart{Result: fail(m.Name + " does not meet the cool requirement")}
		}
		if m.Reflex < mission.MinReflex {
			return MissionStart{Result: fail(m.Name + " does not meet the reflex requirement")}
		}
	}

	// 2. Duration, with the NOMAD shortcut
	duration := mission.Duration()
	if slices.ContainsFunc(members, func(m Member) bool { return m.Class == ClassNomad }) {
		duration = time.Duration(float64(duration) * 0.85)
	}
	start := ms.now()
	active := ActiveMission{
		ID:        newID("ACT"),
		MemberIDs: slices.Clone(memberIDs),
		Mission:   mission,
		StartTime: start,
		EndTime:   start + duration.Milliseconds(),
	}

	// 3. Commit: lock crew, consume the offer, backfill one replacement
	ms.store.Update(func(s *State) {
		deploy(s.Crew, memberIDs, mission.Name)
		s.AvailableMissions = slices.DeleteFunc(s.AvailableMissions, func(m Mission) bool { return m.ID == missionID })
		taken := append(missionNames(s.AvailableMissions), mission.Name)
		s.AvailableMissions = append(s.AvailableMissions, generateMission(ms.content, ms.rng, s.Rep, taken))
		s.ActiveMissions = append(s.ActiveMissions, active)
	})
	ms.sched.Schedule(active.EndTime, JobMissionComplete, active.ID)

	ms.bus.Notify(Notification{
		Kind:    NotifyMissionStarted,
		Message: "Crew deployed: " + mission.Name,
		Payload: MissionStartedPayload{
			ActiveMissionID: active.ID,
			MissionName:     mission.Name,
			MemberIDs:       active.MemberIDs,
			EndTime:         active.EndTime,
		},
	})
	return MissionStart{Result: ok(), ActiveMissionID: active.ID, EndTime: active.EndTime}
}

// SuccessChance returns the clamped success probability of a team on a mission.
func SuccessChance(teamPower float64, difficultyRating int) float64 {
	if difficultyRating <= 0 {
		return 0.95
	}
	return clampFloat(teamPower/float64(difficultyRating), 0.05, 0.95)
}

// teamMissionPower sums member power; SOLO members count 10% more on HEIST and BOUNTY.
func teamMissionPower(members []Member, mt MissionType) float64 {
	total := 0.0
	for _, m := range members {
		p := float64(missionPower(m))
		if m.Class == ClassSolo && (mt == MissionHeist || mt == MissionBounty) {
			p *= 1.1
		}
		total += p
	}
	return total
}

// Complete resolves an active mission against the current state. A missing
// record (already resolved, or wiped by a reset) is a no-op.
func (ms *Missions) Complete(activeID string) (MissionReport, bool) {
	st := ms.store.Get()
	ai := slices.IndexFunc(st.ActiveMissions, func(a ActiveMission) bool { return a.ID == activeID })
	if ai < 0 {
		return MissionReport{}, false
	}
	active := st.ActiveMissions[ai]
	mission := active.Mission
	members := team(st.Crew, active.MemberIDs)

	has := func(c Class) bool {
		return slices.ContainsFunc(members, func(m Member) bool { return m.Class == c })
	}

	// 1. Success roll
	power := teamMissionPower(members, mission.Type)
	success := chance(ms.rng, SuccessChance(power, mission.DifficultyRating))

	report := MissionReport{
		ActiveMissionID: active.ID,
		MissionName:     mission.Name,
		Success:         success,
		LeveledUp:       []string{},
		Injured:         []string{},
	}

	// 2. Rewards
	var xp float64
	if success {
		scale := 1 + power*0.005
		eddies := float64(between(ms.rng, mission.EddiesMin, mission.EddiesMax)) * scale
		xp = float64(between(ms.rng, mission.XPMin, mission.XPMax)) * scale
		if has(ClassFixer) {
			eddies *= 1.15
		}
		report.Eddies = int(eddies)
		report.Rep = mission.Rep
	} else {
		report.Eddies = int(math.Floor(float64(mission.EddiesMin) * 0.1))
		xp = math.Floor(float64(mission.XPMin) * 0.2)
	}
	if has(ClassNetrunner) {
		xp *= 1.15
	}
	report.XP = int(xp)

	// 3. Injury odds
	injury := math.Max(0.05, mission.InjuryChance-0.05*float64(len(members)-1))
	if has(ClassTechie) {
		injury = math.Max(0, injury-0.2)
	}
	if success {
		injury /= 2
	}
	if !success {
		report.Catastrophic = chance(ms.rng, injury)
	}

	// 4. Apply to the live crew: level-ups first, then injuries
	ms.store.Update(func(s *State) {
		s.Eddies += report.Eddies
		s.Rep += report.Rep
		for _, id := range active.MemberIDs {
			i := memberIndex(s.Crew, id)
			if i < 0 {
				continue
			}
			if applyXP(&s.Crew[i], report.XP, ms.rng) {
				report.LeveledUp = append(report.LeveledUp, id)
			}
		}
		for _, id := range active.MemberIDs {
			i := memberIndex(s.Crew, id)
			if i < 0 {
				continue
			}
			m := &s.Crew[i]
			switch {
			case report.Catastrophic:
				m.Health = 0
				m.Injured = true
				report.Injured = append(report.Injured, id)
			case chance(ms.rng, math.Max(0.01, injury-float64(m.Cool)*0.01)):
				if applyDamage(m, between(ms.rng, 10, 40)) {
					report.Injured = append(report.Injured, id)
				}
			}
			release(m)
		}
		s.ActiveMissions = slices.DeleteFunc(s.ActiveMissions, func(a ActiveMission) bool { return a.ID == activeID })
	})

	sev, msg := SeverityGood, "Mission complete: "+mission.Name
	if !success {
		sev, msg = SeverityBad, "Mission failed: "+mission.Name
	}
	ms.bus.Notify(Notification{Kind: NotifyMissionCompleted, Message: msg, Severity: sev, Payload: report})
	return report, true
}

// Refresh pays the fee and replaces the whole job board.
func (ms *Missions) Refresh() Result {
	st := ms.store.Get()
	fee := ms.content.Balance.RefreshCost
	if st.Eddies < fee {
		return fail("Not enough eddies!")
	}
	pool := generateMissionPool(ms.content, ms.rng, st.Rep, between(ms.rng, 4, 5))
	ms.store.Update(func(s *State) {
		s.Eddies -= fee
		s.AvailableMissions = pool
	})
	return ok()
}

// Progress reports the running mission of a member.
func (ms *Missions) Progress(memberID string) (MissionProgress, bool) {
	st := ms.store.Get()
	now := ms.now()
	for _, a := range st.ActiveMissions {
		if !slices.Contains(a.MemberIDs, memberID) {
			continue
		}
		total := a.EndTime - a.StartTime
		remaining := max(0, a.EndTime-now)
		progress := 1.0
		if total > 0 {
			progress = clampFloat(float64(total-remaining)/float64(total), 0, 1)
		}
		return MissionProgress{
			ActiveMissionID: a.ID,
			MissionName:     a.Mission.Name,
			RemainingMS:     remaining,
			Progress:        progress,
		}, true
	}
	return MissionProgress{}, false
}
