package game

import (
	"slices"
)

// AppliedEffects records exactly what an encounter resolution changed.
type AppliedEffects struct {
	Cost         int    `json:"cost"`
	Eddies       int    `json:"eddies"` // Net of rewards and penalties, cost excluded
	Rep          int    `json:"rep"`
	XP           int    `json:"xp"` // Reported only
	Health       int    `json:"health"`
	HealthTarget string `json:"health_target,omitempty"`
	Injured      bool   `json:"injured,omitempty"`
}

// EncounterResult is the outcome of ResolveEncounter.
type EncounterResult struct {
	Result
	Message string         `json:"message"`
	Passed  bool           `json:"passed"`
	Roll    int            `json:"roll,omitempty"`
	Applied AppliedEffects `json:"applied"`
}

// Encounters spawns, expires and resolves ambient map events.
type Encounters struct {
	*world
}

// NextSpawnDelay draws the wait before the next spawn attempt.
func (e *Encounters) NextSpawnDelay() int64 {
	cfg := e.content.Encounter
	lo, hi := cfg.SpawnMinMS, cfg.SpawnMaxMS
	if hi <= lo {
		return max(lo, 1000)
	}
	return lo + int64(uniform(e.rng, 0, float64(hi-lo)))
}

// place rejection-samples a marker position clear of every exclusion zone.
func (e *Encounters) place() (int, int, bool) {
	cfg := e.content.Encounter
	loX, hiX := cfg.Margin, cfg.MapWidth-cfg.Margin-cfg.Size
	loY, hiY := cfg.Margin, cfg.MapHeight-cfg.Margin-cfg.Size
	if hiX < loX || hiY < loY {
		return 0, 0, false
	}

	for range cfg.Attempts {
		box := Rect{X: between(e.rng, loX, hiX), Y: between(e.rng, loY, hiY), W: cfg.Size, H: cfg.Size}
		if !slices.ContainsFunc(cfg.ExclusionZones, box.Overlaps) {
			return box.X, box.Y, true
		}
	}
	return 0, 0, false
}

// Spawn places a new encounter if below the cap. Placement failures are silent.
func (e *Encounters) Spawn() bool {
	st := e.store.Get()
	cfg := e.content.Encounter
	if len(st.Encounters) >= cfg.MaxActive || len(e.content.Encounters) == 0 {
		return false
	}
	x, y, found := e.place()
	if !found {
		return false
	}

	tpl := e.content.Encounters[intn(e.rng, len(e.content.Encounters))]
	life := cfg.MinDurationMS
	if cfg.MaxDurationMS > cfg.MinDurationMS {
		life += int64(uniform(e.rng, 0, float64(cfg.MaxDurationMS-cfg.MinDurationMS)))
	}
	enc := Encounter{
		ID:         newID("ENC"),
		TemplateID: tpl.ID,
		X:          x,
		Y:          y,
		ExpiresAt:  e.now() + life,
	}
	e.store.Update(func(s *State) { s.Encounters = append(s.Encounters, enc) })
	return true
}

// Sweep removes expired encounters and returns how many went.
func (e *Encounters) Sweep() int {
	now := e.now()
	st := e.store.Get()
	kept := slices.DeleteFunc(slices.Clone(st.Encounters), func(enc Encounter) bool { return enc.ExpiresAt <= now })
	gone := len(st.Encounters) - len(kept)
	if gone > 0 {
		e.store.SetEncounters(kept)
	}
	return gone
}

// bestStat returns the highest value of a stat among members able to act.
// There is no tech stat on the crew; it reads cool instead.
func bestStat(crew []Member, stat string) int {
	best := 0
	for _, m := range crew {
		if m.Injured || m.Health <= 0 {
			continue
		}
		v := m.Cool
		if stat == "reflex" {
			v = m.Reflex
		}
		best = max(best, v)
	}
	return best
}

// Resolve applies the chosen option of an encounter and removes it.
func (e *Encounters) Resolve(encounterID string, optionIndex int) EncounterResult {
	st := e.store.Get()

	// 1. Lookups
	ei := slices.IndexFunc(st.Encounters, func(enc Encounter) bool { return enc.ID == encounterID })
	if ei < 0 || st.Encounters[ei].ExpiresAt <= e.now() {
		return EncounterResult{Result: fail("Encounter is gone")}
	}
	tpl, found := e.content.EncounterTemplate(st.Encounters[ei].TemplateID)
	if !found {
		return EncounterResult{Result: fail("Encounter is gone")}
	}
	if optionIndex < 0 || optionIndex >= len(tpl.Options) {
		return EncounterResult{Result: fail("Invalid choice")}
	}
	opt := tpl.Options[optionIndex]

	// 2. Cost gate, before any roll
	if opt.Cost > 0 && st.Eddies < opt.Cost {
		return EncounterResult{Result: fail(notEnoughEdd), Message: notEnoughEdd}
	}

	// 3. Skill check
	res := EncounterResult{Result: ok(), Passed: true}
	if opt.Check != nil {
		res.Roll = between(e.rng, 1, 10) + bestStat(st.Crew, opt.Check.Stat)
		res.Passed = res.Roll >= opt.Check.Difficulty
	}
	outcome := opt.Success
	if !res.Passed {
		outcome = opt.Failure
	}
	if outcome.Gamble != nil && chance(e.rng, outcome.Gamble.Chance) {
		outcome = outcome.Gamble.Outcome
	}
	res.Message = outcome.Message

	// 4. Effects
	res.Applied = AppliedEffects{
		Cost:   opt.Cost,
		Eddies: outcome.Rewards.Eddies - outcome.Penalties.Eddies,
		Rep:    outcome.Rewards.Rep - outcome.Penalties.Rep,
		XP:     outcome.Rewards.XP,
	}
	heal, hurt := outcome.Rewards.Health, outcome.Penalties.Health

	e.store.Update(func(s *State) {
		s.Eddies += res.Applied.Eddies - opt.Cost
		s.Rep += res.Applied.Rep

		switch {
		case heal > 0:
			idx := pickMember(s.Crew, e.rng, func(m Member) bool { return m.Health < m.MaxHealth && !m.Injured })
			if idx >= 0 {
				m := &s.Crew[idx]
				m.Health = min(m.MaxHealth, m.Health+heal)
				res.Applied.Health, res.Applied.HealthTarget = heal, m.ID
			}
		case hurt > 0:
			idx := pickMember(s.Crew, e.rng, func(m Member) bool { return !m.Injured && m.Health > 0 })
			if idx >= 0 {
				m := &s.Crew[idx]
				res.Applied.Injured = applyDamage(m, hurt)
				res.Applied.Health, res.Applied.HealthTarget = -hurt, m.ID
			}
		}
		s.Encounters = slices.DeleteFunc(s.Encounters, func(enc Encounter) bool { return enc.ID == encounterID })
	})
	return res
}

// pickMember returns the index of a random member matching keep, or -1.
func pickMember(crew []Member, r Rand, keep func(Member) bool) int {
	var idx []int
	for i, m := range crew {
		if keep(m) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return -1
	}
	return idx[intn(r, len(idx))]
}
