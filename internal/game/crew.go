package game

import (
	"fmt"
	"slices"
	"strings"
)

const (
	statCap     = 20
	maxGangName = 32
)

// Stat names accepted by UpgradeMember.
const (
	StatCool   = "cool"
	StatReflex = "reflex"
	StatHealth = "health"
)

// RecruitResult is the outcome of Recruit.
type RecruitResult struct {
	Result
	Member *Member `json:"member,omitempty"`
}

// Crew runs recruitment, healing and training, plus the direct resource actions.
type Crew struct {
	*world
}

// Recruit hires a level-1 member of the given class under an unused name.
func (c *Crew) Recruit(class Class) RecruitResult {
	st := c.store.Get()
	profile, found := c.content.Recruit(class)
	if !found {
		return RecruitResult{Result: fail("Unknown class")}
	}
	cost := c.content.Balance.RecruitCost
	if st.Eddies < cost {
		return RecruitResult{Result: fail(notEnoughEdd)}
	}

	var names []string
	for _, n := range c.content.CrewNames {
		if !slices.ContainsFunc(st.Crew, func(m Member) bool { return m.Name == n }) {
			names = append(names, n)
		}
	}
	name := fmt.Sprintf("Recruit %d", len(st.Crew)+1)
	if len(names) > 0 {
		name = names[intn(c.rng, len(names))]
	}

	m := newMember(name, profile)
	c.store.Update(func(s *State) {
		s.Eddies -= cost
		s.Crew = append(s.Crew, m)
	})
	return RecruitResult{Result: ok(), Member: &m}
}

// HealCost is the price of restoring a member to full health.
func (c *Crew) HealCost(m Member) int {
	return (m.MaxHealth - m.Health) * c.content.Balance.HealCostPerHP
}

// Heal restores a member to full health and clears the injury.
func (c *Crew) Heal(memberID string) Result {
	st := c.store.Get()
	i := memberIndex(st.Crew, memberID)
	if i < 0 {
		return fail("Unknown crew member")
	}
	m := st.Crew[i]
	cost := c.HealCost(m)
	switch {
	case m.Status == StatusOnMission:
		return fail(m.Name + " is busy")
	case m.Health >= m.MaxHealth && !m.Injured:
		return fail(m.Name + " is already at full health")
	case st.Eddies < cost:
		return fail(notEnoughEdd)
	}

	c.store.Update(func(s *State) {
		s.Eddies -= cost
		m := &s.Crew[memberIndex(s.Crew, memberID)]
		m.Health = m.MaxHealth
		m.Injured = false
		m.Status = StatusIdle
	})
	return ok()
}

// UpgradeCost returns the price of training a stat one step.
func (c *Crew) UpgradeCost(m Member, stat string) int {
	b := c.content.Balance
	switch stat {
	case StatCool:
		return b.StatUpgradeCost * m.Cool
	case StatReflex:
		return b.StatUpgradeCost * m.Reflex
	default:
		return b.HealthUpgradeCost
	}
}

// UpgradeMember trains cool or reflex by one, or max health by ten.
func (c *Crew) UpgradeMember(memberID, stat string) Result {
	st := c.store.Get()
	i := memberIndex(st.Crew, memberID)
	if i < 0 {
		return fail("Unknown crew member")
	}
	m := st.Crew[i]
	switch stat {
	case StatCool, StatReflex, StatHealth:
	default:
		return fail("Unknown stat")
	}
	if (stat == StatCool && m.Cool >= statCap) || (stat == StatReflex && m.Reflex >= statCap) {
		return fail(m.Name + " has maxed " + stat)
	}
	cost := c.UpgradeCost(m, stat)
	if st.Eddies < cost {
		return fail(notEnoughEdd)
	}

	c.store.Update(func(s *State) {
		s.Eddies -= cost
		m := &s.Crew[memberIndex(s.Crew, memberID)]
		switch stat {
		case StatCool:
			m.Cool++
		case StatReflex:
			m.Reflex++
		case StatHealth:
			m.MaxHealth += 10
			if !m.Injured {
				m.Health += 10
			}
		}
	})
	return ok()
}

// AddEddies credits (or debits) eddies. The balance never drops below zero.
func (c *Crew) AddEddies(n int) {
	c.store.Update(func(s *State) { s.Eddies += n })
}

// AddRep adjusts reputation.
func (c *Crew) AddRep(n int) {
	c.store.Update(func(s *State) { s.Rep += n })
}

// SetGangName renames the player's gang.
func (c *Crew) SetGangName(name string) Result {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fail("Name cannot be empty")
	case len(name) > maxGangName:
		return fail(fmt.Sprintf("Name must be at most %d characters", maxGangName))
	}
	c.store.SetGangName(name)
	return ok()
}
