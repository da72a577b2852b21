/*
Package game
File: state.go
Description:
    Manages the runtime state document of the game.
    The Store holds the single State value, hands out deep-copied snapshots,
    and notifies subscribers synchronously on every mutation.

    It also builds a fresh game from content (NewGame).
*/

package game

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Store is the observable game document. It does no locking: the Engine
// serializes every action and scheduled job onto one loop.
type Store struct {
	state       State
	subscribers []func(State)
}

// NewStore creates a Store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial.Clone()}
}

// Get returns a snapshot the caller may freely modify.
func (s *Store) Get() State {
	return s.state.Clone()
}

// Subscribe registers fn for every mutation and calls it once immediately.
// Subscriptions last for the lifetime of the Store.
func (s *Store) Subscribe(fn func(State)) {
	s.subscribers = append(s.subscribers, fn)
	fn(s.Get())
}

// Update applies fn to a copy of the state, commits it and notifies once.
// Eddies are clamped at zero on commit.
func (s *Store) Update(fn func(*State)) {
	next := s.state.Clone()
	fn(&next)
	if next.Eddies < 0 {
		next.Eddies = 0
	}
	s.state = next
	s.notify()
}

// Replace swaps in a whole new document (load, reset).
func (s *Store) Replace(st State) {
	s.Update(func(cur *State) { *cur = st.Clone() })
}

// SetEddies replaces the eddies balance.
func (s *Store) SetEddies(v int) { s.Update(func(st *State) { st.Eddies = v }) }

// SetRep replaces the reputation.
func (s *Store) SetRep(v int) { s.Update(func(st *State) { st.Rep = v }) }

// SetGangName replaces the player gang's name.
func (s *Store) SetGangName(v string) { s.Update(func(st *State) { st.GangName = v }) }

// SetCrew replaces the crew list.
func (s *Store) SetCrew(v []Member) { s.Update(func(st *State) { st.Crew = v }) }

// SetTerritories replaces the territory list. Warfare mutations always go
// through whole-list replacement.
func (s *Store) SetTerritories(v []Territory) { s.Update(func(st *State) { st.Territories = v }) }

// SetAvailableMissions replaces the job board.
func (s *Store) SetAvailableMissions(v []Mission) {
	s.Update(func(st *State) { st.AvailableMissions = v })
}

// SetGangs replaces the rival roster.
func (s *Store) SetGangs(v []RivalGang) { s.Update(func(st *State) { st.Gangs = v }) }

// SetOperations replaces the operation list.
func (s *Store) SetOperations(v []Operation) { s.Update(func(st *State) { st.Operations = v }) }

// SetEncounters replaces the active encounters.
func (s *Store) SetEncounters(v []Encounter) { s.Update(func(st *State) { st.Encounters = v }) }

func (s *Store) notify() {
	for _, fn := range s.subscribers {
		fn(s.Get())
	}
}

// Clone deep-copies the document.
func (st State) Clone() State {
	out := st
	out.Crew = slices.Clone(st.Crew)
	out.AvailableMissions = slices.Clone(st.AvailableMissions)
	out.Encounters = slices.Clone(st.Encounters)

	if st.Territories != nil {
		out.Territories = make([]Territory, len(st.Territories))
		for i, t := range st.Territories {
			out.Territories[i] = t.clone()
		}
	}
	if st.ActiveMissions != nil {
		out.ActiveMissions = make([]ActiveMission, len(st.ActiveMissions))
		for i, am := range st.ActiveMissions {
			am.MemberIDs = slices.Clone(am.MemberIDs)
			out.ActiveMissions[i] = am
		}
	}
	if st.Gangs != nil {
		out.Gangs = make([]RivalGang, len(st.Gangs))
		for i, g := range st.Gangs {
			g.Territories = slices.Clone(g.Territories)
			out.Gangs[i] = g
		}
	}
	if st.Operations != nil {
		out.Operations = make([]Operation, len(st.Operations))
		for i, op := range st.Operations {
			op.MemberIDs = slices.Clone(op.MemberIDs)
			out.Operations[i] = op
		}
	}
	if st.GlobalEvent != nil {
		ev := *st.GlobalEvent
		out.GlobalEvent = &ev
	}
	return out
}

func (t Territory) clone() Territory {
	t.Upgrades = slices.Clone(t.Upgrades)
	t.Neighbors = slices.Clone(t.Neighbors)
	if t.Polygon != nil {
		poly := make([][]int, len(t.Polygon))
		for i, p := range t.Polygon {
			poly[i] = slices.Clone(p)
		}
		t.Polygon = poly
	}
	return t
}

// newID builds a prefixed unique entity id.
func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// newMember builds a level-1 recruit from a class profile.
func newMember(name string, p RecruitProfile) Member {
	return Member{
		ID:          newID("MBR"),
		Name:        name,
		Class:       p.Class,
		Description: p.Description,
		Level:       1,
		XPToNext:    100,
		Health:      p.Health,
		MaxHealth:   p.Health,
		Cool:        p.Cool,
		Reflex:      p.Reflex,
		Status:      StatusIdle,
	}
}

// newGang builds a rival gang holding the given territories.
func newGang(name string, p Personality, territories []string, resources int) RivalGang {
	return RivalGang{
		ID:          newID("GNG"),
		Name:        name,
		Personality: p,
		Aggression:  p.BaseAggression(),
		Territories: slices.Clone(territories),
		Strength:    gangStrength(len(territories)),
		Resources:   resources,
	}
}

// NewGame builds the starting document from content.
func NewGame(c *Content, rng Rand) State {
	st := State{
		Eddies:      c.Balance.StartingEddies,
		Rep:         c.Balance.StartingRep,
		GangName:    "Your Crew",
		Crew:        []Member{},
		Territories: make([]Territory, len(c.Territories)),
	}

	// 1. Districts
	for i, t := range c.Territories {
		st.Territories[i] = t.clone()
		st.Territories[i].RivalGang = ""
	}

	// 2. Starting crew
	for _, sm := range c.StartingCrew {
		p, ok := c.Recruit(sm.Class)
		if !ok {
			continue
		}
		st.Crew = append(st.Crew, newMember(sm.Name, p))
	}

	// 3. Rival gangs and their seeded turf
	for _, seed := range c.Gangs {
		g := newGang(seed.Name, seed.Personality, nil, c.Balance.StartingGangResources)
		for _, tid := range seed.Territories {
			i := territoryIndex(st.Territories, tid)
			if i < 0 || !st.Territories[i].Unclaimed() {
				continue
			}
			st.Territories[i].RivalGang = g.ID
			g.Territories = append(g.Territories, tid)
		}
		g.Strength = gangStrength(len(g.Territories))
		st.Gangs = append(st.Gangs, g)
	}

	// 4. Job board
	st.AvailableMissions = generateMissionPool(c, rng, st.Rep, c.Balance.MissionPoolSize)
	return st
}
