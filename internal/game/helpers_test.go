package game

import (
	"context"
	"testing"
	"time"
)

// scriptRand replays queued draws, then returns fallback forever.
type scriptRand struct {
	queue    []float64
	fallback float64
	draws    int
}

func (r *scriptRand) Float64() float64 {
	r.draws++
	if len(r.queue) == 0 {
		return r.fallback
	}
	v := r.queue[0]
	r.queue = r.queue[1:]
	return v
}

// script replaces the queue and resets the draw counter.
func (r *scriptRand) script(vals ...float64) {
	r.queue = vals
	r.draws = 0
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

type memorySaver struct {
	saves  []State
	resets int
}

func (s *memorySaver) Save(_ context.Context, st State) error {
	s.saves = append(s.saves, st)
	return nil
}

func (s *memorySaver) Reset(context.Context) error {
	s.resets++
	s.saves = nil
	return nil
}

type harness struct {
	engine *Engine
	rng    *scriptRand
	clock  *fakeClock
}

func testContent(t *testing.T) *Content {
	t.Helper()
	c, err := DefaultContent()
	if err != nil {
		t.Fatalf("default content: %v", err)
	}
	return c
}

// newHarness builds an engine over st with scripted randomness. The script is
// cleared after construction so tests only see their own draws.
func newHarness(t *testing.T, st State, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		rng:   &scriptRand{fallback: 0.5},
		clock: &fakeClock{t: time.UnixMilli(1_700_000_000_000)},
	}
	opts = append([]Option{WithRand(h.rng), WithClock(h.clock), WithState(st)}, opts...)
	h.engine = NewEngine(testContent(t), opts...)
	h.rng.script()
	return h
}

func member(id string, class Class, cool, reflex, level int) Member {
	return Member{
		ID:        id,
		Name:      id,
		Class:     class,
		Level:     level,
		XPToNext:  100,
		Health:    100,
		MaxHealth: 100,
		Cool:      cool,
		Reflex:    reflex,
		Status:    StatusIdle,
	}
}

// fixture is a small city: the player holds "home", gang g1 holds "north" and
// "east", gang g2 holds "south", "west" is unclaimed.
func fixture() State {
	terr := func(id string, neighbors ...string) Territory {
		return Territory{ID: id, Name: id, Income: 60, Defense: 40, Stability: 60, Slots: 2, Neighbors: neighbors}
	}
	home := terr("home", "north", "south", "west")
	home.Controlled = true
	north := terr("north", "home", "east")
	north.RivalGang = "g1"
	east := terr("east", "north")
	east.RivalGang = "g1"
	south := terr("south", "home")
	south.RivalGang = "g2"
	west := terr("west", "home")

	return State{
		Eddies:   500,
		GangName: "Test Crew",
		Crew: []Member{
			member("m1", ClassSolo, 4, 4, 1),
			member("m2", ClassTechie, 6, 5, 1),
		},
		Territories: []Territory{home, north, east, south, west},
		AvailableMissions: []Mission{{
			ID: "job1",
			MissionTemplate: MissionTemplate{
				Name:             "Data Heist",
				Type:             MissionHack,
				Difficulty:       DifficultyEasy,
				DifficultyRating: 50,
				DurationMS:       60000,
				EddiesMin:        100,
				EddiesMax:        200,
				XPMin:            50,
				XPMax:            80,
				Rep:              3,
				InjuryChance:     0.2,
			},
		}},
		Gangs: []RivalGang{
			{ID: "g1", Name: "Chrome Jackals", Personality: PersonalityAggressive, Aggression: 0.7,
				Territories: []string{"north", "east"}, Strength: gangStrength(2), Resources: 200},
			{ID: "g2", Name: "Neon Saints", Personality: PersonalityBalanced, Aggression: 0.5,
				Territories: []string{"south"}, Strength: gangStrength(1), Resources: 200},
		},
	}
}

func findMember(t *testing.T, st State, id string) Member {
	t.Helper()
	i := memberIndex(st.Crew, id)
	if i < 0 {
		t.Fatalf("member %s not found", id)
	}
	return st.Crew[i]
}

func findTerritory(t *testing.T, st State, id string) Territory {
	t.Helper()
	i := territoryIndex(st.Territories, id)
	if i < 0 {
		t.Fatalf("territory %s not found", id)
	}
	return st.Territories[i]
}

// assertInvariants checks the rules that must hold after any resolution.
func assertInvariants(t *testing.T, st State) {
	t.Helper()
	for _, m := range st.Crew {
		if m.Health < 0 || m.Health > m.MaxHealth {
			t.Errorf("member %s health %d outside [0,%d]", m.ID, m.Health, m.MaxHealth)
		}
		if m.Injured && m.Health != 0 {
			t.Errorf("member %s injured with health %d", m.ID, m.Health)
		}
	}
	for _, tr := range st.Territories {
		for name, v := range map[string]int{"defense": tr.Defense, "stability": tr.Stability, "heat": tr.Heat, "intel": tr.Intel} {
			if v < 0 || v > 100 {
				t.Errorf("territory %s %s = %d outside [0,100]", tr.ID, name, v)
			}
		}
		if tr.Controlled && tr.RivalGang != "" {
			t.Errorf("territory %s owned by player and %s", tr.ID, tr.RivalGang)
		}
	}
	if st.Eddies < 0 {
		t.Errorf("eddies = %d", st.Eddies)
	}
}
