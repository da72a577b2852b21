/*
Package game
File: content.go
Description:
    Loads the static game content (balance constants, mission templates,
    recruit roster, rival gangs, districts, encounters, city events) from YAML.
    A default content file is embedded; LoadContent can read an override from disk.
*/

package game

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// Balance stores global tuning variables. Durations are milliseconds.
type Balance struct {
	StartingEddies        int `yaml:"starting_eddies" json:"starting_eddies"`
	StartingRep           int `yaml:"starting_rep" json:"starting_rep"`
	MissionPoolSize       int `yaml:"mission_pool_size" json:"mission_pool_size"`
	RefreshCost           int `yaml:"refresh_cost" json:"refresh_cost"`
	RecruitCost           int `yaml:"recruit_cost" json:"recruit_cost"`
	HealCostPerHP         int `yaml:"heal_cost_per_hp" json:"heal_cost_per_hp"`
	StatUpgradeCost       int `yaml:"stat_upgrade_cost" json:"stat_upgrade_cost"` // Multiplied by the current stat value
	HealthUpgradeCost     int `yaml:"health_upgrade_cost" json:"health_upgrade_cost"`
	CaptureCost           int `yaml:"capture_cost" json:"capture_cost"`
	PoliceRaidPenalty     int `yaml:"police_raid_penalty" json:"police_raid_penalty"`
	StartingGangResources int `yaml:"starting_gang_resources" json:"starting_gang_resources"`
	MaxRivals             int `yaml:"max_rivals" json:"max_rivals"`

	GangRespawnMS int64 `yaml:"gang_respawn_ms" json:"gang_respawn_ms"`
	AITickMS      int64 `yaml:"ai_tick_ms" json:"ai_tick_ms"`
	WarfareTickMS int64 `yaml:"warfare_tick_ms" json:"warfare_tick_ms"`
	IncomeTickMS  int64 `yaml:"income_tick_ms" json:"income_tick_ms"`
	EventTickMS   int64 `yaml:"event_tick_ms" json:"event_tick_ms"`
	AutosaveMS    int64 `yaml:"autosave_ms" json:"autosave_ms"`

	AIMoveChance float64 `yaml:"ai_move_chance" json:"ai_move_chance"` // Scaled by gang aggression per warfare tick
	EventChance  float64 `yaml:"event_chance" json:"event_chance"`

	OperationDurations map[OperationType]int64 `yaml:"operation_durations" json:"operation_durations"`
}

// OperationDuration returns the configured duration for an operation type.
func (b Balance) OperationDuration(t OperationType) time.Duration {
	ms, ok := b.OperationDurations[t]
	if !ok || ms <= 0 {
		ms = 30000
	}
	return time.Duration(ms) * time.Millisecond
}

// Rect is an axis-aligned box in map coordinates.
type Rect struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	W int `yaml:"w" json:"w"`
	H int `yaml:"h" json:"h"`
}

// Overlaps reports whether two boxes intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// EncounterConfig tunes the ambient encounter spawner.
type EncounterConfig struct {
	SpawnMinMS     int64  `yaml:"spawn_min_ms"`
	SpawnMaxMS     int64  `yaml:"spawn_max_ms"`
	SweepMS        int64  `yaml:"sweep_ms"`
	MaxActive      int    `yaml:"max_active"`
	MinDurationMS  int64  `yaml:"min_duration_ms"`
	MaxDurationMS  int64  `yaml:"max_duration_ms"`
	MapWidth       int    `yaml:"map_width"`
	MapHeight      int    `yaml:"map_height"`
	Margin         int    `yaml:"margin"` // Width of the unsafe border band
	Size           int    `yaml:"size"`   // Encounter marker bounding box edge
	Attempts       int    `yaml:"attempts"`
	ExclusionZones []Rect `yaml:"exclusion_zones"`
}

// RecruitProfile holds the base stats of a recruitable class.
type RecruitProfile struct {
	Class       Class  `yaml:"class" json:"class"`
	Description string `yaml:"description" json:"description"`
	Cool        int    `yaml:"cool" json:"cool"`
	Reflex      int    `yaml:"reflex" json:"reflex"`
	Health      int    `yaml:"health" json:"health"`
}

// StartingMember is a crew member present at game start.
type StartingMember struct {
	Name  string `yaml:"name"`
	Class Class  `yaml:"class"`
}

// GangSeed is a rival gang present at game start.
type GangSeed struct {
	Name        string      `yaml:"name"`
	Personality Personality `yaml:"personality"`
	Territories []string    `yaml:"territories"`
}

// Content is the root configuration struct, mapping to the whole content file.
type Content struct {
	Balance      Balance             `yaml:"balance"`
	Encounter    EncounterConfig     `yaml:"encounter"`
	StartingCrew []StartingMember    `yaml:"starting_crew"`
	CrewNames    []string            `yaml:"crew_names"`
	Recruits     []RecruitProfile    `yaml:"recruits"`
	GangNames    []string            `yaml:"gang_names"`
	Gangs        []GangSeed          `yaml:"gangs"`
	Territories  []Territory         `yaml:"territories"`
	Upgrades     []UpgradeOffer      `yaml:"upgrades"`
	Missions     []MissionTemplate   `yaml:"missions"`
	Encounters   []EncounterTemplate `yaml:"encounters"`
	Events       []GlobalEvent       `yaml:"events"`
}

// DefaultContent parses the embedded content file.
func DefaultContent() (*Content, error) {
	return ParseContent(defaultContent)
}

// LoadContent reads content from path, or the embedded default when path is empty.
func LoadContent(path string) (*Content, error) {
	if path == "" {
		return DefaultContent()
	}

	// 1. Read the YAML file
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	// 2. Unmarshal and validate
	return ParseContent(f)
}

// ParseContent unmarshals and validates a content document.
func ParseContent(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Content) validate() error {
	if len(c.Missions) == 0 {
		return fmt.Errorf("content: no mission templates")
	}
	if len(c.Territories) == 0 {
		return fmt.Errorf("content: no territories")
	}
	for _, m := range c.Missions {
		if m.DifficultyRating <= 0 {
			return fmt.Errorf("content: mission %q needs a positive difficulty_rating", m.Name)
		}
		if m.EddiesMax < m.EddiesMin || m.XPMax < m.XPMin {
			return fmt.Errorf("content: mission %q has an inverted reward range", m.Name)
		}
	}
	known := make(map[string]bool, len(c.Territories))
	for _, t := range c.Territories {
		known[t.ID] = true
	}
	for _, g := range c.Gangs {
		for _, id := range g.Territories {
			if !known[id] {
				return fmt.Errorf("content: gang %q seeds unknown territory %q", g.Name, id)
			}
		}
	}
	for _, e := range c.Encounters {
		if len(e.Options) == 0 {
			return fmt.Errorf("content: encounter %q has no options", e.ID)
		}
		for _, o := range e.Options {
			if mixedHealth(o.Success) || mixedHealth(o.Failure) {
				return fmt.Errorf("content: encounter %q option %q both heals and hurts", e.ID, o.Label)
			}
		}
	}
	return nil
}

// mixedHealth reports whether an outcome, or its gamble, carries a health
// reward and a health penalty at once.
func mixedHealth(o Outcome) bool {
	if o.Rewards.Health > 0 && o.Penalties.Health > 0 {
		return true
	}
	return o.Gamble != nil && mixedHealth(o.Gamble.Outcome)
}

// Recruit returns the profile for a class.
func (c *Content) Recruit(class Class) (RecruitProfile, bool) {
	for _, r := range c.Recruits {
		if r.Class == class {
			return r, true
		}
	}
	return RecruitProfile{}, false
}

// Upgrade returns the purchasable upgrade of the given type.
func (c *Content) Upgrade(ut UpgradeType) (UpgradeOffer, bool) {
	for _, u := range c.Upgrades {
		if u.Type == ut {
			return u, true
		}
	}
	return UpgradeOffer{}, false
}

// EncounterTemplate returns the template with the given id.
func (c *Content) EncounterTemplate(id string) (EncounterTemplate, bool) {
	for _, e := range c.Encounters {
		if e.ID == id {
			return e, true
		}
	}
	return EncounterTemplate{}, false
}
