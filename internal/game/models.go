/*
Package game
File: models.go
Description:
    Defines all data structures used throughout the simulation.
    This file serves as the "schema" for the game state document, mapping
    directly to the YAML content file and to the JSON save envelope.

    No logic is performed here beyond trivial accessors.
*/

package game

import "time"

// Class is a crew member's specialisation. Each class carries a mission passive.
type Class string

const (
	ClassSolo      Class = "SOLO"      // +10% power on HEIST/BOUNTY
	ClassNetrunner Class = "NETRUNNER" // +15% xp
	ClassTechie    Class = "TECHIE"    // -0.2 injury chance
	ClassNomad     Class = "NOMAD"     // -15% mission duration
	ClassFixer     Class = "FIXER"     // +15% eddies
)

// Classes lists every recruitable class in display order.
var Classes = []Class{ClassSolo, ClassNetrunner, ClassTechie, ClassNomad, ClassFixer}

// MemberStatus is the lifecycle state of a crew member.
type MemberStatus string

const (
	StatusIdle      MemberStatus = "IDLE"
	StatusOnMission MemberStatus = "ON_MISSION"
	StatusInjured   MemberStatus = "INJURED"
)

// Member is one recruited crew member.
type Member struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Class       Class  `json:"class"`
	Description string `json:"description"`

	// Progression
	Level    int `json:"level"`
	XP       int `json:"xp"`
	XPToNext int `json:"xp_to_next"`

	// Vitals. Injured is only ever set by damage that drives Health to 0.
	Health    int  `json:"health"`
	MaxHealth int  `json:"max_health"`
	Injured   bool `json:"injured"`

	// Combat stats
	Cool   int `json:"cool"`
	Reflex int `json:"reflex"`

	Status         MemberStatus `json:"status"`
	CurrentMission string       `json:"current_mission"` // Empty when not deployed
}

// Available reports whether the member can be sent on a mission or operation.
func (m Member) Available() bool {
	return m.Status == StatusIdle && !m.Injured
}

// MissionType drives class passives (SOLO favours HEIST and BOUNTY).
type MissionType string

const (
	MissionHeist     MissionType = "HEIST"
	MissionBounty    MissionType = "BOUNTY"
	MissionHack      MissionType = "HACK"
	MissionSmuggling MissionType = "SMUGGLING"
	MissionRecon     MissionType = "RECON"
)

// Difficulty is a mission tier, unlocked by reputation.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "EASY"
	DifficultyMedium  Difficulty = "MEDIUM"
	DifficultyHard    Difficulty = "HARD"
	DifficultyExtreme Difficulty = "EXTREME"
)

// MissionTemplate is a static mission definition loaded from content.
type MissionTemplate struct {
	Name             string      `yaml:"name" json:"name"`
	Description      string      `yaml:"description" json:"description"`
	Type             MissionType `yaml:"type" json:"type"`
	Difficulty       Difficulty  `yaml:"difficulty" json:"difficulty"`
	DifficultyRating int         `yaml:"difficulty_rating" json:"difficulty_rating"`
	DurationMS       int64       `yaml:"duration_ms" json:"duration_ms"`

	// Reward ranges (inclusive)
	EddiesMin int `yaml:"eddies_min" json:"eddies_min"`
	EddiesMax int `yaml:"eddies_max" json:"eddies_max"`
	XPMin     int `yaml:"xp_min" json:"xp_min"`
	XPMax     int `yaml:"xp_max" json:"xp_max"`
	Rep       int `yaml:"rep" json:"rep"`

	InjuryChance float64 `yaml:"injury_chance" json:"injury_chance"`

	// Gates
	MinLevel  int `yaml:"min_level" json:"min_level"`
	MinCool   int `yaml:"min_cool" json:"min_cool"`
	MinReflex int `yaml:"min_reflex" json:"min_reflex"`
}

// Duration returns the template's base duration.
func (t MissionTemplate) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// Mission is a template offered on the job board under a unique id.
type Mission struct {
	ID string `json:"id"`
	MissionTemplate
}

// ActiveMission binds a crew to a mission until EndTime (unix millis).
type ActiveMission struct {
	ID        string   `json:"id"`
	MemberIDs []string `json:"member_ids"`
	Mission   Mission  `json:"mission"`
	StartTime int64    `json:"start_time"`
	EndTime   int64    `json:"end_time"`
}

// UpgradeType is an installable territory modifier.
type UpgradeType string

const (
	UpgradeMarket       UpgradeType = "MARKET"       // +25% income
	UpgradeArmory       UpgradeType = "ARMORY"       // +5% assault power per level
	UpgradeSurveillance UpgradeType = "SURVEILLANCE" // +5 scout intel per level
	UpgradeBunker       UpgradeType = "BUNKER"       // +10 defender power per level
)

// Upgrade is an installed territory modifier.
type Upgrade struct {
	Type  UpgradeType `yaml:"type" json:"type"`
	Level int         `yaml:"level" json:"level"`
}

// UpgradeOffer is a purchasable territory upgrade from content.
type UpgradeOffer struct {
	Type        UpgradeType `yaml:"type" json:"type"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Cost        int         `yaml:"cost" json:"cost"` // Per level
	MaxLevel    int         `yaml:"max_level" json:"max_level"`
}

// Territory is one district of the map.
type Territory struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Controlled bool   `yaml:"controlled" json:"controlled"`
	RivalGang  string `yaml:"rival_gang" json:"rival_gang"` // Empty when unclaimed by a rival
	Income     int    `yaml:"income" json:"income"`

	// Warfare attributes, each in [0,100]
	Defense   int `yaml:"defense" json:"defense"`
	Stability int `yaml:"stability" json:"stability"`
	Heat      int `yaml:"heat" json:"heat"`
	Intel     int `yaml:"intel" json:"intel"`

	Upgrades  []Upgrade `yaml:"upgrades" json:"upgrades"`
	Slots     int       `yaml:"slots" json:"slots"`
	Neighbors []string  `yaml:"neighbors" json:"neighbors"`
	Polygon   [][]int   `yaml:"polygon" json:"polygon"` // Opaque to the simulation
}

// UpgradeLevel returns the installed level of an upgrade type, 0 if absent.
func (t Territory) UpgradeLevel(ut UpgradeType) int {
	for _, u := range t.Upgrades {
		if u.Type == ut {
			return u.Level
		}
	}
	return 0
}

// Unclaimed reports whether neither the player nor a rival holds the territory.
func (t Territory) Unclaimed() bool {
	return !t.Controlled && t.RivalGang == ""
}

// Personality fixes a rival gang's base aggression.
type Personality string

const (
	PersonalityAggressive Personality = "aggressive"
	PersonalityBalanced   Personality = "balanced"
	PersonalityDefensive  Personality = "defensive"
)

// Personalities lists all personalities.
var Personalities = []Personality{PersonalityAggressive, PersonalityBalanced, PersonalityDefensive}

// BaseAggression returns the personality's starting aggression.
func (p Personality) BaseAggression() float64 {
	switch p {
	case PersonalityAggressive:
		return 0.7
	case PersonalityDefensive:
		return 0.3
	default:
		return 0.5
	}
}

// RivalGang is an AI-controlled faction.
type RivalGang struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Personality  Personality `json:"personality"`
	Aggression   float64     `json:"aggression"`
	Territories  []string    `json:"territories"`
	Strength     int         `json:"strength"`
	Relationship int         `json:"relationship"` // -100 (war) to +100 (allied)
	Resources    int         `json:"resources"`    // Budget for AI operations
}

// GangInfo is the read-only summary exposed to the UI.
type GangInfo struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	TerritoryCount int         `json:"territory_count"`
	Strength       int         `json:"strength"`
	Personality    Personality `json:"personality"`
	Relationship   int         `json:"relationship"`
}

// OperationType is the kind of warfare operation.
type OperationType string

const (
	OpScout    OperationType = "SCOUT"
	OpRaid     OperationType = "RAID"
	OpAssault  OperationType = "ASSAULT"
	OpFortify  OperationType = "FORTIFY"
	OpDefend   OperationType = "DEFEND"
	OpSabotage OperationType = "SABOTAGE"
)

// Hostile reports whether the operation targets someone else's territory.
func (t OperationType) Hostile() bool {
	return t != OpFortify && t != OpDefend
}

// OperationStatus is the lifecycle of an operation.
type OperationStatus string

const (
	OpInProgress OperationStatus = "IN_PROGRESS"
	OpCompleted  OperationStatus = "COMPLETED"
	OpFailed     OperationStatus = "FAILED"
)

// InitiatorPlayer marks operations started by the player.
const InitiatorPlayer = "PLAYER"

// Operation is a timed warfare action against a territory.
type Operation struct {
	ID          string          `json:"id"`
	Type        OperationType   `json:"type"`
	TargetID    string          `json:"target_id"`
	InitiatorID string          `json:"initiator_id"`
	StartTime   int64           `json:"start_time"`
	EndTime     int64           `json:"end_time"`
	Power       int             `json:"power"`
	Status      OperationStatus `json:"status"`
	MemberIDs   []string        `json:"member_ids,omitempty"`
	Label       string          `json:"label,omitempty"`    // CurrentMission of bound members
	Consumed    bool            `json:"consumed,omitempty"` // DEFEND spent on an assault
}

// Severity tags a game event for the UI.
type Severity string

const (
	SeverityGood    Severity = "good"
	SeverityBad     Severity = "bad"
	SeverityNeutral Severity = "neutral"
)

// GlobalEvent is a city-wide modifier drawn on the rare event tick.
type GlobalEvent struct {
	ID               string   `yaml:"id" json:"id"`
	Name             string   `yaml:"name" json:"name"`
	Description      string   `yaml:"description" json:"description"`
	Severity         Severity `yaml:"severity" json:"severity"`
	IncomeMultiplier float64  `yaml:"income_multiplier" json:"income_multiplier"`
	HeatDelta        int      `yaml:"heat_delta" json:"heat_delta"`
	StabilityDelta   int      `yaml:"stability_delta" json:"stability_delta"`
	DurationMS       int64    `yaml:"duration_ms" json:"duration_ms"`
	ExpiresAt        int64    `yaml:"-" json:"expires_at"`
}

// SkillCheck gates an encounter option behind a party stat roll.
type SkillCheck struct {
	Stat       string `yaml:"stat" json:"stat"` // "cool", "reflex" or "tech"
	Difficulty int    `yaml:"difficulty" json:"difficulty"`
}

// Effects is a set of resource deltas. Values are magnitudes; whether they are
// gained or lost depends on whether they sit in Rewards or Penalties.
type Effects struct {
	Eddies int `yaml:"eddies" json:"eddies"`
	Rep    int `yaml:"rep" json:"rep"`
	XP     int `yaml:"xp" json:"xp"`
	Health int `yaml:"health" json:"health"`
}

// Outcome describes what happens when an encounter option resolves.
// A Gamble swaps in an alternate outcome with the given chance.
type Outcome struct {
	Message   string  `yaml:"message" json:"message"`
	Rewards   Effects `yaml:"rewards" json:"rewards"`
	Penalties Effects `yaml:"penalties" json:"penalties"`
	Gamble    *Gamble `yaml:"gamble,omitempty" json:"gamble,omitempty"`
}

// Gamble is the randomized sub-outcome discriminant.
type Gamble struct {
	Chance  float64 `yaml:"chance" json:"chance"`
	Outcome Outcome `yaml:"outcome" json:"outcome"`
}

// EncounterOption is one choice offered by an encounter.
type EncounterOption struct {
	Label   string      `yaml:"label" json:"label"`
	Cost    int         `yaml:"cost" json:"cost"`
	Check   *SkillCheck `yaml:"check,omitempty" json:"check,omitempty"`
	Success Outcome     `yaml:"success" json:"success"`
	Failure Outcome     `yaml:"failure" json:"failure"`
}

// EncounterTemplate is a narrative event from the static pool.
type EncounterTemplate struct {
	ID          string            `yaml:"id" json:"id"`
	Title       string            `yaml:"title" json:"title"`
	Description string            `yaml:"description" json:"description"`
	Theme       string            `yaml:"theme" json:"theme"`
	Options     []EncounterOption `yaml:"options" json:"options"`
}

// Encounter is a spawned instance of a template on the map.
type Encounter struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	ExpiresAt  int64  `json:"expires_at"`
}

// State is the whole game document held by the Store.
type State struct {
	Eddies   int    `json:"eddies"`
	Rep      int    `json:"rep"`
	GangName string `json:"gang_name"`

	Crew              []Member        `json:"crew"`
	Territories       []Territory     `json:"territories"`
	AvailableMissions []Mission       `json:"available_missions"`
	ActiveMissions    []ActiveMission `json:"active_missions"`
	Gangs             []RivalGang     `json:"gangs"`
	Operations        []Operation     `json:"operations"`
	Encounters        []Encounter     `json:"encounters"`
	GlobalEvent       *GlobalEvent    `json:"global_event"`
}
