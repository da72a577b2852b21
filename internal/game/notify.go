package game

import "time"

// NotificationKind names a one-shot event for the UI. Notifications are not part
// of the state document; they narrate something that happened once.
type NotificationKind string

const (
	NotifyMissionStarted   NotificationKind = "mission_started"
	NotifyMissionCompleted NotificationKind = "mission_completed"
	NotifyTerritoryIncome  NotificationKind = "territory_income"
	NotifyGameEvent        NotificationKind = "game_event"
	NotifyOperationUpdated NotificationKind = "operation_updated"
	NotifyGangNarration    NotificationKind = "gang_narration"
)

// Notification is a fire-and-forget message.
type Notification struct {
	Kind     NotificationKind `json:"kind"`
	Message  string           `json:"message"`
	Severity Severity         `json:"severity"`
	Payload  any              `json:"payload,omitempty"`
}

// MissionStartedPayload accompanies NotifyMissionStarted.
type MissionStartedPayload struct {
	ActiveMissionID string   `json:"active_mission_id"`
	MissionName     string   `json:"mission_name"`
	MemberIDs       []string `json:"member_ids"`
	EndTime         int64    `json:"end_time"`
}

// MissionReport accompanies NotifyMissionCompleted.
type MissionReport struct {
	ActiveMissionID string   `json:"active_mission_id"`
	MissionName     string   `json:"mission_name"`
	Success         bool     `json:"success"`
	Catastrophic    bool     `json:"catastrophic"`
	Eddies          int      `json:"eddies"`
	XP              int      `json:"xp"` // Granted to each member
	Rep             int      `json:"rep"`
	LeveledUp       []string `json:"leveled_up"`
	Injured         []string `json:"injured"`
}

// IncomePayload accompanies NotifyTerritoryIncome.
type IncomePayload struct {
	Total       int `json:"total"`
	Territories int `json:"territories"`
}

// OperationPayload accompanies NotifyOperationUpdated.
type OperationPayload struct {
	Operation Operation `json:"operation"`
	Outcome   string    `json:"outcome"`
}

// Bus fans notifications out to listeners. Like the Store it is driven from the
// engine's serialized loop and does no locking of its own.
type Bus struct {
	listeners []func(Notification)
	history   []Notification
	limit     int
}

// NewBus creates a Bus that remembers the last limit notifications.
func NewBus(limit int) *Bus {
	return &Bus{limit: limit}
}

// Listen registers a listener for every future notification.
func (b *Bus) Listen(fn func(Notification)) {
	b.listeners = append(b.listeners, fn)
}

// Notify delivers n to every listener.
func (b *Bus) Notify(n Notification) {
	if n.Severity == "" {
		n.Severity = SeverityNeutral
	}
	if b.limit > 0 {
		b.history = append(b.history, n)
		if len(b.history) > b.limit {
			b.history = b.history[len(b.history)-b.limit:]
		}
	}
	for _, fn := range b.listeners {
		fn(n)
	}
}

// Recent returns the remembered notifications, oldest first.
func (b *Bus) Recent() []Notification {
	out := make([]Notification, len(b.history))
	copy(out, b.history)
	return out
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}
