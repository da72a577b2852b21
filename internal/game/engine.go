/*
Package game
File: engine.go
Description:
    The Engine owns the store, the notification bus and the job queue, and is
    the only entry point for callers. Every action and every scheduled job
    runs under one lock, so components never see concurrent mutation.

    Time only moves through Advance: production drives it from a ticker in Run,
    tests call it with a fake clock.
*/

package game

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"
)

// Saver persists snapshots. Implementations must tolerate being called from
// inside the engine lock.
type Saver interface {
	Save(ctx context.Context, st State) error
	Reset(ctx context.Context) error
}

// world is the shared context of every component.
type world struct {
	store   *Store
	bus     *Bus
	rng     Rand
	clock   Clock
	content *Content
	sched   *Scheduler
}

func (w *world) now() int64 { return millis(w.clock.Now()) }

// Engine is the simulation facade.
type Engine struct {
	mu sync.Mutex
	w  *world

	missions   *Missions
	rivals     *Rivals
	warfare    *Warfare
	economy    *Economy
	encounters *Encounters
	crew       *Crew

	saver   Saver
	initial *State
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand substitutes the random source.
func WithRand(r Rand) Option { return func(e *Engine) { e.w.rng = r } }

// WithClock substitutes the clock.
func WithClock(c Clock) Option { return func(e *Engine) { e.w.clock = c } }

// WithState starts from a loaded snapshot instead of a new game.
func WithState(st State) Option {
	return func(e *Engine) {
		cp := st.Clone()
		e.initial = &cp
	}
}

// WithSaver enables autosave and save-on-event.
func WithSaver(s Saver) Option { return func(e *Engine) { e.saver = s } }

// NewEngine builds an engine for the given content.
func NewEngine(content *Content, opts ...Option) *Engine {
	w := &world{
		bus:     NewBus(50),
		clock:   SystemClock{},
		content: content,
		sched:   NewScheduler(),
	}
	e := &Engine{
		w:          w,
		missions:   &Missions{w},
		rivals:     &Rivals{w},
		warfare:    &Warfare{w},
		economy:    &Economy{w},
		encounters: &Encounters{w},
		crew:       &Crew{w},
	}
	for _, opt := range opts {
		opt(e)
	}
	if w.rng == nil {
		seed := uint64(time.Now().UnixNano())
		w.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	if e.initial == nil {
		st := NewGame(content, w.rng)
		e.initial = &st
	}
	w.store = NewStore(*e.initial)
	e.initial = nil

	// Notable events persist immediately.
	w.bus.Listen(func(n Notification) {
		if n.Kind == NotifyMissionCompleted || n.Kind == NotifyTerritoryIncome {
			e.save()
		}
	})

	e.restoreSchedule()
	return e
}

// interval returns a loop period, guarding against zero-valued content.
func interval(ms int64) int64 {
	if ms <= 0 {
		return 1000
	}
	return ms
}

// restoreSchedule queues every loop plus completions for a loaded snapshot.
func (e *Engine) restoreSchedule() {
	w := e.w
	now := w.now()
	b := w.content.Balance

	w.sched.Schedule(now+interval(b.WarfareTickMS), JobWarfareTick, "")
	w.sched.Schedule(now+interval(b.AITickMS), JobAITick, "")
	w.sched.Schedule(now+interval(b.IncomeTickMS), JobIncomeTick, "")
	w.sched.Schedule(now+interval(b.EventTickMS), JobEventTick, "")
	w.sched.Schedule(now+e.encounters.NextSpawnDelay(), JobEncounterSpawn, "")
	w.sched.Schedule(now+interval(w.content.Encounter.SweepMS), JobEncounterSweep, "")
	if e.saver != nil {
		w.sched.Schedule(now+interval(b.AutosaveMS), JobAutosave, "")
	}

	st := w.store.Get()
	for _, a := range st.ActiveMissions {
		w.sched.Schedule(a.EndTime, JobMissionComplete, a.ID)
	}
	if len(st.Gangs) < b.MaxRivals {
		w.sched.Schedule(now+b.GangRespawnMS, JobGangRespawn, "")
	}
}

// Advance fires every job due at or before now, in time order.
func (e *Engine) Advance(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	at := millis(now)
	fired := 0
	for {
		job, due := e.w.sched.PopDue(at)
		if !due {
			return fired
		}
		e.dispatch(job, at)
		fired++
	}
}

func (e *Engine) dispatch(job Job, now int64) {
	w := e.w
	b := w.content.Balance

	// Repeating jobs keep their cadence but never queue up behind a stall.
	again := func(period int64) {
		next := job.At + period
		if next <= now {
			next = now + period
		}
		w.sched.Schedule(next, job.Kind, job.EntityID)
	}

	switch job.Kind {
	case JobMissionComplete:
		e.missions.Complete(job.EntityID)
	case JobWarfareTick:
		e.warfare.Tick()
		again(interval(b.WarfareTickMS))
	case JobAITick:
		e.rivals.Tick()
		again(interval(b.AITickMS))
	case JobIncomeTick:
		e.economy.IncomeTick()
		again(interval(b.IncomeTickMS))
	case JobEventTick:
		e.economy.EventTick()
		again(interval(b.EventTickMS))
	case JobEncounterSpawn:
		e.encounters.Spawn()
		again(e.encounters.NextSpawnDelay())
	case JobEncounterSweep:
		e.encounters.Sweep()
		again(interval(w.content.Encounter.SweepMS))
	case JobAutosave:
		e.save()
		again(interval(b.AutosaveMS))
	case JobGangRespawn:
		e.rivals.Respawn()
	default:
		log.Printf("Engine: unknown job %q", job.Kind)
	}
}

// Run drives Advance from a ticker until ctx is done.
func (e *Engine) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Advance(e.w.clock.Now())
		}
	}
}

func (e *Engine) save() {
	if e.saver == nil {
		return
	}
	if err := e.saver.Save(context.Background(), e.w.store.Get()); err != nil {
		log.Printf("Save: %v", err)
	}
}

// SaveNow persists the current snapshot.
func (e *Engine) SaveNow(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saver == nil {
		return nil
	}
	return e.saver.Save(ctx, e.w.store.Get())
}

// Reset wipes durable storage and starts a new game. Every pending job is
// dropped with the old state.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.saver != nil {
		if err := e.saver.Reset(ctx); err != nil {
			return err
		}
	}
	e.w.sched.Clear()
	e.w.store.Replace(NewGame(e.w.content, e.w.rng))
	e.restoreSchedule()
	e.w.bus.Notify(Notification{Kind: NotifyGameEvent, Message: "A new crew hits the streets.", Severity: SeverityNeutral})
	return nil
}

// ReloadContent swaps the content used by future draws and ticks.
func (e *Engine) ReloadContent(c *Content) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.content = c
}

// Content returns the active content.
func (e *Engine) Content() *Content {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.content
}

// Subscribe registers a state listener. It runs under the engine lock and
// must not call back into the Engine.
func (e *Engine) Subscribe(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.store.Subscribe(fn)
}

// Listen registers a notification listener, with the same restriction as Subscribe.
func (e *Engine) Listen(fn func(Notification)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.bus.Listen(fn)
}

// locked runs fn under the engine lock and returns its value.
func locked[T any](e *Engine, fn func() T) T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

// State returns a snapshot of the game document.
func (e *Engine) State() State { return locked(e, e.w.store.Get) }

// Notifications returns recent notifications, oldest first.
func (e *Engine) Notifications() []Notification { return locked(e, e.w.bus.Recent) }

// PendingJobs returns the number of queued jobs.
func (e *Engine) PendingJobs() int { return locked(e, e.w.sched.Len) }

// StartMission sends a team on an available mission.
func (e *Engine) StartMission(memberIDs []string, missionID string) MissionStart {
	return locked(e, func() MissionStart { return e.missions.Start(memberIDs, missionID) })
}

// CompleteMission resolves an active mission now, ahead of its timer.
func (e *Engine) CompleteMission(activeID string) (MissionReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.missions.Complete(activeID)
}

// RefreshMissions pays for a new job board.
func (e *Engine) RefreshMissions() Result { return locked(e, e.missions.Refresh) }

// MissionProgress reports a member's running mission.
func (e *Engine) MissionProgress(memberID string) (MissionProgress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.missions.Progress(memberID)
}

// Recruit hires a new crew member.
func (e *Engine) Recruit(class Class) RecruitResult {
	return locked(e, func() RecruitResult { return e.crew.Recruit(class) })
}

// HealMember restores a member to full health.
func (e *Engine) HealMember(memberID string) Result {
	return locked(e, func() Result { return e.crew.Heal(memberID) })
}

// UpgradeMember trains a member stat.
func (e *Engine) UpgradeMember(memberID, stat string) Result {
	return locked(e, func() Result { return e.crew.UpgradeMember(memberID, stat) })
}

// AddEddies adjusts the balance.
func (e *Engine) AddEddies(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crew.AddEddies(n)
}

// AddRep adjusts reputation.
func (e *Engine) AddRep(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crew.AddRep(n)
}

// SetGangName renames the player's gang.
func (e *Engine) SetGangName(name string) Result {
	return locked(e, func() Result { return e.crew.SetGangName(name) })
}

// CaptureTerritory buys an unclaimed territory.
func (e *Engine) CaptureTerritory(territoryID string) Result {
	return locked(e, func() Result { return e.economy.CaptureTerritory(territoryID) })
}

// InstallUpgrade buys an upgrade level on a player territory.
func (e *Engine) InstallUpgrade(territoryID string, ut UpgradeType) Result {
	return locked(e, func() Result { return e.economy.InstallUpgrade(territoryID, ut) })
}

// CurrentEvent returns the running city event.
func (e *Engine) CurrentEvent() (GlobalEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.economy.CurrentEvent()
}

// AttackTerritory attacks rival turf immediately.
func (e *Engine) AttackTerritory(territoryID string, memberIDs []string) AttackResult {
	return locked(e, func() AttackResult { return e.rivals.Attack(territoryID, memberIDs) })
}

// GangInfo lists rival gang summaries.
func (e *Engine) GangInfo() []GangInfo { return locked(e, e.rivals.Info) }

// GangByTerritory returns the gang owning a territory.
func (e *Engine) GangByTerritory(territoryID string) (GangInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rivals.ByTerritory(territoryID)
}

// SendTribute pays a gang for better relations.
func (e *Engine) SendTribute(gangID string, eddies int) Result {
	return locked(e, func() Result { return e.rivals.SendTribute(gangID, eddies) })
}

// StartOperation records an operation on behalf of any initiator.
func (e *Engine) StartOperation(kind OperationType, targetID, initiatorID string, power int, duration time.Duration, memberIDs []string) OperationStart {
	return locked(e, func() OperationStart {
		return e.warfare.Start(kind, targetID, initiatorID, power, duration, memberIDs)
	})
}

// ResolveOperation resolves an operation now, ahead of its end time.
func (e *Engine) ResolveOperation(opID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.warfare.Resolve(opID)
}

// LaunchOperation starts a player operation.
func (e *Engine) LaunchOperation(kind OperationType, territoryID string, memberIDs []string) OperationStart {
	return locked(e, func() OperationStart { return e.warfare.Launch(kind, territoryID, memberIDs) })
}

// InitiatePlayerAssault starts a player assault.
func (e *Engine) InitiatePlayerAssault(territoryID string, memberIDs []string) OperationStart {
	return locked(e, func() OperationStart { return e.warfare.PlayerAssault(territoryID, memberIDs) })
}

// Operations lists operations, optionally filtered by target territory.
func (e *Engine) Operations(territoryID string) []Operation {
	return locked(e, func() []Operation { return e.warfare.Operations(territoryID) })
}

// Intel returns the player's report on a territory.
func (e *Engine) Intel(territoryID string) (IntelReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warfare.Intel(territoryID)
}

// ResolveEncounter picks an option of an active encounter.
func (e *Engine) ResolveEncounter(encounterID string, optionIndex int) EncounterResult {
	return locked(e, func() EncounterResult { return e.encounters.Resolve(encounterID, optionIndex) })
}

// SpawnEncounter forces a spawn attempt outside the random cadence.
func (e *Engine) SpawnEncounter() bool { return locked(e, e.encounters.Spawn) }
