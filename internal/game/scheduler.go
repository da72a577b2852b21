package game

import "container/heap"

// JobKind identifies what a scheduled job does when it fires.
type JobKind string

const (
	JobMissionComplete JobKind = "mission_complete"
	JobWarfareTick     JobKind = "warfare_tick"
	JobAITick          JobKind = "ai_tick"
	JobIncomeTick      JobKind = "income_tick"
	JobEventTick       JobKind = "event_tick"
	JobEncounterSpawn  JobKind = "encounter_spawn"
	JobEncounterSweep  JobKind = "encounter_sweep"
	JobAutosave        JobKind = "autosave"
	JobGangRespawn     JobKind = "gang_respawn"
)

// Job is one scheduled completion: (fire time, kind, entity id).
type Job struct {
	At       int64   `json:"at"`
	Kind     JobKind `json:"kind"`
	EntityID string  `json:"entity_id,omitempty"`
	seq      uint64
}

type jobQueue []Job

func (q jobQueue) Len() int { return len(q) }
func (q jobQueue) Less(i, j int) bool {
	if q[i].At != q[j].At {
		return q[i].At < q[j].At
	}
	return q[i].seq < q[j].seq
}
func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *jobQueue) Push(x any)   { *q = append(*q, x.(Job)) }
func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	j := old[n-1]
	*q = old[:n-1]
	return j
}

// Scheduler is a priority queue of pending jobs ordered by fire time, then by
// insertion order. Nothing is ever cancelled; Clear drops everything at once.
type Scheduler struct {
	q   jobQueue
	seq uint64
}

// NewScheduler creates an empty queue.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule enqueues a job firing at the given unix millis.
func (s *Scheduler) Schedule(at int64, kind JobKind, entityID string) {
	s.seq++
	heap.Push(&s.q, Job{At: at, Kind: kind, EntityID: entityID, seq: s.seq})
}

// PopDue removes and returns the earliest job due at or before now.
func (s *Scheduler) PopDue(now int64) (Job, bool) {
	if len(s.q) == 0 || s.q[0].At > now {
		return Job{}, false
	}
	return heap.Pop(&s.q).(Job), true
}

// Has reports whether a job of kind for entityID is pending.
func (s *Scheduler) Has(kind JobKind, entityID string) bool {
	for _, j := range s.q {
		if j.Kind == kind && j.EntityID == entityID {
			return true
		}
	}
	return false
}

// Len returns the number of pending jobs.
func (s *Scheduler) Len() int { return len(s.q) }

// Clear drops every pending job.
func (s *Scheduler) Clear() {
	s.q = nil
}
