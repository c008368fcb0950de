// Package store implements the in-memory job store (spec §3.2, §5
// "Shared state"): a narrow, purpose-built surface with no SQL backend,
// since spec's Non-goals explicitly exclude durable result storage.
package store

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hertta/internal/resultextract"
)

// JobState is the job lifecycle's current phase, per spec §3.2: Queued
// -> InProgress -> (Failed | Finished), a monotonic one-way progression.
type JobState int

const (
	JobQueued JobState = iota
	JobInProgress
	JobFailed
	JobFinished
)

func (s JobState) String() string {
	switch s {
	case JobQueued:
		return "Queued"
	case JobInProgress:
		return "InProgress"
	case JobFailed:
		return "Failed"
	case JobFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Job is one pipeline run's externally visible status, matching spec
// §7 "User visibility": state plus an optional message or outcome, nothing
// richer than that is exposed across the store boundary.
type Job struct {
	ID      int64
	State   JobState
	Message string
	Outcome *resultextract.Outcome
}

// transitionAllowed enforces the one-way Queued -> InProgress ->
// (Failed | Finished) progression; Failed and Finished are terminal.
func transitionAllowed(from, to JobState) bool {
	switch from {
	case JobQueued:
		return to == JobInProgress || to == JobFailed
	case JobInProgress:
		return to == JobFailed || to == JobFinished
	default:
		return false
	}
}

// Store is a sync.Mutex-guarded in-memory map keyed by job id: no caches,
// no DLQ -- only what the job lifecycle in spec §3.2 needs.
type Store struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*Job
}

// New returns an empty job store.
func New() *Store {
	return &Store{jobs: make(map[int64]*Job)}
}

// CreateJob enqueues a new job in state Queued and returns its id.
func (s *Store) CreateJob() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.jobs[id] = &Job{ID: id, State: JobQueued}
	return id
}

// Get returns a copy of the job's current status.
func (s *Store) Get(id int64) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, eris.Errorf("job %d not found", id)
	}
	return *job, nil
}

// MarkInProgress transitions a Queued job to InProgress.
func (s *Store) MarkInProgress(id int64) error {
	return s.transition(id, JobInProgress, func(j *Job) {})
}

// MarkFailed transitions a job to the terminal Failed state, recording the
// externally visible message only (spec §7 "User visibility").
func (s *Store) MarkFailed(id int64, message string) error {
	return s.transition(id, JobFailed, func(j *Job) { j.Message = message })
}

// MarkFinished transitions a job to the terminal Finished state, retaining
// the outcome for as long as the process runs (spec §3.2).
func (s *Store) MarkFinished(id int64, outcome resultextract.Outcome) error {
	return s.transition(id, JobFinished, func(j *Job) { j.Outcome = &outcome })
}

func (s *Store) transition(id int64, to JobState, apply func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return eris.Errorf("job %d not found", id)
	}
	if !transitionAllowed(job.State, to) {
		return eris.Errorf("job %d: invalid transition from %s to %s", id, job.State, to)
	}
	job.State = to
	apply(job)
	return nil
}
