package jobs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// ErrUnknownJob is returned when operating on a job ID never created.
var ErrUnknownJob = errors.New("unknown job")

// Manager tracks jobs and validates their lifecycle transitions. It does not
// queue or limit jobs — callers issue them sequentially, and two concurrent
// jobs simply coexist under different IDs.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// NewManager creates an empty job registry.
func NewManager() *Manager {
	return &Manager{jobs: make(map[string]domain.Job)}
}

// Create registers a new job in the created state.
func (m *Manager) Create(jobID string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[jobID]; exists {
		return domain.Job{}, fmt.Errorf("job %s already exists", jobID)
	}

	job := domain.Job{ID: jobID, Status: domain.JobStatusCreated}
	m.jobs[jobID] = job
	return job, nil
}

// Transition validates and applies a state transition for one job.
func (m *Manager) Transition(jobID string, status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return ErrUnknownJob
	}
	if job.Status == status {
		return nil
	}
	if !isValidTransition(job.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", job.Status, status)
	}

	job.Status = status
	m.jobs[jobID] = job
	return nil
}

// SetProgress records the last reported progress for a running job.
func (m *Manager) SetProgress(jobID string, percent int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	job.Progress = percent
	m.jobs[jobID] = job
}

// Get returns a snapshot of one job.
func (m *Manager) Get(jobID string) (domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, exists := m.jobs[jobID]
	return job, exists
}

// Remove drops a terminal job from the registry. Active jobs stay put.
func (m *Manager) Remove(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || !job.Status.IsTerminal() {
		return
	}
	delete(m.jobs, jobID)
}

// isValidTransition enforces the allowed job state machine edges. A job in
// validating moves straight to done on a cache hit without spawning, and
// every failure edge lands in a terminal status so no job gets stuck.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusCreated:
		return to == domain.JobStatusValidating
	case domain.JobStatusValidating:
		return to == domain.JobStatusRejected || to == domain.JobStatusSpawning ||
			to == domain.JobStatusDone || to == domain.JobStatusErrored
	case domain.JobStatusSpawning:
		return to == domain.JobStatusRunning || to == domain.JobStatusErrored || to == domain.JobStatusFailed
	case domain.JobStatusRunning:
		return to == domain.JobStatusDone || to == domain.JobStatusFailed || to == domain.JobStatusErrored
	default:
		// Terminal states accept nothing; a new request gets a new job.
		return false
	}
}
