package jobs

import (
	"errors"
	"fmt"
	"sync"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/ocr"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoRunningJob is returned when cancel is requested for idle state.
var ErrNoRunningJob = errors.New("no running job")

// Manager tracks the single allowed active job and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
	active  *ocr.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// Start registers job and moves it to rasterizing state.
func (m *Manager) Start(job *ocr.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status.IsActive() {
		return ErrJobAlreadyRunning
	}

	m.current = domain.Job{
		ID:         job.ID,
		Status:     domain.JobStatusRasterizing,
		SourcePath: job.SourcePath,
		OutputPath: job.OutputPath,
	}
	m.active = job
	return nil
}

// Transition validates and applies state transitions for current job.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if status == m.current.Status {
		return nil
	}
	if !domain.CanTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	if status.IsTerminal() {
		m.active = nil
	}
	return nil
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears job metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Status: domain.JobStatusIdle}
	m.active = nil
}

// IsRunning reports whether the current state is an active stage.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Status.IsActive()
}

// Cancel asks the active job to stop at its next poll point. The status
// moves to cancelled only when the worker observes the request.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current.Status.IsActive() || m.active == nil {
		return ErrNoRunningJob
	}
	m.active.RequestCancel()
	return nil
}
