package flow

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrFlowRunning is returned when a harvesting flow is already active.
// The shared account supports a single concurrent authorize/harvest run.
var ErrFlowRunning = errors.New("a harvesting flow is already running")

// Job describes an active harvesting flow.
type Job struct {
	ID        uuid.UUID
	UserID    int64
	Channel   string
	StartedAt time.Time
}

// Manager guards the shared account: at most one flow at a time.
type Manager struct {
	mu      sync.Mutex
	current *Job
}

// NewManager creates an idle manager.
func NewManager() *Manager {
	return &Manager{}
}

// Begin registers a new flow, or fails if one is active.
func (m *Manager) Begin(userID int64, channel string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return nil, ErrFlowRunning
	}
	m.current = &Job{
		ID:        uuid.New(),
		UserID:    userID,
		Channel:   channel,
		StartedAt: time.Now(),
	}
	return m.current, nil
}

// Finish clears the flow if it is still the current one.
func (m *Manager) Finish(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.ID == id {
		m.current = nil
	}
}

// Current returns a copy of the active flow, or nil when idle.
func (m *Manager) Current() *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	job := *m.current
	return &job
}
