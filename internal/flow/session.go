// Package flow drives one harvesting conversation per requesting user:
// link intake, interactive account sign-in with bounded waits, channel
// join and the harvesting run, with guaranteed teardown on every path.
package flow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInputTimeout is returned when the user does not answer a pending
// question in time. The flow is torn down, never retried.
var ErrInputTimeout = errors.New("input timed out")

// State is the conversation state of a user session.
type State int

const (
	// AwaitingLink: waiting for a channel link.
	AwaitingLink State = iota
	// Authenticating: the authorize flow is running.
	Authenticating
	// AwaitingCode: waiting for the login code.
	AwaitingCode
	// Awaiting2FA: waiting for the second-factor password.
	Awaiting2FA
	// JoiningChannel: resolving and harvesting the channel.
	JoiningChannel
	// Done: the flow completed.
	Done
)

// Prompt is a single-slot answer future. Each question creates a fresh
// prompt; a prompt is fulfilled at most once and never reused.
type Prompt struct {
	ch chan string
}

// Wait blocks until the prompt is answered, the timeout expires or the
// context is cancelled.
func (p *Prompt) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case v := <-p.ch:
		return v, nil
	case <-time.After(timeout):
		return "", ErrInputTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Session is the per-user conversation state. A session is owned by a
// single flow goroutine; the dispatch layer only touches it through
// Deliver and State.
type Session struct {
	UserID int64

	mu          sync.Mutex
	state       State
	channelLink string
	prompt      *Prompt
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// SetLink stores the channel link. It is set once and immutable after.
func (s *Session) SetLink(link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channelLink == "" {
		s.channelLink = link
	}
}

// ChannelLink returns the stored channel link.
func (s *Session) ChannelLink() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelLink
}

// Ask replaces the pending prompt with a fresh one and returns it.
// At most one prompt is outstanding per session.
func (s *Session) Ask() *Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Prompt{ch: make(chan string, 1)}
	s.prompt = p
	return p
}

// Deliver routes an inbound answer to the pending prompt, if any.
// Returns false when no question is outstanding; such input is ignored.
func (s *Session) Deliver(text string) bool {
	s.mu.Lock()
	p := s.prompt
	s.prompt = nil
	s.mu.Unlock()

	if p == nil {
		return false
	}
	select {
	case p.ch <- text:
		return true
	default:
		return false
	}
}

// Registry holds active sessions keyed by user identifier.
// It is owned by the dispatch layer; flows act only on their own entry.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Create replaces any existing session of the user with a fresh one.
func (r *Registry) Create(userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{UserID: userID, state: AwaitingLink}
	r.sessions[userID] = s
	return s
}

// Get returns the active session of the user.
func (r *Registry) Get(userID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// RemoveIf deletes the user's entry only while it still points at the
// given session, so a restarted conversation is not torn down by the
// previous flow's cleanup.
func (r *Registry) RemoveIf(userID int64, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[userID] == sess {
		delete(r.sessions, userID)
	}
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
