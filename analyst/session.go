// ABOUTME: Execution session manager: the long-lived binding between dataset, agent, and thread.
// ABOUTME: EnsureSession is lazy and idempotent; Reset discards only the thread, never the agent binding.
package analyst

import (
	"context"
	"sync"

	"github.com/calder-research/surveyscope/sandbox"
)

// ExecutionSession identifies a live remote execution context: the
// conversation thread plus the code-interpreter agent bound to the dataset.
type ExecutionSession struct {
	ThreadID string
	AgentID  string
}

// SessionManager owns the thread identity for one conversation. The thread
// is created lazily on the first quantitative query and reused for every
// query after that, which is what gives the backend cross-query memory.
type SessionManager struct {
	backend sandbox.Backend
	agentID string

	mu       sync.Mutex
	threadID string
}

// NewSessionManager creates a SessionManager for an already-configured
// execution agent. The agent binding outlives conversation resets.
func NewSessionManager(backend sandbox.Backend, agentID string) *SessionManager {
	return &SessionManager{backend: backend, agentID: agentID}
}

// EnsureSession returns the current session, creating the thread on first
// use. The second return reports whether a thread was created by this call;
// a repeat call without Reset returns the identical session with created
// false. Creation failure returns a *SessionError and leaves any existing
// session untouched.
func (m *SessionManager) EnsureSession(ctx context.Context) (ExecutionSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.threadID != "" {
		return ExecutionSession{ThreadID: m.threadID, AgentID: m.agentID}, false, nil
	}

	threadID, err := m.backend.CreateThread(ctx)
	if err != nil {
		return ExecutionSession{}, false, &SessionError{Err: err}
	}

	m.threadID = threadID
	return ExecutionSession{ThreadID: threadID, AgentID: m.agentID}, true, nil
}

// Current returns the session without creating one. The second return is
// false when no thread exists yet.
func (m *SessionManager) Current() (ExecutionSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.threadID == "" {
		return ExecutionSession{}, false
	}
	return ExecutionSession{ThreadID: m.threadID, AgentID: m.agentID}, true
}

// Reset discards the thread identity. The next EnsureSession creates a
// fresh thread; the backend agent binding and dataset upload are reused.
func (m *SessionManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threadID = ""
}
