// ABOUTME: Tests for run polling: terminal-state detection, budget exhaustion, and cancellation.
// ABOUTME: Uses a scripted backend that steps through run states per RunStatus call.
package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// pollBackend implements Backend with a scripted RunStatus sequence. The
// other methods are unused by WaitForRun.
type pollBackend struct {
	states []RunState
	err    error
	calls  int
}

func (b *pollBackend) RunStatus(ctx context.Context, threadID, runID string) (RunState, error) {
	if b.err != nil {
		return "", b.err
	}
	i := b.calls
	b.calls++
	if i >= len(b.states) {
		i = len(b.states) - 1
	}
	return b.states[i], nil
}

func (b *pollBackend) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	return "", nil
}
func (b *pollBackend) CreateAgent(ctx context.Context, cfg AgentConfig) (string, error) {
	return "", nil
}
func (b *pollBackend) CreateThread(ctx context.Context) (string, error) { return "", nil }
func (b *pollBackend) PostMessage(ctx context.Context, threadID, role, text string) error {
	return nil
}
func (b *pollBackend) StartRun(ctx context.Context, threadID, agentID, instructions string) (string, error) {
	return "", nil
}
func (b *pollBackend) Messages(ctx context.Context, threadID string) ([]Message, error) {
	return nil, nil
}
func (b *pollBackend) FileBytes(ctx context.Context, fileID string) ([]byte, error) {
	return nil, nil
}

func fastPolicy() PollPolicy {
	return PollPolicy{
		BaseInterval: time.Millisecond,
		MaxInterval:  2 * time.Millisecond,
		Multiplier:   2.0,
		Budget:       time.Second,
	}
}

func TestWaitForRunReachesTerminalState(t *testing.T) {
	backend := &pollBackend{states: []RunState{RunQueued, RunInProgress, RunInProgress, RunCompleted}}

	state, err := WaitForRun(context.Background(), backend, "thread-1", "run-1", fastPolicy())
	if err != nil {
		t.Fatalf("WaitForRun: %v", err)
	}
	if state != RunCompleted {
		t.Errorf("state = %s, want completed", state)
	}
	if backend.calls != 4 {
		t.Errorf("RunStatus called %d times, want 4", backend.calls)
	}
}

func TestWaitForRunFailedIsTerminal(t *testing.T) {
	backend := &pollBackend{states: []RunState{RunInProgress, RunFailed}}

	state, err := WaitForRun(context.Background(), backend, "thread-1", "run-1", fastPolicy())
	if err != nil {
		t.Fatalf("WaitForRun: %v", err)
	}
	if state != RunFailed {
		t.Errorf("state = %s, want failed", state)
	}
}

func TestWaitForRunBudgetExhausted(t *testing.T) {
	backend := &pollBackend{states: []RunState{RunInProgress}}
	policy := fastPolicy()
	policy.Budget = 10 * time.Millisecond

	_, err := WaitForRun(context.Background(), backend, "thread-1", "run-1", policy)
	if err == nil {
		t.Fatal("expected an error when the budget is exhausted")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestWaitForRunCancelled(t *testing.T) {
	backend := &pollBackend{states: []RunState{RunInProgress}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitForRun(ctx, backend, "thread-1", "run-1", fastPolicy())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context canceled", err)
	}
}

func TestWaitForRunBackendError(t *testing.T) {
	backend := &pollBackend{err: errors.New("boom")}

	_, err := WaitForRun(context.Background(), backend, "thread-1", "run-7", fastPolicy())
	if err == nil || !strings.Contains(err.Error(), "run-7") {
		t.Errorf("error = %v, want the run id in the message", err)
	}
}

func TestRunStateTerminal(t *testing.T) {
	terminal := []RunState{RunCompleted, RunFailed, RunCancelled, RunExpired, RunIncomplete}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range []RunState{RunQueued, RunInProgress} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}
