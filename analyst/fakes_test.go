// ABOUTME: In-memory fakes for the chat and execution-backend capabilities used across pipeline tests.
// ABOUTME: fakeChat scripts single-shot completions; fakeBackend scripts threads, runs, messages, and files.
package analyst

import (
	"context"
	"fmt"
	"sync"

	"github.com/calder-research/surveyscope/llm"
	"github.com/calder-research/surveyscope/sandbox"
)

// fakeChat returns scripted responses in order and records every request.
// When the script runs out, the last entry repeats.
type fakeChat struct {
	mu       sync.Mutex
	script   []chatTurn
	requests []llm.Request
}

type chatTurn struct {
	text string
	err  error
}

func newFakeChat(turns ...chatTurn) *fakeChat {
	return &fakeChat{script: turns}
}

func (f *fakeChat) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.script) == 0 {
		return "", fmt.Errorf("fakeChat: no scripted response")
	}
	turn := f.script[0]
	if len(f.script) > 1 {
		f.script = f.script[1:]
	}
	return turn.text, turn.err
}

func (f *fakeChat) lastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// fakeBackend is an in-memory sandbox.Backend. Runs complete immediately;
// each run appends the next scripted assistant message to the thread.
type fakeBackend struct {
	mu sync.Mutex

	threadSeq     int
	createThreads int
	threadErr     error

	posted []string // message texts in post order

	runSeq     int
	runErr     error
	nextOutput []sandbox.Message // appended to the thread per run

	threads map[string][]sandbox.Message

	files   map[string][]byte
	fileErr map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		threads: make(map[string][]sandbox.Message),
		files:   make(map[string][]byte),
		fileErr: make(map[string]error),
	}
}

func (f *fakeBackend) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	return "file-dataset", nil
}

func (f *fakeBackend) CreateAgent(ctx context.Context, cfg sandbox.AgentConfig) (string, error) {
	return "agent-1", nil
}

func (f *fakeBackend) CreateThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.threadErr != nil {
		return "", f.threadErr
	}
	f.threadSeq++
	f.createThreads++
	id := fmt.Sprintf("thread-%d", f.threadSeq)
	f.threads[id] = nil
	return id, nil
}

func (f *fakeBackend) PostMessage(ctx context.Context, threadID, role, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.posted = append(f.posted, text)
	f.threads[threadID] = append(f.threads[threadID], sandbox.Message{
		Role:   role,
		Blocks: []sandbox.ContentBlock{sandbox.TextBlock(text)},
	})
	return nil
}

func (f *fakeBackend) StartRun(ctx context.Context, threadID, agentID, instructions string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.runErr != nil {
		return "", f.runErr
	}
	f.runSeq++
	f.threads[threadID] = append(f.threads[threadID], f.nextOutput...)
	f.nextOutput = nil
	return fmt.Sprintf("run-%d", f.runSeq), nil
}

func (f *fakeBackend) RunStatus(ctx context.Context, threadID, runID string) (sandbox.RunState, error) {
	return sandbox.RunCompleted, nil
}

func (f *fakeBackend) Messages(ctx context.Context, threadID string) ([]sandbox.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.threads[threadID]
	out := make([]sandbox.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeBackend) FileBytes(ctx context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.fileErr[fileID]; ok {
		return nil, err
	}
	data, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("no such file %q", fileID)
	}
	return data, nil
}

// queueAssistant schedules assistant output for the next run.
func (f *fakeBackend) queueAssistant(blocks ...sandbox.ContentBlock) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOutput = append(f.nextOutput, sandbox.Message{Role: "assistant", Blocks: blocks})
}
