// ABOUTME: Execution backend capability interface: agents, threads, runs, messages, and file content.
// ABOUTME: Defines the structured ContentBlock union so SDK-specific demuxing stays inside the adapter.
package sandbox

import "context"

// RunState is the lifecycle state of a sandboxed execution run.
type RunState string

const (
	RunQueued     RunState = "queued"
	RunInProgress RunState = "in_progress"
	RunCompleted  RunState = "completed"
	RunFailed     RunState = "failed"
	RunCancelled  RunState = "cancelled"
	RunExpired    RunState = "expired"
	RunIncomplete RunState = "incomplete"
)

// Terminal reports whether the run has reached a state it cannot leave.
func (s RunState) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired, RunIncomplete:
		return true
	}
	return false
}

// BlockKind discriminates the type of content in a ContentBlock.
type BlockKind string

const (
	BlockText    BlockKind = "text"
	BlockImage   BlockKind = "image"
	BlockUnknown BlockKind = "unknown"
)

// ContentBlock is one piece of content in a thread message. Exactly one of
// Text, FileID, or Raw is meaningful, selected by Kind. Unknown blocks carry
// their serialized form in Raw so downstream stages still see a readable
// narrative.
type ContentBlock struct {
	Kind   BlockKind
	Text   string
	FileID string
	Raw    string
}

// TextBlock constructs a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Kind: BlockText, Text: text}
}

// ImageBlock constructs an image-reference content block.
func ImageBlock(fileID string) ContentBlock {
	return ContentBlock{Kind: BlockImage, FileID: fileID}
}

// Message is one message in an execution thread.
type Message struct {
	Role   string
	Blocks []ContentBlock
}

// AgentConfig describes the sandboxed code-interpreter agent to create.
type AgentConfig struct {
	Name         string
	Model        string
	Instructions string
	FileID       string // dataset file the interpreter is bound to
}

// Backend is the opaque execution capability the pipeline consumes. An
// implementation wraps a remote code-execution service; test doubles
// implement it in memory.
type Backend interface {
	// UploadFile stores raw bytes with the backend and returns its file id.
	UploadFile(ctx context.Context, name string, data []byte) (string, error)

	// CreateAgent configures a sandboxed code-interpreter agent bound to an
	// uploaded dataset file.
	CreateAgent(ctx context.Context, cfg AgentConfig) (agentID string, err error)

	// CreateThread opens a new persistent conversation thread.
	CreateThread(ctx context.Context) (threadID string, err error)

	// PostMessage appends a message to a thread.
	PostMessage(ctx context.Context, threadID, role, text string) error

	// StartRun triggers the agent against a thread and returns the run id.
	StartRun(ctx context.Context, threadID, agentID, instructions string) (runID string, err error)

	// RunStatus reports the current state of a run.
	RunStatus(ctx context.Context, threadID, runID string) (RunState, error)

	// Messages lists all messages in a thread in chronological order.
	Messages(ctx context.Context, threadID string) ([]Message, error)

	// FileBytes fetches the content of a backend-held file.
	FileBytes(ctx context.Context, fileID string) ([]byte, error)
}
