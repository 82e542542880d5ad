// ABOUTME: Quantitative executor: submits code to the sandboxed backend and demuxes the result stream.
// ABOUTME: Converts assistant content blocks into narrative text plus ordered image-artifact references.
package analyst

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/calder-research/surveyscope/sandbox"
)

// BranchOutput is the raw result of one branch execution: narrative text
// plus zero or more references to generated images, in emission order. Only
// the quantitative branch ever populates ArtifactIDs.
type BranchOutput struct {
	Text        string
	ArtifactIDs []string
}

// QuantExecutor runs generated code inside the execution session's
// sandboxed backend.
type QuantExecutor struct {
	backend  sandbox.Backend
	poll     sandbox.PollPolicy
	fileName string

	// mu serializes append-message/start-run against the shared thread.
	mu sync.Mutex
}

// NewQuantExecutor creates a QuantExecutor. fileName is the dataset name
// referenced in the per-run instruction.
func NewQuantExecutor(backend sandbox.Backend, fileName string, poll sandbox.PollPolicy) *QuantExecutor {
	return &QuantExecutor{backend: backend, poll: poll, fileName: fileName}
}

// Run posts the code into the session's thread, waits for the run to reach
// a terminal state, and demuxes all assistant messages into a BranchOutput.
// Backend failures never escape: they are rendered as output text and flow
// forward to the synthesizer like any other analysis result.
func (e *QuantExecutor) Run(ctx context.Context, sess ExecutionSession, code string) BranchOutput {
	runID, err := e.postAndStart(ctx, sess, code)
	if err != nil {
		return BranchOutput{Text: fmt.Sprintf("Error running code in the execution backend: %v", err)}
	}

	state, err := sandbox.WaitForRun(ctx, e.backend, sess.ThreadID, runID, e.poll)
	if err != nil {
		return BranchOutput{Text: fmt.Sprintf("Error waiting for code execution to finish: %v", err)}
	}

	messages, err := e.backend.Messages(ctx, sess.ThreadID)
	if err != nil {
		return BranchOutput{Text: fmt.Sprintf("Error reading execution results: %v", err)}
	}

	out := demuxAssistantMessages(messages)
	if state != sandbox.RunCompleted {
		note := fmt.Sprintf("Note: the execution run ended with status %q.", state)
		if out.Text == "" {
			out.Text = note
		} else {
			out.Text = note + "\n\n" + out.Text
		}
	}
	return out
}

// postAndStart appends the code message and triggers the run under the
// executor's lock, preserving single-writer discipline on the thread.
func (e *QuantExecutor) postAndStart(ctx context.Context, sess ExecutionSession, code string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.backend.PostMessage(ctx, sess.ThreadID, "user", codeMessage(code)); err != nil {
		return "", err
	}
	return e.backend.StartRun(ctx, sess.ThreadID, sess.AgentID, runInstructions(e.fileName))
}

// demuxAssistantMessages splits assistant content blocks into output text
// and ordered image-artifact ids. Image blocks additionally leave an
// `[image: <id>]` placeholder line in the text so the reference survives
// stages that only see the narrative. Unknown block shapes are stringified
// verbatim; lossy but readable.
func demuxAssistantMessages(messages []sandbox.Message) BranchOutput {
	var (
		parts []string
		ids   []string
	)

	for _, m := range messages {
		if m.Role != "assistant" {
			continue
		}
		for _, block := range m.Blocks {
			switch block.Kind {
			case sandbox.BlockText:
				if block.Text != "" {
					parts = append(parts, block.Text)
				}
			case sandbox.BlockImage:
				ids = append(ids, block.FileID)
				parts = append(parts, fmt.Sprintf("[image: %s]", block.FileID))
			default:
				if block.Raw != "" {
					parts = append(parts, block.Raw)
				}
			}
		}
	}

	return BranchOutput{
		Text:        strings.TrimSpace(strings.Join(parts, "\n\n")),
		ArtifactIDs: ids,
	}
}
