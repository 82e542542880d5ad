// ABOUTME: Pipeline controller: sequences planner, branch executor, synthesizer, and artifact store.
// ABOUTME: Owns the per-query state machine and the Conversation value, including the reset operation.
package analyst

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the controller's position in the per-query lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StatePlanning     State = "planning"
	StateExecuting    State = "executing"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateErrored      State = "errored"
)

// AnswerRecord is the final user-facing result of one query: the answer
// Markdown plus resolved artifacts in emission order. Exactly one record is
// current at a time; each query replaces it wholesale.
type AnswerRecord struct {
	Query     string
	Markdown  string
	Artifacts []Artifact
}

// Conversation is the explicit per-conversation state owned by the
// controller: identity, lifecycle state, and the current answer.
type Conversation struct {
	ID     string
	State  State
	Answer *AnswerRecord
}

// Controller wires the pipeline stages together and enforces the
// one-query-at-a-time policy.
type Controller struct {
	planner   *Planner
	quant     *QuantExecutor
	qual      *QualExecutor
	synth     *Synthesizer
	sessions  *SessionManager
	artifacts *ArtifactStore
	events    *EventEmitter

	mu   sync.Mutex
	conv Conversation
	busy bool
}

// ControllerConfig assembles the stage implementations for a Controller.
type ControllerConfig struct {
	Planner      *Planner
	Quant        *QuantExecutor
	Qual         *QualExecutor
	Synthesizer  *Synthesizer
	Sessions     *SessionManager
	Artifacts    *ArtifactStore
	EventEmitter *EventEmitter // nil = a fresh emitter is created
}

// NewController creates a Controller with a new idle Conversation.
func NewController(cfg ControllerConfig) *Controller {
	events := cfg.EventEmitter
	if events == nil {
		events = NewEventEmitter()
	}
	return &Controller{
		planner:   cfg.Planner,
		quant:     cfg.Quant,
		qual:      cfg.Qual,
		synth:     cfg.Synthesizer,
		sessions:  cfg.Sessions,
		artifacts: cfg.Artifacts,
		events:    events,
		conv: Conversation{
			ID:    uuid.New().String(),
			State: StateIdle,
		},
	}
}

// Events returns the controller's event emitter for subscription.
func (c *Controller) Events() *EventEmitter {
	return c.events
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.State
}

// ConversationID returns the current conversation's identity. Reset
// produces a new one.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.ID
}

// CurrentAnswer returns the current AnswerRecord. The second return is
// false when no query has completed since the last reset.
func (c *Controller) CurrentAnswer() (AnswerRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conv.Answer == nil {
		return AnswerRecord{}, false
	}
	return *c.conv.Answer, true
}

// SubmitQuery runs the full pipeline for one question and returns the
// resulting AnswerRecord. Empty or whitespace-only input is rejected with
// ErrEmptyQuery and no state change. All component failures below the
// controller surface as answer text; only planner backend errors and
// session creation errors return an error, leaving the previous answer
// intact so the user can retry.
func (c *Controller) SubmitQuery(ctx context.Context, text string) (AnswerRecord, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return AnswerRecord{}, ErrEmptyQuery
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return AnswerRecord{}, ErrQueryInFlight
	}
	c.busy = true
	c.conv.State = StatePlanning
	convID := c.conv.ID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	// Artifacts are per-answer; drop anything held from the previous query.
	c.artifacts.Clear()
	c.emit(convID, EventQuerySubmitted, map[string]any{"query": query})

	plan, err := c.planner.Plan(ctx, query)
	if err != nil {
		c.fail(convID, err)
		return AnswerRecord{}, err
	}
	c.emit(convID, EventPlanGenerated, map[string]any{"branch": string(plan.Branch)})
	if plan.Branch == BranchMalformed {
		// The fail-open default masks planner malformation; keep it loudly
		// visible in events and logs.
		log.Printf("analyst: planner output malformed, falling back to empty quantitative plan conversation=%s", convID)
		c.emit(convID, EventPlanMalformed, map[string]any{"raw": plan.Raw})
	}

	c.setState(StateExecuting)
	c.emit(convID, EventExecutionStart, map[string]any{"branch": string(plan.Branch)})

	out, err := c.execute(ctx, convID, plan)
	if err != nil {
		c.fail(convID, err)
		return AnswerRecord{}, err
	}
	c.emit(convID, EventExecutionEnd, map[string]any{
		"text_len":  len(out.Text),
		"artifacts": len(out.ArtifactIDs),
	})

	c.setState(StateSynthesizing)
	c.emit(convID, EventSynthesisStart, nil)
	markdown := c.synth.Synthesize(ctx, query, plan, out)
	c.emit(convID, EventSynthesisEnd, map[string]any{"markdown_len": len(markdown)})

	artifacts := c.artifacts.Resolve(ctx, out.ArtifactIDs)

	record := AnswerRecord{
		Query:     query,
		Markdown:  markdown,
		Artifacts: artifacts,
	}

	c.mu.Lock()
	c.conv.Answer = &record
	c.conv.State = StateDone
	c.mu.Unlock()

	c.emit(convID, EventAnswerReady, map[string]any{"artifacts": len(artifacts)})
	return record, nil
}

// execute dispatches the plan to its branch executor. The switch is
// exhaustive over the Branch values; adding a branch means extending it.
func (c *Controller) execute(ctx context.Context, convID string, plan Plan) (BranchOutput, error) {
	switch plan.Branch {
	case BranchQualitative:
		return c.qual.Run(ctx, plan.Column, plan.Prompt), nil

	case BranchQuantitative, BranchMalformed:
		sess, created, err := c.sessions.EnsureSession(ctx)
		if err != nil {
			return BranchOutput{}, err
		}
		if created {
			c.emit(convID, EventSessionCreated, map[string]any{"thread_id": sess.ThreadID})
		}
		return c.quant.Run(ctx, sess, plan.ExecutableCode()), nil

	default:
		return c.qual.Run(ctx, plan.Column, plan.Prompt), nil
	}
}

// Reset discards all conversational state: execution session thread,
// current answer, and held artifacts. The dataset upload and backend agent
// binding survive; a fresh conversation identity is issued.
func (c *Controller) Reset() {
	c.sessions.Reset()
	c.artifacts.Clear()

	c.mu.Lock()
	oldID := c.conv.ID
	c.conv = Conversation{
		ID:    uuid.New().String(),
		State: StateIdle,
	}
	newID := c.conv.ID
	c.mu.Unlock()

	c.emit(newID, EventReset, map[string]any{"previous_conversation": oldID})
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.conv.State = s
	c.mu.Unlock()
}

// fail records a hard-stop failure. The previous answer is retained so the
// conversation remains valid for a retry.
func (c *Controller) fail(convID string, err error) {
	log.Printf("analyst: query failed conversation=%s error=%v", convID, err)
	c.setState(StateErrored)
	c.emit(convID, EventError, map[string]any{"error": err.Error()})
}

func (c *Controller) emit(convID string, kind EventKind, data map[string]any) {
	c.events.Emit(PipelineEvent{
		Kind:           kind,
		Timestamp:      time.Now(),
		ConversationID: convID,
		Data:           data,
	})
}
