// ABOUTME: Planner stage: classifies a user question and produces a structured analysis Plan.
// ABOUTME: One chat call with the dataset schema embedded; backend failures propagate as PlannerError.
package analyst

import (
	"context"

	"github.com/calder-research/surveyscope/llm"
)

// Planner turns a user question into a Plan by asking a reasoning model to
// pick a branch and emit the branch payload as JSON.
type Planner struct {
	chat            llm.Chat
	model           string
	reasoningEffort string
	fileName        string
	schemaContext   string
}

// NewPlanner creates a Planner. fileName is the dataset's name as the
// execution backend sees it; schemaContext is the rendered column
// documentation embedded in every planning request.
func NewPlanner(chat llm.Chat, model, fileName, schemaContext string) *Planner {
	return &Planner{
		chat:            chat,
		model:           model,
		reasoningEffort: "high",
		fileName:        fileName,
		schemaContext:   schemaContext,
	}
}

// Plan sends the planning request and parses the response. A backend
// failure returns a *PlannerError so the controller can short-circuit the
// query; unparseable output never fails and comes back as a Malformed plan.
func (p *Planner) Plan(ctx context.Context, userQuery string) (Plan, error) {
	raw, err := p.chat.Complete(ctx, llm.Request{
		Model:           p.model,
		ReasoningEffort: p.reasoningEffort,
		Messages: []llm.Message{
			llm.DeveloperMessage(plannerInstructions(p.fileName, p.schemaContext)),
			llm.UserMessage(userQuery),
		},
	})
	if err != nil {
		return Plan{}, &PlannerError{Err: err}
	}

	return ParsePlan(raw), nil
}
