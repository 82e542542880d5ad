// ABOUTME: Synthesis stage: merges question, plan, and branch output into the final Markdown answer.
// ABOUTME: Branch-aware prompt selection; backend failures become an apologetic answer, never an error.
package analyst

import (
	"context"

	"github.com/calder-research/surveyscope/llm"
)

// Synthesizer produces the user-facing answer from the raw branch output.
type Synthesizer struct {
	chat            llm.Chat
	model           string
	reasoningEffort string
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(chat llm.Chat, model string) *Synthesizer {
	return &Synthesizer{chat: chat, model: model, reasoningEffort: "high"}
}

// Synthesize returns the final Markdown answer. The qualitative branch gets
// the quote-preserving template; quantitative and malformed plans get the
// numeric template. The result is passed through untouched, and a backend
// failure yields explanatory text so the pipeline always terminates with
// some user-visible answer.
func (s *Synthesizer) Synthesize(ctx context.Context, userQuery string, plan Plan, out BranchOutput) string {
	var system, message string
	switch plan.Branch {
	case BranchQualitative:
		system = synthQualSystem
		message = synthQualMessage(userQuery, plan.Raw, out.Text)
	case BranchQuantitative, BranchMalformed:
		system = synthQuantSystem
		message = synthQuantMessage(userQuery, plan.Raw, out.Text)
	default:
		system = synthQuantSystem
		message = synthQuantMessage(userQuery, plan.Raw, out.Text)
	}

	text, err := s.chat.Complete(ctx, llm.Request{
		Model:           s.model,
		ReasoningEffort: s.reasoningEffort,
		Messages: []llm.Message{
			llm.DeveloperMessage(system),
			llm.UserMessage(message),
		},
	})
	if err != nil {
		return "I was unable to produce a final summary for this question due to a temporary problem " +
			"with the analysis service. Please try submitting your question again.\n\n" +
			"Raw analysis output:\n\n" + out.Text
	}
	return text
}
