// ABOUTME: Qualitative executor: local text-column analysis via a single language-model call.
// ABOUTME: Missing columns and empty columns degrade to explanatory output text, never to errors.
package analyst

import (
	"context"
	"fmt"
	"strings"

	"github.com/calder-research/surveyscope/dataset"
	"github.com/calder-research/surveyscope/llm"
)

// QualExecutor analyzes one free-text column of the locally held dataset.
// No sandbox involved: it is a single request/response chat call, and it
// can never produce artifacts.
type QualExecutor struct {
	chat  llm.Chat
	model string
	table *dataset.Table
}

// NewQualExecutor creates a QualExecutor over the locally loaded dataset.
func NewQualExecutor(chat llm.Chat, model string, table *dataset.Table) *QualExecutor {
	return &QualExecutor{chat: chat, model: model, table: table}
}

// Run collects all non-missing values of the column, appends them to the
// plan's prompt under a delimited header, and asks the model for a
// quote-preserving summary. All failure conditions are reported as output
// text so the synthesizer can explain them to the user.
func (e *QualExecutor) Run(ctx context.Context, column, prompt string) BranchOutput {
	values, ok := e.table.Column(column)
	if !ok {
		return BranchOutput{Text: fmt.Sprintf("Column not found: the column %q is not present in the dataset.", column)}
	}
	if len(values) == 0 {
		return BranchOutput{Text: fmt.Sprintf("No qualitative data available: the column %q contains no responses.", column)}
	}

	text, err := e.chat.Complete(ctx, llm.Request{
		Model: e.model,
		Messages: []llm.Message{
			llm.DeveloperMessage(qualSystemPrompt),
			llm.UserMessage(qualComposedPrompt(prompt, strings.Join(values, "\n"))),
		},
	})
	if err != nil {
		return BranchOutput{Text: fmt.Sprintf("Error during text analysis: %v", err)}
	}

	return BranchOutput{Text: text}
}
