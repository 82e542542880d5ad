// ABOUTME: Plan sum type produced by the planner, selecting an analysis branch and its payload.
// ABOUTME: Provides ParsePlan, which maps unparseable planner output to an explicit Malformed branch.
package analyst

import (
	"encoding/json"
	"strings"
)

// Branch selects one of the supported analysis strategies. Malformed is a
// third, explicit variant for planner output that could not be parsed: it
// executes as quantitative-with-empty-code so the pipeline always has a
// branch to run, but stays distinguishable in events and logs.
type Branch string

const (
	BranchQuantitative Branch = "quantitative"
	BranchQualitative  Branch = "qualitative"
	BranchMalformed    Branch = "malformed"
)

// Plan is the planner's structured output. The Branch tag selects which
// payload fields are meaningful: Code for quantitative, Column and Prompt
// for qualitative. Raw always holds the planner's verbatim response so
// later stages can show it to the synthesis model. Plans are immutable:
// produced exactly once per user query.
type Plan struct {
	Branch Branch
	Code   string
	Column string
	Prompt string
	Raw    string
}

// ExecutableCode returns the code to submit to the sandbox. Malformed plans
// yield empty code, which the executor runs as a harmless no-op.
func (p Plan) ExecutableCode() string {
	if p.Branch == BranchQuantitative {
		return p.Code
	}
	return ""
}

// planEnvelope is the wire shape the planner is instructed to emit.
type planEnvelope struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Column string `json:"column"`
	Prompt string `json:"prompt"`
}

// ParsePlan parses raw planner output into a Plan. It never fails: output
// that is not valid JSON, or whose type field is absent or unrecognized,
// becomes a Malformed plan carrying the raw text.
func ParsePlan(raw string) Plan {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var env planEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return Plan{Branch: BranchMalformed, Raw: raw}
	}

	switch env.Type {
	case string(BranchQuantitative):
		return Plan{Branch: BranchQuantitative, Code: env.Code, Raw: raw}
	case string(BranchQualitative):
		return Plan{Branch: BranchQualitative, Column: env.Column, Prompt: env.Prompt, Raw: raw}
	default:
		return Plan{Branch: BranchMalformed, Raw: raw}
	}
}

// stripCodeFence removes a surrounding markdown code fence, which chat
// models frequently wrap JSON output in despite instructions.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
