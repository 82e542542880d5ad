// ABOUTME: Error types for the analysis pipeline's two hard-stop failure modes.
// ABOUTME: Everything else in the pipeline degrades to narrative text instead of returning errors.
package analyst

import "errors"

// ErrEmptyQuery is returned when SubmitQuery receives empty or
// whitespace-only input. The conversation state is untouched.
var ErrEmptyQuery = errors.New("query is empty")

// ErrQueryInFlight is returned when a query is submitted while another is
// still running. One query per conversation at a time.
var ErrQueryInFlight = errors.New("a query is already in flight")

// PlannerError indicates the planner's backend call failed before any plan
// existed. The controller short-circuits the query rather than running
// bogus code.
type PlannerError struct {
	Err error
}

func (e *PlannerError) Error() string {
	return "planner backend call failed: " + e.Err.Error()
}

func (e *PlannerError) Unwrap() error {
	return e.Err
}

// SessionError indicates the execution session could not be created. Fatal
// for the current query; any existing session is left untouched so the user
// can retry.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return "execution session creation failed: " + e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
