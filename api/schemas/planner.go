// File: api/schemas/planner.go
package schemas

// PlannerOutput is the structured decision the planner produces once per
// step. It is created fresh each step from either the plan server response
// or the chat model response, validated immediately, and sanitized before
// it leaves the agent. The agent never persists it; the caller decides
// whether to retain it in conversation history.
type PlannerOutput struct {
	Observation string `json:"observation"`
	Challenges  string `json:"challenges"`
	Done        bool   `json:"done"`
	NextSteps   string `json:"next_steps"`
	FinalAnswer string `json:"final_answer"`
	Reasoning   string `json:"reasoning"`
	WebTask     bool   `json:"web_task"`
}

// StepOutcome is the per-step result union. Exactly one of Result and Error
// is populated - never both, never neither.
type StepOutcome struct {
	Result *PlannerOutput `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// OK reports whether the step produced a usable decision.
func (o StepOutcome) OK() bool {
	return o.Result != nil
}
