// File: internal/runner/runner.go

// Package runner drives a task to completion by invoking the planner one
// step at a time and maintaining the conversation history between steps.
package runner

import (
	"context"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/agent"
	"github.com/webpilot-ai/webpilot/internal/config"
)

// StepPlanner is the slice of the planning agent the runner depends on.
type StepPlanner interface {
	ExecuteStep(ctx context.Context, ec schemas.ExecutionContext) (*schemas.StepOutcome, error)
}

// TaskResult summarizes a completed task.
type TaskResult struct {
	FinalAnswer string `json:"final_answer"`
	Steps       int    `json:"steps"`
	WebTask     bool   `json:"web_task"`
}

// Runner executes one task at a time. It owns the execution context the
// planner reads from and decides when the task is finished, failed, or out
// of budget.
type Runner struct {
	cfg     config.RunnerConfig
	logger  *zap.Logger
	planner StepPlanner
	sink    schemas.EventSink
}

// NewRunner creates a task runner around a planning agent.
func NewRunner(logger *zap.Logger, planner StepPlanner, sink schemas.EventSink, cfg config.RunnerConfig) *Runner {
	return &Runner{
		cfg:     cfg,
		logger:  logger.Named("runner"),
		planner: planner,
		sink:    sink,
	}
}

// Run drives the task until the planner declares it done, the step or
// failure budget is exhausted, or a non-recoverable error surfaces.
//
// Cancellation returns the cancellation error without a task-fail event;
// the task was aborted, not failed. Other typed planning errors emit
// task-fail and propagate. A step that failed generically consumes one
// failure credit and the task continues with the failure recorded in the
// conversation.
func (r *Runner) Run(ctx context.Context, task string) (*TaskResult, error) {
	r.sink.Emit(schemas.ActorRunner, schemas.StateTaskStart, task)

	tc := newTaskContext(task, r.cfg)
	failures := 0

	for tc.StepIndex() < r.cfg.MaxSteps {
		outcome, err := r.planner.ExecuteStep(ctx, tc)
		if err != nil {
			var cancelled *agent.CancelledError
			if errors.As(err, &cancelled) {
				r.logger.Info("Task cancelled", zap.Int("step", tc.StepIndex()))
				return nil, err
			}
			r.logger.Error("Task aborted by planning error", zap.Int("step", tc.StepIndex()), zap.Error(err))
			r.sink.Emit(schemas.ActorRunner, schemas.StateTaskFail, err.Error())
			return nil, err
		}

		if !outcome.OK() {
			failures++
			if failures > r.cfg.MaxStepFailures {
				msg := fmt.Sprintf("too many consecutive step failures (%d)", failures)
				r.sink.Emit(schemas.ActorRunner, schemas.StateTaskFail, msg)
				return nil, fmt.Errorf("%s: last failure: %s", msg, outcome.Error)
			}
			tc.appendUser("The previous planning step failed: " + outcome.Error + ". Recover and continue the task.")
			tc.advance()
			continue
		}

		failures = 0
		out := outcome.Result
		tc.appendDecision(out)
		tc.advance()

		if out.Done {
			result := &TaskResult{
				FinalAnswer: out.FinalAnswer,
				Steps:       tc.StepIndex(),
				WebTask:     out.WebTask,
			}
			r.sink.Emit(schemas.ActorRunner, schemas.StateTaskOK, out.FinalAnswer)
			r.logger.Info("Task completed", zap.Int("steps", result.Steps), zap.Bool("web_task", result.WebTask))
			return result, nil
		}
	}

	msg := fmt.Sprintf("step budget exhausted after %d steps", r.cfg.MaxSteps)
	r.sink.Emit(schemas.ActorRunner, schemas.StateTaskFail, msg)
	return nil, errors.New(msg)
}

// taskContext is the runner-owned state the planner reads through the
// schemas.ExecutionContext interface. History is append-only: entries are
// never mutated or removed once added.
type taskContext struct {
	step                int
	history             []schemas.Message
	useVision           bool
	useVisionForPlanner bool
}

var _ schemas.ExecutionContext = (*taskContext)(nil)

func newTaskContext(task string, cfg config.RunnerConfig) *taskContext {
	return &taskContext{
		history: []schemas.Message{
			// Placeholder; the planner substitutes its own system prompt.
			{Role: schemas.RoleSystem, Content: ""},
			{Role: schemas.RoleUser, Content: task},
		},
		useVision:           cfg.UseVision,
		useVisionForPlanner: cfg.UseVisionForPlanner,
	}
}

func (tc *taskContext) StepIndex() int              { return tc.step }
func (tc *taskContext) Messages() []schemas.Message { return tc.history }
func (tc *taskContext) UseVision() bool             { return tc.useVision }
func (tc *taskContext) UseVisionForPlanner() bool   { return tc.useVisionForPlanner }

func (tc *taskContext) advance() { tc.step++ }

func (tc *taskContext) appendUser(text string) {
	tc.history = append(tc.history, schemas.Message{Role: schemas.RoleUser, Content: text})
}

// appendDecision records the planner's decision as an assistant turn so the
// next step sees what was already decided.
func (tc *taskContext) appendDecision(out *schemas.PlannerOutput) {
	encoded, err := json.MarshalToString(out)
	if err != nil {
		encoded = out.NextSteps
	}
	tc.history = append(tc.history, schemas.Message{Role: schemas.RoleAssistant, Content: encoded})
}
