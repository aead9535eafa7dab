// File: internal/agent/planner.go

// Package agent contains the planning core: per-step structured decisions
// from either a remote plan server or a chat model, output validation and
// sanitization, failure classification, and lifecycle events.
package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/sanitize"
)

// Planner produces one structured decision per step. It is stateless
// across invocations apart from the immutable configuration captured at
// construction; the surrounding driver owns all task state. At most one
// step may execute at a time per instance.
type Planner struct {
	cfg        config.PlannerConfig
	logger     *zap.Logger
	model      schemas.ChatModel
	sink       schemas.EventSink
	httpClient *http.Client
}

// NewPlanner creates a planning agent bound to a chat model and an event
// sink.
func NewPlanner(logger *zap.Logger, model schemas.ChatModel, sink schemas.EventSink, cfg config.PlannerConfig) *Planner {
	return &Planner{
		cfg:        cfg,
		logger:     logger.Named("planner"),
		model:      model,
		sink:       sink,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ExecuteStep runs one planning step against the given execution context.
//
// The returned outcome has exactly one of Result and Error populated.
// Authentication, bad-request, forbidden and cancelled failures propagate
// as typed errors instead of an outcome - the caller decides user
// messaging for those, and no step-fail event is emitted for them. Any
// other failure emits a step-fail event and returns an error-bearing
// outcome so the overall task can continue.
func (p *Planner) ExecuteStep(ctx context.Context, ec schemas.ExecutionContext) (*schemas.StepOutcome, error) {
	p.sink.Emit(schemas.ActorPlanner, schemas.StateStepStart, "Planning next steps...")

	out, err := p.plan(ctx, ec)
	if err != nil {
		switch Classify(err) {
		case KindAuthentication, KindBadRequest, KindForbidden, KindCancelled:
			return nil, Refine(err)
		default:
			// Failure messages can quote model output, so they are scrubbed
			// like any other free text before reaching a sink.
			msg := sanitize.Scrub(err.Error())
			p.logger.Error("Planning step failed", zap.Int("step", ec.StepIndex()), zap.Error(err))
			p.sink.Emit(schemas.ActorPlanner, schemas.StateStepFail, msg)
			return &schemas.StepOutcome{Error: msg}, nil
		}
	}

	scrubOutput(out)

	msg := out.NextSteps
	if out.Done {
		msg = out.FinalAnswer
	}
	p.sink.Emit(schemas.ActorPlanner, schemas.StateStepOK, msg)
	return &schemas.StepOutcome{Result: out}, nil
}

// plan decides the planning source for this step and produces a validated
// output. The remote plan server is only consulted for the first step of a
// task, and only when enabled and configured; any failure there is logged
// and the chat model takes over within the same step, without a second
// step-start event and without further retries.
func (p *Planner) plan(ctx context.Context, ec schemas.ExecutionContext) (*schemas.PlannerOutput, error) {
	messages := p.assembleMessages(ec)

	if ec.StepIndex() == 0 && p.cfg.UseServerForFirstPlan && p.cfg.ServerPlanEndpoint != "" {
		out, err := p.fetchServerPlan(ctx)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		p.logger.Warn("Plan server failed, falling back to chat model", zap.Error(err))
	}

	return p.planWithModel(ctx, messages)
}

// planWithModel invokes the chat model and validates its output.
func (p *Planner) planWithModel(ctx context.Context, messages []schemas.Message) (*schemas.PlannerOutput, error) {
	response, err := p.model.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chat model invocation failed: %w", err)
	}

	jsonText, err := ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("output validation failed: %w", err)
	}
	out, err := ParsePlannerOutput(jsonText)
	if err != nil {
		return nil, fmt.Errorf("output validation failed: %w", err)
	}
	return out, nil
}

// assembleMessages builds the planning input from the execution context's
// history. The first (system) entry is replaced by the planner's own
// system prompt; all subsequent entries are kept as-is. When vision is
// enabled globally but disabled for the planner, image segments are
// stripped from the final message, keeping only its text segments
// concatenated in original order; an unsegmented final message is left
// unchanged.
func (p *Planner) assembleMessages(ec schemas.ExecutionContext) []schemas.Message {
	history := ec.Messages()

	messages := make([]schemas.Message, 0, len(history)+1)
	messages = append(messages, schemas.Message{Role: schemas.RoleSystem, Content: plannerSystemPrompt})
	if len(history) > 1 {
		messages = append(messages, history[1:]...)
	}

	if ec.UseVision() && !ec.UseVisionForPlanner() && len(messages) > 0 {
		last := messages[len(messages)-1]
		if last.IsSegmented() {
			messages[len(messages)-1] = schemas.Message{Role: last.Role, Content: last.Text()}
		}
	}
	return messages
}

// scrubOutput sanitizes every free-text field in place before the output
// leaves the agent.
func scrubOutput(out *schemas.PlannerOutput) {
	out.Observation = sanitize.Scrub(out.Observation)
	out.Challenges = sanitize.Scrub(out.Challenges)
	out.NextSteps = sanitize.Scrub(out.NextSteps)
	out.FinalAnswer = sanitize.Scrub(out.FinalAnswer)
	out.Reasoning = sanitize.Scrub(out.Reasoning)
}
