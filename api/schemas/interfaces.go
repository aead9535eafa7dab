// File: api/schemas/interfaces.go
package schemas

import "context"

// ChatModel defines a standard interface for interacting with a Large
// Language Model, abstracting the specifics of the underlying provider.
// Chat returns the raw completion text for an ordered sequence of turns;
// errors surface untouched so the caller can classify them.
type ChatModel interface {
	// Chat produces a completion for the given conversation.
	Chat(ctx context.Context, messages []Message) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// Actor identifies the component emitting a lifecycle event.
type Actor string

const (
	ActorPlanner Actor = "planner"
	ActorRunner  Actor = "runner"
)

// EventState names the lifecycle transitions an actor can report.
type EventState string

const (
	StateStepStart EventState = "step.start"
	StateStepOK    EventState = "step.ok"
	StateStepFail  EventState = "step.fail"
	StateTaskStart EventState = "task.start"
	StateTaskOK    EventState = "task.ok"
	StateTaskFail  EventState = "task.fail"
)

// EventSink receives (actor, state, message) lifecycle notifications.
// Implementations must not block the caller; delivery is fire-and-forget
// from the emitting component's perspective.
type EventSink interface {
	Emit(actor Actor, state EventState, message string)
}

// ExecutionContext is the read-only view the planner has of the task being
// driven around it. The surrounding driver owns its lifecycle; the agent
// only reads from it. Cancellation travels on the context.Context passed
// into each step, per the usual convention.
type ExecutionContext interface {
	// StepIndex returns the zero-based index of the current planning step.
	StepIndex() int
	// Messages returns the ordered conversation history. The returned slice
	// must not be mutated by the caller.
	Messages() []Message
	// UseVision reports whether vision input is enabled for the task.
	UseVision() bool
	// UseVisionForPlanner reports whether the planner specifically may
	// receive image-bearing segments.
	UseVisionForPlanner() bool
}
