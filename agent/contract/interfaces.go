package contract

import (
	"context"
	"time"
)

// Router classifies the newest user turn of a conversation into a worker name.
type Router interface {
	Route(ctx context.Context, turns []Turn) (RoutingDecision, error)
}

// Worker invokes the model once with its role instructions and the full turn
// sequence, returning the assistant turn to append. It never executes tools.
// Instructions renders the role's instruction template for the given date;
// the orchestrator installs the result as the conversation's active system
// turn before calling Run with the full sequence (system turn at the head).
type Worker interface {
	Name() WorkerName
	Instructions(now time.Time) string
	Run(ctx context.Context, turns []Turn) (Turn, error)
}

// Registry exposes the three role workers.
type Registry interface {
	Worker(name WorkerName) (Worker, bool)
}

// ToolGateway executes the tool calls of one assistant turn, in order, and
// returns one tool turn per call. Implementations never return a Go error for
// a failed operation; failures become descriptive tool-turn content.
type ToolGateway interface {
	Execute(ctx context.Context, worker WorkerName, calls []ToolCall) []Turn
}

// Completer is the non-tool-bound model capability the router uses for its
// single-shot classification call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
