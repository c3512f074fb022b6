package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	statex "github.com/praveenkd/worklog-agent/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

const (
	// NoUserMessageReply terminates a turn that has nothing to route.
	NoUserMessageReply = "No user message found to route."
	// ExhaustedReply terminates a turn that hit the round cap.
	ExhaustedReply = "I could not complete the request within the allowed number of steps. Please try again."

	defaultMaxRounds = 8
)

type Config struct {
	// MaxRounds bounds worker/tool cycles per incoming message so a model
	// that keeps requesting tools cannot loop forever.
	MaxRounds int `envconfig:"MAX_ROUNDS" split_words:"true" default:"8"`
}

// Orchestrator drives one message through the state machine:
// ROUTING -> worker -> (TOOLS -> worker)* -> DONE.
type Orchestrator struct {
	store   statex.Store
	router  contractx.Router
	workers contractx.Registry
	tools   contractx.ToolGateway

	maxRounds int
	now       func() time.Time
}

func New(
	store statex.Store,
	router contractx.Router,
	workers contractx.Registry,
	tools contractx.ToolGateway,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("conversation store is required")
	}
	if router == nil {
		return nil, errors.New("router is required")
	}
	if workers == nil {
		return nil, errors.New("worker registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	return &Orchestrator{
		store:     store,
		router:    router,
		workers:   workers,
		tools:     tools,
		maxRounds: maxRounds,
		now:       time.Now,
	}, nil
}

// HandleMessage processes one user utterance end to end and returns the final
// assistant text. Model capability failures propagate to the caller; tool
// failures never do, they surface to the model as tool-result text.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrInvalidSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidMessage
	}

	conv, err := o.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", err
	}
	conv.Append(contractx.Turn{Role: contractx.RoleUser, Content: text})

	reply, err := o.run(ctx, conv)
	if err != nil {
		return "", err
	}

	conv.Touch(o.now())
	if err := conv.Validate(); err != nil {
		return "", fmt.Errorf("conversation validation failed: %w", err)
	}
	if err := o.store.Save(ctx, conv); err != nil {
		return "", err
	}

	log.Info().
		Str("session", sessionID).
		Str("worker", string(conv.NextWorker)).
		Int("turns", len(conv.Turns)).
		Msg("message handled")
	return reply, nil
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, sessionID string) (*statex.Conversation, error) {
	conv, err := o.store.Load(ctx, sessionID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}
	return statex.NewConversation(sessionID, o.now()), nil
}

// run executes the state machine for the message already appended to conv.
func (o *Orchestrator) run(ctx context.Context, conv *statex.Conversation) (string, error) {
	// ROUTING
	decision, err := o.router.Route(ctx, conv.Turns)
	switch {
	case errors.Is(err, contractx.ErrNoUserMessage):
		conv.NextWorker = contractx.WorkerNone
		conv.Append(contractx.Turn{Role: contractx.RoleAssistant, Content: NoUserMessageReply})
		return NoUserMessageReply, nil
	case err != nil:
		return "", err
	}

	if decision.Worker == contractx.WorkerNone {
		conv.NextWorker = contractx.WorkerNone
		conv.Append(contractx.Turn{Role: contractx.RoleAssistant, Content: decision.Reply})
		return decision.Reply, nil
	}

	conv.NextWorker = decision.Worker
	conv.Append(contractx.Turn{
		Role:    contractx.RoleSystem,
		Content: fmt.Sprintf("[route] %s", decision.Worker),
	})

	for round := 0; round < o.maxRounds; round++ {
		worker, ok := o.workers.Worker(conv.NextWorker)
		if !ok {
			return "", fmt.Errorf("%w: no worker registered for %q", contractx.ErrValidation, conv.NextWorker)
		}

		conv.SetSystemPrompt(worker.Instructions(o.now()))
		turn, err := worker.Run(ctx, conv.ModelTurns())
		if err != nil {
			return "", err
		}
		conv.Append(turn)

		if !turn.HasToolCalls() {
			// DONE
			conv.NextWorker = contractx.WorkerNone
			return turn.Content, nil
		}

		// TOOLS, then back to the worker that issued the calls.
		log.Debug().
			Str("session", conv.SessionID).
			Str("worker", string(conv.NextWorker)).
			Int("round", round).
			Int("tool_calls", len(turn.ToolCalls)).
			Msg("executing tool calls")
		conv.Append(o.tools.Execute(ctx, conv.NextWorker, turn.ToolCalls)...)
	}

	log.Warn().
		Str("session", conv.SessionID).
		Str("worker", string(conv.NextWorker)).
		Int("max_rounds", o.maxRounds).
		Msg("round cap exhausted")
	conv.NextWorker = contractx.WorkerNone
	conv.Append(contractx.Turn{Role: contractx.RoleAssistant, Content: ExhaustedReply})
	return ExhaustedReply, nil
}
