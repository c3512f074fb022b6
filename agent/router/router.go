package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	promptx "github.com/praveenkd/worklog-agent/agent/prompt"
)

// HelpMessage is surfaced when the classifier cannot place the request.
const HelpMessage = "I can help with attendance logging, invoice generation, and sending emails. How can I assist you?"

// Router classifies the most recent user turn with a single non-tool-bound
// model call.
type Router struct {
	completer contractx.Completer
	template  string
}

var _ contractx.Router = (*Router)(nil)

func New(completer contractx.Completer, template string) (*Router, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("%w: router template", contractx.ErrPromptMissing)
	}
	return &Router{completer: completer, template: template}, nil
}

func (r *Router) Route(ctx context.Context, turns []contractx.Turn) (contractx.RoutingDecision, error) {
	var userMessage string
	found := false
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == contractx.RoleUser {
			userMessage = turns[i].Content
			found = true
			break
		}
	}
	if !found {
		return contractx.RoutingDecision{}, contractx.ErrNoUserMessage
	}

	reply, err := r.completer.Complete(ctx, promptx.RenderRouter(r.template, userMessage))
	if err != nil {
		return contractx.RoutingDecision{}, fmt.Errorf("%w: router classification: %v", contractx.ErrModelInvoke, err)
	}

	choice := strings.ToLower(strings.TrimSpace(reply))
	worker := classify(choice)
	log.Debug().Str("choice", choice).Str("worker", string(worker)).Msg("router classified message")

	if worker == contractx.WorkerNone {
		return contractx.RoutingDecision{Reply: HelpMessage}, nil
	}
	return contractx.RoutingDecision{Worker: worker}, nil
}

// classify matches the reply by substring. A reply containing multiple
// keywords resolves in priority order invoice > attendance > email.
func classify(choice string) contractx.WorkerName {
	switch {
	case strings.Contains(choice, "invoice"):
		return contractx.WorkerInvoice
	case strings.Contains(choice, "attendance"):
		return contractx.WorkerAttendance
	case strings.Contains(choice, "email"):
		return contractx.WorkerEmail
	default:
		return contractx.WorkerNone
	}
}
