package workers

import (
	"context"
	"fmt"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	promptx "github.com/praveenkd/worklog-agent/agent/prompt"
)

type registryImpl struct {
	workers map[contractx.WorkerName]contractx.Worker
}

var _ contractx.Registry = (*registryImpl)(nil)

func (r *registryImpl) Worker(name contractx.WorkerName) (contractx.Worker, bool) {
	w, ok := r.workers[name]
	return w, ok
}

// NewRegistry builds the three role workers, each on its own (possibly
// overridden) model.
func NewRegistry(ctx context.Context, cfg Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	profiles := []struct {
		name     contractx.WorkerName
		template string
	}{
		{contractx.WorkerAttendance, prompts.Attendance},
		{contractx.WorkerInvoice, prompts.Invoice},
		{contractx.WorkerEmail, prompts.Email},
	}

	workers := make(map[contractx.WorkerName]contractx.Worker, len(profiles))
	for _, profile := range profiles {
		modelCfg := cfg.OpenRouterFor(profile.name)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create model for worker=%s: %v", contractx.ErrModelInvoke, profile.name, err)
		}

		w, err := newWorker(ctx, profile.name, chatModel, profile.template)
		if err != nil {
			return nil, err
		}
		workers[profile.name] = w
	}

	return &registryImpl{workers: workers}, nil
}
