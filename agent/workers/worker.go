package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	promptx "github.com/praveenkd/worklog-agent/agent/prompt"
	toolx "github.com/praveenkd/worklog-agent/agent/tool"
)

// Worker binds one role's instruction template to a tool-bound chat model.
// The three profiles differ only in template and tool subset; the control
// logic is shared.
type Worker struct {
	name     contractx.WorkerName
	template string
	runner   compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Worker = (*Worker)(nil)

func newWorker(
	ctx context.Context,
	name contractx.WorkerName,
	chatModel einomodel.ToolCallingChatModel,
	template string,
) (*Worker, error) {
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("%w: instruction template for worker=%s", contractx.ErrPromptMissing, name)
	}

	toolModel, err := chatModel.WithTools(toolx.InfosFor(name))
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for worker=%s: %v", contractx.ErrModelInvoke, name, err)
	}

	runner, err := compileWorkerGraph(ctx, toolModel, name)
	if err != nil {
		return nil, fmt.Errorf("%w: compile worker graph for worker=%s: %v", contractx.ErrModelInvoke, name, err)
	}

	return &Worker{
		name:     name,
		template: template,
		runner:   runner,
	}, nil
}

func (w *Worker) Name() contractx.WorkerName {
	return w.name
}

func (w *Worker) Instructions(now time.Time) string {
	return promptx.RenderWorker(w.template, now)
}

// Run invokes the model once with the full turn sequence and returns the
// assistant turn, carrying tool calls when the model elected to use tools.
// Tool execution is the gateway's job, not the worker's.
func (w *Worker) Run(ctx context.Context, turns []contractx.Turn) (contractx.Turn, error) {
	history, err := toSchemaMessages(turns)
	if err != nil {
		return contractx.Turn{}, err
	}

	msg, err := w.runner.Invoke(ctx, map[string]any{"history": history})
	if err != nil {
		return contractx.Turn{}, fmt.Errorf("%w: worker=%s invoke: %v", contractx.ErrModelInvoke, w.name, err)
	}
	if msg == nil {
		return contractx.Turn{}, fmt.Errorf("%w: worker=%s returned no message", contractx.ErrSchemaViolation, w.name)
	}

	toolCalls, err := toContractToolCalls(msg.ToolCalls)
	if err != nil {
		return contractx.Turn{}, err
	}
	if strings.TrimSpace(msg.Content) == "" && len(toolCalls) == 0 {
		return contractx.Turn{}, fmt.Errorf("%w: worker=%s returned neither text nor tool calls", contractx.ErrSchemaViolation, w.name)
	}

	return contractx.Turn{
		Role:      contractx.RoleAssistant,
		Content:   strings.TrimSpace(msg.Content),
		ToolCalls: toolCalls,
	}, nil
}

func compileWorkerGraph(
	ctx context.Context,
	toolModel einomodel.ToolCallingChatModel,
	name contractx.WorkerName,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", false),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add worker prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", toolModel); err != nil {
		return nil, fmt.Errorf("add worker model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add worker edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add worker edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add worker edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(fmt.Sprintf("worker.%s", name)))
	if err != nil {
		return nil, fmt.Errorf("compile worker graph: %w", err)
	}
	return runner, nil
}

/* --------------------------- message conversion --------------------------- */

func toSchemaMessages(turns []contractx.Turn) ([]*schema.Message, error) {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case contractx.RoleUser:
			msgs = append(msgs, schema.UserMessage(t.Content))
		case contractx.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(t.Content))
		case contractx.RoleAssistant:
			msg := &schema.Message{
				Role:    schema.Assistant,
				Content: t.Content,
			}
			for _, call := range t.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("%w: marshal args for tool=%s: %v", contractx.ErrValidation, call.Name, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
					ID: call.ID,
					Function: schema.FunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			msgs = append(msgs, msg)
		case contractx.RoleTool:
			msgs = append(msgs, &schema.Message{
				Role:       schema.Tool,
				Content:    t.Content,
				ToolCallID: t.ToolCallID,
			})
		default:
			return nil, fmt.Errorf("%w: unknown turn role %q", contractx.ErrValidation, t.Role)
		}
	}
	return msgs, nil
}

func toContractToolCalls(calls []schema.ToolCall) ([]contractx.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	out := make([]contractx.ToolCall, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		out = append(out, contractx.ToolCall{
			ID:   call.ID,
			Name: name,
			Args: args,
		})
	}
	return out, nil
}
