package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	statex "github.com/praveenkd/worklog-agent/agent/state"
	toolx "github.com/praveenkd/worklog-agent/agent/tool"
)

/* --------------------------------- fakes --------------------------------- */

type fakeRouter struct {
	decision contractx.RoutingDecision
	err      error
	calls    int
}

func (f *fakeRouter) Route(ctx context.Context, turns []contractx.Turn) (contractx.RoutingDecision, error) {
	f.calls++
	if f.err != nil {
		return contractx.RoutingDecision{}, f.err
	}
	return f.decision, nil
}

type fakeWorker struct {
	name  contractx.WorkerName
	turns []contractx.Turn
	errs  []error

	calls int
	seen  [][]contractx.Turn
}

func (f *fakeWorker) Name() contractx.WorkerName { return f.name }

func (f *fakeWorker) Instructions(now time.Time) string {
	return fmt.Sprintf("You are the %s worker. Today is %s.", f.name, now.Format("2006-01-02"))
}

func (f *fakeWorker) Run(ctx context.Context, turns []contractx.Turn) (contractx.Turn, error) {
	idx := f.calls
	f.calls++
	f.seen = append(f.seen, turns)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return contractx.Turn{}, f.errs[idx]
	}
	if idx >= len(f.turns) {
		return f.turns[len(f.turns)-1], nil
	}
	return f.turns[idx], nil
}

type fakeRegistry map[contractx.WorkerName]contractx.Worker

func (f fakeRegistry) Worker(name contractx.WorkerName) (contractx.Worker, bool) {
	w, ok := f[name]
	return w, ok
}

type fakeGateway struct {
	results map[string]string
	calls   []contractx.ToolCall
}

func (f *fakeGateway) Execute(ctx context.Context, worker contractx.WorkerName, calls []contractx.ToolCall) []contractx.Turn {
	f.calls = append(f.calls, calls...)
	turns := make([]contractx.Turn, 0, len(calls))
	for _, call := range calls {
		content, ok := f.results[call.Name]
		if !ok {
			content = fmt.Sprintf("Error: unknown tool %q.", call.Name)
		}
		turns = append(turns, contractx.Turn{
			Role:       contractx.RoleTool,
			Content:    content,
			ToolCallID: call.ID,
		})
	}
	return turns
}

func assistantToolCallTurn(calls ...contractx.ToolCall) contractx.Turn {
	return contractx.Turn{Role: contractx.RoleAssistant, ToolCalls: calls}
}

func assistantTurn(text string) contractx.Turn {
	return contractx.Turn{Role: contractx.RoleAssistant, Content: text}
}

func newTestOrchestrator(
	t *testing.T,
	store statex.Store,
	router contractx.Router,
	registry contractx.Registry,
	gateway contractx.ToolGateway,
	cfg Config,
) *Orchestrator {
	t.Helper()
	o, err := New(store, router, registry, gateway, cfg)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

/* --------------------------------- tests --------------------------------- */

func TestHandleMessageAttendanceToolLoop(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decision: contractx.RoutingDecision{Worker: contractx.WorkerAttendance}}
	worker := &fakeWorker{
		name: contractx.WorkerAttendance,
		turns: []contractx.Turn{
			assistantToolCallTurn(contractx.ToolCall{
				ID:   "call-1",
				Name: toolx.ToolUpsertTimesheetEntry,
				Args: map[string]any{"filename": "timesheet_july.xlsx", "date": "2024-07-15", "status": "P"},
			}),
			assistantTurn("Marked 2024-07-15 as present in timesheet_july.xlsx."),
		},
	}
	gateway := &fakeGateway{results: map[string]string{
		toolx.ToolUpsertTimesheetEntry: "Success: The entry for 2024-07-15 was added in timesheet_july.xlsx.",
	}}

	o := newTestOrchestrator(t, store, router, fakeRegistry{contractx.WorkerAttendance: worker}, gateway, Config{})
	reply, err := o.HandleMessage(context.Background(), "s1", "Mark 2024-07-15 as P, worked on APIs")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != "Marked 2024-07-15 as present in timesheet_july.xlsx." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if worker.calls != 2 {
		t.Fatalf("expected two worker passes, got %d", worker.calls)
	}
	if len(gateway.calls) != 1 || gateway.calls[0].Name != toolx.ToolUpsertTimesheetEntry {
		t.Fatalf("unexpected tool calls: %+v", gateway.calls)
	}

	conv, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load saved conversation: %v", err)
	}
	roles := make([]contractx.Role, 0, len(conv.Turns))
	for _, turn := range conv.Turns {
		roles = append(roles, turn.Role)
	}
	want := []contractx.Role{
		contractx.RoleUser,
		contractx.RoleSystem,
		contractx.RoleAssistant,
		contractx.RoleTool,
		contractx.RoleAssistant,
	}
	if len(roles) != len(want) {
		t.Fatalf("unexpected turn log: %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("turn %d: expected role %q, got %q", i, want[i], roles[i])
		}
	}
	if conv.NextWorker != contractx.WorkerNone {
		t.Fatalf("expected routing reset after completion, got %q", conv.NextWorker)
	}
	if !strings.Contains(conv.Turns[1].Content, "attendance") {
		t.Fatalf("expected route marker turn, got %q", conv.Turns[1].Content)
	}
}

func TestHandleMessageSecondPassSeesToolResults(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decision: contractx.RoutingDecision{Worker: contractx.WorkerInvoice}}
	worker := &fakeWorker{
		name: contractx.WorkerInvoice,
		turns: []contractx.Turn{
			assistantToolCallTurn(contractx.ToolCall{ID: "call-1", Name: toolx.ToolComputePayroll}),
			assistantTurn("The invoice total is 21774.00."),
		},
	}
	gateway := &fakeGateway{results: map[string]string{
		toolx.ToolComputePayroll: "Total: 21774.00",
	}}

	o := newTestOrchestrator(t, store, router, fakeRegistry{contractx.WorkerInvoice: worker}, gateway, Config{})
	if _, err := o.HandleMessage(context.Background(), "s1", "create my invoice"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	second := worker.seen[1]
	if second[0].Role != contractx.RoleSystem || !strings.Contains(second[0].Content, "invoice worker") {
		t.Fatalf("expected instructions at the head, got %+v", second[0])
	}
	var sawToolResult bool
	for _, turn := range second {
		if turn.Role == contractx.RoleTool && turn.Content == "Total: 21774.00" {
			sawToolResult = true
		}
	}
	if !sawToolResult {
		t.Fatal("second worker pass must observe the tool result turn")
	}
}

func TestHandleMessageUnknownIntent(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decision: contractx.RoutingDecision{
		Worker: contractx.WorkerNone,
		Reply:  "I can help with attendance logging, invoice generation, and sending emails. How can I assist you?",
	}}
	worker := &fakeWorker{name: contractx.WorkerAttendance, turns: []contractx.Turn{assistantTurn("unused")}}

	o := newTestOrchestrator(t, store, router, fakeRegistry{contractx.WorkerAttendance: worker}, &fakeGateway{}, Config{})
	reply, err := o.HandleMessage(context.Background(), "s1", "what's the weather?")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != router.decision.Reply {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if worker.calls != 0 {
		t.Fatal("no worker may run for an unrouted message")
	}

	conv, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if last, _ := conv.LastTurn(); last.Content != reply {
		t.Fatalf("help reply not recorded: %q", last.Content)
	}
}

func TestHandleMessageRoundCap(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decision: contractx.RoutingDecision{Worker: contractx.WorkerAttendance}}
	worker := &fakeWorker{
		name: contractx.WorkerAttendance,
		turns: []contractx.Turn{
			assistantToolCallTurn(contractx.ToolCall{ID: "call-1", Name: toolx.ToolReadTimesheet}),
		},
	}
	gateway := &fakeGateway{results: map[string]string{toolx.ToolReadTimesheet: "The Excel file is empty."}}

	o := newTestOrchestrator(t, store, router, fakeRegistry{contractx.WorkerAttendance: worker}, gateway, Config{MaxRounds: 3})
	reply, err := o.HandleMessage(context.Background(), "s1", "read my timesheet")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != ExhaustedReply {
		t.Fatalf("expected exhaustion reply, got %q", reply)
	}
	if worker.calls != 3 {
		t.Fatalf("expected exactly MaxRounds worker passes, got %d", worker.calls)
	}

	conv, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if conv.NextWorker != contractx.WorkerNone {
		t.Fatalf("expected routing reset after exhaustion, got %q", conv.NextWorker)
	}
}

func TestHandleMessageModelFailureNotSaved(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decision: contractx.RoutingDecision{Worker: contractx.WorkerAttendance}}
	worker := &fakeWorker{
		name:  contractx.WorkerAttendance,
		turns: []contractx.Turn{assistantTurn("unused")},
		errs:  []error{fmt.Errorf("%w: upstream 503", contractx.ErrModelInvoke)},
	}

	o := newTestOrchestrator(t, store, router, fakeRegistry{contractx.WorkerAttendance: worker}, &fakeGateway{}, Config{})
	_, err := o.HandleMessage(context.Background(), "s1", "Mark today as P")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if _, err := store.Load(context.Background(), "s1"); !errors.Is(err, statex.ErrStateNotFound) {
		t.Fatal("failed turns must not be persisted")
	}
}

func TestHandleMessageRouterFailure(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{err: fmt.Errorf("%w: connection refused", contractx.ErrModelInvoke)}

	o := newTestOrchestrator(t, store, router, fakeRegistry{}, &fakeGateway{}, Config{})
	if _, err := o.HandleMessage(context.Background(), "s1", "hello"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestHandleMessageInputValidation(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decision: contractx.RoutingDecision{Worker: contractx.WorkerNone, Reply: "hi"}}
	o := newTestOrchestrator(t, store, router, fakeRegistry{}, &fakeGateway{}, Config{})

	if _, err := o.HandleMessage(context.Background(), "", "hello"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := o.HandleMessage(context.Background(), "s1", "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if router.calls != 0 {
		t.Fatal("router must not run for rejected input")
	}
}

func TestHandleMessageAccumulatesSessionTurns(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decision: contractx.RoutingDecision{Worker: contractx.WorkerAttendance}}
	worker := &fakeWorker{name: contractx.WorkerAttendance, turns: []contractx.Turn{assistantTurn("Done.")}}

	o := newTestOrchestrator(t, store, router, fakeRegistry{contractx.WorkerAttendance: worker}, &fakeGateway{}, Config{})
	ctx := context.Background()
	if _, err := o.HandleMessage(ctx, "s1", "Mark 2024-07-15 as P"); err != nil {
		t.Fatalf("first message: %v", err)
	}
	if _, err := o.HandleMessage(ctx, "s1", "Mark 2024-07-16 as P"); err != nil {
		t.Fatalf("second message: %v", err)
	}

	conv, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// user + route marker + assistant, twice
	if len(conv.Turns) != 6 {
		t.Fatalf("expected accumulated log of 6 turns, got %d", len(conv.Turns))
	}
}
