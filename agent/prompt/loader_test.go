package prompt

import (
	"strings"
	"testing"
	"time"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	prompts := LoadPromptSet()
	for name, text := range map[string]string{
		"router":     prompts.Router,
		"attendance": prompts.Attendance,
		"invoice":    prompts.Invoice,
		"email":      prompts.Email,
	} {
		if strings.TrimSpace(text) == "" {
			t.Fatalf("prompt %s is empty", name)
		}
	}

	if !strings.Contains(prompts.Invoice, "1036.8571") {
		t.Fatal("invoice prompt must state the per-day cost")
	}
	if !strings.Contains(prompts.Attendance, "upsert_timesheet_entry") {
		t.Fatal("attendance prompt must name the upsert tool")
	}
}

func TestRenderWorkerInjectsDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	out := RenderWorker("today is {today}", now)
	if out != "today is 2024-07-15" {
		t.Fatalf("unexpected render: %q", out)
	}
}

func TestRenderRouterEmbedsMessage(t *testing.T) {
	t.Parallel()

	out := RenderRouter(LoadPromptSet().Router, "create the invoice for July")
	if !strings.Contains(out, `"create the invoice for July"`) {
		t.Fatalf("user message not embedded: %q", out)
	}
}
