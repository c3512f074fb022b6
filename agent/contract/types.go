package contract

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// WorkerName is the tagged variant used for routing decisions. The orchestrator
// matches over it explicitly; no string comparison outside this package.
type WorkerName string

const (
	WorkerNone       WorkerName = ""
	WorkerAttendance WorkerName = "attendance"
	WorkerInvoice    WorkerName = "invoice"
	WorkerEmail      WorkerName = "email"
)

func (w WorkerName) Valid() bool {
	switch w {
	case WorkerAttendance, WorkerInvoice, WorkerEmail:
		return true
	default:
		return false
	}
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is one unit of conversation history. Turns are immutable once appended.
// ToolCalls is present only on assistant turns that request tool use;
// ToolCallID only on tool turns, linking a result back to its invocation.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func (t Turn) HasToolCalls() bool {
	return t.Role == RoleAssistant && len(t.ToolCalls) > 0
}

// RoutingDecision is what the router returns for one incoming user message.
// Worker is WorkerNone when the intent is unknown; Reply then carries the text
// to surface to the user instead.
type RoutingDecision struct {
	Worker WorkerName
	Reply  string
}
