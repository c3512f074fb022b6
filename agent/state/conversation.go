package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
)

var (
	ErrInvalidSession  = errors.New("session id is empty")
	ErrNilConversation = errors.New("nil conversation")
	ErrStateNotFound   = errors.New("conversation not found")
)

// Conversation is the persistent per-thread state: an append-only turn log
// plus the routing hint. The active worker instruction lives in the dedicated
// SystemPrompt field rather than inside the log, so "replace the system turn"
// is a field assignment instead of a positional scan.
type Conversation struct {
	SessionID string `json:"session_id"`

	Turns        []contractx.Turn     `json:"turns,omitempty"`
	SystemPrompt string               `json:"system_prompt,omitempty"`
	NextWorker   contractx.WorkerName `json:"next_worker,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversation(sessionID string, now time.Time) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		UpdatedAt: now.UTC(),
	}
}

func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

// Append adds turns to the log. Appended turns are never modified afterwards.
func (c *Conversation) Append(turns ...contractx.Turn) {
	c.Turns = append(c.Turns, turns...)
}

// SetSystemPrompt installs text as the sole active system instruction,
// displacing any prior one.
func (c *Conversation) SetSystemPrompt(text string) {
	c.SystemPrompt = strings.TrimSpace(text)
}

// LastTurn returns the most recent turn, or false on an empty log.
func (c *Conversation) LastTurn() (contractx.Turn, bool) {
	if c == nil || len(c.Turns) == 0 {
		return contractx.Turn{}, false
	}
	return c.Turns[len(c.Turns)-1], true
}

// LastUserTurn returns the most recent turn with role user.
func (c *Conversation) LastUserTurn() (contractx.Turn, bool) {
	if c == nil {
		return contractx.Turn{}, false
	}
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == contractx.RoleUser {
			return c.Turns[i], true
		}
	}
	return contractx.Turn{}, false
}

// ModelTurns is the sequence handed to the model capability: the active system
// instruction, if any, followed by the full log.
func (c *Conversation) ModelTurns() []contractx.Turn {
	turns := make([]contractx.Turn, 0, len(c.Turns)+1)
	if c.SystemPrompt != "" {
		turns = append(turns, contractx.Turn{Role: contractx.RoleSystem, Content: c.SystemPrompt})
	}
	return append(turns, c.Turns...)
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	if c.NextWorker != contractx.WorkerNone && !c.NextWorker.Valid() {
		return fmt.Errorf("%w: unknown next worker %q", contractx.ErrValidation, c.NextWorker)
	}
	for i, t := range c.Turns {
		switch t.Role {
		case contractx.RoleUser, contractx.RoleAssistant, contractx.RoleSystem, contractx.RoleTool:
		default:
			return fmt.Errorf("%w: turn %d has unknown role %q", contractx.ErrValidation, i, t.Role)
		}
		if len(t.ToolCalls) > 0 && t.Role != contractx.RoleAssistant {
			return fmt.Errorf("%w: turn %d carries tool calls but has role %q", contractx.ErrValidation, i, t.Role)
		}
		if t.ToolCallID != "" && t.Role != contractx.RoleTool {
			return fmt.Errorf("%w: turn %d carries a tool call id but has role %q", contractx.ErrValidation, i, t.Role)
		}
	}
	return nil
}
