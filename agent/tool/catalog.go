package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	mailerx "github.com/praveenkd/worklog-agent/pkg/mailer"
)

const (
	ToolReadTimesheet         = "read_timesheet"
	ToolUpsertTimesheetEntry  = "upsert_timesheet_entry"
	ToolComputePayroll        = "compute_payroll"
	ToolRenderInvoiceDocument = "render_invoice_document"
	ToolSendEmail             = "send_email_with_attachments"
)

// Config is the process-wide configuration the tool operations need, injected
// at construction rather than read inside the operations.
type Config struct {
	// WorkDir is the resource namespace all filenames resolve against.
	WorkDir string `envconfig:"WORK_DIR" split_words:"true" default:"."`
}

// Gateway dispatches tool calls against the registry. Every operation returns
// a descriptive string on failure; Execute never surfaces a Go error to its
// caller, so the worker model can observe failures and react.
type Gateway struct {
	workDir string
	mailCfg mailerx.Config
	sender  mailerx.Sender

	allowed map[contractx.WorkerName]map[string]struct{}
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(cfg Config, mailCfg mailerx.Config, sender mailerx.Sender) *Gateway {
	workDir := strings.TrimSpace(cfg.WorkDir)
	if workDir == "" {
		workDir = "."
	}
	return &Gateway{
		workDir: workDir,
		mailCfg: mailCfg,
		sender:  sender,
		allowed: allowedTools(),
	}
}

// Execute runs each invocation sequentially, preserving call order, and
// returns one tool turn per call tagged with the matching invocation id.
func (g *Gateway) Execute(ctx context.Context, worker contractx.WorkerName, calls []contractx.ToolCall) []contractx.Turn {
	turns := make([]contractx.Turn, 0, len(calls))
	for _, call := range calls {
		id := strings.TrimSpace(call.ID)
		if id == "" {
			id = uuid.NewString()
		}

		content := g.dispatch(ctx, worker, call)
		log.Debug().
			Str("worker", string(worker)).
			Str("tool", call.Name).
			Str("tool_call_id", id).
			Msg("tool executed")

		turns = append(turns, contractx.Turn{
			Role:       contractx.RoleTool,
			Content:    content,
			ToolCallID: id,
		})
	}
	return turns
}

func (g *Gateway) dispatch(ctx context.Context, worker contractx.WorkerName, call contractx.ToolCall) string {
	name := strings.TrimSpace(call.Name)
	if name == "" {
		return "Error: tool call has no tool name."
	}
	if set, ok := g.allowed[worker]; ok {
		if _, ok := set[name]; !ok {
			return fmt.Sprintf("Error: tool %s is not available to the %s worker.", name, worker)
		}
	}

	switch name {
	case ToolReadTimesheet:
		return g.readTimesheet(call.Args)
	case ToolUpsertTimesheetEntry:
		return g.upsertTimesheetEntry(call.Args)
	case ToolComputePayroll:
		return g.computePayroll(call.Args)
	case ToolRenderInvoiceDocument:
		return g.renderInvoiceDocument(call.Args)
	case ToolSendEmail:
		return g.sendEmailWithAttachments(ctx, call.Args)
	default:
		return fmt.Sprintf("Error: unknown tool %q.", name)
	}
}

func allowedTools() map[contractx.WorkerName]map[string]struct{} {
	return map[contractx.WorkerName]map[string]struct{}{
		contractx.WorkerAttendance: {
			ToolReadTimesheet:        {},
			ToolUpsertTimesheetEntry: {},
		},
		contractx.WorkerInvoice: {
			ToolReadTimesheet:         {},
			ToolComputePayroll:        {},
			ToolRenderInvoiceDocument: {},
		},
		contractx.WorkerEmail: {
			ToolSendEmail: {},
		},
	}
}

// InfosFor returns the tool schemas exposed to a worker's model.
func InfosFor(worker contractx.WorkerName) []*schema.ToolInfo {
	switch worker {
	case contractx.WorkerAttendance:
		return []*schema.ToolInfo{
			{
				Name: ToolReadTimesheet,
				Desc: "Read the rows of an Excel timesheet file (date, status, remarks). Input is the filename, e.g. 'timesheet_july.xlsx'.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"filename": {Type: schema.String, Desc: "Timesheet filename", Required: true},
				}),
			},
			{
				Name: ToolUpsertTimesheetEntry,
				Desc: "Add or update a single timesheet entry for a date. At most one row exists per date.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"filename": {Type: schema.String, Desc: "Timesheet filename, usually timesheet_<month>.xlsx", Required: true},
					"date":     {Type: schema.String, Desc: "Entry date in YYYY-MM-DD format", Required: true},
					"status":   {Type: schema.String, Desc: "One of P, A, L, WO, H, HL", Required: true},
					"remarks":  {Type: schema.String, Desc: "Optional short summary of the day's work"},
				}),
			},
		}
	case contractx.WorkerInvoice:
		return []*schema.ToolInfo{
			{
				Name: ToolReadTimesheet,
				Desc: "Read the rows of an Excel timesheet file (date, status, remarks). Input is the filename, e.g. 'timesheet_july.xlsx'.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"filename": {Type: schema.String, Desc: "Timesheet filename", Required: true},
				}),
			},
			{
				Name: ToolComputePayroll,
				Desc: "Compute working days, chargeable days, leave balance, invoice total, and total in words from a timesheet.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"filename":        {Type: schema.String, Desc: "Timesheet filename", Required: true},
					"carry_in_leaves": {Type: schema.Number, Desc: "Accumulated carried-forward leave balance; 0 if unknown"},
				}),
			},
			{
				Name: ToolRenderInvoiceDocument,
				Desc: "Generate and save a formatted invoice as a Word (.docx) file. Input is a filename and the invoice data record.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"filename": {Type: schema.String, Desc: "Output filename, usually invoice_<month>.docx", Required: true},
					"data": {Type: schema.Object, Desc: "Invoice record with name, date, bill_to, salary_description, details, total, total_words", Required: true,
						SubParams: map[string]*schema.ParameterInfo{
							"name":               {Type: schema.String, Desc: "Name line"},
							"date":               {Type: schema.String, Desc: "Date line"},
							"bill_to":            {Type: schema.Array, Desc: "Billing address lines", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
							"salary_description": {Type: schema.String, Desc: "Salary description line"},
							"details":            {Type: schema.Array, Desc: "Itemized detail lines", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
							"total":              {Type: schema.String, Desc: "Total amount"},
							"total_words":        {Type: schema.String, Desc: "Total amount in words"},
						}},
				}),
			},
		}
	case contractx.WorkerEmail:
		return []*schema.ToolInfo{
			{
				Name: ToolSendEmail,
				Desc: "Send an email with an XLSX timesheet and a DOCX invoice attached. The files must exist in the working directory. The recipient email is optional.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"xlsx_filename": {Type: schema.String, Desc: "Timesheet filename, e.g. timesheet_july.xlsx", Required: true},
					"docx_filename": {Type: schema.String, Desc: "Invoice filename, e.g. invoice_july.docx", Required: true},
					"to_email":      {Type: schema.String, Desc: "Optional recipient email address"},
				}),
			},
		}
	default:
		return nil
	}
}

/* ----------------------------- argument helpers ----------------------------- */

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func numberArg(args map[string]any, key string) float64 {
	if args == nil {
		return 0
	}
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
