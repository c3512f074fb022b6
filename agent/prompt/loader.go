package prompt

import (
	_ "embed"
	"strings"
	"time"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/attendance.txt
	attendanceRaw string

	//go:embed template/invoice.txt
	invoiceRaw string

	//go:embed template/email.txt
	emailRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router     string
	Attendance string
	Invoice    string
	Email      string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:     strings.TrimSpace(routerRaw),
		Attendance: strings.TrimSpace(attendanceRaw),
		Invoice:    strings.TrimSpace(invoiceRaw),
		Email:      strings.TrimSpace(emailRaw),
	}
}

// RenderWorker fills the {today} slot of a worker instruction template.
func RenderWorker(template string, now time.Time) string {
	return strings.ReplaceAll(template, "{today}", now.Format("2006-01-02"))
}

// RenderRouter embeds the literal user message into the classification prompt.
func RenderRouter(template string, userMessage string) string {
	return strings.ReplaceAll(template, "{input}", userMessage)
}
