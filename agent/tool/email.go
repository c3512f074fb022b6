package tool

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	mailerx "github.com/praveenkd/worklog-agent/pkg/mailer"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

func (g *Gateway) sendEmailWithAttachments(ctx context.Context, args map[string]any) string {
	xlsxName := stringArg(args, "xlsx_filename")
	docxName := stringArg(args, "docx_filename")
	toEmail := stringArg(args, "to_email")
	if toEmail == "" {
		toEmail = strings.TrimSpace(g.mailCfg.ToEmail)
	}

	if err := g.mailCfg.Validate(); err != nil {
		return fmt.Sprintf("An error occurred: %v", err)
	}
	if toEmail == "" {
		return "An error occurred: no recipient email configured or provided."
	}

	var attachments []mailerx.Attachment
	for _, candidate := range []struct {
		name string
		mime string
	}{
		{xlsxName, mimeXLSX},
		{docxName, mimeDOCX},
	} {
		if candidate.name == "" {
			continue
		}
		content, err := os.ReadFile(g.resolve(candidate.name))
		if err != nil {
			continue
		}
		attachments = append(attachments, mailerx.Attachment{
			Filename: candidate.name,
			MIMEType: candidate.mime,
			Content:  content,
		})
	}
	if len(attachments) == 0 {
		return "Failure: No valid files found in the working directory to attach."
	}

	names := make([]string, 0, len(attachments))
	for _, att := range attachments {
		names = append(names, att.Filename)
	}

	status, err := g.sender.Send(ctx, mailerx.Message{
		From:    g.mailCfg.FromEmail,
		To:      toEmail,
		Subject: "Timesheet and Invoice for Approval",
		Body: fmt.Sprintf("Hi,\n%s.\n\nI've attached %s for approval. Can you review them at your convenience?",
			greeting(time.Now()), strings.Join(names, " and ")),
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Sprintf("An error occurred: %v", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Sprintf("Failure: email transport responded with status %d.", status)
	}
	return fmt.Sprintf("Success: Email sent to %s with %d attachment(s).", toEmail, len(attachments))
}

func greeting(now time.Time) string {
	switch hour := now.Hour(); {
	case hour < 12:
		return "Good Morning"
	case hour < 17:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}
