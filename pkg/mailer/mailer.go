package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Config struct {
	APIKey    string `envconfig:"API_KEY" split_words:"true"`
	FromEmail string `envconfig:"FROM_EMAIL" split_words:"true"`
	ToEmail   string `envconfig:"TO_EMAIL" split_words:"true"`
}

// Validate reports whether the transport has what it needs to send. Missing
// configuration is a call-time condition, not a startup failure, so callers
// check this right before sending.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("sendgrid api key is missing")
	}
	if strings.TrimSpace(c.FromEmail) == "" {
		return errors.New("from email is missing")
	}
	return nil
}

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender dispatches one message and reports the transport's status code.
type Sender interface {
	Send(ctx context.Context, msg Message) (int, error)
}

type Client struct {
	apiKey string
}

var _ Sender = (*Client)(nil)

func NewClient(cfg Config) *Client {
	return &Client{apiKey: strings.TrimSpace(cfg.APIKey)}
}

func (c *Client) Send(ctx context.Context, msg Message) (int, error) {
	if c.apiKey == "" {
		return 0, errors.New("sendgrid api key is missing")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.From))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", msg.Body))

	for _, att := range msg.Attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		a.SetType(att.MIMEType)
		a.SetFilename(att.Filename)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}

	client := sendgrid.NewSendClient(c.apiKey)
	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return 0, fmt.Errorf("sendgrid send: %w", err)
	}
	return resp.StatusCode, nil
}
