package workers

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	openrouterx "github.com/praveenkd/worklog-agent/pkg/openrouter"
)

// Config carries the shared model endpoint plus optional per-role overrides.
// A role without an override uses the default model and temperature.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RouterModel            string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	AttendanceModel        string  `envconfig:"ATTENDANCE_MODEL" split_words:"true"`
	InvoiceModel           string  `envconfig:"INVOICE_MODEL" split_words:"true"`
	EmailModel             string  `envconfig:"EMAIL_MODEL" split_words:"true"`
	RouterTemperature      float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	AttendanceTemperature  float32 `envconfig:"ATTENDANCE_TEMPERATURE" split_words:"true" default:"-1"`
	InvoiceTemperature     float32 `envconfig:"INVOICE_TEMPERATURE" split_words:"true" default:"-1"`
	EmailTemperature       float32 `envconfig:"EMAIL_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: model api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the endpoint config for one worker role.
func (c Config) OpenRouterFor(name contractx.WorkerName) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch name {
	case contractx.WorkerAttendance:
		override(c.AttendanceModel, c.AttendanceTemperature)
	case contractx.WorkerInvoice:
		override(c.InvoiceModel, c.InvoiceTemperature)
	case contractx.WorkerEmail:
		override(c.EmailModel, c.EmailTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// RouterConfig resolves the endpoint config for the classification call.
func (c Config) RouterConfig() openrouterx.Config {
	cfg := c.OpenRouterFor(contractx.WorkerNone)
	if v := strings.TrimSpace(c.RouterModel); v != "" {
		cfg.Model = v
	}
	if c.RouterTemperature >= 0 {
		cfg.Temperature = c.RouterTemperature
	}
	return cfg
}
