package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InvoiceData is the structured invoice record the model assembles.
type InvoiceData struct {
	Name              string       `json:"name"`
	Date              string       `json:"date"`
	BillTo            []string     `json:"bill_to"`
	SalaryDescription string       `json:"salary_description"`
	Details           []DetailLine `json:"details"`
	Total             string       `json:"total"`
	TotalWords        string       `json:"total_words"`
}

// DetailLine is one itemized row. The model may emit either a
// description/amount record or a legacy "key: value" string; both are kept.
type DetailLine struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (d *DetailLine) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		d.Description, d.Amount = splitDetailString(s)
		return nil
	}

	type alias DetailLine
	var a alias
	if err := json.Unmarshal(raw, &a); err != nil {
		return err
	}
	*d = DetailLine(a)
	return nil
}

func splitDetailString(s string) (string, string) {
	if key, value, ok := strings.Cut(s, ":"); ok {
		return strings.TrimSpace(key), strings.TrimSpace(value)
	}
	return strings.TrimSpace(s), ""
}

func (g *Gateway) renderInvoiceDocument(args map[string]any) string {
	filename := stringArg(args, "filename")
	data, err := invoiceDataArg(args)
	if err != nil {
		return fmt.Sprintf("Failed to write Word document: %v", err)
	}
	if filename == "" || data == nil {
		return "Error: Both 'filename' and 'data' are required."
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".docx") {
		filename += ".docx"
	}

	path := g.resolve(filename)
	if err := writeInvoiceDocx(path, *data); err != nil {
		return fmt.Sprintf("Failed to write Word document: %v", err)
	}
	return fmt.Sprintf("Invoice successfully written to %s", path)
}

// invoiceDataArg accepts the data argument either as a structured object or
// as a JSON string, since models produce both.
func invoiceDataArg(args map[string]any) (*InvoiceData, error) {
	if args == nil {
		return nil, nil
	}
	raw, ok := args["data"]
	if !ok || raw == nil {
		return nil, nil
	}

	var payload []byte
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		payload = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode invoice data: %w", err)
		}
		payload = encoded
	}

	var data InvoiceData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode invoice data: %w", err)
	}
	return &data, nil
}
