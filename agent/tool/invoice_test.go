package tool

import (
	"archive/zip"
	"encoding/json"
	"strings"
	"testing"

	mailerx "github.com/praveenkd/worklog-agent/pkg/mailer"
)

func sampleInvoiceData() map[string]any {
	return map[string]any{
		"name":               "PRAVEN KUMAR D",
		"date":               "2024-07-31",
		"bill_to":            []any{"PROD SOFTWARE", "Bangalore"},
		"salary_description": "Salary for the month of July",
		"details": []any{
			"Employee Number: 50391",
			map[string]any{"description": "Chargeable Days", "amount": "21"},
		},
		"total":       "21774.00",
		"total_words": "Rs. Twenty One Thousand Seven Hundred Seventy Four only",
	}
}

func readDocxDocument(t *testing.T, path string) string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part: %v", err)
		}
		defer rc.Close()
		var b strings.Builder
		buf := make([]byte, 4096)
		for {
			n, err := rc.Read(buf)
			b.Write(buf[:n])
			if err != nil {
				break
			}
		}
		return b.String()
	}
	t.Fatal("word/document.xml missing from package")
	return ""
}

func TestRenderInvoiceDocumentWritesDocx(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, nil, mailerx.Config{})
	out := g.renderInvoiceDocument(map[string]any{
		"filename": "invoice_july.docx",
		"data":     sampleInvoiceData(),
	})
	if !strings.HasPrefix(out, "Invoice successfully written to ") {
		t.Fatalf("unexpected output: %q", out)
	}

	doc := readDocxDocument(t, g.resolve("invoice_july.docx"))
	for _, want := range []string{
		"INVOICE",
		"PRAVEN KUMAR D",
		"PROD SOFTWARE",
		"Employee Number",
		"21774.00",
		"Seventy Four only",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q", want)
		}
	}
}

func TestRenderInvoiceDocumentAppendsSuffix(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, nil, mailerx.Config{})
	out := g.renderInvoiceDocument(map[string]any{
		"filename": "invoice_july",
		"data":     sampleInvoiceData(),
	})
	if !strings.HasSuffix(out, "invoice_july.docx") {
		t.Fatalf("expected .docx suffix enforcement, got %q", out)
	}
}

func TestRenderInvoiceDocumentAcceptsJSONString(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(sampleInvoiceData())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	g := newTestGateway(t, nil, mailerx.Config{})
	out := g.renderInvoiceDocument(map[string]any{
		"filename": "invoice_july.docx",
		"data":     string(encoded),
	})
	if !strings.HasPrefix(out, "Invoice successfully written to ") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderInvoiceDocumentRequiresInputs(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, nil, mailerx.Config{})
	for _, args := range []map[string]any{
		{"filename": "invoice_july.docx"},
		{"data": sampleInvoiceData()},
		nil,
	} {
		out := g.renderInvoiceDocument(args)
		if out != "Error: Both 'filename' and 'data' are required." {
			t.Fatalf("args %v: unexpected output %q", args, out)
		}
	}
}

func TestDetailLineAcceptsStringAndObject(t *testing.T) {
	t.Parallel()

	var lines []DetailLine
	raw := `["Employee Number: 50391", {"description": "Chargeable Days", "amount": "21"}, "No separator"]`
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if lines[0].Description != "Employee Number" || lines[0].Amount != "50391" {
		t.Fatalf("unexpected split: %+v", lines[0])
	}
	if lines[1].Description != "Chargeable Days" || lines[1].Amount != "21" {
		t.Fatalf("unexpected object line: %+v", lines[1])
	}
	if lines[2].Description != "No separator" || lines[2].Amount != "" {
		t.Fatalf("unexpected bare line: %+v", lines[2])
	}
}

func TestEscapeXML(t *testing.T) {
	t.Parallel()

	if got := escapeXML(`R&D <tools> "quoted"`); got != "R&amp;D &lt;tools&gt; &quot;quoted&quot;" {
		t.Fatalf("unexpected escape: %q", got)
	}
}
