package tool

import (
	"archive/zip"
	"fmt"
	"os"
	"strings"
)

// The invoice document is a fixed-layout WordprocessingML package: a zip of
// three XML parts. Only the handful of constructs the layout needs are
// emitted (paragraphs, two-column tables, cell shading, borders).

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	headerShade = "ff99cc"
	totalShade  = "ffcc99"
)

func writeInvoiceDocx(path string, data InvoiceData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", invoiceDocumentXML(data)},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create part %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return fmt.Errorf("write part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize document: %w", err)
	}
	return nil
}

func invoiceDocumentXML(data InvoiceData) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	// Title block.
	b.WriteString(paragraph("INVOICE", paraProps{align: "center", bold: true, font: "Arial Black", sizeHalfPt: 56}))

	// Name left, date right.
	b.WriteString(`<w:tbl>` + tableGrid(4680, 3120))
	b.WriteString(`<w:tr>` +
		cell(paragraph(data.Name, paraProps{bold: true}), cellProps{width: 4680}) +
		cell(paragraph(data.Date, paraProps{align: "right"}), cellProps{width: 3120}) +
		`</w:tr></w:tbl>`)

	// Bill-to block.
	b.WriteString(paragraph("Bill To:", paraProps{bold: true}))
	for _, line := range data.BillTo {
		b.WriteString(paragraph("    "+line, paraProps{}))
	}

	// Itemized table with shaded header row and total row.
	b.WriteString(`<w:tbl>` + tableGrid(6240, 1560))
	b.WriteString(`<w:tr>` +
		cell(paragraph("DESCRIPTION", paraProps{align: "center", bold: true}), cellProps{width: 6240, shade: headerShade, bordered: true}) +
		cell(paragraph("AMOUNT", paraProps{align: "center", bold: true}), cellProps{width: 1560, shade: headerShade, bordered: true}) +
		`</w:tr>`)
	b.WriteString(`<w:tr>` +
		cell(paragraph(data.SalaryDescription, paraProps{}), cellProps{width: 6240, bordered: true}) +
		cell(paragraph("", paraProps{}), cellProps{width: 1560, bordered: true}) +
		`</w:tr>`)
	for _, item := range data.Details {
		b.WriteString(`<w:tr>` +
			cell(paragraph(item.Description, paraProps{}), cellProps{width: 6240, bordered: true}) +
			cell(paragraph(item.Amount, paraProps{align: "right"}), cellProps{width: 1560, bordered: true}) +
			`</w:tr>`)
	}
	b.WriteString(`<w:tr>` +
		cell(paragraph("TOTAL", paraProps{align: "right", bold: true}), cellProps{width: 6240, bordered: true}) +
		cell(paragraph(data.Total, paraProps{align: "right", bold: true}), cellProps{width: 1560, shade: totalShade, bordered: true}) +
		`</w:tr></w:tbl>`)

	// Amount-in-words footer.
	b.WriteString(paragraph("Amount in Words: "+data.TotalWords, paraProps{}))

	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

type paraProps struct {
	align      string // "center", "right", or "" for left
	bold       bool
	font       string
	sizeHalfPt int
}

type cellProps struct {
	width    int
	shade    string
	bordered bool
}

func paragraph(text string, props paraProps) string {
	var b strings.Builder
	b.WriteString(`<w:p>`)
	if props.align != "" {
		b.WriteString(`<w:pPr><w:jc w:val="` + props.align + `"/></w:pPr>`)
	}
	if text != "" {
		b.WriteString(`<w:r>`)
		var rpr strings.Builder
		if props.font != "" {
			rpr.WriteString(fmt.Sprintf(`<w:rFonts w:ascii="%s" w:hAnsi="%s"/>`, props.font, props.font))
		}
		if props.bold {
			rpr.WriteString(`<w:b/>`)
		}
		if props.sizeHalfPt > 0 {
			rpr.WriteString(fmt.Sprintf(`<w:sz w:val="%d"/>`, props.sizeHalfPt))
		}
		if rpr.Len() > 0 {
			b.WriteString(`<w:rPr>` + rpr.String() + `</w:rPr>`)
		}
		b.WriteString(`<w:t xml:space="preserve">` + escapeXML(text) + `</w:t></w:r>`)
	}
	b.WriteString(`</w:p>`)
	return b.String()
}

func cell(content string, props cellProps) string {
	var pr strings.Builder
	pr.WriteString(fmt.Sprintf(`<w:tcW w:w="%d" w:type="dxa"/>`, props.width))
	if props.bordered {
		pr.WriteString(`<w:tcBorders>` +
			`<w:top w:val="single" w:sz="6" w:color="000000"/>` +
			`<w:left w:val="single" w:sz="6" w:color="000000"/>` +
			`<w:bottom w:val="single" w:sz="6" w:color="000000"/>` +
			`<w:right w:val="single" w:sz="6" w:color="000000"/>` +
			`</w:tcBorders>`)
	}
	if props.shade != "" {
		pr.WriteString(`<w:shd w:val="clear" w:fill="` + props.shade + `"/>`)
	}
	return `<w:tc><w:tcPr>` + pr.String() + `</w:tcPr>` + content + `</w:tc>`
}

func tableGrid(widths ...int) string {
	var b strings.Builder
	b.WriteString(`<w:tblPr><w:tblLayout w:type="fixed"/></w:tblPr><w:tblGrid>`)
	for _, w := range widths {
		b.WriteString(fmt.Sprintf(`<w:gridCol w:w="%d"/>`, w))
	}
	b.WriteString(`</w:tblGrid>`)
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
