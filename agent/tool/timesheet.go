package tool

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TimesheetRow is one tabular entry of a timesheet resource.
type TimesheetRow struct {
	Date    string
	Status  string
	Remarks string
}

var timesheetHeader = []string{"Date", "Status", "Remarks"}

func (g *Gateway) readTimesheet(args map[string]any) string {
	filename := stringArg(args, "filename")
	if filename == "" {
		return "Error reading Excel timesheet: filename is required."
	}

	rows, err := loadTimesheet(g.resolve(filename))
	if err != nil {
		return fmt.Sprintf("Error reading Excel timesheet: %v", err)
	}
	if len(rows) == 0 {
		return "The Excel file is empty."
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s | %s | %s", row.Date, row.Status, row.Remarks))
	}
	return "Timesheet Records:\n" + strings.Join(lines, "\n")
}

func (g *Gateway) upsertTimesheetEntry(args map[string]any) string {
	filename := stringArg(args, "filename")
	date := normalizeDate(stringArg(args, "date"))
	status := stringArg(args, "status")
	remarks := stringArg(args, "remarks")

	if filename == "" || date == "" || status == "" {
		return "Error modifying Excel timesheet: filename, date, and status are required."
	}

	path := g.resolve(filename)
	rows, err := loadTimesheet(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Sprintf("Error modifying Excel timesheet: %v", err)
		}
		rows = nil
	}

	action := "added"
	updated := false
	for i := range rows {
		if normalizeDate(rows[i].Date) == date {
			rows[i].Status = status
			rows[i].Remarks = remarks
			action = "updated"
			updated = true
			break
		}
	}
	if !updated {
		rows = append(rows, TimesheetRow{Date: date, Status: status, Remarks: remarks})
	}

	if err := saveTimesheet(path, rows); err != nil {
		return fmt.Sprintf("Error modifying Excel timesheet: %v", err)
	}
	return fmt.Sprintf("Success: The entry for %s was %s in %s.", date, action, filename)
}

func (g *Gateway) resolve(filename string) string {
	return filepath.Join(g.workDir, filepath.Base(filename))
}

// normalizeDate strips time-of-day suffixes so stored and requested dates
// compare as bare date strings.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	return s
}

func loadTimesheet(path string) ([]TimesheetRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	rows := make([]TimesheetRow, 0, len(raw))
	for i, cells := range raw {
		if i == 0 && isHeaderRow(cells) {
			continue
		}
		row := TimesheetRow{}
		if len(cells) > 0 {
			row.Date = strings.TrimSpace(cells[0])
		}
		if len(cells) > 1 {
			row.Status = strings.TrimSpace(cells[1])
		}
		if len(cells) > 2 {
			row.Remarks = strings.TrimSpace(cells[2])
		}
		if row.Date == "" && row.Status == "" && row.Remarks == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// saveTimesheet rewrites the full table; the resource is not an append-only log.
func saveTimesheet(path string, rows []TimesheetRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]any{timesheetHeader[0], timesheetHeader[1], timesheetHeader[2]}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{row.Date, row.Status, row.Remarks}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func isHeaderRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(cells[0]), "date")
}
