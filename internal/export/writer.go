package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/a3tai/acrf-annotations/internal/annotation"
)

// Format selects an output encoding
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DefaultWorkbookName is used when an xlsx destination is a directory
const DefaultWorkbookName = "result.xlsx"

const sheetFont = "Times New Roman"

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX, "":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (must be one of: xlsx, csv, json)", s)
	}
}

// Document is the JSON output: records plus the derived tables
type Document struct {
	Records []annotation.Record `json:"records"`
	Report  *annotation.Report  `json:"report,omitempty"`
	Tables  *Tables             `json:"tables"`
}

// Write renders records to dest in the given format and returns the paths
// written. dest is a file for json, a directory for csv, and either for xlsx.
func Write(format Format, dest string, records []annotation.Record, report *annotation.Report) ([]string, error) {
	tables := Build(records)

	switch format {
	case FormatJSON:
		return []string{dest}, writeFile(dest, func(w io.Writer) error {
			return WriteJSON(w, &Document{Records: records, Report: report, Tables: tables})
		})
	case FormatCSV:
		return WriteCSVDir(dest, tables)
	case FormatXLSX, "":
		path := dest
		if info, err := os.Stat(dest); err == nil && info.IsDir() {
			path = filepath.Join(dest, DefaultWorkbookName)
		}
		return []string{path}, WriteXLSX(path, tables)
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return fn(f)
}

// WriteJSON encodes doc as indented JSON
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteCSV writes one table, header first
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.Name, err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", t.Name, err)
	}
	return nil
}

// WriteCSVDir writes each table to <dir>/<Name>.csv
func WriteCSVDir(dir string, tables *Tables) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, 3)
	for _, t := range tables.All() {
		path := filepath.Join(dir, t.Name+".csv")
		if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, t) }); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteXLSX writes the tables as sheets of one workbook with a highlighted header row
func WriteXLSX(path string, tables *Tables) (err error) {
	f := excelize.NewFile()
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Family: sheetFont},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFA500"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: sheetFont}})
	if err != nil {
		return fmt.Errorf("failed to create body style: %w", err)
	}

	for i, t := range tables.All() {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}

		if err := writeSheet(f, t, headerStyle, bodyStyle); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table, headerStyle, bodyStyle int) error {
	rows := append([][]string{t.Header}, t.Rows...)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", t.Name, r+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", t.Name, err)
	}
	if len(t.Rows) > 0 {
		end, err := excelize.CoordinatesToCellName(len(t.Header), len(t.Rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(t.Name, "A2", end, bodyStyle); err != nil {
			return fmt.Errorf("failed to style %s rows: %w", t.Name, err)
		}
	}

	width := float64(len(t.Header[0]) + 4)
	for _, h := range t.Header {
		if w := float64(len(h) + 4); w > width {
			width = w
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	return f.SetColWidth(t.Name, "A", lastCol, width)
}
