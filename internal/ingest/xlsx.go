package ingest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/restobooks/vendor-recon/internal/application/service"
	"github.com/restobooks/vendor-recon/pkg/apperrors"
)

// Recognized header names, lowercased. Vendors label columns
// inconsistently so each field accepts a few aliases.
var headerAliases = map[string]string{
	"date":             "date",
	"line date":        "date",
	"invoice date":     "date",
	"description":      "description",
	"item":             "description",
	"details":          "description",
	"amount":           "amount",
	"total":            "amount",
	"line total":       "amount",
	"invoice number":   "invoice_number",
	"invoice no":       "invoice_number",
	"invoice #":        "invoice_number",
	"reference":        "reference_number",
	"reference number": "reference_number",
	"ref":              "reference_number",
	"ref no":           "reference_number",
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseWorkbook reads statement lines from the first sheet of an XLSX
// workbook. The first row must be a header naming at least the date,
// description, and amount columns; blank rows are skipped.
func ParseWorkbook(r io.Reader) ([]service.ImportLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.Validation("INVALID_WORKBOOK", "file is not a readable xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.Validation("INVALID_WORKBOOK", "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Validation("INVALID_WORKBOOK", "failed to read sheet rows")
	}
	if len(rows) < 2 {
		return nil, apperrors.Validation("NO_LINES", "workbook contains no statement lines")
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	lines := make([]service.ImportLine, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		line, err := parseRow(columns, row)
		if err != nil {
			return nil, apperrors.Validation("INVALID_ROW", fmt.Sprintf("row %d: %v", i+2, err))
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, apperrors.Validation("NO_LINES", "workbook contains no statement lines")
	}
	return lines, nil
}

// mapHeader resolves the header row into field positions.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if field, ok := headerAliases[key]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, apperrors.Validation("MISSING_COLUMN", fmt.Sprintf("header row is missing a %s column", required))
		}
	}
	return columns, nil
}

func parseRow(columns map[string]int, row []string) (service.ImportLine, error) {
	var line service.ImportLine

	date, err := parseDate(cellAt(row, columns["date"]))
	if err != nil {
		return line, err
	}

	amountText := cleanAmount(cellAt(row, columns["amount"]))
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return line, fmt.Errorf("unparseable amount %q", cellAt(row, columns["amount"]))
	}

	line.LineDate = date
	line.Description = strings.TrimSpace(cellAt(row, columns["description"]))
	line.Amount = amount
	if idx, ok := columns["invoice_number"]; ok {
		line.InvoiceNumber = strings.TrimSpace(cellAt(row, idx))
	}
	if idx, ok := columns["reference_number"]; ok {
		line.ReferenceNumber = strings.TrimSpace(cellAt(row, idx))
	}
	return line, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// cleanAmount strips currency symbols and thousands separators, and
// converts accounting-style parentheses to a leading minus.
func cleanAmount(value string) string {
	value = strings.TrimSpace(value)
	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = value[1 : len(value)-1]
	}
	value = strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	if negative && !strings.HasPrefix(value, "-") {
		value = "-" + value
	}
	return value
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
