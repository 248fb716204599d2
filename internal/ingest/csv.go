package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfennig-app/pfennig/internal/common"
	"github.com/pfennig-app/pfennig/internal/model"
)

// ColumnMapping tells the CSV reader which header names carry each
// transaction field. DetailsColumn is optional; the rest are required.
// DayFirst is the date-format hint applied when a date is not ISO.
type ColumnMapping struct {
	DateColumn        string
	DescriptionColumn string
	DetailsColumn     string
	AmountColumn      string
	DayFirst          bool
}

// Validate rejects mappings missing a required column.
func (m ColumnMapping) Validate() error {
	for name, value := range map[string]string{
		"date":        m.DateColumn,
		"description": m.DescriptionColumn,
		"amount":      m.AmountColumn,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s column mapping is required", common.ErrValidation, name)
		}
	}
	return nil
}

// RowError reports a single unparseable CSV row. Row errors are collected
// rather than aborting the import.
type RowError struct {
	Err  error
	Line int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadCSVDrafts parses a header-row CSV into ingestion drafts using the
// given column mapping. Malformed rows are returned as RowErrors
// alongside the successfully parsed drafts; only a missing mapped column
// or an unreadable stream is fatal.
func ReadCSVDrafts(r io.Reader, mapping ColumnMapping, sourceFile string) ([]model.TransactionDraft, []error, error) {
	if err := mapping.Validate(); err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	indexes, err := resolveColumns(header, mapping)
	if err != nil {
		return nil, nil, err
	}

	var drafts []model.TransactionDraft
	var rowErrs []error
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}

		draft, err := draftFromRecord(record, indexes, mapping.DayFirst, sourceFile)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		drafts = append(drafts, draft)
	}

	return drafts, rowErrs, nil
}

// columnIndexes holds resolved header positions; -1 means not mapped.
type columnIndexes struct {
	date        int
	description int
	details     int
	amount      int
}

func resolveColumns(header []string, mapping ColumnMapping) (columnIndexes, error) {
	find := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
				return i
			}
		}
		return -1
	}

	indexes := columnIndexes{
		date:        find(mapping.DateColumn),
		description: find(mapping.DescriptionColumn),
		amount:      find(mapping.AmountColumn),
		details:     -1,
	}
	if mapping.DetailsColumn != "" {
		indexes.details = find(mapping.DetailsColumn)
	}

	for name, idx := range map[string]int{
		mapping.DateColumn:        indexes.date,
		mapping.DescriptionColumn: indexes.description,
		mapping.AmountColumn:      indexes.amount,
	} {
		if idx < 0 {
			return columnIndexes{}, fmt.Errorf("%w: column %q not found in CSV header",
				common.ErrValidation, name)
		}
	}

	return indexes, nil
}

func draftFromRecord(record []string, indexes columnIndexes, dayFirst bool, sourceFile string) (model.TransactionDraft, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	description := field(indexes.description)
	if description == "" {
		return model.TransactionDraft{}, fmt.Errorf("%w: empty description", common.ErrValidation)
	}

	date, err := parseDate(field(indexes.date), dayFirst)
	if err != nil {
		return model.TransactionDraft{}, err
	}

	amount, err := parseAmount(field(indexes.amount))
	if err != nil {
		return model.TransactionDraft{}, err
	}

	return model.TransactionDraft{
		Date:        date,
		Description: description,
		Details:     field(indexes.details),
		Amount:      amount,
		SourceFile:  sourceFile,
	}, nil
}

// parseDate attempts ISO format first, then falls back to the
// user-specified day/month ordering. Both "/" and "-" separators are
// accepted in the fallback.
func parseDate(value string, dayFirst bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", common.ErrValidation)
	}

	layouts := []string{time.DateOnly}
	if dayFirst {
		layouts = append(layouts, "2/1/2006", "2-1-2006")
	} else {
		layouts = append(layouts, "1/2/2006", "1-2-2006")
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unparseable date %q", common.ErrValidation, value)
}

// parseAmount converts strings like "1,234.56" or "-23.50" to a decimal.
func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty amount", common.ErrValidation)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: unparseable amount %q", common.ErrValidation, value)
	}
	return amount, nil
}
