package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfennig-app/pfennig/internal/common"
)

func defaultMapping() ColumnMapping {
	return ColumnMapping{
		DateColumn:        "date",
		DescriptionColumn: "description",
		AmountColumn:      "amount",
	}
}

func TestReadCSVDrafts(t *testing.T) {
	input := strings.Join([]string{
		"date,description,amount",
		"2026-01-15,REWE Markt,-42.17",
		`2026-01-16,Salary,"3,100.00"`,
	}, "\n")

	drafts, rowErrs, err := ReadCSVDrafts(strings.NewReader(input), defaultMapping(), "bank.csv")
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, drafts, 2)

	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), drafts[0].Date)
	assert.Equal(t, "REWE Markt", drafts[0].Description)
	assert.Equal(t, "-42.17", drafts[0].Amount.String())
	assert.Equal(t, "bank.csv", drafts[0].SourceFile)

	// Thousands separators are stripped.
	assert.Equal(t, "3100", drafts[1].Amount.String())
}

func TestReadCSVDraftsCustomHeadersCaseInsensitive(t *testing.T) {
	input := strings.Join([]string{
		"Buchungstag,Verwendungszweck,Betrag,Notiz",
		"2026-02-01,EDEKA,-10.50,groceries run",
	}, "\n")

	mapping := ColumnMapping{
		DateColumn:        "buchungstag",
		DescriptionColumn: "VERWENDUNGSZWECK",
		AmountColumn:      "Betrag",
		DetailsColumn:     "Notiz",
	}

	drafts, rowErrs, err := ReadCSVDrafts(strings.NewReader(input), mapping, "giro.csv")
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, drafts, 1)
	assert.Equal(t, "EDEKA", drafts[0].Description)
	assert.Equal(t, "groceries run", drafts[0].Details)
}

func TestReadCSVDraftsDayFirstDates(t *testing.T) {
	t.Run("day first", func(t *testing.T) {
		input := "date,description,amount\n03/02/2026,Bakery,-4.20\n"
		mapping := defaultMapping()
		mapping.DayFirst = true

		drafts, _, err := ReadCSVDrafts(strings.NewReader(input), mapping, "a.csv")
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), drafts[0].Date)
	})

	t.Run("month first", func(t *testing.T) {
		input := "date,description,amount\n03/02/2026,Bakery,-4.20\n"

		drafts, _, err := ReadCSVDrafts(strings.NewReader(input), defaultMapping(), "a.csv")
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), drafts[0].Date)
	})

	t.Run("ISO always wins", func(t *testing.T) {
		input := "date,description,amount\n2026-02-03,Bakery,-4.20\n"
		mapping := defaultMapping()
		mapping.DayFirst = true

		drafts, _, err := ReadCSVDrafts(strings.NewReader(input), mapping, "a.csv")
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), drafts[0].Date)
	})
}

func TestReadCSVDraftsCollectsRowErrors(t *testing.T) {
	input := strings.Join([]string{
		"date,description,amount",
		"2026-01-15,Good Row,-1.00",
		"not-a-date,Bad Date,-2.00",
		"2026-01-17,,-3.00",
		"2026-01-18,Bad Amount,abc",
		"2026-01-19,Another Good Row,-5.00",
	}, "\n")

	drafts, rowErrs, err := ReadCSVDrafts(strings.NewReader(input), defaultMapping(), "bank.csv")
	require.NoError(t, err)

	require.Len(t, drafts, 2)
	assert.Equal(t, "Good Row", drafts[0].Description)
	assert.Equal(t, "Another Good Row", drafts[1].Description)

	require.Len(t, rowErrs, 3)
	for _, rowErr := range rowErrs {
		assert.ErrorIs(t, rowErr, common.ErrValidation)
	}

	var re *RowError
	require.ErrorAs(t, rowErrs[0], &re)
	assert.Equal(t, 3, re.Line)
}

func TestReadCSVDraftsMissingColumn(t *testing.T) {
	input := "date,amount\n2026-01-15,-1.00\n"

	_, _, err := ReadCSVDrafts(strings.NewReader(input), defaultMapping(), "bank.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestColumnMappingValidate(t *testing.T) {
	err := ColumnMapping{DateColumn: "date", AmountColumn: "amount"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.NoError(t, defaultMapping().Validate())
}
