package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfennig-app/pfennig/internal/model"
)

func TestSuggestShortDescriptionVerbatim(t *testing.T) {
	draft := Suggest(model.Transaction{Description: "REWE Markt Berlin"}, "cat-groceries")
	require.NotNil(t, draft)

	assert.Equal(t, "REWE Markt Berlin", draft.Pattern)
	assert.Equal(t, "cat-groceries", draft.CategoryID)
	assert.False(t, draft.IsRegex)
	assert.True(t, draft.IsEnabled)
	assert.Equal(t, 0, draft.Priority)
	assert.Contains(t, draft.Description, "REWE Markt Berlin")
}

func TestSuggestLongDescriptionUsesPrefix(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantPattern string
	}{
		{
			name:        "trailing reference numbers trimmed",
			description: "PAYPAL *STEAM GAMES 4029357733 REF 9918",
			wantPattern: "PAYPAL *STEAM",
		},
		{
			name:        "four short tokens",
			description: "SEPA DD Lastschrift X1",
			wantPattern: "SEPA DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := Suggest(model.Transaction{Description: tt.description}, "cat-x")
			require.NotNil(t, draft)
			assert.Equal(t, tt.wantPattern, draft.Pattern)
		})
	}
}

func TestSuggestNilCases(t *testing.T) {
	assert.Nil(t, Suggest(model.Transaction{Description: ""}, "cat-x"))
	assert.Nil(t, Suggest(model.Transaction{Description: "   "}, "cat-x"))
	assert.Nil(t, Suggest(model.Transaction{Description: "REWE"}, ""))
}

func TestSuggestedDraftRoundTripsThroughMatcher(t *testing.T) {
	draft := Suggest(model.Transaction{Description: "UBER *TRIP HELP.UBER.COM 12345"}, "cat-transport")
	require.NotNil(t, draft)

	matcher := NewMatcher([]model.CategorizationRule{{
		ID:         "suggested",
		Pattern:    draft.Pattern,
		CategoryID: draft.CategoryID,
		IsRegex:    draft.IsRegex,
		IsEnabled:  draft.IsEnabled,
	}})

	categoryID, ok := matcher.Match("UBER *TRIP HELP.UBER.COM 99881")
	require.True(t, ok)
	assert.Equal(t, "cat-transport", categoryID)
}
