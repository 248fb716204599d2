package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfennig-app/pfennig/internal/model"
)

func TestMatcherLiteralMatching(t *testing.T) {
	matcher := NewMatcher([]model.CategorizationRule{
		{ID: "r1", Pattern: "uber", CategoryID: "cat-transport", IsEnabled: true},
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		categoryID, ok := matcher.Match("UBER *TRIP HELP.UBER.COM")
		require.True(t, ok)
		assert.Equal(t, "cat-transport", categoryID)
	})

	t.Run("matches substring anywhere", func(t *testing.T) {
		_, ok := matcher.Match("payment to uber eats")
		assert.True(t, ok)
	})

	t.Run("no match returns false", func(t *testing.T) {
		categoryID, ok := matcher.Match("LIDL SAGT DANKE")
		assert.False(t, ok)
		assert.Empty(t, categoryID)
	})
}

func TestMatcherRegexMatching(t *testing.T) {
	matcher := NewMatcher([]model.CategorizationRule{
		{ID: "r1", Pattern: `(?i)amazon|amzn`, CategoryID: "cat-shopping", IsRegex: true, IsEnabled: true},
	})

	categoryID, ok := matcher.Match("AMZN Mktp DE*12345")
	require.True(t, ok)
	assert.Equal(t, "cat-shopping", categoryID)

	_, ok = matcher.Match("bakery")
	assert.False(t, ok)
}

func TestMatcherPriorityOrder(t *testing.T) {
	// Rules arrive pre-sorted: priority descending, insertion order as
	// tie-break. Both rules match the description.
	matcher := NewMatcher([]model.CategorizationRule{
		{ID: "high", Pattern: "market", CategoryID: "cat-groceries", Priority: 10, IsEnabled: true},
		{ID: "low", Pattern: "whole foods", CategoryID: "cat-dining", Priority: 1, IsEnabled: true},
	})

	categoryID, ok := matcher.Match("WHOLE FOODS MARKET")
	require.True(t, ok)
	assert.Equal(t, "cat-groceries", categoryID)
}

func TestMatcherInsertionOrderTieBreak(t *testing.T) {
	matcher := NewMatcher([]model.CategorizationRule{
		{ID: "first", Pattern: "coffee", CategoryID: "cat-coffee", Priority: 5, IsEnabled: true},
		{ID: "second", Pattern: "coffee", CategoryID: "cat-dining", Priority: 5, IsEnabled: true},
	})

	categoryID, ok := matcher.Match("BLUE BOTTLE COFFEE")
	require.True(t, ok)
	assert.Equal(t, "cat-coffee", categoryID)
}

func TestMatcherSkipsDisabledRules(t *testing.T) {
	matcher := NewMatcher([]model.CategorizationRule{
		{ID: "off", Pattern: "netflix", CategoryID: "cat-streaming", IsEnabled: false},
	})

	assert.Equal(t, 0, matcher.Len())
	_, ok := matcher.Match("NETFLIX.COM")
	assert.False(t, ok)
}

func TestMatcherSkipsInvalidRegex(t *testing.T) {
	matcher := NewMatcher([]model.CategorizationRule{
		{ID: "bad", Pattern: `([unclosed`, CategoryID: "cat-bad", IsRegex: true, IsEnabled: true},
		{ID: "good", Pattern: "rewe", CategoryID: "cat-groceries", IsEnabled: true},
	})

	// The invalid rule is dropped, the rest of the set still works.
	assert.Equal(t, 1, matcher.Len())
	categoryID, ok := matcher.Match("REWE Markt")
	require.True(t, ok)
	assert.Equal(t, "cat-groceries", categoryID)
}

type stubRuleStore struct {
	rules []model.CategorizationRule
	err   error
}

func (s *stubRuleStore) ListRules(_ context.Context) ([]model.CategorizationRule, error) {
	return s.rules, s.err
}

func (s *stubRuleStore) ListEnabledRules(_ context.Context) ([]model.CategorizationRule, error) {
	return s.rules, s.err
}

func (s *stubRuleStore) GetRule(_ context.Context, _ string) (*model.CategorizationRule, error) {
	return nil, nil
}

func (s *stubRuleStore) GetRulesByCategory(_ context.Context, _ string) ([]model.CategorizationRule, error) {
	return nil, nil
}

func (s *stubRuleStore) CreateRule(_ context.Context, _ model.RuleDraft) (*model.CategorizationRule, error) {
	return nil, nil
}

func (s *stubRuleStore) UpdateRule(_ context.Context, _ string, _ model.RulePatch) (*model.CategorizationRule, error) {
	return nil, nil
}

func (s *stubRuleStore) DeleteRule(_ context.Context, _ string) error {
	return nil
}

func TestEngineMatch(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(&stubRuleStore{rules: []model.CategorizationRule{
		{ID: "r1", Pattern: "spotify", CategoryID: "cat-streaming", IsEnabled: true},
	}})

	t.Run("matching transaction", func(t *testing.T) {
		categoryID, err := engine.Match(ctx, model.Transaction{Description: "Spotify AB"})
		require.NoError(t, err)
		assert.Equal(t, "cat-streaming", categoryID)
	})

	t.Run("non-matching transaction yields empty id", func(t *testing.T) {
		categoryID, err := engine.Match(ctx, model.Transaction{Description: "BP Tankstelle"})
		require.NoError(t, err)
		assert.Empty(t, categoryID)
	})
}

func TestEngineSnapshotError(t *testing.T) {
	engine := NewEngine(&stubRuleStore{err: assert.AnError})

	_, err := engine.Snapshot(context.Background())
	assert.Error(t, err)
}
