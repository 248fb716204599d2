package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfennig-app/pfennig/internal/model"
	"github.com/pfennig-app/pfennig/internal/rule"
	"github.com/pfennig-app/pfennig/internal/service"
	"github.com/pfennig-app/pfennig/internal/testutil"
)

func newTestPipeline(t *testing.T, store service.Storage) *Pipeline {
	t.Helper()
	return NewPipeline(store, NewDetector(store), rule.NewEngine(store), 4)
}

func seedRule(t *testing.T, store service.Storage, pattern, categoryID string) {
	t.Helper()
	_, err := store.CreateRule(context.Background(), model.RuleDraft{
		Pattern:    pattern,
		CategoryID: categoryID,
		IsEnabled:  true,
	})
	require.NoError(t, err)
}

func TestIngestOneAutoCategorizes(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, "Transport")
	seedRule(t, db.Storage, "uber", db.CategoryID("Transport"))

	pipeline := newTestPipeline(t, db.Storage)

	outcome, err := pipeline.IngestOne(ctx, model.TransactionDraft{
		Date:        time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "UBER *TRIP HELP.UBER.COM",
		Amount:      decimal.RequireFromString("-23.40"),
	})
	require.NoError(t, err)

	assert.False(t, outcome.Skipped)
	assert.True(t, outcome.AutoCategorized)
	require.NotNil(t, outcome.Transaction)
	require.NotNil(t, outcome.Transaction.CategoryID)
	assert.Equal(t, db.CategoryID("Transport"), *outcome.Transaction.CategoryID)
}

func TestIngestOneKeepsExplicitCategory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, "Transport", "Business Travel")
	seedRule(t, db.Storage, "uber", db.CategoryID("Transport"))

	pipeline := newTestPipeline(t, db.Storage)

	explicit := db.CategoryID("Business Travel")
	outcome, err := pipeline.IngestOne(ctx, model.TransactionDraft{
		Date:        time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "UBER *TRIP HELP.UBER.COM",
		Amount:      decimal.RequireFromString("-23.40"),
		CategoryID:  &explicit,
	})
	require.NoError(t, err)

	// A pre-assigned category wins over the rule engine.
	assert.False(t, outcome.AutoCategorized)
	require.NotNil(t, outcome.Transaction.CategoryID)
	assert.Equal(t, explicit, *outcome.Transaction.CategoryID)
}

func TestIngestOneSkipsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	pipeline := newTestPipeline(t, db.Storage)

	draft := model.TransactionDraft{
		Date:        time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "LIDL SAGT DANKE",
		Amount:      decimal.RequireFromString("-12.99"),
	}

	first, err := pipeline.IngestOne(ctx, draft)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := pipeline.IngestOne(ctx, draft)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Nil(t, second.Transaction)

	all, err := db.Storage.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIngestBatchPreservesOrderAndCountsSkips(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, "Groceries")
	seedRule(t, db.Storage, "rewe", db.CategoryID("Groceries"))

	pipeline := newTestPipeline(t, db.Storage)

	// One existing transaction that draft #3 collides with.
	_, err := db.Storage.CreateTransaction(ctx, model.TransactionDraft{
		Date:        time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Description: "already imported",
		Amount:      decimal.RequireFromString("-3.00"),
	})
	require.NoError(t, err)

	drafts := make([]model.TransactionDraft, 0, 10)
	for i := 0; i < 10; i++ {
		drafts = append(drafts, model.TransactionDraft{
			Date:        time.Date(2026, 2, i+1, 0, 0, 0, 0, time.UTC),
			Description: fmt.Sprintf("draft %02d", i),
			Amount:      decimal.NewFromInt(int64(-i - 1)),
		})
	}
	drafts[4].Description = "REWE Markt"

	result := pipeline.IngestBatch(ctx, drafts)

	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, 0, result.FailedCount)
	require.Len(t, result.Created, 9)

	// Created preserves draft input order across concurrent batches.
	wantOrder := []string{
		"draft 00", "draft 01", "draft 03", "REWE Markt",
		"draft 05", "draft 06", "draft 07", "draft 08", "draft 09",
	}
	gotOrder := make([]string, 0, len(result.Created))
	for _, txn := range result.Created {
		gotOrder = append(gotOrder, txn.Description)
	}
	assert.Equal(t, wantOrder, gotOrder)

	assert.Equal(t, []string{"REWE Markt"}, result.AutoCategorizedDescriptions)
}

func TestUpdateClearingCategoryReappliesRules(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, "Streaming", "Manual")
	seedRule(t, db.Storage, "netflix", db.CategoryID("Streaming"))

	pipeline := newTestPipeline(t, db.Storage)

	manual := db.CategoryID("Manual")
	txn, err := db.Storage.CreateTransaction(ctx, model.TransactionDraft{
		Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Description: "NETFLIX.COM",
		Amount:      decimal.RequireFromString("-12.99"),
		CategoryID:  &manual,
	})
	require.NoError(t, err)

	updated, err := pipeline.Update(ctx, txn.ID, model.TransactionPatch{
		CategoryID: &model.NullableString{},
	})
	require.NoError(t, err)

	// Clearing re-runs the rules, which immediately re-categorize.
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, db.CategoryID("Streaming"), *updated.CategoryID)
}

func TestUpdateClearingCategoryWithoutMatchingRule(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, "Manual")

	pipeline := newTestPipeline(t, db.Storage)

	manual := db.CategoryID("Manual")
	txn, err := db.Storage.CreateTransaction(ctx, model.TransactionDraft{
		Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Description: "no rule covers this",
		Amount:      decimal.RequireFromString("-1.00"),
		CategoryID:  &manual,
	})
	require.NoError(t, err)

	updated, err := pipeline.Update(ctx, txn.ID, model.TransactionPatch{
		CategoryID: &model.NullableString{},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)

	// Clearing again is a no-op, not an error.
	again, err := pipeline.Update(ctx, txn.ID, model.TransactionPatch{
		CategoryID: &model.NullableString{},
	})
	require.NoError(t, err)
	assert.Nil(t, again.CategoryID)
}

func TestUpdateUsesPatchedDescriptionForReResolution(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, "Streaming", "Manual")
	seedRule(t, db.Storage, "netflix", db.CategoryID("Streaming"))

	pipeline := newTestPipeline(t, db.Storage)

	manual := db.CategoryID("Manual")
	txn, err := db.Storage.CreateTransaction(ctx, model.TransactionDraft{
		Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Description: "unrelated",
		Amount:      decimal.RequireFromString("-12.99"),
		CategoryID:  &manual,
	})
	require.NoError(t, err)

	// The same patch renames the description and clears the category;
	// rules must see the new description.
	newDesc := "NETFLIX.COM"
	updated, err := pipeline.Update(ctx, txn.ID, model.TransactionPatch{
		Description: &newDesc,
		CategoryID:  &model.NullableString{},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, db.CategoryID("Streaming"), *updated.CategoryID)
}
