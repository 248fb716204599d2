package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfennig-app/pfennig/internal/common"
	"github.com/pfennig-app/pfennig/internal/model"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetCategory(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	created, err := store.CreateCategory(ctx, model.CategoryDraft{
		Name:         "Groceries",
		Description:  "Food and household items",
		SpendingType: model.SpendingEssential,
		Color:        "#A3BE8C",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Groceries", created.Name)
	assert.Equal(t, model.SpendingEssential, created.SpendingType)

	got, err := store.GetCategory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Food and household items", got.Description)
	assert.Equal(t, "#A3BE8C", got.Color)
}

func TestCreateCategoryDefaultsSpendingType(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	created, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Misc"})
	require.NoError(t, err)
	assert.Equal(t, model.SpendingUnclassified, created.SpendingType)
}

func TestCreateCategoryRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Transport"})
	require.NoError(t, err)

	_, err = store.CreateCategory(ctx, model.CategoryDraft{Name: "Transport"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateCategoryRejectsInvalidSpendingType(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.CreateCategory(ctx, model.CategoryDraft{
		Name:         "Weird",
		SpendingType: model.SpendingType("frivolous"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGetCategoryByName(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	created, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Rent"})
	require.NoError(t, err)

	t.Run("existing name", func(t *testing.T) {
		got, err := store.GetCategoryByName(ctx, "Rent")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("missing name returns nil without error", func(t *testing.T) {
		got, err := store.GetCategoryByName(ctx, "Yacht Maintenance")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	created, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Eating Out"})
	require.NoError(t, err)

	newName := "Dining"
	newType := model.SpendingDiscretionary
	updated, err := store.UpdateCategory(ctx, created.ID, model.CategoryPatch{
		Name:         &newName,
		SpendingType: &newType,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dining", updated.Name)
	assert.Equal(t, model.SpendingDiscretionary, updated.SpendingType)

	got, err := store.GetCategory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dining", got.Name)
}

func TestUpdateCategoryRejectsNameCollision(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Transport"})
	require.NoError(t, err)
	other, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Travel"})
	require.NoError(t, err)

	collide := "Transport"
	_, err = store.UpdateCategory(ctx, other.ID, model.CategoryPatch{Name: &collide})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteCategoryGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked while a transaction references it", func(t *testing.T) {
		store := createTestStorage(t)
		cat, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Groceries"})
		require.NoError(t, err)

		_, err = store.CreateTransaction(ctx, model.TransactionDraft{
			Date:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Description: "REWE Markt",
			Amount:      decimal.RequireFromString("-10.00"),
			CategoryID:  &cat.ID,
		})
		require.NoError(t, err)

		err = store.DeleteCategory(ctx, cat.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrCategoryInUse)
	})

	t.Run("blocked while a rule references it", func(t *testing.T) {
		store := createTestStorage(t)
		cat, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Groceries"})
		require.NoError(t, err)

		_, err = store.CreateRule(ctx, model.RuleDraft{
			Pattern:    "rewe",
			CategoryID: cat.ID,
			IsEnabled:  true,
		})
		require.NoError(t, err)

		err = store.DeleteCategory(ctx, cat.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrCategoryInUse)
	})

	t.Run("unreferenced category deletes cleanly", func(t *testing.T) {
		store := createTestStorage(t)
		cat, err := store.CreateCategory(ctx, model.CategoryDraft{Name: "Short Lived"})
		require.NoError(t, err)

		require.NoError(t, store.DeleteCategory(ctx, cat.ID))

		_, err = store.GetCategory(ctx, cat.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
