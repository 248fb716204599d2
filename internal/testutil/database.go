// Package testutil provides shared helpers for package tests: in-memory
// databases with migrations applied and seed categories installed.
package testutil

import (
	"context"
	"testing"

	"github.com/pfennig-app/pfennig/internal/model"
	"github.com/pfennig-app/pfennig/internal/storage"
)

// TestDB wraps an in-memory store together with the categories it was
// seeded with, keyed by name.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	Categories map[string]model.Category
	t          *testing.T
}

// SetupTestDB creates a migrated in-memory database seeded with one
// category per name. Cleanup is registered automatically.
func SetupTestDB(t *testing.T, categoryNames ...string) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cats := make(map[string]model.Category, len(categoryNames))
	for _, name := range categoryNames {
		cat, err := store.CreateCategory(ctx, model.CategoryDraft{Name: name})
		if err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
		cats[name] = *cat
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return &TestDB{Storage: store, Categories: cats, t: t}
}

// CategoryID returns the id of a seeded category or fails the test.
func (db *TestDB) CategoryID(name string) string {
	db.t.Helper()
	cat, ok := db.Categories[name]
	if !ok {
		db.t.Fatalf("category %q was not seeded", name)
	}
	return cat.ID
}
