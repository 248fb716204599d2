package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pfennig-app/pfennig/internal/common"
	"github.com/pfennig-app/pfennig/internal/config"
	"github.com/pfennig-app/pfennig/internal/ingest"
	"github.com/pfennig-app/pfennig/internal/rule"
	"github.com/pfennig-app/pfennig/internal/service"
	"github.com/pfennig-app/pfennig/internal/storage"
)

// openStorage opens the configured database and brings its schema up to
// date.
func openStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath != ":memory:" {
		if err := config.EnsureParentDir(dbPath); err != nil {
			return nil, err
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open database at %s", dbPath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newPipeline assembles the ingestion pipeline over an open store.
func newPipeline(store service.Storage) *ingest.Pipeline {
	return ingest.NewPipeline(
		store,
		ingest.NewDetector(store),
		rule.NewEngine(store),
		viper.GetInt("import.batch_size"),
	)
}

// resolveCategoryRef turns a category name or id given on the command
// line into its id.
func resolveCategoryRef(ctx context.Context, store service.Storage, ref string) (string, error) {
	cat, err := store.GetCategoryByName(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to look up category: %w", err)
	}
	if cat != nil {
		return cat.ID, nil
	}

	byID, err := store.GetCategory(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("category %q not found", ref)
	}
	return byID.ID, nil
}
