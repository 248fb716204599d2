// Package service defines the interfaces between the pfennig components.
package service

import (
	"context"

	"github.com/pfennig-app/pfennig/internal/model"
)

// TransactionStore provides persistent CRUD for transactions.
type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	CreateTransaction(ctx context.Context, draft model.TransactionDraft) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// CategoryStore provides persistent CRUD for categories. DeleteCategory
// fails while any transaction or rule still references the category.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, draft model.CategoryDraft) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// RuleStore provides persistent CRUD for categorization rules. List
// methods return rules in match order: priority descending, then
// insertion order.
type RuleStore interface {
	ListRules(ctx context.Context) ([]model.CategorizationRule, error)
	ListEnabledRules(ctx context.Context) ([]model.CategorizationRule, error)
	GetRule(ctx context.Context, id string) (*model.CategorizationRule, error)
	GetRulesByCategory(ctx context.Context, categoryID string) ([]model.CategorizationRule, error)
	CreateRule(ctx context.Context, draft model.RuleDraft) (*model.CategorizationRule, error)
	UpdateRule(ctx context.Context, id string, patch model.RulePatch) (*model.CategorizationRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// Storage combines the three stores behind a single backing database.
type Storage interface {
	TransactionStore
	CategoryStore
	RuleStore

	Migrate(ctx context.Context) error
	Close() error
}
