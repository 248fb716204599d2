package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pfennig-app/pfennig/internal/common"
	"github.com/pfennig-app/pfennig/internal/model"
)

const categoryColumns = `id, name, color, spending_type, description, created_at, updated_at`

// ListCategories returns all categories ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.SpendingType,
			&cat.Description, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategory returns the category with the given id.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getCategoryBy(ctx, "id", id)
}

// GetCategoryByName returns the category with the given name, or nil if
// no category has that name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	cat, err := s.getCategoryBy(ctx, "name", name)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *SQLiteStorage) getCategoryBy(ctx context.Context, column, value string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE ` + column + ` = ?`

	var cat model.Category
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&cat.ID, &cat.Name, &cat.Color, &cat.SpendingType,
		&cat.Description, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: category %s", common.ErrNotFound, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// CreateCategory creates a new category. Names are unique.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, draft model.CategoryDraft) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCategoryDraft(draft); err != nil {
		return nil, err
	}

	existing, err := s.GetCategoryByName(ctx, draft.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: category %q already exists", common.ErrValidation, draft.Name)
	}

	spendingType := draft.SpendingType
	if spendingType == "" {
		spendingType = model.SpendingUnclassified
	}

	now := time.Now().UTC()
	cat := model.Category{
		ID:           uuid.NewString(),
		Name:         draft.Name,
		Color:        draft.Color,
		Description:  draft.Description,
		SpendingType: spendingType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		cat.ID, cat.Name, cat.Color, cat.SpendingType, cat.Description,
		cat.CreatedAt, cat.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created category", "name", cat.Name, "id", cat.ID)
	return &cat, nil
}

// UpdateCategory applies a patch and returns the updated record.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error) {
	current, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := validateCategoryDraft(model.CategoryDraft{
		Name:         updated.Name,
		SpendingType: updated.SpendingType,
	}); err != nil {
		return nil, err
	}
	if updated.Name != current.Name {
		other, nameErr := s.GetCategoryByName(ctx, updated.Name)
		if nameErr != nil {
			return nil, nameErr
		}
		if other != nil {
			return nil, fmt.Errorf("%w: category %q already exists", common.ErrValidation, updated.Name)
		}
	}
	updated.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE categories
		SET name = ?, color = ?, spending_type = ?, description = ?, updated_at = ?
		WHERE id = ?`

	_, err = s.db.ExecContext(ctx, query,
		updated.Name, updated.Color, updated.SpendingType, updated.Description,
		updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update category %s: %w", id, err)
	}

	return &updated, nil
}

// DeleteCategory removes a category. The delete is rejected while any
// transaction or rule still references it, so rules stay valid and
// transactions never point at a missing category.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var txnCount int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&txnCount)
	if err != nil {
		return fmt.Errorf("failed to count category references: %w", err)
	}
	if txnCount > 0 {
		return fmt.Errorf("%w: %d transaction(s) still use category %s",
			common.ErrCategoryInUse, txnCount, id)
	}

	var ruleCount int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categorization_rules WHERE category_id = ?`, id).Scan(&ruleCount)
	if err != nil {
		return fmt.Errorf("failed to count rule references: %w", err)
	}
	if ruleCount > 0 {
		return fmt.Errorf("%w: %d rule(s) still use category %s",
			common.ErrCategoryInUse, ruleCount, id)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}

	return nil
}

// verifyCategoryExists enforces the referential-integrity invariant for
// writes that reference a category.
func (s *SQLiteStorage) verifyCategoryExists(ctx context.Context, id string) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to verify category: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", common.ErrUnknownCategory, id)
	}
	return nil
}
