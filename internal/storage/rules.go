package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pfennig-app/pfennig/internal/common"
	"github.com/pfennig-app/pfennig/internal/model"
)

const ruleColumns = `id, pattern, is_regex, description, priority, is_enabled,
	category_id, created_at, updated_at`

// Match order: priority descending, insertion order (rowid) as the stable
// tie-break so equal-priority rules resolve deterministically.
const ruleMatchOrder = ` ORDER BY priority DESC, rowid ASC`

// ListRules returns every rule in match order.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx,
		`SELECT `+ruleColumns+` FROM categorization_rules`+ruleMatchOrder)
}

// ListEnabledRules returns the rules eligible for matching, in match order.
func (s *SQLiteStorage) ListEnabledRules(ctx context.Context) ([]model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx,
		`SELECT `+ruleColumns+` FROM categorization_rules WHERE is_enabled = 1`+ruleMatchOrder)
}

// GetRulesByCategory returns the rules targeting a category, in match order.
func (s *SQLiteStorage) GetRulesByCategory(ctx context.Context, categoryID string) ([]model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	return s.queryRules(ctx,
		`SELECT `+ruleColumns+` FROM categorization_rules WHERE category_id = ?`+ruleMatchOrder,
		categoryID)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string, args ...any) ([]model.CategorizationRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategorizationRule
	for rows.Next() {
		var rule model.CategorizationRule
		if err := rows.Scan(&rule.ID, &rule.Pattern, &rule.IsRegex, &rule.Description,
			&rule.Priority, &rule.IsEnabled, &rule.CategoryID,
			&rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// GetRule returns the rule with the given id.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM categorization_rules WHERE id = ?`

	var rule model.CategorizationRule
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rule.ID, &rule.Pattern, &rule.IsRegex, &rule.Description,
		&rule.Priority, &rule.IsEnabled, &rule.CategoryID,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: rule %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return &rule, nil
}

// CreateRule persists a rule draft. Regex patterns are compiled here so
// invalid patterns are rejected at creation time rather than at match
// time; the target category must exist.
func (s *SQLiteStorage) CreateRule(ctx context.Context, draft model.RuleDraft) (*model.CategorizationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRuleDraft(draft); err != nil {
		return nil, err
	}
	if err := s.verifyCategoryExists(ctx, draft.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule := model.CategorizationRule{
		ID:          uuid.NewString(),
		Pattern:     draft.Pattern,
		IsRegex:     draft.IsRegex,
		Description: draft.Description,
		Priority:    draft.Priority,
		IsEnabled:   draft.IsEnabled,
		CategoryID:  draft.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO categorization_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rule.ID, rule.Pattern, rule.IsRegex, rule.Description,
		rule.Priority, rule.IsEnabled, rule.CategoryID,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	slog.Info("created categorization rule",
		"id", rule.ID, "pattern", rule.Pattern, "category_id", rule.CategoryID)
	return &rule, nil
}

// UpdateRule applies a patch and returns the updated record. Pattern and
// category invariants are re-checked against the patched values.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, id string, patch model.RulePatch) (*model.CategorizationRule, error) {
	current, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := validateRulePattern(updated.Pattern, updated.IsRegex); err != nil {
		return nil, err
	}
	if updated.CategoryID != current.CategoryID {
		if err := s.verifyCategoryExists(ctx, updated.CategoryID); err != nil {
			return nil, err
		}
	}
	updated.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE categorization_rules
		SET pattern = ?, is_regex = ?, description = ?, priority = ?,
			is_enabled = ?, category_id = ?, updated_at = ?
		WHERE id = ?`

	_, err = s.db.ExecContext(ctx, query,
		updated.Pattern, updated.IsRegex, updated.Description, updated.Priority,
		updated.IsEnabled, updated.CategoryID, updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update rule %s: %w", id, err)
	}

	return &updated, nil
}

// DeleteRule removes a rule permanently.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: rule %s", common.ErrNotFound, id)
	}

	return nil
}
