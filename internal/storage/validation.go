// Package storage provides the data persistence layer for the pfennig ledger.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pfennig-app/pfennig/internal/common"
	"github.com/pfennig-app/pfennig/internal/model"
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("%w: context cannot be nil", common.ErrValidation)
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", common.ErrValidation, paramName)
	}
	return nil
}

// validateTransactionDraft rejects drafts before any persistence call.
func validateTransactionDraft(draft model.TransactionDraft) error {
	if strings.TrimSpace(draft.Description) == "" {
		return fmt.Errorf("%w: transaction description cannot be empty", common.ErrValidation)
	}
	if draft.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", common.ErrValidation)
	}
	return nil
}

// validateCategoryDraft rejects category drafts with missing or invalid fields.
func validateCategoryDraft(draft model.CategoryDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return fmt.Errorf("%w: category name cannot be empty", common.ErrValidation)
	}
	if draft.SpendingType != "" && !draft.SpendingType.Valid() {
		return fmt.Errorf("%w: unknown spending type %q", common.ErrValidation, draft.SpendingType)
	}
	return nil
}

// validateRulePattern compiles regex patterns at creation time so match
// passes never see a compile error for freshly created rules.
func validateRulePattern(pattern string, isRegex bool) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("%w: rule pattern cannot be empty", common.ErrValidation)
	}
	if isRegex {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidPattern, err)
		}
	}
	return nil
}

// validateRuleDraft rejects rule drafts before any persistence call. The
// category-existence invariant is checked separately against the database.
func validateRuleDraft(draft model.RuleDraft) error {
	if err := validateRulePattern(draft.Pattern, draft.IsRegex); err != nil {
		return err
	}
	if strings.TrimSpace(draft.CategoryID) == "" {
		return fmt.Errorf("%w: rule category is required", common.ErrValidation)
	}
	return nil
}
