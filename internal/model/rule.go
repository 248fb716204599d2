package model

import "time"

// CategorizationRule maps a description pattern to a category. Pattern is
// either a literal substring or a regular expression source depending on
// IsRegex. Higher priority rules are evaluated first; disabled rules never
// match.
type CategorizationRule struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	Pattern     string
	Description string
	CategoryID  string
	Priority    int
	IsRegex     bool
	IsEnabled   bool
}

// RuleDraft carries the fields for creating a categorization rule.
type RuleDraft struct {
	Pattern     string
	Description string
	CategoryID  string
	Priority    int
	IsRegex     bool
	IsEnabled   bool
}

// RulePatch describes a partial rule update; nil fields are left unchanged.
type RulePatch struct {
	Pattern     *string
	Description *string
	CategoryID  *string
	Priority    *int
	IsRegex     *bool
	IsEnabled   *bool
}

// Apply returns a copy of rule with the patch fields applied.
func (p RulePatch) Apply(rule CategorizationRule) CategorizationRule {
	if p.Pattern != nil {
		rule.Pattern = *p.Pattern
	}
	if p.Description != nil {
		rule.Description = *p.Description
	}
	if p.CategoryID != nil {
		rule.CategoryID = *p.CategoryID
	}
	if p.Priority != nil {
		rule.Priority = *p.Priority
	}
	if p.IsRegex != nil {
		rule.IsRegex = *p.IsRegex
	}
	if p.IsEnabled != nil {
		rule.IsEnabled = *p.IsEnabled
	}
	return rule
}
