package model

import "time"

// SpendingType classifies how discretionary spending in a category is.
type SpendingType string

// Spending type constants.
const (
	SpendingEssential     SpendingType = "essential"
	SpendingDiscretionary SpendingType = "discretionary"
	SpendingMixed         SpendingType = "mixed"
	SpendingUnclassified  SpendingType = "unclassified"
)

// Valid reports whether s is a known spending type.
func (s SpendingType) Valid() bool {
	switch s {
	case SpendingEssential, SpendingDiscretionary, SpendingMixed, SpendingUnclassified:
		return true
	}
	return false
}

// Category represents a user-defined transaction category.
type Category struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ID           string
	Name         string
	Color        string
	Description  string
	SpendingType SpendingType
}

// CategoryDraft carries the fields for creating a category. An empty
// SpendingType defaults to unclassified.
type CategoryDraft struct {
	Name         string
	Color        string
	Description  string
	SpendingType SpendingType
}

// CategoryPatch describes a partial category update; nil fields are left
// unchanged.
type CategoryPatch struct {
	Name         *string
	Color        *string
	Description  *string
	SpendingType *SpendingType
}

// Apply returns a copy of cat with the patch fields applied.
func (p CategoryPatch) Apply(cat Category) Category {
	if p.Name != nil {
		cat.Name = *p.Name
	}
	if p.Color != nil {
		cat.Color = *p.Color
	}
	if p.Description != nil {
		cat.Description = *p.Description
	}
	if p.SpendingType != nil {
		cat.SpendingType = *p.SpendingType
	}
	return cat
}
