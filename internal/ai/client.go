// Package ai provides the external category-suggestion adapter. It is an
// interactive aid only; bulk ingestion never blocks on it.
package ai

import (
	"context"

	"github.com/shopspring/decimal"
)

// Request carries the transaction context for a suggestion call.
type Request struct {
	Description   string
	Details       string
	CategoryNames []string
	Amount        decimal.Decimal
}

// Suggestion is a single category proposal from the model.
type Suggestion struct {
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Client produces category suggestions for a transaction.
type Client interface {
	SuggestCategory(ctx context.Context, req Request) ([]Suggestion, error)
}
