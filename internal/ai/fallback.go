package ai

import (
	"context"
	"log/slog"
	"strings"
)

// FallbackClient wraps another Client and never fails: when the inner
// client errors, it degrades to a locally computed suggestion so the
// caller's flow is uninterrupted.
type FallbackClient struct {
	inner Client
}

var _ Client = (*FallbackClient)(nil)

// NewFallbackClient wraps inner with local degradation. A nil inner is
// allowed and always produces the local suggestion.
func NewFallbackClient(inner Client) *FallbackClient {
	return &FallbackClient{inner: inner}
}

// SuggestCategory delegates to the wrapped client and falls back to a
// heuristic suggestion on any failure.
func (f *FallbackClient) SuggestCategory(ctx context.Context, req Request) ([]Suggestion, error) {
	if f.inner != nil {
		suggestions, err := f.inner.SuggestCategory(ctx, req)
		if err == nil && len(suggestions) > 0 {
			return suggestions, nil
		}
		if err != nil {
			slog.Warn("suggestion client failed, using local fallback", "error", err)
		}
	}

	return []Suggestion{localSuggestion(req)}, nil
}

// localSuggestion picks the first configured category whose name appears
// in the description, or proposes a generic bucket when nothing matches.
func localSuggestion(req Request) Suggestion {
	desc := strings.ToLower(req.Description)
	for _, name := range req.CategoryNames {
		if name == "" {
			continue
		}
		if strings.Contains(desc, strings.ToLower(name)) {
			return Suggestion{
				Category:   name,
				Confidence: 0.4,
				Reasoning:  "category name appears in the transaction description",
			}
		}
	}

	category := "Other Expenses"
	if req.Amount.IsPositive() {
		category = "Other Income"
	}

	return Suggestion{
		Category:   category,
		Confidence: 0.1,
		Reasoning:  "no configured category matched the description",
	}
}
