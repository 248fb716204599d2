package rule

import (
	"fmt"
	"strings"

	"github.com/pfennig-app/pfennig/internal/model"
)

// maxVerbatimTokens is the description length, in whitespace tokens, up to
// which the whole description is used as the suggested pattern.
const maxVerbatimTokens = 3

// Suggest derives a candidate rule from an already-categorized
// transaction's description. It returns nil when the description is empty
// or no category is given. The result is a draft only; persisting it is a
// separate, user-confirmed create.
//
// Short descriptions are used verbatim. Longer ones are reduced to the
// shorter of the first-two-token and first-three-token prefixes — a
// heuristic for trimming trailing reference numbers, not a semantic
// analysis of the merchant name.
func Suggest(txn model.Transaction, categoryID string) *model.RuleDraft {
	description := strings.TrimSpace(txn.Description)
	if description == "" || categoryID == "" {
		return nil
	}

	tokens := strings.Fields(description)
	pattern := description
	if len(tokens) > maxVerbatimTokens {
		two := strings.Join(tokens[:2], " ")
		three := strings.Join(tokens[:3], " ")
		pattern = three
		if len(two) < len(three) {
			pattern = two
		}
	}

	return &model.RuleDraft{
		Pattern:     pattern,
		IsRegex:     false,
		Description: fmt.Sprintf("Auto-generated rule for %q", description),
		Priority:    0,
		IsEnabled:   true,
		CategoryID:  categoryID,
	}
}
