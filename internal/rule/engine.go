// Package rule implements pattern-based transaction categorization.
package rule

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pfennig-app/pfennig/internal/model"
	"github.com/pfennig-app/pfennig/internal/service"
)

// pattern is the compiled form of a rule's matching test.
type pattern interface {
	matches(description string) bool
}

// literalPattern matches by case-insensitive substring containment. The
// stored value is already lowercased.
type literalPattern string

func (p literalPattern) matches(description string) bool {
	return strings.Contains(strings.ToLower(description), string(p))
}

// regexPattern matches by unanchored regular expression search.
type regexPattern struct {
	re *regexp.Regexp
}

func (p regexPattern) matches(description string) bool {
	return p.re.MatchString(description)
}

// compiledRule pairs a rule with its compiled pattern.
type compiledRule struct {
	pattern pattern
	rule    model.CategorizationRule
}

// Matcher evaluates descriptions against a fixed, ordered rule set.
// Patterns are compiled once at construction; rules whose stored regex no
// longer compiles are skipped with a logged diagnostic rather than
// aborting the whole match pass.
type Matcher struct {
	compiled []compiledRule
}

// NewMatcher compiles the given rules. The rules must already be in match
// order (priority descending, insertion order as tie-break); the matcher
// preserves that order.
func NewMatcher(rules []model.CategorizationRule) *Matcher {
	m := &Matcher{compiled: make([]compiledRule, 0, len(rules))}

	for _, r := range rules {
		if !r.IsEnabled {
			continue
		}

		var p pattern
		if r.IsRegex {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				slog.Warn("skipping rule with invalid regex pattern",
					"rule_id", r.ID, "pattern", r.Pattern, "error", err)
				continue
			}
			p = regexPattern{re: re}
		} else {
			p = literalPattern(strings.ToLower(r.Pattern))
		}

		m.compiled = append(m.compiled, compiledRule{pattern: p, rule: r})
	}

	return m
}

// Match returns the category id of the first rule whose pattern matches
// the description, and whether any rule matched.
func (m *Matcher) Match(description string) (string, bool) {
	for _, c := range m.compiled {
		if c.pattern.matches(description) {
			return c.rule.CategoryID, true
		}
	}
	return "", false
}

// Len returns the number of compiled, matchable rules.
func (m *Matcher) Len() int {
	return len(m.compiled)
}

// Engine decides which category (if any) a transaction should receive
// based on the stored rules. Matching is a pure read; the engine never
// invents a category.
type Engine struct {
	store service.RuleStore
}

// NewEngine creates an engine backed by the given rule store.
func NewEngine(store service.RuleStore) *Engine {
	return &Engine{store: store}
}

// Snapshot loads the enabled rules and compiles them into a matcher.
// Batch callers use one snapshot across many transactions so rules are
// loaded and compiled once.
func (e *Engine) Snapshot(ctx context.Context) (*Matcher, error) {
	rules, err := e.store.ListEnabledRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return NewMatcher(rules), nil
}

// Match evaluates the transaction against a fresh snapshot of the stored
// rules. An empty category id means no rule matched.
func (e *Engine) Match(ctx context.Context, txn model.Transaction) (string, error) {
	m, err := e.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	categoryID, _ := m.Match(txn.Description)
	return categoryID, nil
}
