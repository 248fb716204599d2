package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pfennig-app/pfennig/internal/model"
	"github.com/pfennig-app/pfennig/internal/rule"
	"github.com/pfennig-app/pfennig/internal/service"
)

// DefaultBatchSize bounds the number of concurrent store calls issued per
// batch. It is a tuning knob, not a correctness requirement.
const DefaultBatchSize = 20

// Pipeline orchestrates draft-to-transaction conversion: duplicate
// skipping, rule application, and persistence.
type Pipeline struct {
	store     service.TransactionStore
	detector  *Detector
	engine    *rule.Engine
	batchSize int
}

// NewPipeline creates a pipeline. A batchSize of zero or less selects
// DefaultBatchSize.
func NewPipeline(store service.TransactionStore, detector *Detector, engine *rule.Engine, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		store:     store,
		detector:  detector,
		engine:    engine,
		batchSize: batchSize,
	}
}

// Outcome is the result of ingesting a single draft. Skipped outcomes are
// sentinels for recognized duplicates: no transaction was persisted and
// the Transaction field is nil.
type Outcome struct {
	Transaction     *model.Transaction
	Skipped         bool
	AutoCategorized bool
}

// BatchResult summarizes a batch ingestion. Created preserves the input
// order of the drafts that were persisted.
type BatchResult struct {
	Created                     []model.Transaction
	AutoCategorizedDescriptions []string
	SkippedCount                int
	FailedCount                 int
}

// IngestOne converts a single draft into a persisted transaction,
// skipping duplicates and auto-categorizing uncategorized drafts from the
// current rule set.
func (p *Pipeline) IngestOne(ctx context.Context, draft model.TransactionDraft) (Outcome, error) {
	matcher, err := p.engine.Snapshot(ctx)
	if err != nil {
		// Rule loading failure degrades to uncategorized ingestion
		// rather than blocking the import.
		slog.Warn("rule snapshot failed, ingesting without auto-categorization", "error", err)
		matcher = nil
	}
	return p.ingestOne(ctx, draft, matcher)
}

func (p *Pipeline) ingestOne(ctx context.Context, draft model.TransactionDraft, matcher *rule.Matcher) (Outcome, error) {
	if p.detector.IsDuplicate(ctx, draft) {
		return Outcome{Skipped: true}, nil
	}

	autoCategorized := false
	if draft.CategoryID == nil && matcher != nil {
		if categoryID, ok := matcher.Match(draft.Description); ok {
			draft.CategoryID = &categoryID
			autoCategorized = true
		}
	}

	txn, err := p.store.CreateTransaction(ctx, draft)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to persist draft %q: %w", draft.Description, err)
	}

	return Outcome{Transaction: txn, AutoCategorized: autoCategorized}, nil
}

// IngestBatch processes drafts in input order, in fixed-size batches of
// concurrent store calls. A single draft's failure never aborts its
// siblings; failed rows are dropped with a logged error, not retried.
func (p *Pipeline) IngestBatch(ctx context.Context, drafts []model.TransactionDraft) BatchResult {
	matcher, err := p.engine.Snapshot(ctx)
	if err != nil {
		slog.Warn("rule snapshot failed, ingesting without auto-categorization", "error", err)
		matcher = nil
	}

	type indexed struct {
		outcome Outcome
		err     error
	}
	results := make([]indexed, len(drafts))

	for start := 0; start < len(drafts); start += p.batchSize {
		end := min(start+p.batchSize, len(drafts))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcome, err := p.ingestOne(ctx, drafts[i], matcher)
				results[i] = indexed{outcome: outcome, err: err}
			}(i)
		}
		wg.Wait()
	}

	var result BatchResult
	for i, r := range results {
		switch {
		case r.err != nil:
			slog.Error("failed to ingest draft",
				"index", i, "description", drafts[i].Description, "error", r.err)
			result.FailedCount++
		case r.outcome.Skipped:
			result.SkippedCount++
		default:
			result.Created = append(result.Created, *r.outcome.Transaction)
			if r.outcome.AutoCategorized {
				result.AutoCategorizedDescriptions = append(
					result.AutoCategorizedDescriptions, r.outcome.Transaction.Description)
			}
		}
	}

	return result
}

// Update applies a patch to a persisted transaction. When the patch
// explicitly clears the category, the rule set is re-evaluated against
// the patched transaction in the same call, so a transaction is never
// left silently uncategorized while a rule would apply.
func (p *Pipeline) Update(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	if patch.ClearsCategory() {
		current, err := p.store.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}

		view := patch.Apply(*current)
		categoryID, matchErr := p.engine.Match(ctx, view)
		switch {
		case matchErr != nil:
			slog.Warn("rule re-resolution failed, leaving category cleared",
				"transaction_id", id, "error", matchErr)
		case categoryID != "":
			patch.CategoryID = &model.NullableString{Value: categoryID, Valid: true}
		}
	}

	return p.store.UpdateTransaction(ctx, id, patch)
}
