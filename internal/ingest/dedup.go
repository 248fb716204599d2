// Package ingest turns parsed drafts into persisted transactions,
// applying duplicate detection and rule-based auto-categorization
// consistently regardless of entry point.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/pfennig-app/pfennig/internal/model"
	"github.com/pfennig-app/pfennig/internal/service"
)

// Detector recognizes already-imported transactions. The duplicate key is
// calendar date (day granularity) plus exact amount; descriptions are
// deliberately excluded, so two same-day, same-amount transactions from
// different merchants collide. That matches the import behavior users
// already rely on.
type Detector struct {
	store service.TransactionStore
}

// NewDetector creates a detector backed by the given store.
func NewDetector(store service.TransactionStore) *Detector {
	return &Detector{store: store}
}

// IsDuplicate reports whether a persisted transaction already exists with
// the candidate's date and amount. It scans the full transaction set; any
// pagination shortcut would risk false negatives. If the store itself
// fails, the detector fails open and allows the write.
func (d *Detector) IsDuplicate(ctx context.Context, draft model.TransactionDraft) bool {
	existing, err := d.store.ListTransactions(ctx)
	if err != nil {
		slog.Warn("duplicate check failed, allowing write", "error", err)
		return false
	}

	for _, txn := range existing {
		if sameDay(txn.Date, draft.Date) && txn.Amount.Equal(draft.Amount) {
			slog.Debug("duplicate transaction detected",
				"existing_id", txn.ID,
				"date", draft.Date.Format(time.DateOnly),
				"amount", draft.Amount.String())
			return true
		}
	}

	return false
}

// sameDay compares two instants at calendar-day granularity.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
