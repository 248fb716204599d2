// Package model defines the core data structures for the pfennig ledger.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single persisted ledger entry. Amounts are
// signed: negative is an expense, non-negative is income.
type Transaction struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Date         time.Time
	ID           string
	Description  string
	Details      string
	SourceFile   string
	CategoryID   *string
	Amount       decimal.Decimal
	IsUnexpected bool
}

// TransactionDraft is an in-memory transaction-like value not yet
// persisted, produced by CSV/OFX parsing or manual entry.
type TransactionDraft struct {
	Date         time.Time
	Description  string
	Details      string
	SourceFile   string
	CategoryID   *string
	Amount       decimal.Decimal
	IsUnexpected bool
}

// Transaction returns a transaction-shaped view of the draft for rule
// matching. The view has no ID or timestamps.
func (d TransactionDraft) Transaction() Transaction {
	return Transaction{
		Date:         d.Date,
		Description:  d.Description,
		Details:      d.Details,
		SourceFile:   d.SourceFile,
		CategoryID:   d.CategoryID,
		Amount:       d.Amount,
		IsUnexpected: d.IsUnexpected,
	}
}

// NullableString distinguishes "set to this value" from "clear" in patch
// payloads.
type NullableString struct {
	Value string
	Valid bool
}

// TransactionPatch describes a partial update. Nil fields are left
// unchanged; a CategoryID with Valid=false clears the category.
type TransactionPatch struct {
	Date         *time.Time
	Description  *string
	Details      *string
	Amount       *decimal.Decimal
	IsUnexpected *bool
	CategoryID   *NullableString
}

// ClearsCategory reports whether the patch explicitly sets the category
// to null.
func (p TransactionPatch) ClearsCategory() bool {
	return p.CategoryID != nil && !p.CategoryID.Valid
}

// Apply returns a copy of txn with the patch fields applied.
func (p TransactionPatch) Apply(txn Transaction) Transaction {
	if p.Date != nil {
		txn.Date = *p.Date
	}
	if p.Description != nil {
		txn.Description = *p.Description
	}
	if p.Details != nil {
		txn.Details = *p.Details
	}
	if p.Amount != nil {
		txn.Amount = *p.Amount
	}
	if p.IsUnexpected != nil {
		txn.IsUnexpected = *p.IsUnexpected
	}
	if p.CategoryID != nil {
		if p.CategoryID.Valid {
			v := p.CategoryID.Value
			txn.CategoryID = &v
		} else {
			txn.CategoryID = nil
		}
	}
	return txn
}
