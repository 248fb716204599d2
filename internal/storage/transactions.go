package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pfennig-app/pfennig/internal/common"
	"github.com/pfennig-app/pfennig/internal/model"
)

const transactionColumns = `id, date, description, details, amount,
	is_unexpected, source_file, category_id, created_at, updated_at`

// ListTransactions returns every persisted transaction, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// GetTransaction returns the transaction with the given id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateTransaction persists a draft and returns the full record with
// generated id and timestamps.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, draft model.TransactionDraft) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTransactionDraft(draft); err != nil {
		return nil, err
	}
	if draft.CategoryID != nil {
		if err := s.verifyCategoryExists(ctx, *draft.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	txn := model.Transaction{
		ID:           uuid.NewString(),
		Date:         draft.Date,
		Description:  draft.Description,
		Details:      draft.Details,
		SourceFile:   draft.SourceFile,
		CategoryID:   draft.CategoryID,
		Amount:       draft.Amount,
		IsUnexpected: draft.IsUnexpected,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		txn.ID, txn.Date, txn.Description, txn.Details, txn.Amount.String(),
		txn.IsUnexpected, txn.SourceFile, nullableID(txn.CategoryID),
		txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	slog.Debug("created transaction", "id", txn.ID, "description", txn.Description)
	return &txn, nil
}

// UpdateTransaction applies a patch and returns the updated record.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	current, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := validateTransactionDraft(transactionAsDraft(updated)); err != nil {
		return nil, err
	}
	if updated.CategoryID != nil {
		if err := s.verifyCategoryExists(ctx, *updated.CategoryID); err != nil {
			return nil, err
		}
	}
	updated.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE transactions
		SET date = ?, description = ?, details = ?, amount = ?,
			is_unexpected = ?, source_file = ?, category_id = ?, updated_at = ?
		WHERE id = ?`

	_, err = s.db.ExecContext(ctx, query,
		updated.Date, updated.Description, updated.Details, updated.Amount.String(),
		updated.IsUnexpected, updated.SourceFile, nullableID(updated.CategoryID),
		updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", id, err)
	}

	return &updated, nil
}

// DeleteTransaction removes a transaction permanently.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var txn model.Transaction
	var amount string
	var categoryID sql.NullString

	err := row.Scan(
		&txn.ID, &txn.Date, &txn.Description, &txn.Details, &amount,
		&txn.IsUnexpected, &txn.SourceFile, &categoryID,
		&txn.CreatedAt, &txn.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
	}
	if categoryID.Valid {
		txn.CategoryID = &categoryID.String
	}

	return &txn, nil
}

func transactionAsDraft(txn model.Transaction) model.TransactionDraft {
	return model.TransactionDraft{
		Date:         txn.Date,
		Description:  txn.Description,
		Details:      txn.Details,
		SourceFile:   txn.SourceFile,
		CategoryID:   txn.CategoryID,
		Amount:       txn.Amount,
		IsUnexpected: txn.IsUnexpected,
	}
}

func nullableID(id *string) any {
	if id == nil {
		return nil
	}
	return *id
}
