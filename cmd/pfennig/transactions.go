package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pfennig-app/pfennig/internal/cli"
	"github.com/pfennig-app/pfennig/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Manage ledger transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transactions, err := store.ListTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(transactions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions yet. Use 'pfennig import' or 'pfennig tx add'."))
				return nil
			}

			if limit > 0 && len(transactions) > limit {
				transactions = transactions[:limit]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Date"),
				cli.BoldStyle.Render("Amount"),
				cli.BoldStyle.Render("Category"),
				cli.BoldStyle.Render("Description"))

			for _, txn := range transactions {
				category := cli.SubtleStyle.Render("(uncategorized)")
				if txn.CategoryID != nil {
					category = *txn.CategoryID
				}
				amount := txn.Amount.StringFixed(2)
				if txn.Amount.IsNegative() {
					amount = cli.ErrorStyle.Render(amount)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					txn.ID, txn.Date.Format("2006-01-02"), amount, category, txn.Description)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many transactions")

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		dateStr     string
		details     string
		categoryRef string
		unexpected  bool
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Add a transaction manually",
		Long: `Record a single transaction. The amount is signed: negative for
expenses, positive for income. Without --category the rule engine
assigns one when a rule matches.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			date := time.Now()
			if dateStr != "" {
				date, err = time.Parse(time.DateOnly, dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
				}
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			draft := model.TransactionDraft{
				Date:         date,
				Description:  args[0],
				Details:      details,
				Amount:       amount,
				IsUnexpected: unexpected,
			}

			if categoryRef != "" {
				categoryID, err := resolveCategoryRef(ctx, store, categoryRef)
				if err != nil {
					return err
				}
				draft.CategoryID = &categoryID
			}

			outcome, err := newPipeline(store).IngestOne(ctx, draft)
			if err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			if outcome.Skipped {
				fmt.Println(cli.FormatWarning("Skipped: looks like a duplicate of an existing transaction"))
				return nil
			}

			msg := fmt.Sprintf("Recorded transaction %s", outcome.Transaction.ID)
			if outcome.AutoCategorized {
				msg += fmt.Sprintf(" (auto-categorized as %s)", *outcome.Transaction.CategoryID)
			}
			fmt.Println(cli.FormatSuccess(msg))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&details, "details", "", "Additional details")
	cmd.Flags().StringVar(&categoryRef, "category", "", "Category (name or id)")
	cmd.Flags().BoolVar(&unexpected, "unexpected", false, "Flag as unexpected spending")

	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var (
		dateStr       string
		description   string
		details       string
		amountStr     string
		categoryRef   string
		clearCategory bool
		unexpected    bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction",
		Long: `Apply a partial update to a transaction. Clearing the category with
--clear-category re-runs the rule engine, so a matching rule may
immediately assign a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if clearCategory && cmd.Flags().Changed("category") {
				return fmt.Errorf("--category and --clear-category are mutually exclusive")
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var patch model.TransactionPatch
			if cmd.Flags().Changed("date") {
				date, err := time.Parse(time.DateOnly, dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
				}
				patch.Date = &date
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("details") {
				patch.Details = &details
			}
			if cmd.Flags().Changed("amount") {
				amount, err := decimal.NewFromString(amountStr)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amountStr, err)
				}
				patch.Amount = &amount
			}
			if cmd.Flags().Changed("unexpected") {
				patch.IsUnexpected = &unexpected
			}
			if clearCategory {
				patch.CategoryID = &model.NullableString{}
			} else if cmd.Flags().Changed("category") {
				categoryID, err := resolveCategoryRef(ctx, store, categoryRef)
				if err != nil {
					return err
				}
				patch.CategoryID = &model.NullableString{Value: categoryID, Valid: true}
			}

			updated, err := newPipeline(store).Update(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			msg := fmt.Sprintf("Updated transaction %s", updated.ID)
			if clearCategory && updated.CategoryID != nil {
				msg += fmt.Sprintf(" (rules re-assigned category %s)", *updated.CategoryID)
			}
			fmt.Println(cli.FormatSuccess(msg))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "New date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&details, "details", "", "New details")
	cmd.Flags().StringVar(&amountStr, "amount", "", "New amount")
	cmd.Flags().StringVar(&categoryRef, "category", "", "New category (name or id)")
	cmd.Flags().BoolVar(&clearCategory, "clear-category", false, "Clear the category and re-run the rules")
	cmd.Flags().BoolVar(&unexpected, "unexpected", false, "Flag as unexpected spending")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %s", args[0])))
			return nil
		},
	}
}
