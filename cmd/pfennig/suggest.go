package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfennig-app/pfennig/internal/ai"
	"github.com/pfennig-app/pfennig/internal/cli"
	"github.com/pfennig-app/pfennig/internal/model"
)

func suggestCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "suggest <transaction-id>",
		Short: "Suggest a category for a transaction",
		Long: `Ask the configured model for category suggestions for one
transaction. When the model is unreachable a local heuristic answers
instead, so this command always produces a suggestion.

Requires GEMINI_API_KEY in the environment for model-backed answers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransaction(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}

			categories, err := store.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			names := make([]string, 0, len(categories))
			for _, cat := range categories {
				names = append(names, cat.Name)
			}

			var inner ai.Client
			gemini, err := ai.NewGeminiClient(ctx, viper.GetString("ai.model"), viper.GetDuration("ai.timeout"))
			if err == nil {
				inner = gemini
			}
			client := ai.NewFallbackClient(inner)

			suggestions, err := client.SuggestCategory(ctx, ai.Request{
				Description:   txn.Description,
				Details:       txn.Details,
				CategoryNames: names,
				Amount:        txn.Amount,
			})
			if err != nil {
				return fmt.Errorf("failed to get suggestions: %w", err)
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Suggestions for %q", txn.Description)))
			for i, s := range suggestions {
				fmt.Printf("  %d. %s (%.0f%%)", i+1, s.Category, s.Confidence*100)
				if s.Reasoning != "" {
					fmt.Printf(" %s", cli.SubtleStyle.Render("- "+s.Reasoning))
				}
				fmt.Println()
			}

			if !apply || len(suggestions) == 0 {
				return nil
			}

			category, err := store.GetCategoryByName(ctx, suggestions[0].Category)
			if err != nil {
				return fmt.Errorf("failed to look up suggested category: %w", err)
			}
			if category == nil {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Top suggestion %q is not an existing category, nothing applied", suggestions[0].Category)))
				return nil
			}

			if _, err := store.UpdateTransaction(ctx, txn.ID, model.TransactionPatch{
				CategoryID: &model.NullableString{Value: category.ID, Valid: true},
			}); err != nil {
				return fmt.Errorf("failed to apply suggestion: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Categorized as %q", category.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the top suggestion when it names an existing category")

	return cmd
}
