package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pfennig-app/pfennig/internal/cli"
	"github.com/pfennig-app/pfennig/internal/model"
	"github.com/pfennig-app/pfennig/internal/rule"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long: `Manage the pattern rules that assign categories to imported
transactions. Rules match on the transaction description, highest
priority first.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(updateRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(testRuleCmd())
	cmd.AddCommand(suggestRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	var categoryRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var rules []model.CategorizationRule
			if categoryRef != "" {
				categoryID, err := resolveCategoryRef(ctx, store, categoryRef)
				if err != nil {
					return err
				}
				rules, err = store.GetRulesByCategory(ctx, categoryID)
				if err != nil {
					return fmt.Errorf("failed to list rules: %w", err)
				}
			} else {
				rules, err = store.ListRules(ctx)
				if err != nil {
					return fmt.Errorf("failed to list rules: %w", err)
				}
			}

			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No rules yet. Use 'pfennig rules add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Pattern"),
				cli.BoldStyle.Render("Kind"),
				cli.BoldStyle.Render("Category"),
				cli.BoldStyle.Render("Priority"),
				cli.BoldStyle.Render("Enabled"))

			for _, r := range rules {
				kind := "literal"
				if r.IsRegex {
					kind = "regex"
				}
				enabled := cli.FormatSuccess("yes")
				if !r.IsEnabled {
					enabled = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.Pattern, kind, r.CategoryID, r.Priority, enabled)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&categoryRef, "category", "", "Only rules for this category (name or id)")

	return cmd
}

func addRuleCmd() *cobra.Command {
	var (
		description string
		priority    int
		isRegex     bool
		disabled    bool
	)

	cmd := &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Add a categorization rule",
		Long: `Create a rule matching transaction descriptions against a pattern.
By default the pattern is a case-insensitive literal substring; pass
--regex for a regular expression.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categoryID, err := resolveCategoryRef(ctx, store, args[1])
			if err != nil {
				return err
			}

			created, err := store.CreateRule(ctx, model.RuleDraft{
				Pattern:     args[0],
				Description: description,
				CategoryID:  categoryID,
				Priority:    priority,
				IsRegex:     isRegex,
				IsEnabled:   !disabled,
			})
			if err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %s matching %q", created.ID, created.Pattern)))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Human-readable rule description")
	cmd.Flags().IntVar(&priority, "priority", 0, "Match priority (higher wins)")
	cmd.Flags().BoolVar(&isRegex, "regex", false, "Treat pattern as a regular expression")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the rule disabled")

	return cmd
}

func updateRuleCmd() *cobra.Command {
	var (
		pattern     string
		description string
		categoryRef string
		priority    int
		isRegex     bool
		enabled     bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var patch model.RulePatch
			if cmd.Flags().Changed("pattern") {
				patch.Pattern = &pattern
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("category") {
				categoryID, err := resolveCategoryRef(ctx, store, categoryRef)
				if err != nil {
					return err
				}
				patch.CategoryID = &categoryID
			}
			if cmd.Flags().Changed("priority") {
				patch.Priority = &priority
			}
			if cmd.Flags().Changed("regex") {
				patch.IsRegex = &isRegex
			}
			if cmd.Flags().Changed("enabled") {
				patch.IsEnabled = &enabled
			}

			if patch == (model.RulePatch{}) {
				return fmt.Errorf("nothing to update: pass at least one flag")
			}

			updated, err := store.UpdateRule(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated rule %s", updated.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "New pattern")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&categoryRef, "category", "", "New category (name or id)")
	cmd.Flags().IntVar(&priority, "priority", 0, "New priority")
	cmd.Flags().BoolVar(&isRegex, "regex", false, "Whether the pattern is a regular expression")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Whether the rule is enabled")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted rule %s", args[0])))
			return nil
		},
	}
}

func testRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <description>",
		Short: "Show which rule matches a description",
		Long:  `Run a description through the enabled rules and report the first match.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matcher, err := rule.NewEngine(store).Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			categoryID, ok := matcher.Match(args[0])
			if !ok {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("No rule matches %q", args[0])))
				return nil
			}

			category, err := store.GetCategory(ctx, categoryID)
			if err != nil {
				return fmt.Errorf("failed to load matched category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Matches category %q (%s)", category.Name, category.ID)))
			return nil
		},
	}
}

func suggestRuleCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "suggest <transaction-id> <category>",
		Short: "Suggest a rule from a categorized transaction",
		Long: `Build a rule draft from a transaction's description so similar
transactions get the same category automatically. Pass --save to
persist it immediately.`,
		Args: cobra.ExactArgs(2),
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

			categoryID, err := resolveCategoryRef(ctx, store, args[1])
			if err != nil {
				return err
			}

			draft := rule.Suggest(*txn, categoryID)
			if draft == nil {
				fmt.Println(cli.FormatWarning("Transaction description is empty, nothing to suggest"))
				return nil
			}

			fmt.Printf("Suggested pattern: %q (category %s)\n", draft.Pattern, draft.CategoryID)

			if !save {
				fmt.Println(cli.SubtleStyle.Render("Pass --save to persist this rule."))
				return nil
			}

			created, err := store.CreateRule(ctx, *draft)
			if err != nil {
				return fmt.Errorf("failed to save suggested rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved rule %s", created.ID)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Persist the suggested rule")

	return cmd
}
