package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfennig-app/pfennig/internal/cli"
	"github.com/pfennig-app/pfennig/internal/ingest"
	"github.com/pfennig-app/pfennig/internal/model"
	"github.com/pfennig-app/pfennig/internal/service"
)

func importCmd() *cobra.Command {
	var mapping ingest.ColumnMapping

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from CSV files",
		Long: `Import bank transactions from CSV exports. Columns are located by
header name, so exports from different banks work by pointing the
column flags at the right headers.

Examples:
  # Default column names (date, description, amount)
  pfennig import ~/Downloads/checking.csv

  # A bank with its own header names and day-first dates
  pfennig import --date-column "Buchungstag" --description-column "Verwendungszweck" \
    --amount-column "Betrag" --day-first ~/Downloads/giro.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, mapping)
		},
	}

	cmd.Flags().StringVar(&mapping.DateColumn, "date-column", "date", "Header of the date column")
	cmd.Flags().StringVar(&mapping.DescriptionColumn, "description-column", "description", "Header of the description column")
	cmd.Flags().StringVar(&mapping.DetailsColumn, "details-column", "", "Header of an optional details column")
	cmd.Flags().StringVar(&mapping.AmountColumn, "amount-column", "amount", "Header of the amount column")
	cmd.Flags().BoolVar(&mapping.DayFirst, "day-first", false, "Parse ambiguous dates as day/month/year")

	return cmd
}

func runImport(cmd *cobra.Command, args []string, mapping ingest.ColumnMapping) error {
	ctx := cmd.Context()

	files, err := expandFileArgs(args)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var drafts []model.TransactionDraft
	rowErrorCount := 0
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("failed to open file", "file", path, "error", err)
			continue
		}

		fileDrafts, rowErrors, err := ingest.ReadCSVDrafts(f, mapping, filepath.Base(path))
		_ = f.Close()
		if err != nil {
			slog.Error("failed to read CSV file", "file", path, "error", err)
			continue
		}

		for _, rowErr := range rowErrors {
			slog.Warn("skipping unparseable row", "file", filepath.Base(path), "error", rowErr)
		}
		rowErrorCount += len(rowErrors)
		drafts = append(drafts, fileDrafts...)
	}

	if len(drafts) == 0 {
		return fmt.Errorf("no importable transactions found")
	}

	result := ingestWithProgress(ctx, store, drafts)
	printImportSummary(result, rowErrorCount)
	return nil
}

// ingestWithProgress runs the pipeline over drafts in batch-sized chunks
// so the progress bar advances as work completes.
func ingestWithProgress(ctx context.Context, store service.Storage, drafts []model.TransactionDraft) ingest.BatchResult {
	pipeline := newPipeline(store)
	bar := newImportBar(len(drafts))

	chunkSize := viper.GetInt("import.batch_size")
	if chunkSize <= 0 {
		chunkSize = ingest.DefaultBatchSize
	}

	var result ingest.BatchResult
	for start := 0; start < len(drafts); start += chunkSize {
		end := start + chunkSize
		if end > len(drafts) {
			end = len(drafts)
		}

		chunk := pipeline.IngestBatch(ctx, drafts[start:end])
		result.Created = append(result.Created, chunk.Created...)
		result.AutoCategorizedDescriptions = append(result.AutoCategorizedDescriptions, chunk.AutoCategorizedDescriptions...)
		result.SkippedCount += chunk.SkippedCount
		result.FailedCount += chunk.FailedCount

		_ = bar.Add(end - start)
	}

	return result
}

func printImportSummary(result ingest.BatchResult, rowErrorCount int) {
	fmt.Println()
	fmt.Println(cli.FormatTitle("Import summary"))
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d transactions imported", len(result.Created))))
	if len(result.AutoCategorizedDescriptions) > 0 {
		fmt.Printf("  %d auto-categorized by rules\n", len(result.AutoCategorizedDescriptions))
	}
	if result.SkippedCount > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d duplicates skipped", result.SkippedCount)))
	}
	if result.FailedCount > 0 {
		fmt.Println(cli.FormatError(fmt.Sprintf("%d transactions failed to save", result.FailedCount)))
	}
	if rowErrorCount > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d rows could not be parsed", rowErrorCount)))
	}
}

// expandFileArgs resolves glob patterns and plain paths into a file list.
func expandFileArgs(args []string) ([]string, error) {
	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("no files match pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func newImportBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing transactions..."),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
