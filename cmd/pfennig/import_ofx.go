package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pfennig-app/pfennig/internal/ingest"
	"github.com/pfennig-app/pfennig/internal/model"
)

func importOFXCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX files exported from your bank.

Examples:
  # Import a single file
  pfennig import-ofx ~/Downloads/checking_jan.qfx

  # Import everything in a download folder
  pfennig import-ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}
}

func runImportOFX(cmd *cobra.Command, args []string) error {
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
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("failed to open file", "file", path, "error", err)
			continue
		}

		fileDrafts, err := ingest.ReadOFXDrafts(f, filepath.Base(path))
		_ = f.Close()
		if err != nil {
			slog.Error("failed to parse OFX file", "file", path, "error", err)
			continue
		}

		if len(fileDrafts) == 0 {
			slog.Warn("no transactions found in file", "file", filepath.Base(path))
			continue
		}
		drafts = append(drafts, fileDrafts...)
	}

	if len(drafts) == 0 {
		return fmt.Errorf("no importable transactions found")
	}

	result := ingestWithProgress(ctx, store, drafts)
	printImportSummary(result, 0)
	return nil
}
