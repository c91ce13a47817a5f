package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/spendscope/spendscope/internal/cli"
	"github.com/spendscope/spendscope/internal/engine"
	"github.com/spendscope/spendscope/internal/ingest"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.csv>",
		Short: "Import and score a CSV export of payments",
		Long: `Parse a CSV export and run every row through the scoring pipeline in
file order. Each row is scored against the rows before it plus your
existing history, so the same file always produces the same results.

Rows that fail to parse are reported and skipped; they never abort the
import. Re-importing a file is safe: records are deduplicated by
content hash.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("dry-run", false, "parse and report without writing anything")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	result, err := ingest.ParseCSV(f)
	if err != nil {
		return err
	}

	for _, rowErr := range result.Errors {
		fmt.Fprintln(os.Stderr, cli.FormatWarning("skipped "+rowErr.Error()))
	}

	if dryRun {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("dry run: %d rows parsed, %d skipped",
			len(result.Records), len(result.Errors))))
		return nil
	}
	if len(result.Records) == 0 {
		fmt.Println(cli.FormatWarning("no importable rows"))
		return nil
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	bar := progressbar.NewOptions(len(result.Records),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scoring payments..."),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(os.Stderr); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	eng := engine.New(store)
	eng.Progress = func(done, _ int) {
		_ = bar.Set(done)
	}

	batch, err := eng.ProcessBatch(ctx, result.Records)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d payments, raised %d alerts",
		len(batch.Records), len(batch.Alerts))))
	for _, a := range batch.Alerts {
		fmt.Println(cli.FormatWarning(string(a.Type) + ": " + a.Reason))
	}
	return nil
}
