package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendscope/spendscope/internal/cli"
	"github.com/spendscope/spendscope/internal/engine"
)

func rebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the fingerprint from the full history",
		Long: `Derive a fresh spending fingerprint from every stored record,
discarding the incrementally maintained one. Use this after a bulk
import or whenever incremental drift is suspected.

With --rescore, every record is then rescored against the rebuilt
fingerprint and all alerts are regenerated.`,
		RunE: runRebuild,
	}

	cmd.Flags().Bool("rescore", false, "also rescore all records and regenerate alerts")

	return cmd
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	rescore, _ := cmd.Flags().GetBool("rescore")

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := engine.New(store)

	fp, err := eng.Rebuild(ctx)
	if err != nil {
		return err
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"rebuilt fingerprint from %d records (%d recurring costs)",
		fp.TotalRecords, len(fp.RecurringCosts))))

	if !rescore {
		return nil
	}

	scored, err := eng.RescoreAll(ctx)
	if err != nil {
		return err
	}
	alerts, err := eng.RegenerateAlerts(ctx)
	if err != nil {
		return err
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"rescored %d records, regenerated %d alerts", len(scored), len(alerts))))

	return nil
}
