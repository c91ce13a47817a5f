package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spendscope/spendscope/internal/cli"
	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/engine"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending totals, burn rate and recurring load",
		Long: `Summarize the stored history: 7 and 30 day totals, per-category
totals, daily burn rate, and the monthly recurring load.

Pass --balance to also get runway (days remaining at the current burn
rate) and a safe-to-spend figure after fixed costs.`,
		RunE: runSummary,
	}

	cmd.Flags().Float64("balance", 0, "current account balance for runway projection")

	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	var balance *float64
	if cmd.Flags().Changed("balance") {
		b, _ := cmd.Flags().GetFloat64("balance")
		if b < 0 {
			return common.NewUserError("balance must not be negative", common.ErrInvalidConfig)
		}
		balance = &b
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summary, err := engine.New(store).Summarize(ctx, balance)
	if err != nil {
		return err
	}

	cli.RenderSummary(os.Stdout, summary)
	return nil
}
