package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/spendscope/spendscope/internal/cli"
	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

func chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a PNG bar chart of spending by category",
		RunE:  runChart,
	}

	cmd.Flags().String("out", "spending.png", "output PNG path")
	cmd.Flags().Int("days", 30, "trailing window in days")

	return cmd
}

func runChart(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("out")
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		return common.NewUserError("--days must be positive", common.ErrInvalidConfig)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	from := time.Now().AddDate(0, 0, -days)
	records, err := store.GetRecords(ctx, service.RecordFilter{StartDate: &from})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return common.NewUserError("no records in the selected window", common.ErrEmptyInput)
	}

	totals := make(map[model.Category]float64)
	for _, rec := range records {
		totals[rec.Category] += rec.Amount
	}

	bars := make([]chart.Value, 0, len(totals))
	for cat, total := range totals {
		bars = append(bars, chart.Value{Label: string(cat), Value: total})
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Value > bars[j].Value
	})

	barChart := chart.BarChart{
		Title: fmt.Sprintf("Spending by category, last %d days", days),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Width:    960,
		Height:   480,
		BarWidth: 60,
		Bars:     bars,
	}

	if dir := filepath.Dir(out); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer func() { _ = f.Close() }()

	if err := barChart.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	fmt.Println(cli.FormatSuccess("chart written to " + out))
	return nil
}
