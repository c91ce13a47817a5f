package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spendscope/spendscope/internal/cli"
	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List stored payment records",
		RunE:  runRecords,
	}

	cmd.Flags().String("from", "", "only records on or after this date (2006-01-02)")
	cmd.Flags().String("to", "", "only records before this date (2006-01-02)")
	cmd.Flags().String("category", "", "only records in this category")
	cmd.Flags().Int("limit", 0, "maximum number of records to show")

	return cmd
}

func runRecords(cmd *cobra.Command, _ []string) error {
	fromRaw, _ := cmd.Flags().GetString("from")
	toRaw, _ := cmd.Flags().GetString("to")
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")

	var filter service.RecordFilter
	filter.Limit = limit

	if fromRaw != "" {
		from, err := time.ParseInLocation("2006-01-02", fromRaw, time.Local)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("could not parse --from %q", fromRaw), err)
		}
		filter.StartDate = &from
	}
	if toRaw != "" {
		to, err := time.ParseInLocation("2006-01-02", toRaw, time.Local)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("could not parse --to %q", toRaw), err)
		}
		filter.EndDate = &to
	}
	if category != "" {
		cat, ok := model.ParseCategory(category)
		if !ok {
			return common.NewUserError(fmt.Sprintf("unknown category %q", category), common.ErrInvalidRecord)
		}
		filter.Category = &cat
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.GetRecords(ctx, filter)
	if err != nil {
		return err
	}

	cli.RenderRecords(os.Stdout, records)
	return nil
}
