package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spendscope/spendscope/internal/cli"
	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/engine"
	"github.com/spendscope/spendscope/internal/model"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record and score a single payment",
		Long: `Record one payment, score it against your spending fingerprint, and
fold it into the fingerprint. Any alerts it raises are stored and
printed immediately.`,
		RunE: runAdd,
	}

	cmd.Flags().String("merchant", "", "merchant or payee name (required)")
	cmd.Flags().Float64("amount", 0, "payment amount in rupees (required)")
	cmd.Flags().String("time", "", "payment time (RFC3339 or '2006-01-02 15:04:05', default: now)")
	cmd.Flags().String("mode", "card", "payment mode (transfer, cash, card, subscription)")
	cmd.Flags().String("category", "", "category override (detected from merchant when omitted)")
	cmd.Flags().String("note", "", "free-form note")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	merchant, _ := cmd.Flags().GetString("merchant")
	amount, _ := cmd.Flags().GetFloat64("amount")
	rawTime, _ := cmd.Flags().GetString("time")
	mode, _ := cmd.Flags().GetString("mode")
	category, _ := cmd.Flags().GetString("category")
	note, _ := cmd.Flags().GetString("note")

	if amount < 0 {
		return common.NewUserError("amount must not be negative", common.ErrInvalidRecord)
	}

	ts := time.Now()
	if rawTime != "" {
		parsed, err := parseTimeFlag(rawTime)
		if err != nil {
			return err
		}
		ts = parsed
	}

	rec := model.Record{
		Merchant:  merchant,
		Amount:    amount,
		Timestamp: ts,
		Mode:      model.ParsePaymentMode(mode),
		Note:      note,
	}
	if category != "" {
		cat, ok := model.ParseCategory(category)
		if !ok {
			return common.NewUserError(fmt.Sprintf("unknown category %q", category), common.ErrInvalidRecord)
		}
		rec.Category = cat
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := engine.New(store).ProcessRecord(ctx, rec)
	if err != nil {
		return err
	}

	cli.RenderProcessResult(os.Stdout, result.Record, result.Alerts)
	return nil
}

func parseTimeFlag(raw string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, common.NewUserError(
		fmt.Sprintf("could not parse time %q", raw), common.ErrInvalidRecord)
}
