package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spendscope/spendscope/internal/cli"
	"github.com/spendscope/spendscope/internal/common"
	"github.com/spendscope/spendscope/internal/model"
	"github.com/spendscope/spendscope/internal/service"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List and manage alerts",
	}

	cmd.AddCommand(alertsListCmd())
	cmd.AddCommand(alertsShowCmd())
	cmd.AddCommand(alertsReadCmd())
	cmd.AddCommand(alertsDismissCmd())

	return cmd
}

func alertsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		RunE:  runAlertsList,
	}

	cmd.Flags().String("level", "", "only alerts at this risk level (amber, red)")
	cmd.Flags().Bool("unread", false, "only unread alerts")
	cmd.Flags().Bool("all", false, "include dismissed alerts")

	return cmd
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	levelRaw, _ := cmd.Flags().GetString("level")
	unread, _ := cmd.Flags().GetBool("unread")
	all, _ := cmd.Flags().GetBool("all")

	filter := service.AlertFilter{UnreadOnly: unread, IncludeDismissed: all}
	if levelRaw != "" {
		level := model.RiskLevel(strings.ToUpper(strings.TrimSpace(levelRaw)))
		switch level {
		case model.RiskGreen, model.RiskAmber, model.RiskRed:
			filter.Level = &level
		default:
			return common.NewUserError(fmt.Sprintf("unknown risk level %q", levelRaw), common.ErrInvalidConfig)
		}
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	alerts, err := store.GetAlerts(ctx, filter)
	if err != nil {
		return err
	}

	cli.RenderAlerts(os.Stdout, alerts)
	return nil
}

func alertsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <alert-id>",
		Short: "Show one alert with its suggested action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			alerts, err := store.GetAlerts(ctx, service.AlertFilter{IncludeDismissed: true})
			if err != nil {
				return err
			}
			for _, a := range alerts {
				if a.ID == args[0] {
					cli.RenderAlertDetail(os.Stdout, a)
					return nil
				}
			}
			return common.NewUserError(fmt.Sprintf("no alert with id %q", args[0]), common.ErrNotFound)
		},
	}
}

func alertsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <alert-id>",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.MarkAlertRead(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("marked read"))
			return nil
		},
	}
}

func alertsDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <alert-id>",
		Short: "Dismiss an alert so it no longer appears in listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DismissAlert(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("dismissed"))
			return nil
		},
	}
}
