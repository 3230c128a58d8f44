package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"stocksentiment/pkg/sentiment"
)

func newAlertsCmd(opts *rootOptions) *cobra.Command {
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage price alerts",
	}
	alertsCmd.AddCommand(newAlertsListCmd(opts))
	alertsCmd.AddCommand(newAlertsSetCmd(opts))
	alertsCmd.AddCommand(newAlertsRemoveCmd(opts))
	alertsCmd.AddCommand(newAlertsCheckCmd(opts))
	return alertsCmd
}

func newAlertsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved price alerts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.open(cmd)
			if err != nil {
				return err
			}
			alerts, err := core.ListPriceAlerts()
			if err != nil {
				return err
			}
			if alerts == nil {
				alerts = []sentiment.PriceAlert{}
			}
			return opts.print(cmd, alerts, func() string {
				return renderAlerts(alerts)
			})
		},
	}
}

func newAlertsSetCmd(opts *rootOptions) *cobra.Command {
	var current float64

	cmd := &cobra.Command{
		Use:   "set EXCHANGE SYMBOL TARGET",
		Short: "Save a price alert, replacing any existing one",
		Long: `set saves a target price for a stock. The alert fires when the price
rises to the target if the target is above --current, and when it falls to
the target otherwise.`,
		Example: "  stocksentiment alerts set NSE TCS 4200 --current 3950",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parsePrice("target", args[2])
			if err != nil {
				return err
			}
			core, err := opts.open(cmd)
			if err != nil {
				return err
			}
			alert, err := core.SetPriceAlert(args[0], args[1], target, current)
			if err != nil {
				return err
			}
			return opts.print(cmd, alert, func() string {
				return successStyle.Render(fmt.Sprintf("✓ alert saved for %s", alert.Key)) + "\n" + renderAlerts([]sentiment.PriceAlert{*alert})
			})
		},
	}
	cmd.Flags().Float64Var(&current, "current", 0, "Current price, decides whether the alert fires above or below the target")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

func newAlertsRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm EXCHANGE SYMBOL",
		Aliases: []string{"remove"},
		Short:   "Remove a price alert",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := core.RemovePriceAlert(args[0], args[1]); err != nil {
				return err
			}
			return opts.print(cmd, map[string]bool{"removed": true}, func() string {
				return successStyle.Render("✓ alert removed")
			})
		},
	}
}

func newAlertsCheckCmd(opts *rootOptions) *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "check EXCHANGE SYMBOL PRICE",
		Short: "Check a price against the saved alert",
		Long: `check compares PRICE with the alert saved for the stock. A fired alert is
removed and its notification text printed.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parsePrice("price", args[2])
			if err != nil {
				return err
			}
			core, err := opts.open(cmd)
			if err != nil {
				return err
			}
			trigger, err := core.CheckPriceAlert(args[0], args[1], currency, price)
			if err != nil {
				return err
			}
			out := struct {
				Triggered bool                    `json:"triggered"`
				Trigger   *sentiment.AlertTrigger `json:"trigger,omitempty"`
			}{Triggered: trigger != nil, Trigger: trigger}
			return opts.print(cmd, out, func() string {
				if trigger == nil {
					return mutedStyle.Render("no alert triggered")
				}
				return renderTrigger(trigger)
			})
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "Currency symbol used in the notification text")
	return cmd
}

func parsePrice(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		e := sentiment.WrapError(sentiment.ErrCodeInvalidInput, fmt.Sprintf("%s must be a number", name), err)
		e.Field = name
		return 0, e
	}
	return v, nil
}
