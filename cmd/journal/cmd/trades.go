package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trade-journal-go/internal/date"
	"trade-journal-go/internal/ledger"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/valuation"
)

// exitFlags are shared by close and partial.
type exitFlags struct {
	when        string
	fee         float64
	feeType     string
	notes       string
	screenshots []string
}

func (f *exitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.when, "date", "", "exit date, YYYY-MM-DD or RFC 3339 (default now)")
	cmd.Flags().Float64Var(&f.fee, "fee", 0, "exit fee")
	cmd.Flags().StringVar(&f.feeType, "fee-type", "percentage", "fee type: percentage or fixed")
	cmd.Flags().StringVar(&f.notes, "notes", "", "notes")
	cmd.Flags().StringSliceVar(&f.screenshots, "screenshot", nil, "screenshot reference (repeatable)")
}

func (f *exitFlags) options(cmd *cobra.Command) ([]ledger.ExitOption, error) {
	var opts []ledger.ExitOption
	at, err := parseWhen(f.when)
	if err != nil {
		return nil, fmt.Errorf("--date: %w", err)
	}
	if !at.IsZero() {
		opts = append(opts, ledger.WithExitDate(at))
	}
	if cmd.Flags().Changed("fee") {
		kind, err := parseFeeType(f.feeType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ledger.WithFees(f.fee, kind))
	}
	if f.notes != "" {
		opts = append(opts, ledger.WithNotes(f.notes))
	}
	if len(f.screenshots) > 0 {
		opts = append(opts, ledger.WithScreenshots(f.screenshots...))
	}
	return opts, nil
}

func parseFeeType(s string) (models.FeeType, error) {
	switch kind := models.FeeType(strings.ToLower(s)); kind {
	case "", models.FeePercentage:
		return models.FeePercentage, nil
	case models.FeeFixed:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown fee type %q", s)
	}
}

func newAddCmd(e *env) *cobra.Command {
	var (
		stop        float64
		direction   string
		dollars     bool
		fee         float64
		feeType     string
		when        string
		notes       string
		screenshots []string
	)
	cmd := &cobra.Command{
		Use:   "add <asset> <quantity> [entry-price]",
		Short: "Record a new open trade",
		Long: `Record a new open trade. When the entry price is omitted the current
market price is looked up.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseFloatArg(args[1], "quantity")
			if err != nil {
				return err
			}
			var entry float64
			if len(args) == 3 {
				if entry, err = parseFloatArg(args[2], "entry price"); err != nil {
					return err
				}
			} else {
				price, err := e.prices.LookupPrice(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if price == nil {
					return fmt.Errorf("no market price for %s, pass the entry price", args[0])
				}
				entry = *price
			}
			dir, ok := models.ParseDirection(direction)
			if !ok {
				return fmt.Errorf("unknown direction %q", direction)
			}
			kind, err := parseFeeType(feeType)
			if err != nil {
				return err
			}
			at, err := parseWhen(when)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}

			data := ledger.NewTrade{
				Asset:        args[0],
				Direction:    dir,
				EntryPrice:   entry,
				Quantity:     qty,
				QuantityType: models.QuantityCoins,
				StopLoss:     stop,
				EntryDate:    at,
				Fees:         fee,
				FeesType:     kind,
				Notes:        notes,
				Screenshots:  screenshots,
			}
			if dollars {
				data.QuantityType = models.QuantityDollars
			}
			t := e.journal.AddTrade(data)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s @ %s\n", t.ID, t.Asset, formatQuantity(t.Quantity), formatPrice(t.EntryPrice))
			return nil
		},
	}
	cmd.Flags().Float64Var(&stop, "stop", 0, "stop loss price")
	cmd.Flags().StringVar(&direction, "direction", "", "long or short (default: inferred from the asset label)")
	cmd.Flags().BoolVar(&dollars, "dollars", false, "quantity is a dollar amount rather than coins")
	cmd.Flags().Float64Var(&fee, "fee", 0, "fee applied to the trade")
	cmd.Flags().StringVar(&feeType, "fee-type", "percentage", "fee type: percentage or fixed")
	cmd.Flags().StringVar(&when, "date", "", "entry date, YYYY-MM-DD or RFC 3339 (default now)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringSliceVar(&screenshots, "screenshot", nil, "screenshot reference (repeatable)")
	return cmd
}

func newCloseCmd(e *env) *cobra.Command {
	var f exitFlags
	cmd := &cobra.Command{
		Use:   "close <trade-id> <exit-price>",
		Short: "Close a trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseFloatArg(args[1], "exit price")
			if err != nil {
				return err
			}
			opts, err := f.options(cmd)
			if err != nil {
				return err
			}
			t, err := e.journal.CloseTrade(args[0], price, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed %s %s: %s\n", t.ID, t.Asset, signedMoney(netProfit(&t), e.quote()))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newPartialCmd(e *env) *cobra.Command {
	var f exitFlags
	cmd := &cobra.Command{
		Use:   "partial <trade-id> <exit-price> <quantity>",
		Short: "Exit part of an open trade",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseFloatArg(args[1], "exit price")
			if err != nil {
				return err
			}
			qty, err := parseFloatArg(args[2], "quantity")
			if err != nil {
				return err
			}
			opts, err := f.options(cmd)
			if err != nil {
				return err
			}
			t, err := e.journal.ClosePartialTrade(args[0], price, qty, opts...)
			if err != nil {
				return err
			}
			status := "remaining " + formatQuantity(t.Remaining())
			if !t.IsActive {
				status = "closed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Partial exit on %s %s: %s, %s\n", t.ID, t.Asset, signedMoney(netProfit(&t), e.quote()), status)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newStopCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <trade-id> <price>",
		Short: "Move a trade's stop loss",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop, err := parseFloatArg(args[1], "stop price")
			if err != nil {
				return err
			}
			t, err := e.journal.UpdateStopLoss(args[0], stop)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stop for %s %s set to %s\n", t.ID, t.Asset, formatPrice(t.StopLoss))
			return nil
		},
	}
}

func newTrailCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trail",
		Short: "Manage trailing stops",
	}

	var fixed bool
	set := &cobra.Command{
		Use:   "set <trade-id> <amount>",
		Short: "Turn on a trailing stop (percentage unless --fixed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseFloatArg(args[1], "amount")
			if err != nil {
				return err
			}
			kind := models.TrailingPercentage
			if fixed {
				kind = models.TrailingFixed
			}
			t, err := e.journal.SetTrailingStop(args[0], amount, kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trailing stop for %s %s at %s\n", t.ID, t.Asset, formatPrice(t.StopLoss))
			return nil
		},
	}
	set.Flags().BoolVar(&fixed, "fixed", false, "amount is a price offset rather than a percentage")

	advance := &cobra.Command{
		Use:   "advance <trade-id> <price>",
		Short: "Ratchet a trailing stop with a new observed price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseFloatArg(args[1], "price")
			if err != nil {
				return err
			}
			t, err := e.journal.AdvanceTrailingStop(args[0], price)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stop for %s %s now %s\n", t.ID, t.Asset, formatPrice(t.StopLoss))
			return nil
		},
	}

	cmd.AddCommand(set, advance)
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.journal.DeleteTrade(args[0]) {
				return fmt.Errorf("trade %s: %w", args[0], ledger.ErrTradeNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newListCmd(e *env) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var trades []models.Trade
			for _, t := range e.journal.Trades() {
				switch status {
				case "open":
					if !t.IsActive {
						continue
					}
				case "closed":
					if t.IsActive {
						continue
					}
				case "", "all":
				default:
					return fmt.Errorf("unknown status %q", status)
				}
				trades = append(trades, t)
			}
			writeTrades(cmd.OutOrStdout(), trades, e.quote())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "open, closed or all")
	return cmd
}

func writeTrades(out io.Writer, trades []models.Trade, quote string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tASSET\tSIDE\tENTRY DATE\tENTRY\tQTY\tSTOP\tSTATUS\tREALIZED\tR")
	for i := range trades {
		t := &trades[i]
		side := "long"
		if valuation.IsShort(t) {
			side = "short"
		}
		qty := formatQuantity(t.Remaining())
		if t.QuantityType == models.QuantityDollars {
			qty = formatMoney(t.Remaining(), quote)
		}
		status := "open"
		if !t.IsActive {
			status = "closed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Asset, side, date.FromTime(t.EntryDate), formatPrice(t.EntryPrice), qty,
			formatPrice(t.StopLoss), status, signedMoney(netProfit(t), quote),
			decimal2(valuation.RMultiple(t)),
		)
	}
	_ = tw.Flush()
}

func netProfit(t *models.Trade) float64 {
	var net float64
	for _, leg := range valuation.Legs(t) {
		net += leg.Net()
	}
	return net
}
