package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trade-journal-go/internal/date"
	"trade-journal-go/internal/exchange"
)

func newSettingsCmd(e *env) *cobra.Command {
	var startDate string
	var balance float64
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the portfolio start date and initial balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := e.journal.Settings()
			changed := false
			if cmd.Flags().Changed("start-date") {
				d, err := date.Parse(startDate)
				if err != nil {
					return err
				}
				s.StartDate = d
				changed = true
			}
			if cmd.Flags().Changed("initial-balance") {
				s.InitialBalance = balance
				changed = true
			}
			if changed {
				if err := e.journal.UpdateSettings(s); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Start date: %s\nInitial balance: %s\n", s.StartDate, formatMoney(s.InitialBalance, e.quote()))
			return nil
		},
	}
	cmd.Flags().StringVar(&startDate, "start-date", "", "first day of the journal, YYYY-MM-DD")
	cmd.Flags().Float64Var(&balance, "initial-balance", 0, "balance on the start date")
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write trades and settings to a JSON or YAML file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := bundleFormat(args[0], format)
			if err != nil {
				return err
			}
			bundle := e.journal.Export(map[string]any{"quoteCurrency": e.quote()})

			if args[0] == "-" {
				return exchange.Encode(cmd.OutOrStdout(), bundle, f)
			}
			out, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := exchange.Encode(out, bundle, f); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to write export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d trades to %s\n", len(bundle.Trades), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default: from the file extension)")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge trades and settings from a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := bundleFormat(args[0], format)
			if err != nil {
				return err
			}
			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer in.Close()

			bundle, err := exchange.Decode(in, f)
			if err != nil {
				return err
			}
			added := e.journal.Import(bundle)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d trades\n", added, len(bundle.Trades))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default: from the file extension)")
	return cmd
}

func bundleFormat(path, flag string) (exchange.Format, error) {
	if flag != "" {
		return exchange.ParseFormat(flag)
	}
	if path == "-" {
		return exchange.JSON, nil
	}
	return exchange.FormatFromPath(path)
}

func newPriceCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "price <asset>",
		Short: "Look up the current market price of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := e.prices.LookupPrice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if price == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no market price\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], formatPrice(*price))
			return nil
		},
	}
}
