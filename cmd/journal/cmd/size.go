package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/risk"
)

// riskFlags describe the setup around the solved unknown.
type riskFlags struct {
	short   bool
	dollars bool
	fee     float64
	feeType string
}

func (f *riskFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.short, "short", false, "short position")
	cmd.Flags().BoolVar(&f.dollars, "dollars", false, "size in dollars rather than coins")
	cmd.Flags().Float64Var(&f.fee, "fee", 0, "fee applied to the position")
	cmd.Flags().StringVar(&f.feeType, "fee-type", "percentage", "fee type: percentage or fixed")
}

func (f *riskFlags) inputs(entry float64) (risk.Inputs, error) {
	kind, err := parseFeeType(f.feeType)
	if err != nil {
		return risk.Inputs{}, err
	}
	in := risk.Inputs{
		Entry:        entry,
		QuantityType: models.QuantityCoins,
		Short:        f.short,
		Fee:          f.fee,
		FeeType:      kind,
	}
	if f.dollars {
		in.QuantityType = models.QuantityDollars
	}
	return in, nil
}

func (f *riskFlags) size(q float64, quote string) string {
	if f.dollars {
		return formatMoney(q, quote)
	}
	return formatQuantity(q)
}

func newSizeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Risk-based position sizing",
	}

	var posFlags riskFlags
	var riskPct float64
	position := &cobra.Command{
		Use:   "position <entry> <stop>",
		Short: "Position size risking --risk percent of the portfolio",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := entryStopInputs(&posFlags, args)
			if err != nil {
				return err
			}
			in.Quantity = e.journal.PositionSize(in, riskPct)
			printSizing(cmd, e, &posFlags, in)
			return nil
		},
	}
	posFlags.register(position)
	position.Flags().Float64Var(&riskPct, "risk", 1, "percent of the portfolio to risk")

	var dollarFlags riskFlags
	dollar := &cobra.Command{
		Use:   "dollar <entry> <stop> <dollar-risk>",
		Short: "Position size losing exactly <dollar-risk> at the stop",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := entryStopInputs(&dollarFlags, args[:2])
			if err != nil {
				return err
			}
			dollars, err := parseFloatArg(args[2], "dollar risk")
			if err != nil {
				return err
			}
			in.Quantity = e.journal.PositionForDollarRisk(in, dollars)
			printSizing(cmd, e, &dollarFlags, in)
			return nil
		},
	}
	dollarFlags.register(dollar)

	var stopFlags riskFlags
	var stopRisk float64
	stop := &cobra.Command{
		Use:   "stop <entry> <quantity>",
		Short: "Stop loss placing --risk percent of the portfolio at risk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseFloatArg(args[0], "entry")
			if err != nil {
				return err
			}
			in, err := stopFlags.inputs(entry)
			if err != nil {
				return err
			}
			if in.Quantity, err = parseFloatArg(args[1], "quantity"); err != nil {
				return err
			}
			in.Stop = e.journal.StopLoss(in, stopRisk)
			printSizing(cmd, e, &stopFlags, in)
			return nil
		},
	}
	stopFlags.register(stop)
	stop.Flags().Float64Var(&stopRisk, "risk", 1, "percent of the portfolio to risk")

	cmd.AddCommand(position, dollar, stop)
	return cmd
}

func entryStopInputs(f *riskFlags, args []string) (risk.Inputs, error) {
	entry, err := parseFloatArg(args[0], "entry")
	if err != nil {
		return risk.Inputs{}, err
	}
	in, err := f.inputs(entry)
	if err != nil {
		return in, err
	}
	in.Stop, err = parseFloatArg(args[1], "stop")
	return in, err
}

func printSizing(cmd *cobra.Command, e *env, f *riskFlags, in risk.Inputs) {
	out := cmd.OutOrStdout()
	q := e.quote()
	fmt.Fprintf(out, "Entry %s, stop %s, size %s\n", formatPrice(in.Entry), formatPrice(in.Stop), f.size(in.Quantity, q))
	fmt.Fprintf(out, "Risk %s (%s of %s)\n", formatMoney(risk.RiskDollars(in), q),
		formatPercent(e.journal.RiskPercent(in)), formatMoney(e.journal.CurrentPortfolioValue(), q))
}
