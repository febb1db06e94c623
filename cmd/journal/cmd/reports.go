package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trade-journal-go/internal/date"
)

func periodFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVar(p, "period", "all", "all, month, quarter or year")
}

func newValueCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "value",
		Short: "Show the current portfolio value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := e.journal.Settings()
			v := e.journal.CurrentPortfolioValue()
			fmt.Fprintf(cmd.OutOrStdout(), "Portfolio value: %s (%s since %s)\n",
				formatMoney(v, e.quote()), signedMoney(v-s.InitialBalance, e.quote()), s.StartDate)
			return nil
		},
	}
}

func newPerformanceCmd(e *env) *cobra.Command {
	var period string
	var last int
	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Print the daily equity curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := date.ParsePeriod(period)
			if err != nil {
				return err
			}
			series := e.journal.Performance(p)
			if last > 0 && len(series) > last {
				series = series[len(series)-last:]
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tVALUE\tPROFIT\tTRADES")
			for _, pt := range series {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", pt.Date, formatMoney(pt.PortfolioValue, e.quote()),
					signedMoney(pt.CumulativeProfit, e.quote()), pt.TradeCount)
			}
			return tw.Flush()
		},
	}
	periodFlag(cmd, &period)
	cmd.Flags().IntVar(&last, "last", 0, "only print the last N days")
	return cmd
}

func newCompareCmd(e *env) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare trading profit with a 10% monthly buy-and-hold benchmark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := date.ParsePeriod(period)
			if err != nil {
				return err
			}
			c := e.journal.Comparison(p)
			q := e.quote()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Period\t%s\n", c.Period)
			fmt.Fprintf(tw, "Since\t%s\n", c.ActualStartDate)
			if !c.IsFullPeriod {
				fmt.Fprintf(tw, "\t(journal starts after %s)\n", c.BaselineDate)
			}
			fmt.Fprintf(tw, "Start balance\t%s\n", formatMoney(c.StartBalance, q))
			fmt.Fprintf(tw, "Trading profit\t%s\n", signedMoney(c.TradingProfit, q))
			fmt.Fprintf(tw, "Benchmark profit\t%s\t(%s months)\n", signedMoney(c.HoldingProfit, q), decimal2(c.MonthsPassed))
			fmt.Fprintf(tw, "Difference\t%s\t%s\n", signedMoney(c.Difference, q), formatPercent(c.PercentageDifference))
			return tw.Flush()
		},
	}
	periodFlag(cmd, &period)
	return cmd
}

func newStatsCmd(e *env) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show win rate and realized totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := date.ParsePeriod(period)
			if err != nil {
				return err
			}
			st := e.journal.Statistics(p)
			q := e.quote()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Trades\t%d (%d open, %d closed)\n", st.TotalTrades, st.OpenTrades, st.ClosedTrades)
			fmt.Fprintf(tw, "Win rate\t%s (%d/%d)\n", formatPercent(st.WinRate), st.Wins, st.ClosedTrades)
			fmt.Fprintf(tw, "Realized\t%s\n", signedMoney(st.TotalRealized, q))
			fmt.Fprintf(tw, "Average win\t%s\n", signedMoney(st.AverageWin, q))
			fmt.Fprintf(tw, "Average loss\t%s\n", signedMoney(st.AverageLoss, q))
			fmt.Fprintf(tw, "Average R\t%s\n", decimal2(st.AverageRMultiple))
			return tw.Flush()
		},
	}
	periodFlag(cmd, &period)
	return cmd
}
