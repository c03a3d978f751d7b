package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// NewEODCommand creates the end-of-day prices command
func NewEODCommand() *cobra.Command {
	var from, to, period, order string

	cmd := &cobra.Command{
		Use:   "eod SYMBOL",
		Short: "Show end-of-day prices",
		Long:  "Show end-of-day historical prices for a symbol such as MCD.US",
		Example: `  eodhd eod MCD.US --from 2024-01-01 --to 2024-01-31
  eodhd eod MCD.US --period w --order d`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &eodhd.EODParams{
				Symbol: args[0],
				Period: optionalString(period),
				Order:  optionalString(order),
			}

			var err error

			params.From, err = parseDate(eodhd.ParamFrom, from)
			if err != nil {
				return err
			}

			params.To, err = parseDate(eodhd.ParamTo, to)
			if err != nil {
				return err
			}

			client, credential, err := newClient(cmd)
			if err != nil {
				return err
			}

			bars, err := client.EOD(cmd.Context(), credential, params)
			if err != nil {
				return fmt.Errorf("failed to fetch end-of-day prices: %w", err)
			}

			return renderOutput(cmd.OutOrStdout(), bars, func(table *tablewriter.Table) error {
				table.Header("Date", "Open", "High", "Low", "Close", "Adj Close", "Volume")

				for _, bar := range bars {
					_ = table.Append(
						bar.Date,
						formatFloat(bar.Open),
						formatFloat(bar.High),
						formatFloat(bar.Low),
						formatFloat(bar.Close),
						formatFloat(bar.AdjustedClose),
						strconv.FormatInt(bar.Volume, 10),
					)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&period, "period", "", "bar period: d, w or m")
	cmd.Flags().StringVar(&order, "order", "", "sort order: a or d")

	return cmd
}
