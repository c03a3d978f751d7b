package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// NewRealTimeCommand creates the live quotes command
func NewRealTimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "realtime SYMBOL...",
		Aliases: []string{"rt"},
		Short:   "Show live (delayed) prices",
		Long:    "Show the latest OHLCV snapshot for one or more symbols in a single request",
		Example: "  eodhd realtime AAPL.US VTI.US EUR.FOREX",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := splitSymbols(args)
			if len(symbols) == 0 {
				return ErrNoSymbols
			}

			client, credential, err := newClient(cmd)
			if err != nil {
				return err
			}

			quotes, err := client.RealTime(cmd.Context(), credential, &eodhd.RealTimeParams{
				Symbol:     symbols[0],
				Additional: symbols[1:],
			})
			if err != nil {
				return fmt.Errorf("failed to fetch live prices: %w", err)
			}

			return renderOutput(cmd.OutOrStdout(), quotes, func(table *tablewriter.Table) error {
				table.Header("Code", "Time", "Open", "High", "Low", "Close", "Change", "Change %", "Volume")

				for _, quote := range quotes {
					_ = table.Append(
						quote.Code,
						formatUnix(quote.Timestamp),
						formatFloat(quote.Open),
						formatFloat(quote.High),
						formatFloat(quote.Low),
						formatFloat(quote.Close),
						formatFloat(quote.Change),
						formatFloat(quote.ChangePercent),
						strconv.FormatInt(quote.Volume, 10),
					)
				}

				return nil
			})
		},
	}
}
