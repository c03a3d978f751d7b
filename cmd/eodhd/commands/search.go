package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// NewSearchCommand creates the instrument search command
func NewSearchCommand() *cobra.Command {
	var (
		limit      int
		instrument string
		exchange   string
		bondsOnly  bool
	)

	cmd := &cobra.Command{
		Use:     "search QUERY",
		Short:   "Search instruments",
		Long:    "Search stocks, ETFs, funds, bonds and indices by ticker, company name or ISIN",
		Example: "  eodhd search apple --type stock --limit 5",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &eodhd.SearchParams{
				Query:    args[0],
				Limit:    optionalPositive(limit),
				Type:     optionalString(instrument),
				Exchange: optionalString(exchange),
			}

			if bondsOnly {
				params.BondsOnly = eodhd.Some(true)
			}

			client, credential, err := newClient(cmd)
			if err != nil {
				return err
			}

			hits, err := client.Search(cmd.Context(), credential, params)
			if err != nil {
				return fmt.Errorf("failed to search: %w", err)
			}

			return renderOutput(cmd.OutOrStdout(), hits, func(table *tablewriter.Table) error {
				table.Header("Code", "Exchange", "Name", "Type", "Country", "Currency", "ISIN", "Prev Close")

				for _, hit := range hits {
					_ = table.Append(
						hit.Code,
						hit.Exchange,
						truncate(hit.Name, maxCellWidth),
						hit.Type,
						hit.Country,
						hit.Currency,
						orNotAvailable(hit.ISIN),
						formatFloat(hit.PreviousClose),
					)
				}

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results")
	cmd.Flags().StringVar(&instrument, "type", "", "instrument type: all, stock, etf, fund, bond, index, crypto")
	cmd.Flags().StringVar(&exchange, "exchange", "", "restrict to an exchange code, e.g. US")
	cmd.Flags().BoolVar(&bondsOnly, "bonds-only", false, "search bonds only")

	return cmd
}
