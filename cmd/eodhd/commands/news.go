package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

var ErrNewsFilterRequired = errors.New("either --symbols or --tag is required")

// NewNewsCommand creates the financial news command
func NewNewsCommand() *cobra.Command {
	var (
		symbols  []string
		tag      string
		from, to string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Show financial news",
		Long:  "Show financial news for one or more symbols, or for a topic tag",
		Example: `  eodhd news --symbols AAPL.US --limit 10
  eodhd news --tag "mergers and acquisitions" --from 2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(symbols) == 0 && tag == "" {
				return ErrNewsFilterRequired
			}

			params := &eodhd.NewsParams{
				Symbols: splitSymbols(symbols),
				Tag:     optionalString(tag),
				Limit:   optionalPositive(limit),
			}

			if offset > 0 {
				params.Offset = eodhd.Some(offset)
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

			articles, err := client.News(cmd.Context(), credential, params)
			if err != nil {
				return fmt.Errorf("failed to fetch news: %w", err)
			}

			return renderOutput(cmd.OutOrStdout(), articles, func(table *tablewriter.Table) error {
				table.Header("Date", "Title", "Symbols", "Polarity", "Link")

				for _, article := range articles {
					polarity := NotAvailable
					if article.Sentiment != nil {
						polarity = formatFloat(article.Sentiment.Polarity)
					}

					_ = table.Append(
						article.Date,
						truncate(article.Title, maxCellWidth),
						strings.Join(article.Symbols, ", "),
						polarity,
						article.Link,
					)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "symbols to filter by (comma-separated)")
	cmd.Flags().StringVar(&tag, "tag", "", "topic tag to filter by")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of articles")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of articles to skip")

	return cmd
}
