package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/eodhd/internal/constants"
	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

type quotesOptions struct {
	limit       int
	offset      int
	all         bool
	chunkSize   int
	concurrency int
}

// NewQuotesCommand creates the delayed extended quotes command
func NewQuotesCommand() *cobra.Command {
	opts := &quotesOptions{}

	cmd := &cobra.Command{
		Use:     "quotes SYMBOL...",
		Aliases: []string{"q"},
		Short:   "Show delayed extended quotes for US symbols",
		Long: `Show delayed extended quotes for one or more US symbols.

Symbols may be separate arguments or comma-joined. More symbols than fit on
one page are fetched as concurrent chunks; --all follows page[offset] until
the server has nothing more.`,
		Example: `  eodhd quotes AAPL.US TSLA.US
  eodhd quotes AAPL.US,TSLA.US --limit 50 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := splitSymbols(args)
			if len(symbols) == 0 {
				return ErrNoSymbols
			}

			client, credential, err := newClient(cmd)
			if err != nil {
				return err
			}

			quotes, data, err := fetchQuotes(cmd.Context(), client, credential, symbols, opts)
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), data, func(table *tablewriter.Table) error {
				table.Header("Symbol", "Last", "Change", "Change %", "Volume", "Bid", "Ask", "Last Trade")

				for _, quote := range quotes {
					_ = table.Append(
						quote.Symbol,
						formatFloat(quote.LastTradePrice),
						formatFloat(quote.Change),
						formatFloat(quote.ChangePercent),
						strconv.FormatInt(quote.Volume, 10),
						formatFloat(quote.BidPrice),
						formatFloat(quote.AskPrice),
						formatUnixMillis(quote.LastTradeTime),
					)
				}

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "page size (page[limit], at most 100)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "page offset (page[offset])")
	cmd.Flags().BoolVar(&opts.all, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", constants.QuotesMaxPageLimit, "symbols per request when splitting long lists")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", constants.DefaultConcurrencyLimit, "concurrent requests when splitting long lists")

	return cmd
}

// fetchQuotes returns the quotes to tabulate and the value to print as json/yaml.
func fetchQuotes(ctx context.Context, client eodhd.Client, credential eodhd.Credential, symbols []string, opts *quotesOptions) ([]eodhd.ExtendedQuote, any, error) {
	switch {
	case opts.all:
		quotes, err := eodhd.FetchAllPages(ctx,
			eodhd.ExtendedQuotesFetcher(client, credential, eodhd.Strings(symbols...)),
			&eodhd.PaginationOptions{PageSize: opts.pageSize()})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch quotes: %w", err)
		}

		return quotes, quotes, nil
	case len(symbols) > opts.effectiveChunkSize():
		quotes, err := fetchQuoteChunks(ctx, client, credential, symbols, opts)
		if err != nil {
			return nil, nil, err
		}

		return quotes, quotes, nil
	default:
		page := eodhd.Page{Limit: optionalPositive(opts.limit)}
		if opts.offset > 0 {
			page.Offset = eodhd.Some(opts.offset)
		}

		envelope, err := client.USExtendedQuotes(ctx, credential, &eodhd.USExtendedQuotesParams{
			Symbols: eodhd.Strings(symbols...),
			Page:    page,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch quotes: %w", err)
		}

		return envelope.Data, envelope, nil
	}
}

func fetchQuoteChunks(ctx context.Context, client eodhd.Client, credential eodhd.Credential, symbols []string, opts *quotesOptions) ([]eodhd.ExtendedQuote, error) {
	executor := eodhd.NewBatchExecutor(client, opts.concurrency)

	results, err := executor.Execute(ctx, credential, eodhd.ExtendedQuotesOperations(symbols, opts.effectiveChunkSize()))
	if err != nil {
		return nil, err
	}

	quotes := make([]eodhd.ExtendedQuote, 0, len(symbols))

	for _, result := range results {
		if result.Error != nil {
			return nil, fmt.Errorf("failed to fetch quotes (%s): %w", result.ID, result.Error)
		}

		envelope, err := eodhd.DecodeData[eodhd.ExtendedQuote](result.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to decode quotes (%s): %w", result.ID, err)
		}

		quotes = append(quotes, envelope.Data...)
	}

	return quotes, nil
}

func (o *quotesOptions) pageSize() int {
	if o.limit > 0 {
		return o.limit
	}

	return constants.QuotesMaxPageLimit
}

func (o *quotesOptions) effectiveChunkSize() int {
	if o.chunkSize <= 0 || o.chunkSize > constants.QuotesMaxPageLimit {
		return constants.QuotesMaxPageLimit
	}

	return o.chunkSize
}
