package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/eodhd/internal/http"
	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// Client implements the eodhd.Client interface.
type Client struct {
	httpClient *http.Client
	registry   *eodhd.Registry
}

var _ eodhd.Client = (*Client)(nil)

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *eodhd.Config) []http.Option {
	httpOpts := []http.Option{
		http.WithRetryConfig(config.MaxAttempts, config.RetryWaitMin, config.RetryWaitMax),
		http.WithTimeout(config.HTTPTimeout),
		http.WithUserAgent(config.UserAgent),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.Transport != nil {
		httpOpts = append(httpOpts, http.WithTransport(config.Transport))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	return httpOpts
}

// New creates a client from config. Zero config fields take their defaults.
func New(config *eodhd.Config) (*Client, error) {
	if config == nil {
		return nil, eodhd.ErrConfigRequired
	}

	resolved := config.WithDefaults()

	err := resolved.Validate()
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: http.NewClient(resolved.BaseURL, createHTTPClientOptions(resolved)...),
		registry:   resolved.Registry,
	}, nil
}

// Endpoints implements eodhd.Client.Endpoints.
func (c *Client) Endpoints() []*eodhd.Endpoint {
	return c.registry.List()
}

// Call implements eodhd.Client.Call. It runs encode, build, dispatch and
// decode in that order; any stage failing stops the call.
func (c *Client) Call(ctx context.Context, credential eodhd.Credential, name string, args *eodhd.Args) (*eodhd.Result, error) {
	endpoint, err := c.registry.Lookup(name)
	if err != nil {
		return nil, &eodhd.Error{Kind: eodhd.KindValidation, Op: name, Message: "unknown endpoint", Err: err}
	}

	params, err := eodhd.Encode(endpoint, args)
	if err != nil {
		return nil, err
	}

	desc, err := eodhd.BuildRequest(endpoint, credential, params)
	if err != nil {
		return nil, err
	}

	raw, err := c.httpClient.Do(ctx, desc)
	if err != nil {
		return nil, err
	}

	result, err := eodhd.Decode(raw, endpoint.Shape)
	if err != nil {
		if apiErr, ok := eodhd.AsError(err); ok {
			apiErr.Op = endpoint.Name
			apiErr.Status = raw.StatusCode
			apiErr.Attempts = raw.Attempts
		}

		return nil, err
	}

	return result, nil
}

// callList runs an endpoint whose bare body is a list, or a single object.
func callList[T any](ctx context.Context, c *Client, credential eodhd.Credential, name string, params eodhd.Arguer) ([]T, error) {
	result, err := c.Call(ctx, credential, name, params.Args())
	if err != nil {
		return nil, err
	}

	items, err := eodhd.DecodeList[T](result)
	if err != nil {
		return nil, tagOp(err, name)
	}

	return items, nil
}

// callBare runs an endpoint whose bare body decodes into a single T.
func callBare[T any](ctx context.Context, c *Client, credential eodhd.Credential, name string, params eodhd.Arguer) (T, error) {
	var zero T

	result, err := c.Call(ctx, credential, name, params.Args())
	if err != nil {
		return zero, err
	}

	value, err := eodhd.DecodeBare[T](result)
	if err != nil {
		return zero, tagOp(err, name)
	}

	return value, nil
}

func tagOp(err error, op string) error {
	if apiErr, ok := eodhd.AsError(err); ok && apiErr.Op == "" {
		apiErr.Op = op
	}

	return err
}

// USExtendedQuotes implements eodhd.Client.USExtendedQuotes.
func (c *Client) USExtendedQuotes(ctx context.Context, credential eodhd.Credential, params *eodhd.USExtendedQuotesParams) (*eodhd.ListEnvelope[eodhd.ExtendedQuote], error) {
	result, err := c.Call(ctx, credential, eodhd.EndpointUSExtendedQuotes, params.Args())
	if err != nil {
		return nil, err
	}

	quotes, err := eodhd.DecodeData[eodhd.ExtendedQuote](result)
	if err != nil {
		return nil, tagOp(err, eodhd.EndpointUSExtendedQuotes)
	}

	return quotes, nil
}

// EOD implements eodhd.Client.EOD.
func (c *Client) EOD(ctx context.Context, credential eodhd.Credential, params *eodhd.EODParams) ([]eodhd.EODBar, error) {
	return callList[eodhd.EODBar](ctx, c, credential, eodhd.EndpointEOD, params)
}

// RealTime implements eodhd.Client.RealTime.
func (c *Client) RealTime(ctx context.Context, credential eodhd.Credential, params *eodhd.RealTimeParams) ([]eodhd.RealTimeQuote, error) {
	return callList[eodhd.RealTimeQuote](ctx, c, credential, eodhd.EndpointRealTime, params)
}

// Intraday implements eodhd.Client.Intraday.
func (c *Client) Intraday(ctx context.Context, credential eodhd.Credential, params *eodhd.IntradayParams) ([]eodhd.IntradayBar, error) {
	return callList[eodhd.IntradayBar](ctx, c, credential, eodhd.EndpointIntraday, params)
}

// Fundamentals implements eodhd.Client.Fundamentals.
func (c *Client) Fundamentals(ctx context.Context, credential eodhd.Credential, params *eodhd.FundamentalsParams) (eodhd.Fundamentals, error) {
	return callBare[eodhd.Fundamentals](ctx, c, credential, eodhd.EndpointFundamentals, params)
}

// Exchanges implements eodhd.Client.Exchanges.
func (c *Client) Exchanges(ctx context.Context, credential eodhd.Credential) ([]eodhd.Exchange, error) {
	return callList[eodhd.Exchange](ctx, c, credential, eodhd.EndpointExchanges, noParams{})
}

// ExchangeSymbols implements eodhd.Client.ExchangeSymbols.
func (c *Client) ExchangeSymbols(ctx context.Context, credential eodhd.Credential, params *eodhd.ExchangeSymbolsParams) ([]eodhd.ExchangeSymbol, error) {
	return callList[eodhd.ExchangeSymbol](ctx, c, credential, eodhd.EndpointExchangeSymbols, params)
}

// Dividends implements eodhd.Client.Dividends.
func (c *Client) Dividends(ctx context.Context, credential eodhd.Credential, params *eodhd.HistoryParams) ([]eodhd.Dividend, error) {
	return callList[eodhd.Dividend](ctx, c, credential, eodhd.EndpointDividends, params)
}

// Splits implements eodhd.Client.Splits.
func (c *Client) Splits(ctx context.Context, credential eodhd.Credential, params *eodhd.HistoryParams) ([]eodhd.Split, error) {
	return callList[eodhd.Split](ctx, c, credential, eodhd.EndpointSplits, params)
}

// Search implements eodhd.Client.Search.
func (c *Client) Search(ctx context.Context, credential eodhd.Credential, params *eodhd.SearchParams) ([]eodhd.SearchHit, error) {
	return callList[eodhd.SearchHit](ctx, c, credential, eodhd.EndpointSearch, params)
}

// News implements eodhd.Client.News.
func (c *Client) News(ctx context.Context, credential eodhd.Credential, params *eodhd.NewsParams) ([]eodhd.NewsArticle, error) {
	return callList[eodhd.NewsArticle](ctx, c, credential, eodhd.EndpointNews, params)
}

// EarningsCalendar implements eodhd.Client.EarningsCalendar.
func (c *Client) EarningsCalendar(ctx context.Context, credential eodhd.Credential, params *eodhd.EarningsCalendarParams) (*eodhd.EarningsCalendar, error) {
	calendar, err := callBare[eodhd.EarningsCalendar](ctx, c, credential, eodhd.EndpointEarningsCalendar, params)
	if err != nil {
		return nil, err
	}

	return &calendar, nil
}

// String describes the client without revealing any credential.
func (c *Client) String() string {
	return fmt.Sprintf("eodhd client (%s, %d endpoints)", c.httpClient, len(c.registry.List()))
}

type noParams struct{}

func (noParams) Args() *eodhd.Args {
	return eodhd.NewArgs()
}

// loggerAdapter adapts eodhd.Logger to http.Logger.
type loggerAdapter struct {
	logger eodhd.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
