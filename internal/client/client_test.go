package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/eodhd/internal/client"
	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

const token eodhd.Credential = "demo-token"

// countingTransport records every request that reaches the network.
type countingTransport struct {
	calls   atomic.Int32
	mutex   sync.Mutex
	queries []string
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)

	c.mutex.Lock()
	c.queries = append(c.queries, req.URL.RawQuery)
	c.mutex.Unlock()

	return http.DefaultTransport.RoundTrip(req)
}

func (c *countingTransport) lastQuery() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.queries) == 0 {
		return ""
	}

	return c.queries[len(c.queries)-1]
}

// fixture serves canned bodies keyed by path.
func fixture(t *testing.T, bodies map[string]string) (*Client, *countingTransport) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, ok := bodies[request.URL.Path]
		if !ok {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"Ticker Not Found."}`))

			return
		}

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	transport := &countingTransport{}

	client, err := New(&eodhd.Config{
		BaseURL:      server.URL,
		Transport:    transport,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	return client, transport
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil)
		require.ErrorIs(t, err, eodhd.ErrConfigRequired)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		client, err := New(&eodhd.Config{})
		require.NoError(t, err)
		assert.Len(t, client.Endpoints(), 12)
		assert.Contains(t, client.String(), "https://eodhd.com/api")
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		t.Parallel()

		_, err := New(&eodhd.Config{MaxAttempts: 20})
		require.ErrorIs(t, err, eodhd.ErrInvalidConfig)
	})
}

func TestClient_USExtendedQuotes(t *testing.T) {
	t.Parallel()

	t.Run("fragment and envelope", func(t *testing.T) {
		t.Parallel()

		client, transport := fixture(t, map[string]string{
			"/us-quote-delayed": `{"meta":{"count":2},"data":[{"symbol":"AAPL.US","lastTradePrice":190.5},{"symbol":"TSLA.US","lastTradePrice":250}],"links":{"next":null}}`,
		})

		quotes, err := client.USExtendedQuotes(context.Background(), token, &eodhd.USExtendedQuotesParams{
			Symbols: eodhd.Strings("AAPL.US", "TSLA.US"),
			Page:    eodhd.Page{Limit: eodhd.Some(50)},
		})
		require.NoError(t, err)
		require.Len(t, quotes.Data, 2)
		assert.Equal(t, "TSLA.US", quotes.Data[1].Symbol)
		assert.InDelta(t, 190.5, quotes.Data[0].LastTradePrice, 0.0001)

		query := transport.lastQuery()
		assert.True(t, strings.HasSuffix(query, "&s=AAPL.US,TSLA.US&page[limit]=50"), query)
		assert.NotContains(t, query, "page[offset]")
		assert.True(t, strings.HasPrefix(query, "api_token=demo-token&fmt=json"), query)
	})

	t.Run("empty envelope", func(t *testing.T) {
		t.Parallel()

		client, _ := fixture(t, map[string]string{"/us-quote-delayed": `{"meta":{},"data":[],"links":{}}`})

		result, err := client.Call(context.Background(), token, eodhd.EndpointUSExtendedQuotes,
			eodhd.NewArgs().Set(eodhd.ParamSymbols, eodhd.Scalar("AAPL.US")))
		require.NoError(t, err)
		require.NotNil(t, result.Envelope)
		assert.NotNil(t, result.Envelope.Data)
		assert.Empty(t, result.Envelope.Data)
	})

	t.Run("validation never reaches the network", func(t *testing.T) {
		t.Parallel()

		client, transport := fixture(t, nil)

		for _, params := range []*eodhd.USExtendedQuotesParams{
			nil,
			{},
			{Symbols: eodhd.Strings()},
			{Symbols: eodhd.Scalar("")},
			{Symbols: eodhd.Scalar("AAPL.US"), Page: eodhd.Page{Limit: eodhd.Some(101)}},
		} {
			quotes, err := client.USExtendedQuotes(context.Background(), token, params)
			assert.Nil(t, quotes)
			require.ErrorIs(t, err, eodhd.ErrValidation)

			apiErr, ok := eodhd.AsError(err)
			require.True(t, ok)
			assert.Equal(t, eodhd.EndpointUSExtendedQuotes, apiErr.Op)
		}

		assert.Equal(t, int32(0), transport.calls.Load())
	})

	t.Run("missing credential", func(t *testing.T) {
		t.Parallel()

		client, transport := fixture(t, nil)

		_, err := client.USExtendedQuotes(context.Background(), "", &eodhd.USExtendedQuotesParams{Symbols: eodhd.Scalar("AAPL.US")})
		require.ErrorIs(t, err, eodhd.ErrValidation)
		assert.Equal(t, int32(0), transport.calls.Load())
	})

	t.Run("bare body for an envelope endpoint", func(t *testing.T) {
		t.Parallel()

		client, _ := fixture(t, map[string]string{"/us-quote-delayed": `[{"symbol":"AAPL.US"}]`})

		_, err := client.USExtendedQuotes(context.Background(), token, &eodhd.USExtendedQuotesParams{Symbols: eodhd.Scalar("AAPL.US")})
		require.ErrorIs(t, err, eodhd.ErrDecode)

		apiErr, _ := eodhd.AsError(err)
		assert.Equal(t, eodhd.EndpointUSExtendedQuotes, apiErr.Op)
		assert.Equal(t, http.StatusOK, apiErr.Status)
		assert.Equal(t, 1, apiErr.Attempts)
	})
}

func TestClient_Call(t *testing.T) {
	t.Parallel()

	t.Run("unknown endpoint", func(t *testing.T) {
		t.Parallel()

		client, transport := fixture(t, nil)

		_, err := client.Call(context.Background(), token, "options-chain", nil)
		require.ErrorIs(t, err, eodhd.ErrValidation)
		require.ErrorIs(t, err, eodhd.ErrUnknownEndpoint)
		assert.Equal(t, int32(0), transport.calls.Load())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		client, transport := fixture(t, nil)

		_, err := client.EOD(context.Background(), token, &eodhd.EODParams{Symbol: "NOPE.US"})
		require.Error(t, err)
		assert.True(t, eodhd.IsNotFound(err))
		assert.Contains(t, err.Error(), "Ticker Not Found.")
		assert.NotContains(t, err.Error(), token.Reveal())
		assert.Equal(t, int32(1), transport.calls.Load())
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_TypedEndpoints(t *testing.T) {
	t.Parallel()

	client, transport := fixture(t, map[string]string{
		"/eod/MCD.US":               `[{"date":"2024-01-02","open":1,"high":2,"low":0.5,"close":1.5,"adjusted_close":1.4,"volume":100}]`,
		"/real-time/AAPL.US":        `[{"code":"AAPL.US","close":190},{"code":"VTI.US","close":240}]`,
		"/real-time/TSLA.US":        `{"code":"TSLA.US","close":250}`,
		"/intraday/AAPL.US":         `[{"timestamp":1700000000,"datetime":"2023-11-14 22:13:20","close":190}]`,
		"/fundamentals/AAPL.US":     `{"General":{"Code":"AAPL"},"Highlights":{"MarketCapitalization":3000000000000}}`,
		"/exchanges-list":           `[{"Name":"USA Stocks","Code":"US","Country":"USA","Currency":"USD"}]`,
		"/exchange-symbol-list/LSE": `[{"Code":"VOD","Name":"Vodafone","Exchange":"LSE","Type":"Common Stock"}]`,
		"/div/KO.US":                `[{"date":"2024-03-14","value":0.485,"currency":"USD"}]`,
		"/splits/AAPL.US":           `[{"date":"2020-08-31","split":"4.000000/1.000000"}]`,
		"/search/apple":             `[{"Code":"AAPL","Exchange":"US","Name":"Apple Inc","Type":"Common Stock"}]`,
		"/news":                     `[{"date":"2024-01-02T10:00:00+00:00","title":"Headline","symbols":["AAPL.US"],"sentiment":{"polarity":0.9}}]`,
		"/calendar/earnings":        `{"type":"Earnings","from":"2024-01-01","to":"2024-01-31","earnings":[{"code":"AAPL.US","actual":null,"estimate":2.1}]}`,
	})

	ctx := context.Background()
	from := eodhd.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	t.Run("eod", func(t *testing.T) {
		bars, err := client.EOD(ctx, token, &eodhd.EODParams{Symbol: "MCD.US", From: from, Order: eodhd.Some("d")})
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, int64(100), bars[0].Volume)
		assert.Contains(t, transport.lastQuery(), "&from=2024-01-01&order=d")
	})

	t.Run("real-time with additional symbols", func(t *testing.T) {
		quotes, err := client.RealTime(ctx, token, &eodhd.RealTimeParams{Symbol: "AAPL.US", Additional: []string{"VTI.US"}})
		require.NoError(t, err)
		require.Len(t, quotes, 2)
		assert.Equal(t, "VTI.US", quotes[1].Code)
		assert.Contains(t, transport.lastQuery(), "&s=VTI.US")
	})

	t.Run("real-time single object", func(t *testing.T) {
		quotes, err := client.RealTime(ctx, token, &eodhd.RealTimeParams{Symbol: "TSLA.US"})
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, "TSLA.US", quotes[0].Code)
	})

	t.Run("intraday", func(t *testing.T) {
		bars, err := client.Intraday(ctx, token, &eodhd.IntradayParams{Symbol: "AAPL.US", Interval: eodhd.Some("5m")})
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, int64(1700000000), bars[0].Timestamp)
	})

	t.Run("fundamentals", func(t *testing.T) {
		fundamentals, err := client.Fundamentals(ctx, token, &eodhd.FundamentalsParams{Symbol: "AAPL.US", Filters: []string{"General", "Highlights"}})
		require.NoError(t, err)
		assert.Contains(t, fundamentals, "General")
		assert.Contains(t, transport.lastQuery(), "&filter=General,Highlights")
	})

	t.Run("exchanges", func(t *testing.T) {
		exchanges, err := client.Exchanges(ctx, token)
		require.NoError(t, err)
		require.Len(t, exchanges, 1)
		assert.Equal(t, "US", exchanges[0].Code)
	})

	t.Run("exchange symbols", func(t *testing.T) {
		symbols, err := client.ExchangeSymbols(ctx, token, &eodhd.ExchangeSymbolsParams{Exchange: "LSE", Delisted: eodhd.Some(false)})
		require.NoError(t, err)
		require.Len(t, symbols, 1)
		assert.Equal(t, "VOD", symbols[0].Code)
		assert.Contains(t, transport.lastQuery(), "&delisted=0")
	})

	t.Run("dividends and splits", func(t *testing.T) {
		dividends, err := client.Dividends(ctx, token, &eodhd.HistoryParams{Symbol: "KO.US", From: from})
		require.NoError(t, err)
		require.Len(t, dividends, 1)
		assert.InDelta(t, 0.485, dividends[0].Value, 0.0001)

		splits, err := client.Splits(ctx, token, &eodhd.HistoryParams{Symbol: "AAPL.US"})
		require.NoError(t, err)
		require.Len(t, splits, 1)
		assert.Equal(t, "4.000000/1.000000", splits[0].Split)
	})

	t.Run("search", func(t *testing.T) {
		hits, err := client.Search(ctx, token, &eodhd.SearchParams{Query: "apple", Limit: eodhd.Some(5)})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Apple Inc", hits[0].Name)
	})

	t.Run("news", func(t *testing.T) {
		articles, err := client.News(ctx, token, &eodhd.NewsParams{Symbols: []string{"AAPL.US"}, Limit: eodhd.Some(10)})
		require.NoError(t, err)
		require.Len(t, articles, 1)
		require.NotNil(t, articles[0].Sentiment)
		assert.InDelta(t, 0.9, articles[0].Sentiment.Polarity, 0.0001)
	})

	t.Run("earnings calendar", func(t *testing.T) {
		calendar, err := client.EarningsCalendar(ctx, token, &eodhd.EarningsCalendarParams{Symbols: []string{"AAPL.US"}})
		require.NoError(t, err)
		require.Len(t, calendar.Earnings, 1)
		assert.Nil(t, calendar.Earnings[0].Actual)
		require.NotNil(t, calendar.Earnings[0].Estimate)
		assert.InDelta(t, 2.1, *calendar.Earnings[0].Estimate, 0.0001)
	})

	t.Run("typed calls validate first", func(t *testing.T) {
		before := transport.calls.Load()

		_, err := client.EOD(ctx, token, &eodhd.EODParams{})
		require.ErrorIs(t, err, eodhd.ErrValidation)

		_, err = client.News(ctx, token, &eodhd.NewsParams{})
		require.ErrorIs(t, err, eodhd.ErrValidation)

		_, err = client.Search(ctx, token, nil)
		require.ErrorIs(t, err, eodhd.ErrValidation)

		assert.Equal(t, before, transport.calls.Load())
	})
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`[]`))
	}))
	defer server.Close()

	collector := eodhd.NewMetricsCollector()

	client, err := New(&eodhd.Config{
		BaseURL:      server.URL,
		Interceptors: eodhd.NewInterceptorChain().WithMetrics(collector),
	})
	require.NoError(t, err)

	_, err = client.Splits(context.Background(), token, &eodhd.HistoryParams{Symbol: "AAPL.US"})
	require.NoError(t, err)

	metrics, ok := collector.GetMetrics(eodhd.EndpointSplits)
	require.True(t, ok)
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Zero(t, metrics.TotalErrors)
}
