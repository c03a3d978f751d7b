package eodhdclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
	"github.com/fivetwenty-io/eodhd/pkg/eodhdclient"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		client, err := eodhdclient.New(&eodhd.Config{BaseURL: "https://eodhd.example.com/api"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		client, err := eodhdclient.New(nil)
		require.ErrorIs(t, err, eodhd.ErrConfigRequired)
		assert.Nil(t, client)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		_, err := eodhdclient.New(&eodhd.Config{BaseURL: "not a url"})
		require.ErrorIs(t, err, eodhd.ErrInvalidConfig)
	})
}

func TestNewDefault(t *testing.T) {
	t.Parallel()

	client, err := eodhdclient.NewDefault()
	require.NoError(t, err)
	assert.Len(t, client.Endpoints(), 12)
}

func TestNewWithBaseURL(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/exchanges-list", request.URL.Path)
		assert.Equal(t, "api_token=demo&fmt=json", request.URL.RawQuery)

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`[{"Name":"USA Stocks","Code":"US"}]`))
	}))
	defer server.Close()

	client, err := eodhdclient.NewWithBaseURL(server.URL + "/api")
	require.NoError(t, err)

	exchanges, err := client.Exchanges(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "USA Stocks", exchanges[0].Name)
}

func TestNewWithTransport(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)

		return http.DefaultTransport.RoundTrip(req)
	})

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := eodhdclient.NewWithTransport(server.URL, transport)
	require.NoError(t, err)

	splits, err := client.Splits(context.Background(), "demo", &eodhd.HistoryParams{Symbol: "AAPL.US"})
	require.NoError(t, err)
	assert.Empty(t, splits)
	assert.Equal(t, int32(1), calls.Load())
}
