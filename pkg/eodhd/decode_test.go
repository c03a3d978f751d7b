package eodhd_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

func raw(body, contentType string) *eodhd.RawResponse {
	return &eodhd.RawResponse{StatusCode: 200, Body: []byte(body), ContentType: contentType, Attempts: 1}
}

func requireDecodeError(t *testing.T, err error, message string) {
	t.Helper()

	require.Error(t, err)
	require.ErrorIs(t, err, eodhd.ErrDecode)

	apiErr, ok := eodhd.AsError(err)
	require.True(t, ok)
	assert.Equal(t, message, apiErr.Message)
}

func TestDecode_Envelope(t *testing.T) {
	t.Parallel()

	t.Run("empty data is a non-nil empty sequence", func(t *testing.T) {
		t.Parallel()

		result, err := eodhd.Decode(raw(`{"meta":{},"data":[],"links":{}}`, "application/json"), eodhd.ShapeEnvelope)
		require.NoError(t, err)
		require.NotNil(t, result.Envelope)
		assert.Equal(t, eodhd.ShapeEnvelope, result.Shape)
		assert.Nil(t, result.Bare)
		assert.NotNil(t, result.Envelope.Data)
		assert.Empty(t, result.Envelope.Data)
		assert.NotNil(t, result.Envelope.Meta)
		assert.NotNil(t, result.Envelope.Links)
	})

	t.Run("array data keeps order", func(t *testing.T) {
		t.Parallel()

		result, err := eodhd.Decode(raw(`{"meta":{"count":2},"data":[{"symbol":"B"},{"symbol":"A"}],"links":{"next":null}}`, ""), eodhd.ShapeEnvelope)
		require.NoError(t, err)
		require.Len(t, result.Envelope.Data, 2)
		assert.JSONEq(t, `{"symbol":"B"}`, string(result.Envelope.Data[0]))

		count, ok := result.Envelope.MetaInt("count")
		assert.True(t, ok)
		assert.Equal(t, 2, count)

		_, ok = result.Envelope.NextLink()
		assert.False(t, ok)
	})

	t.Run("object data is flattened in document order", func(t *testing.T) {
		t.Parallel()

		body := `{"meta":{},"data":{"TSLA.US":{"symbol":"TSLA.US"},"AAPL.US":{"symbol":"AAPL.US"}},"links":{"next":"https://x/next"}}`

		result, err := eodhd.Decode(raw(body, "application/json; charset=utf-8"), eodhd.ShapeEnvelope)
		require.NoError(t, err)

		quotes, err := eodhd.DecodeData[eodhd.ExtendedQuote](result)
		require.NoError(t, err)
		require.Len(t, quotes.Data, 2)
		assert.Equal(t, "TSLA.US", quotes.Data[0].Symbol)
		assert.Equal(t, "AAPL.US", quotes.Data[1].Symbol)

		next, ok := result.Envelope.NextLink()
		assert.True(t, ok)
		assert.Equal(t, "https://x/next", next)
	})

	for name, body := range map[string]string{
		"missing links":   `{"meta":{},"data":[]}`,
		"missing data":    `{"meta":{},"links":{}}`,
		"meta not object": `{"meta":[],"data":[],"links":{}}`,
		"scalar data":     `{"meta":{},"data":5,"links":{}}`,
		"bare array":      `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			result, err := eodhd.Decode(raw(body, "application/json"), eodhd.ShapeEnvelope)
			assert.Nil(t, result)
			requireDecodeError(t, err, eodhd.MsgUnexpectedShape)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	t.Run("truncated JSON", func(t *testing.T) {
		t.Parallel()

		_, err := eodhd.Decode(raw(`{"meta":{},"data":[`, "application/json"), eodhd.ShapeEnvelope)
		requireDecodeError(t, err, eodhd.MsgMalformedBody)
	})

	t.Run("HTML error page", func(t *testing.T) {
		t.Parallel()

		_, err := eodhd.Decode(raw(`<html><body>Bad gateway</body></html>`, "text/html"), eodhd.ShapeBare)
		requireDecodeError(t, err, eodhd.MsgMalformedBody)
	})

	t.Run("JSON labelled as text", func(t *testing.T) {
		t.Parallel()

		result, err := eodhd.Decode(raw(`[{"code":"US"}]`, "text/plain"), eodhd.ShapeBare)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"code":"US"}]`, string(result.Bare))
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		_, err := eodhd.Decode(raw("", "application/json"), eodhd.ShapeBare)
		requireDecodeError(t, err, eodhd.MsgMalformedBody)
	})
}

func TestDecode_Bare(t *testing.T) {
	t.Parallel()

	result, err := eodhd.Decode(raw(` [{"date":"2024-01-02","close":190.5}] `, "application/json"), eodhd.ShapeBare)
	require.NoError(t, err)
	assert.Nil(t, result.Envelope)

	bars, err := eodhd.DecodeList[eodhd.EODBar](result)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "2024-01-02", bars[0].Date)
	assert.InDelta(t, 190.5, bars[0].Close, 0.0001)

	_, err = eodhd.DecodeData[eodhd.EODBar](result)
	requireDecodeError(t, err, eodhd.MsgUnexpectedShape)
}

func TestDecodeList_SingleObject(t *testing.T) {
	t.Parallel()

	result := &eodhd.Result{Shape: eodhd.ShapeBare, Bare: json.RawMessage(`{"code":"AAPL.US","close":190}`)}

	quotes, err := eodhd.DecodeList[eodhd.RealTimeQuote](result)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "AAPL.US", quotes[0].Code)
}

func TestDecodeBare_TypeMismatch(t *testing.T) {
	t.Parallel()

	result := &eodhd.Result{Shape: eodhd.ShapeBare, Bare: json.RawMessage(`[1,2]`)}

	_, err := eodhd.DecodeBare[eodhd.EarningsCalendar](result)
	requireDecodeError(t, err, eodhd.MsgUnexpectedShape)

	_, err = eodhd.DecodeBare[eodhd.Fundamentals](nil)
	requireDecodeError(t, err, eodhd.MsgUnexpectedShape)
}
