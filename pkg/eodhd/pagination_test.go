package eodhd_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// pagedSource serves total items in pages and records the pages asked for.
type pagedSource struct {
	total    int
	meta     func(offset int) map[string]json.RawMessage
	requests []eodhd.Page
	failAt   int
}

var errSourceFailed = errors.New("source failed")

func (s *pagedSource) fetch(ctx context.Context, page eodhd.Page) (*eodhd.ListEnvelope[int], error) {
	s.requests = append(s.requests, page)

	offset := page.Offset.OrElse(0)
	if s.failAt > 0 && offset >= s.failAt {
		return nil, errSourceFailed
	}

	limit := page.Limit.OrElse(10)
	data := []int{}

	for i := offset; i < s.total && i < offset+limit; i++ {
		data = append(data, i)
	}

	envelope := &eodhd.ListEnvelope[int]{
		Meta:  map[string]json.RawMessage{},
		Data:  data,
		Links: map[string]json.RawMessage{},
	}

	if s.meta != nil {
		envelope.Meta = s.meta(offset)
	}

	return envelope, nil
}

func TestFetchAllPages(t *testing.T) {
	t.Parallel()

	source := &pagedSource{total: 25}

	items, err := eodhd.FetchAllPages(context.Background(), source.fetch, &eodhd.PaginationOptions{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, items, 25)
	assert.Equal(t, 24, items[24])

	require.Len(t, source.requests, 3)
	assert.False(t, source.requests[0].Offset.IsSet(), "first page sends no offset")
	assert.Equal(t, 10, source.requests[1].Offset.OrElse(-1))
	assert.Equal(t, 20, source.requests[2].Offset.OrElse(-1))
}

func TestFetchAllPages_MetaTotal(t *testing.T) {
	t.Parallel()

	source := &pagedSource{
		total: 20,
		meta: func(int) map[string]json.RawMessage {
			return map[string]json.RawMessage{"total": json.RawMessage("20")}
		},
	}

	items, err := eodhd.FetchAllPages(context.Background(), source.fetch, &eodhd.PaginationOptions{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, items, 20)
	assert.Len(t, source.requests, 2, "a full last page stops when meta.total is reached")
}

func TestFetchAllPages_MaxPages(t *testing.T) {
	t.Parallel()

	source := &pagedSource{total: 100}

	items, err := eodhd.FetchAllPages(context.Background(), source.fetch, &eodhd.PaginationOptions{PageSize: 10, MaxPages: 2})
	require.NoError(t, err)
	assert.Len(t, items, 20)
	assert.Len(t, source.requests, 2)
}

func TestPageIterator(t *testing.T) {
	t.Parallel()

	t.Run("error surfaces through Next", func(t *testing.T) {
		t.Parallel()

		source := &pagedSource{total: 30, failAt: 10}
		iterator := eodhd.NewPageIterator(context.Background(), source.fetch, &eodhd.PaginationOptions{PageSize: 10})

		items, err := iterator.All()
		require.ErrorIs(t, err, errSourceFailed)
		assert.Len(t, items, 10)
		assert.False(t, iterator.HasNext())
	})

	t.Run("empty first page", func(t *testing.T) {
		t.Parallel()

		source := &pagedSource{}
		iterator := eodhd.NewPageIterator(context.Background(), source.fetch, nil)

		assert.False(t, iterator.HasNext())

		_, err := iterator.Next()
		assert.ErrorIs(t, err, eodhd.ErrNoMoreItems)
		assert.Equal(t, 50, source.requests[0].Limit.OrElse(0))
	})

	t.Run("for each stops on callback error", func(t *testing.T) {
		t.Parallel()

		errStop := errors.New("stop")
		source := &pagedSource{total: 30}
		iterator := eodhd.NewPageIterator(context.Background(), source.fetch, &eodhd.PaginationOptions{PageSize: 10})

		seen := 0
		err := iterator.ForEach(func(item int) error {
			seen++
			if item == 4 {
				return errStop
			}

			return nil
		})

		require.ErrorIs(t, err, errStop)
		assert.Equal(t, 5, seen)
		assert.Len(t, source.requests, 1)
	})
}

func TestStreamPages(t *testing.T) {
	t.Parallel()

	source := &pagedSource{total: 15}

	var offsets []int

	total := 0

	for page := range eodhd.StreamPages(context.Background(), source.fetch, &eodhd.PaginationOptions{PageSize: 10}) {
		require.NoError(t, page.Err)

		offsets = append(offsets, page.Offset)
		total += len(page.Items)
	}

	assert.Equal(t, []int{0, 10}, offsets)
	assert.Equal(t, 15, total)
}

func TestStreamPages_Error(t *testing.T) {
	t.Parallel()

	source := &pagedSource{total: 30, failAt: 10}

	var results []eodhd.PageResult[int]
	for page := range eodhd.StreamPages(context.Background(), source.fetch, &eodhd.PaginationOptions{PageSize: 10}) {
		results = append(results, page)
	}

	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, errSourceFailed)
	assert.Equal(t, 10, results[1].Offset)
}
