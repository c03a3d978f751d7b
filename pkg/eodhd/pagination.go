package eodhd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// PageFetcher fetches one envelope page.
type PageFetcher[T any] func(ctx context.Context, page Page) (*ListEnvelope[T], error)

// PaginationOptions bounds an offset walk.
type PaginationOptions struct {
	// PageSize is sent as page[limit]. Zero means DefaultPageSize.
	PageSize int
	// MaxPages stops the walk early. Zero means no limit beyond the safety cap.
	MaxPages int
}

// DefaultPaginationOptions returns default pagination options.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{PageSize: constants.DefaultPageSize}
}

// PageIterator walks page[offset] pages one item at a time.
type PageIterator[T any] struct {
	ctx      context.Context
	fetch    PageFetcher[T]
	pageSize int
	maxPages int
	offset   int
	pages    int
	buffer   []T
	done     bool
	err      error
}

// NewPageIterator creates an iterator starting at offset 0.
func NewPageIterator[T any](ctx context.Context, fetch PageFetcher[T], opts *PaginationOptions) *PageIterator[T] {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 || maxPages > constants.MaxPages {
		maxPages = constants.MaxPages
	}

	return &PageIterator[T]{
		ctx:      ctx,
		fetch:    fetch,
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// HasNext reports whether another item is available, fetching the next page
// if needed. A fetch error makes HasNext return true so Next can report it.
func (it *PageIterator[T]) HasNext() bool {
	if len(it.buffer) > 0 {
		return true
	}

	if it.err != nil {
		return true
	}

	if it.done {
		return false
	}

	it.fetchPage()

	return len(it.buffer) > 0 || it.err != nil
}

// Next returns the next item.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if !it.HasNext() {
		return zero, ErrNoMoreItems
	}

	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true

		return zero, err
	}

	item := it.buffer[0]
	it.buffer = it.buffer[1:]

	return item, nil
}

// All drains the iterator.
func (it *PageIterator[T]) All() ([]T, error) {
	var items []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach calls fn for every remaining item, stopping at the first error.
func (it *PageIterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

func (it *PageIterator[T]) fetchPage() {
	if it.pages >= it.maxPages {
		it.done = true

		return
	}

	envelope, err := it.fetch(it.ctx, it.page())
	if err != nil {
		it.err = fmt.Errorf("fetching page at offset %d: %w", it.offset, err)

		return
	}

	it.pages++
	it.buffer = append(it.buffer, envelope.Data...)
	it.done = !hasNextPage(envelope.Meta, envelope.Links, it.offset, len(envelope.Data), it.pageSize)
	it.offset += len(envelope.Data)
}

func (it *PageIterator[T]) page() Page {
	page := Page{Limit: Some(it.pageSize)}
	if it.offset > 0 {
		page.Offset = Some(it.offset)
	}

	return page
}

// hasNextPage decides whether the walk continues after a page of count items.
// An explicit links.next wins; otherwise meta.total is used when present, and
// a full page is taken to mean more may follow.
func hasNextPage(meta, links map[string]json.RawMessage, offset, count, pageSize int) bool {
	if count == 0 {
		return false
	}

	envelope := &Envelope{Meta: meta, Links: links}

	if _, ok := envelope.NextLink(); ok {
		return true
	}

	if total, ok := envelope.MetaInt("total"); ok {
		return offset+count < total
	}

	return count >= pageSize
}

// FetchAllPages walks every page and returns all items.
func FetchAllPages[T any](ctx context.Context, fetch PageFetcher[T], opts *PaginationOptions) ([]T, error) {
	return NewPageIterator(ctx, fetch, opts).All()
}

// PageResult is one page delivered by StreamPages.
type PageResult[T any] struct {
	Items  []T
	Offset int
	Err    error
}

// StreamPages fetches pages in a goroutine and delivers them on the returned
// channel, which is closed after the last page, the first error, or
// cancellation.
func StreamPages[T any](ctx context.Context, fetch PageFetcher[T], opts *PaginationOptions) <-chan PageResult[T] {
	results := make(chan PageResult[T], constants.BufferSize)

	go func() {
		defer close(results)

		it := NewPageIterator(ctx, fetch, opts)

		for !it.done {
			offset := it.offset

			it.fetchPage()

			if it.err != nil {
				select {
				case results <- PageResult[T]{Offset: offset, Err: it.err}:
				case <-ctx.Done():
				}

				return
			}

			if len(it.buffer) == 0 {
				return
			}

			page := it.buffer
			it.buffer = nil

			select {
			case results <- PageResult[T]{Items: page, Offset: offset}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}

// ExtendedQuotesFetcher pages the delayed extended quotes endpoint for symbols.
func ExtendedQuotesFetcher(client Client, credential Credential, symbols Value) PageFetcher[ExtendedQuote] {
	return func(ctx context.Context, page Page) (*ListEnvelope[ExtendedQuote], error) {
		return client.USExtendedQuotes(ctx, credential, &USExtendedQuotesParams{Symbols: symbols, Page: page})
	}
}

// EnvelopeFetcher pages any paginated envelope endpoint by name. Page keys
// already in args are dropped; each fetch sends only the iterator's page.
func EnvelopeFetcher[T any](client Client, credential Credential, endpoint string, args *Args) PageFetcher[T] {
	return func(ctx context.Context, page Page) (*ListEnvelope[T], error) {
		if !isPaginated(client, endpoint) {
			return nil, fmt.Errorf("%w: %s", ErrNotPaginated, endpoint)
		}

		pageArgs := args.Clone().
			Delete(constants.PageLimitKey).
			Delete(constants.PageOffsetKey).
			SetPage(page)

		result, err := client.Call(ctx, credential, endpoint, pageArgs)
		if err != nil {
			return nil, err
		}

		return DecodeData[T](result)
	}
}

func isPaginated(client Client, name string) bool {
	for _, endpoint := range client.Endpoints() {
		if endpoint.Name == name {
			return endpoint.Paginated()
		}
	}

	return false
}
