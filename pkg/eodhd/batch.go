package eodhd

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// BatchOperation represents a single call in a batch.
type BatchOperation struct {
	ID       string
	Endpoint string
	Args     *Args
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Result   *Result
	Error    error
	Duration time.Duration
}

// BatchExecutor runs facade calls with bounded concurrency.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout for each operation, retries included.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs every operation with the same credential. Results are in
// operation order; per-operation failures are reported in the results, and
// the returned error is only set when ctx ends before all operations ran.
func (b *BatchExecutor) Execute(ctx context.Context, credential Credential, operations []BatchOperation) ([]BatchResult, error) {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation) {
			defer waitGroup.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				results[index] = BatchResult{ID: operation.ID, Error: cancelledBatch(operation, ctx.Err())}

				return
			}

			defer func() { <-semaphore }()

			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, credential, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		}(index, operation)
	}

	waitGroup.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch interrupted: %w", err)
	}

	return results, nil
}

func (b *BatchExecutor) executeOperation(ctx context.Context, credential Credential, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	if operation.Endpoint == "" {
		result.Error = fmt.Errorf("%w: operation %q names no endpoint", ErrUnsupportedBatchOp, operation.ID)

		return result
	}

	data, err := b.client.Call(ctx, credential, operation.Endpoint, operation.Args)
	result.Success = err == nil
	result.Result = data
	result.Error = err

	return result
}

func cancelledBatch(operation BatchOperation, cause error) error {
	return &Error{Kind: KindTransport, Op: operation.Endpoint, Message: MsgCancelled, Err: cause}
}

// ChunkSymbols splits symbols into groups of at most size, keeping order.
func ChunkSymbols(symbols []string, size int) [][]string {
	if size <= 0 {
		size = constants.QuotesMaxPageLimit
	}

	chunks := make([][]string, 0, (len(symbols)+size-1)/size)

	for start := 0; start < len(symbols); start += size {
		end := min(start+size, len(symbols))
		chunks = append(chunks, symbols[start:end])
	}

	return chunks
}

// ExtendedQuotesOperations builds one delayed-quotes operation per chunk of
// symbols, each asking for a full page.
func ExtendedQuotesOperations(symbols []string, chunkSize int) []BatchOperation {
	if chunkSize <= 0 || chunkSize > constants.QuotesMaxPageLimit {
		chunkSize = constants.QuotesMaxPageLimit
	}

	chunks := ChunkSymbols(symbols, chunkSize)
	operations := make([]BatchOperation, 0, len(chunks))

	for i, chunk := range chunks {
		args := (&USExtendedQuotesParams{
			Symbols: Strings(chunk...),
			Page:    Page{Limit: Some(len(chunk))},
		}).Args()

		operations = append(operations, BatchOperation{
			ID:       EndpointUSExtendedQuotes + "-" + strconv.Itoa(i),
			Endpoint: EndpointUSExtendedQuotes,
			Args:     args,
		})
	}

	return operations
}
