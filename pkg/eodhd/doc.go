// Package eodhd provides types, interfaces, and helpers for working with the
// EODHD financial market data REST API.
//
// # Overview
//
// Every endpoint is a declarative Endpoint descriptor held in a Registry. A
// call runs the same pipeline for all of them: Encode validates the caller's
// Args against the endpoint's parameter specs, BuildRequest assembles the
// GET request, the dispatcher sends it with retry and classifies failures,
// and Decode parses the body into an envelope or a bare value. A concrete
// Client is provided by the eodhdclient package.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//	  "os"
//
//	  "github.com/fivetwenty-io/eodhd/pkg/eodhd"
//	  "github.com/fivetwenty-io/eodhd/pkg/eodhdclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := eodhdclient.New(&eodhd.Config{})
//	  if err != nil { log.Fatal(err) }
//
//	  token := eodhd.Credential(os.Getenv("EODHD_API_TOKEN"))
//	  quotes, err := cli.USExtendedQuotes(ctx, token, &eodhd.USExtendedQuotesParams{
//	    Symbols: eodhd.Strings("AAPL.US", "TSLA.US"),
//	    Page:    eodhd.Page{Limit: eodhd.Some(50)},
//	  })
//	  if err != nil { log.Fatal(err) }
//	  _ = quotes
//	}
//
// # Credentials
//
// The API token is a Credential passed to each call. It is never stored in
// Config, and fmt renders it as "***". Logged URLs and error strings are
// redacted.
//
// # Parameters
//
// Values are tagged: Scalar for one value, Strings for a collection that is
// comma-joined on the wire. A pre-joined "AAPL.US,TSLA.US" and
// Strings("AAPL.US", "TSLA.US") encode identically. Optional marks a value
// that may be absent; an absent Optional never produces a query key.
//
// # Errors
//
// Every failure is an *Error whose Kind says where it happened. Use
// errors.Is with ErrValidation, ErrClient, ErrRateLimit, ErrServer,
// ErrTransport or ErrDecode, or the IsNotFound, IsRateLimited and
// IsTemporary helpers. Validation errors are returned before any network
// call is made.
//
// # Pagination and batches
//
// FetchAllPages, StreamPages and PageIterator walk page[offset] pages of
// envelope endpoints. BatchExecutor runs many calls with bounded concurrency.
package eodhd
