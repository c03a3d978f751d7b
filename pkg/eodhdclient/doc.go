// Package eodhdclient provides the primary entry point for constructing an
// EODHD API client that implements the eodhd.Client interface.
//
// Quick start
//
//	cli, err := eodhdclient.New(&eodhd.Config{
//	  HTTPTimeout: 10 * time.Second,
//	  MaxAttempts: 5,
//	})
//	if err != nil { log.Fatal(err) }
//
//	bars, err := cli.EOD(ctx, token, &eodhd.EODParams{
//	  Symbol: "AAPL.US",
//	  From:   eodhd.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
//	})
//
// Any registered endpoint can also be called by name:
//
//	result, err := cli.Call(ctx, token, eodhd.EndpointSearch,
//	  eodhd.NewArgs().Set(eodhd.ParamQuery, eodhd.Scalar("apple")))
package eodhdclient
