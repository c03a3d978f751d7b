package eodhdclient

import (
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/eodhd/internal/client"
	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// New creates a new EODHD API client. Zero config fields take their defaults.
func New(config *eodhd.Config) (eodhd.Client, error) {
	if config == nil {
		return nil, eodhd.ErrConfigRequired
	}

	cli, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return cli, nil
}

// NewDefault creates a client with every setting at its default.
func NewDefault() (eodhd.Client, error) {
	return New(&eodhd.Config{})
}

// NewWithBaseURL creates a client against another API root, e.g. a proxy.
func NewWithBaseURL(baseURL string) (eodhd.Client, error) {
	return New(&eodhd.Config{BaseURL: baseURL})
}

// NewWithTransport creates a client whose attempts go through transport.
func NewWithTransport(baseURL string, transport http.RoundTripper) (eodhd.Client, error) {
	return New(&eodhd.Config{BaseURL: baseURL, Transport: transport})
}
