package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Service endpoints.
const (
	// DefaultBaseURL is the root of the EODHD REST API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultUserAgent is sent when the caller does not override it.
	DefaultUserAgent = "eodhd-go"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultMaxAttempts is the default attempt budget per call, first try included.
	DefaultMaxAttempts = 3

	// DefaultRetryWaitMin is the base delay of the exponential backoff.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax caps a single backoff delay.
	DefaultRetryWaitMax = 10 * time.Second

	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch calls.
	DefaultConcurrencyLimit = 5

	// BufferSize is the default buffer size for channels.
	BufferSize = 10
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is the run of transient failures that opens the circuit.
	CircuitBreakerThreshold = 5

	// CircuitBreakerSuccessThreshold is the run of successes that closes a half-open circuit.
	CircuitBreakerSuccessThreshold = 2

	// CircuitBreakerCooldown is how long an open circuit rejects calls.
	CircuitBreakerCooldown = 30 * time.Second
)

// Query keys injected into every request.
const (
	// QueryKeyToken carries the credential.
	QueryKeyToken = "api_token"

	// QueryKeyFormat carries the output format marker.
	QueryKeyFormat = "fmt"

	// FormatJSON is the only output format the decoder understands.
	FormatJSON = "json"

	// FormatYAML is a CLI output format.
	FormatYAML = "yaml"

	// FormatTable is the default CLI output format.
	FormatTable = "table"
)

// Pagination keys and limits.
const (
	// PageLimitKey is the bracketed pagination limit key.
	PageLimitKey = "page[limit]"

	// PageOffsetKey is the bracketed pagination offset key.
	PageOffsetKey = "page[offset]"

	// QuotesMaxPageLimit is the largest page the delayed quotes endpoint serves.
	QuotesMaxPageLimit = 100

	// DefaultPageSize is used by iterators when the caller gives no limit.
	DefaultPageSize = 50

	// MaxPages guards pagination loops.
	MaxPages = 1000
)

// Logging and display.
const (
	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// MaxLoggedBodyBytes bounds the body excerpt kept on errors.
	MaxLoggedBodyBytes = 4096

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// KeyValueSplitParts is the number of parts when splitting key=value strings.
	KeyValueSplitParts = 2

	// MinimumArgumentCount is the argument count of key/value commands.
	MinimumArgumentCount = 2
)
