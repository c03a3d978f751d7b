package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// Client is the EODHD endpoint facade. Every method validates its arguments
// before any network call, and the credential is supplied per call.
type Client interface {
	// Call runs any registered endpoint by name.
	Call(ctx context.Context, credential Credential, endpoint string, args *Args) (*Result, error)
	// Endpoints lists the registered endpoint descriptors.
	Endpoints() []*Endpoint

	USExtendedQuotes(ctx context.Context, credential Credential, params *USExtendedQuotesParams) (*ListEnvelope[ExtendedQuote], error)
	EOD(ctx context.Context, credential Credential, params *EODParams) ([]EODBar, error)
	RealTime(ctx context.Context, credential Credential, params *RealTimeParams) ([]RealTimeQuote, error)
	Intraday(ctx context.Context, credential Credential, params *IntradayParams) ([]IntradayBar, error)
	Fundamentals(ctx context.Context, credential Credential, params *FundamentalsParams) (Fundamentals, error)
	Exchanges(ctx context.Context, credential Credential) ([]Exchange, error)
	ExchangeSymbols(ctx context.Context, credential Credential, params *ExchangeSymbolsParams) ([]ExchangeSymbol, error)
	Dividends(ctx context.Context, credential Credential, params *HistoryParams) ([]Dividend, error)
	Splits(ctx context.Context, credential Credential, params *HistoryParams) ([]Split, error)
	Search(ctx context.Context, credential Credential, params *SearchParams) ([]SearchHit, error)
	News(ctx context.Context, credential Credential, params *NewsParams) ([]NewsArticle, error)
	EarningsCalendar(ctx context.Context, credential Credential, params *EarningsCalendarParams) (*EarningsCalendar, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an eodhd.Client.
//
// The credential is deliberately absent: it is passed to every call and the
// client never stores it.
//
// # Timeouts and retries
//
// HTTPTimeout bounds each attempt, not the whole call; use the context for an
// overall deadline. MaxAttempts counts the first try, so 1 disables retries.
// Backoff grows exponentially from RetryWaitMin and never exceeds RetryWaitMax.
type Config struct {
	// BaseURL is the API root, e.g. "https://eodhd.com/api".
	BaseURL string `validate:"required,url"`
	// HTTPTimeout is the per-attempt timeout.
	HTTPTimeout time.Duration `validate:"gte=0"`
	// MaxAttempts is the total attempt budget per call, first try included.
	MaxAttempts  int           `validate:"gte=1,lte=10"`
	RetryWaitMin time.Duration `validate:"gte=0"`
	RetryWaitMax time.Duration `validate:"gtefield=RetryWaitMin"`
	UserAgent    string
	// Debug logs one request/response pair per call when a Logger is set.
	Debug  bool
	Logger Logger
	// Transport performs the HTTP exchange. Nil means http.DefaultTransport.
	Transport http.RoundTripper
	// Interceptors run around each call.
	Interceptors *InterceptorChain
	// Registry overrides the built-in endpoint table.
	Registry *Registry
}

var (
	configValidator     *validator.Validate
	configValidatorOnce sync.Once
)

// WithDefaults returns a copy of the config with zero values filled in.
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.BaseURL == "" {
		config.BaseURL = constants.DefaultBaseURL
	}

	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if config.MaxAttempts == 0 {
		config.MaxAttempts = constants.DefaultMaxAttempts
	}

	if config.RetryWaitMin == 0 {
		config.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if config.RetryWaitMax == 0 {
		config.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if config.UserAgent == "" {
		config.UserAgent = constants.DefaultUserAgent
	}

	if config.Registry == nil {
		config.Registry = DefaultRegistry()
	}

	return &config
}

// Validate checks the config against its field constraints.
func (c *Config) Validate() error {
	configValidatorOnce.Do(func() {
		configValidator = validator.New(validator.WithRequiredStructEnabled())
	})

	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed %q", fieldErr.Field(), fieldErr.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, ", "))
}
