package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stockparfait/logging"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/eodhd/internal/constants"
	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
	"github.com/fivetwenty-io/eodhd/pkg/eodhdclient"
)

// Configuration keys shared by the root flags and the config command.
const (
	KeyBaseURL      = "base_url"
	KeyOutput       = "output"
	KeyTimeout      = "timeout"
	KeyMaxAttempts  = "max_attempts"
	KeyRetryWaitMin = "retry_wait_min"
	KeyRetryWaitMax = "retry_wait_max"
	KeyVerbose      = "verbose"
)

// TokenEnvVar is the environment variable holding the API token.
const TokenEnvVar = "EODHD_API_TOKEN"

const (
	// NotAvailable is shown in tables for absent values.
	NotAvailable = "N/A"
	// maxCellWidth truncates long text columns in tables.
	maxCellWidth = 80
)

var (
	ErrUnsupportedOutput = errors.New("unsupported output format")
	ErrNoSymbols         = errors.New("at least one symbol is required")
)

// resolveCredential returns the token from --token, EODHD_API_TOKEN, or an
// interactive prompt, in that order. The token is never read from or written
// to the config file.
func resolveCredential(cmd *cobra.Command) (eodhd.Credential, error) {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv(TokenEnvVar)
	}

	if token == "" {
		prompt, _ := cmd.Flags().GetBool("prompt-token")
		if prompt {
			var err error

			token, err = readToken(cmd.ErrOrStderr())
			if err != nil {
				return "", err
			}
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", constants.ErrTokenRequired
	}

	return eodhd.Credential(token), nil
}

func readToken(prompt io.Writer) (string, error) {
	_, _ = fmt.Fprint(prompt, "API token: ")

	bytePassword, err := term.ReadPassword(int(syscall.Stdin))

	_, _ = fmt.Fprintln(prompt)

	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return string(bytePassword), nil
}

// clientConfigFromViper builds the client configuration from flags, env and
// the config file. Logs go to stderr at debug level when verbose.
func clientConfigFromViper(ctx context.Context) *eodhd.Config {
	verbose := viper.GetBool(KeyVerbose)

	level := logging.Info
	if verbose {
		level = logging.Debug
	}

	return &eodhd.Config{
		BaseURL:      viper.GetString(KeyBaseURL),
		HTTPTimeout:  viper.GetDuration(KeyTimeout),
		MaxAttempts:  viper.GetInt(KeyMaxAttempts),
		RetryWaitMin: viper.GetDuration(KeyRetryWaitMin),
		RetryWaitMax: viper.GetDuration(KeyRetryWaitMax),
		Debug:        verbose,
		Logger:       eodhd.NewLevelLogger(ctx, level),
	}
}

// newClient creates an API client and resolves the credential for a command.
func newClient(cmd *cobra.Command) (eodhd.Client, eodhd.Credential, error) {
	credential, err := resolveCredential(cmd)
	if err != nil {
		return nil, "", err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := eodhdclient.New(clientConfigFromViper(ctx))
	if err != nil {
		return nil, "", err
	}

	return client, credential, nil
}

// parseDate parses an optional YYYY-MM-DD flag value.
func parseDate(name, value string) (eodhd.Optional[time.Time], error) {
	if value == "" {
		return eodhd.None[time.Time](), nil
	}

	date, err := time.Parse(eodhd.DateLayout, value)
	if err != nil {
		return eodhd.None[time.Time](), eodhd.NewValidationError(name, eodhd.MsgInvalidDate)
	}

	return eodhd.Some(date), nil
}

func optionalString(value string) eodhd.Optional[string] {
	if value == "" {
		return eodhd.None[string]()
	}

	return eodhd.Some(value)
}

func optionalPositive(value int) eodhd.Optional[int] {
	if value <= 0 {
		return eodhd.None[int]()
	}

	return eodhd.Some(value)
}

// splitSymbols accepts symbols as separate arguments or comma-joined.
func splitSymbols(args []string) []string {
	symbols := make([]string, 0, len(args))

	for _, arg := range args {
		for _, symbol := range strings.Split(arg, ",") {
			symbol = strings.TrimSpace(symbol)
			if symbol != "" {
				symbols = append(symbols, symbol)
			}
		}
	}

	return symbols
}

// renderOutput writes data as json or yaml, or calls table for the default
// table format.
func renderOutput(out io.Writer, data any, table func(*tablewriter.Table) error) error {
	output := viper.GetString(KeyOutput)

	switch output {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(data)
	case constants.FormatYAML:
		plain, err := toPlain(data)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(plain)
	case constants.FormatTable, "":
		tbl := tablewriter.NewWriter(out)

		if err := table(tbl); err != nil {
			return err
		}

		if err := tbl.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOutput, output)
	}
}

// toPlain round-trips data through JSON so raw JSON fields render as YAML
// structures instead of byte lists.
func toPlain(data any) (any, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	var plain any
	if err := json.Unmarshal(encoded, &plain); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	return plain, nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatOptionalFloat(value *float64) string {
	if value == nil {
		return NotAvailable
	}

	return formatFloat(*value)
}

func formatUnix(seconds int64) string {
	if seconds == 0 {
		return NotAvailable
	}

	return time.Unix(seconds, 0).UTC().Format(time.RFC3339)
}

// formatUnixMillis formats the millisecond timestamps of the extended quotes endpoint.
func formatUnixMillis(millis int64) string {
	if millis == 0 {
		return NotAvailable
	}

	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}

	return string(runes[:width-3]) + "..."
}

func orNotAvailable(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}
