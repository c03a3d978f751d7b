package commands

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// Config is the persisted CLI configuration. It has no credential field.
type Config struct {
	BaseURL      string `json:"base_url,omitempty"       yaml:"base_url,omitempty"`
	Output       string `json:"output,omitempty"         yaml:"output,omitempty"`
	Timeout      string `json:"timeout,omitempty"        yaml:"timeout,omitempty"`
	MaxAttempts  int    `json:"max_attempts,omitempty"   yaml:"max_attempts,omitempty"`
	RetryWaitMin string `json:"retry_wait_min,omitempty" yaml:"retry_wait_min,omitempty"`
	RetryWaitMax string `json:"retry_wait_max,omitempty" yaml:"retry_wait_max,omitempty"`
	Verbose      bool   `json:"verbose,omitempty"        yaml:"verbose,omitempty"`
}

// ConfigUpdate is the output of config set and unset.
type ConfigUpdate struct {
	Action string `json:"action"          yaml:"action"`
	Key    string `json:"key"             yaml:"key"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
	File   string `json:"file"            yaml:"file"`
}

// EffectiveConfig is the output of config show.
type EffectiveConfig struct {
	File         string `json:"file"           yaml:"file"`
	BaseURL      string `json:"base_url"       yaml:"base_url"`
	Output       string `json:"output"         yaml:"output"`
	Timeout      string `json:"timeout"        yaml:"timeout"`
	MaxAttempts  int    `json:"max_attempts"   yaml:"max_attempts"`
	RetryWaitMin string `json:"retry_wait_min" yaml:"retry_wait_min"`
	RetryWaitMax string `json:"retry_wait_max" yaml:"retry_wait_max"`
	Verbose      bool   `json:"verbose"        yaml:"verbose"`
	Token        string `json:"token"          yaml:"token"`
}

var (
	ErrInvalidConfigValue = errors.New("invalid configuration value")

	tokenKeys = []string{"token", "api_token", "api-token", "apitoken"}
)

// ConfigKeys lists the keys config set accepts.
func ConfigKeys() []string {
	return []string{KeyBaseURL, KeyOutput, KeyTimeout, KeyMaxAttempts, KeyRetryWaitMin, KeyRetryWaitMax, KeyVerbose}
}

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "View and modify the CLI configuration file. The API token is never stored there.",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from flags, environment and config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			effective := EffectiveConfig{
				File:         configFilePath(),
				BaseURL:      viper.GetString(KeyBaseURL),
				Output:       viper.GetString(KeyOutput),
				Timeout:      viper.GetDuration(KeyTimeout).String(),
				MaxAttempts:  viper.GetInt(KeyMaxAttempts),
				RetryWaitMin: durationOrDefault(viper.GetDuration(KeyRetryWaitMin), constants.DefaultRetryWaitMin),
				RetryWaitMax: durationOrDefault(viper.GetDuration(KeyRetryWaitMax), constants.DefaultRetryWaitMax),
				Verbose:      viper.GetBool(KeyVerbose),
				Token:        tokenStatus(cmd),
			}

			return renderOutput(cmd.OutOrStdout(), effective, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append("Config File", effective.File)
				_ = table.Append("Base URL", effective.BaseURL)
				_ = table.Append("Output", effective.Output)
				_ = table.Append("Timeout", effective.Timeout)
				_ = table.Append("Max Attempts", strconv.Itoa(effective.MaxAttempts))
				_ = table.Append("Retry Wait Min", effective.RetryWaitMin)
				_ = table.Append("Retry Wait Max", effective.RetryWaitMax)
				_ = table.Append("Verbose", strconv.FormatBool(effective.Verbose))
				_ = table.Append("Token", effective.Token)

				return nil
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: "Set a configuration value in the config file. Valid keys: " + strings.Join(ConfigKeys(), ", ") + `.

The API token cannot be set here; export EODHD_API_TOKEN or put it in a .env file.`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			path := configFilePath()

			config, err := readConfigFile(path)
			if err != nil {
				return err
			}

			err = config.Set(key, value)
			if err != nil {
				return err
			}

			err = writeConfigFile(path, config)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), ConfigUpdate{Action: "set", Key: key, Value: value, File: path})
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file so its default applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			path := configFilePath()

			config, err := readConfigFile(path)
			if err != nil {
				return err
			}

			err = config.Unset(key)
			if err != nil {
				return err
			}

			err = writeConfigFile(path, config)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), ConfigUpdate{Action: "unset", Key: key, File: path})
		},
	}
}

// Set validates and stores one value. Token keys are always refused.
func (c *Config) Set(key, value string) error {
	if isTokenKey(key) {
		return constants.ErrTokenNotPersistable
	}

	switch key {
	case KeyBaseURL:
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("%w: %s must be an http or https URL", ErrInvalidConfigValue, key)
		}

		c.BaseURL = value
	case KeyOutput:
		if !slices.Contains([]string{constants.FormatTable, constants.FormatJSON, constants.FormatYAML}, value) {
			return fmt.Errorf("%w: %s must be table, json or yaml", ErrInvalidConfigValue, key)
		}

		c.Output = value
	case KeyTimeout, KeyRetryWaitMin, KeyRetryWaitMax:
		duration, err := time.ParseDuration(value)
		if err != nil || duration < 0 {
			return fmt.Errorf("%w: %s must be a non-negative duration such as 30s", ErrInvalidConfigValue, key)
		}

		c.setDuration(key, duration.String())
	case KeyMaxAttempts:
		attempts, err := strconv.Atoi(value)
		if err != nil || attempts < 1 || attempts > 10 {
			return fmt.Errorf("%w: %s must be between 1 and 10", ErrInvalidConfigValue, key)
		}

		c.MaxAttempts = attempts
	case KeyVerbose:
		verbose, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", ErrInvalidConfigValue, key)
		}

		c.Verbose = verbose
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// Unset clears one value.
func (c *Config) Unset(key string) error {
	if isTokenKey(key) {
		return constants.ErrTokenNotPersistable
	}

	switch key {
	case KeyBaseURL:
		c.BaseURL = ""
	case KeyOutput:
		c.Output = ""
	case KeyTimeout, KeyRetryWaitMin, KeyRetryWaitMax:
		c.setDuration(key, "")
	case KeyMaxAttempts:
		c.MaxAttempts = 0
	case KeyVerbose:
		c.Verbose = false
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func (c *Config) setDuration(key, value string) {
	switch key {
	case KeyTimeout:
		c.Timeout = value
	case KeyRetryWaitMin:
		c.RetryWaitMin = value
	case KeyRetryWaitMax:
		c.RetryWaitMax = value
	}
}

func isTokenKey(key string) bool {
	return slices.Contains(tokenKeys, strings.ToLower(key))
}

// tokenStatus says where the token would come from without showing it.
func tokenStatus(cmd *cobra.Command) string {
	if flag := cmd.Flags().Lookup("token"); flag != nil && flag.Value.String() != "" {
		return constants.MaskedSecret + " (flag)"
	}

	if os.Getenv(TokenEnvVar) != "" {
		return constants.MaskedSecret + " (" + TokenEnvVar + ")"
	}

	return "not set"
}

func durationOrDefault(value, fallback time.Duration) string {
	if value <= 0 {
		return fallback.String()
	}

	return value.String()
}

// configFilePath returns the config file in use, or ~/.eodhd/config.yml.
func configFilePath() string {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile
	}

	if configFile := viper.GetString("config"); configFile != "" {
		return configFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".eodhd", "config.yml")
	}

	return filepath.Join(home, ".eodhd", "config.yml")
}

// readConfigFile loads the persisted configuration. A missing file is empty.
func readConfigFile(path string) (*Config, error) {
	config := &Config{}

	// path is the user's own config file
	// #nosec G304
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// writeConfigFile saves the configuration with owner-only permissions.
func writeConfigFile(path string, config *Config) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func outputConfigUpdateResult(out io.Writer, update ConfigUpdate) error {
	return renderOutput(out, update, func(table *tablewriter.Table) error {
		table.Header("Action", "Key", "Value", "File")
		_ = table.Append(update.Action, update.Key, orNotAvailable(update.Value), update.File)

		return nil
	})
}
