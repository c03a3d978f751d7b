package constants

import "errors"

// Configuration errors.
var (
	ErrTokenRequired       = errors.New("API token is required (use --token, EODHD_API_TOKEN or --prompt-token)")
	ErrTokenNotPersistable = errors.New("the API token is never written to the config file; use EODHD_API_TOKEN or a .env file")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
)

// Argument errors.
var (
	ErrInvalidParamFormat = errors.New("invalid parameter format, expected key=value")
	ErrUnknownEndpoint    = errors.New("unknown endpoint")
)
