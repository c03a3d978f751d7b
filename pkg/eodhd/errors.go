package eodhd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	// KindValidation means caller arguments were absent or malformed; nothing was sent.
	KindValidation ErrorKind = "validation"
	// KindClient means the server rejected the request with a 4xx other than 429.
	KindClient ErrorKind = "client"
	// KindRateLimit means every attempt was answered with 429.
	KindRateLimit ErrorKind = "rate_limit"
	// KindServer means the last attempt was answered with a 5xx.
	KindServer ErrorKind = "server"
	// KindTransport means connectivity failed, timed out, or was cancelled.
	KindTransport ErrorKind = "transport"
	// KindDecode means a 2xx body could not be parsed into the expected shape.
	KindDecode ErrorKind = "decode"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrValidation = errors.New("validation error")
	ErrClient     = errors.New("client error")
	ErrRateLimit  = errors.New("rate limit exceeded")
	ErrServer     = errors.New("server error")
	ErrTransport  = errors.New("transport error")
	ErrDecode     = errors.New("decode error")
)

// Messages shared by the codec, builder, dispatcher and decoder.
const (
	MsgMissingRequired  = "missing required parameter"
	MsgOutOfRange       = "out of range"
	MsgUnknownParameter = "unknown parameter"
	MsgInvalidInteger   = "invalid integer"
	MsgInvalidNumber    = "invalid number"
	MsgInvalidDate      = "invalid date"
	MsgUnsupportedValue = "unsupported value"
	MsgExpectedSingle   = "expected a single value"
	MsgMalformedBody    = "malformed body"
	MsgUnexpectedShape  = "unexpected shape"
	MsgCancelled        = "cancelled"
)

var kindSentinels = map[ErrorKind]error{
	KindValidation: ErrValidation,
	KindClient:     ErrClient,
	KindRateLimit:  ErrRateLimit,
	KindServer:     ErrServer,
	KindTransport:  ErrTransport,
	KindDecode:     ErrDecode,
}

// Error is the single error type returned by every call.
type Error struct {
	Kind ErrorKind
	// Op is the endpoint name, when known.
	Op string
	// Param is the offending parameter for validation errors.
	Param string
	// Status is the HTTP status of the last response, 0 when none was received.
	Status int
	// Attempts is the number of network attempts made.
	Attempts int
	Message  string
	// Body is an excerpt of the last response body.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var builder strings.Builder

	builder.WriteString(string(e.Kind))
	builder.WriteString(" error")

	if e.Op != "" {
		builder.WriteString(" [")
		builder.WriteString(e.Op)
		builder.WriteString("]")
	}

	builder.WriteString(": ")
	builder.WriteString(e.Message)

	if e.Param != "" {
		fmt.Fprintf(&builder, " %q", e.Param)
	}

	if e.Status != 0 {
		fmt.Fprintf(&builder, " (status %d)", e.Status)
	}

	if e.Attempts > 1 {
		fmt.Fprintf(&builder, " after %d attempts", e.Attempts)
	}

	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}

	return builder.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]

	return ok && sentinel == target
}

// Temporary reports whether retrying later may succeed.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindRateLimit, KindServer:
		return true
	case KindTransport:
		return e.Message != MsgCancelled
	default:
		return false
	}
}

// NewValidationError builds a validation failure for param.
func NewValidationError(param, message string) *Error {
	return &Error{Kind: KindValidation, Param: param, Message: message}
}

// NewDecodeError builds a decode failure.
func NewDecodeError(message string, cause error) *Error {
	return &Error{Kind: KindDecode, Message: message, Err: cause}
}

// serverMessage is the error body shape EODHD returns on rejected requests.
type serverMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  any    `json:"errors"`
}

// ParseErrorMessage extracts a human readable message from an error body.
// It falls back to the HTTP status text.
func ParseErrorMessage(status int, body []byte) string {
	var msg serverMessage

	if err := json.Unmarshal(body, &msg); err == nil {
		switch {
		case msg.Message != "":
			return msg.Message
		case msg.Error != "":
			return msg.Error
		case msg.Errors != nil:
			return fmt.Sprint(msg.Errors)
		}
	}

	text := strings.TrimSpace(string(body))
	if text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		return text
	}

	return http.StatusText(status)
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// StatusCode returns the HTTP status attached to err, or 0.
func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}

	return 0
}

// IsValidation checks if the call failed before reaching the network.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRateLimited checks if the call exhausted its retries on 429.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimit)
}

// IsNotFound checks if the server answered 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClient) && StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the server rejected the credential.
func IsUnauthorized(err error) bool {
	status := StatusCode(err)

	return errors.Is(err, ErrClient) && (status == http.StatusUnauthorized || status == http.StatusForbidden)
}

// IsTemporary checks if retrying the call later may succeed.
func IsTemporary(err error) bool {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Temporary()
	}

	return false
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrUnknownEndpoint    = errors.New("unknown endpoint")
	ErrDuplicateEndpoint  = errors.New("endpoint already registered")
	ErrNoMoreItems        = errors.New("no more items")
	ErrNotPaginated       = errors.New("endpoint is not paginated")
	ErrUnsupportedBatchOp = errors.New("unsupported batch operation")
	ErrCircuitOpen        = errors.New("circuit breaker is open")
)
