package eodhd

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// RequestDescriptor is a fully built GET request. It is immutable once built.
type RequestDescriptor struct {
	op         string
	method     string
	path       string
	credential Credential
	extra      []QueryParam
}

// BuildRequest assembles the endpoint path, the credential and format
// marker, and the canonical parameters into a request descriptor.
func BuildRequest(endpoint *Endpoint, credential Credential, params *ParameterSet) (*RequestDescriptor, error) {
	if strings.TrimSpace(credential.Reveal()) == "" {
		return nil, withOp(NewValidationError(constants.QueryKeyToken, MsgMissingRequired), endpoint.Name)
	}

	path := endpoint.Path

	for _, spec := range endpoint.Params {
		if !spec.InPath {
			continue
		}

		value, ok := params.PathValue(spec.Name)
		if !ok || value == "" {
			return nil, withOp(NewValidationError(spec.Name, MsgMissingRequired), endpoint.Name)
		}

		path = strings.ReplaceAll(path, "{"+spec.Name+"}", url.PathEscape(value))
	}

	return &RequestDescriptor{
		op:         endpoint.Name,
		method:     http.MethodGet,
		path:       "/" + strings.TrimPrefix(path, "/"),
		credential: credential,
		extra:      params.Query(),
	}, nil
}

// Op returns the endpoint name the descriptor was built for.
func (d *RequestDescriptor) Op() string {
	return d.op
}

// Method returns the HTTP method.
func (d *RequestDescriptor) Method() string {
	return d.method
}

// Path returns the escaped path relative to the base URL.
func (d *RequestDescriptor) Path() string {
	return d.path
}

// Params returns the extra query parameters in insertion order.
func (d *RequestDescriptor) Params() []QueryParam {
	params := make([]QueryParam, len(d.extra))
	copy(params, d.extra)

	return params
}

// Fragment returns the extra query fragment, e.g. "&s=AAPL.US&page[limit]=50".
func (d *RequestDescriptor) Fragment() string {
	var builder strings.Builder

	for _, param := range d.extra {
		builder.WriteByte('&')
		builder.WriteString(escapeKey(param.Key))
		builder.WriteByte('=')
		builder.WriteString(escapeValue(param.Value))
	}

	return builder.String()
}

// RawQuery returns the complete query string including the credential.
// Only the dispatcher should call it.
func (d *RequestDescriptor) RawQuery() string {
	return d.baseQuery(escapeValue(d.credential.Reveal())) + d.Fragment()
}

// Redacted returns the query string with the credential masked.
func (d *RequestDescriptor) Redacted() string {
	return d.baseQuery(constants.MaskedSecret) + d.Fragment()
}

// String implements fmt.Stringer without revealing the credential.
func (d *RequestDescriptor) String() string {
	return d.method + " " + d.path + "?" + d.Redacted()
}

func (d *RequestDescriptor) baseQuery(token string) string {
	return constants.QueryKeyToken + "=" + token + "&" + constants.QueryKeyFormat + "=" + constants.FormatJSON
}

// escapeValue applies query escaping but keeps list commas readable.
func escapeValue(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "%2C", ListSeparator)
}

// escapeKey applies query escaping but keeps bracketed keys such as page[limit].
func escapeKey(key string) string {
	escaped := url.QueryEscape(key)
	escaped = strings.ReplaceAll(escaped, "%5B", "[")

	return strings.ReplaceAll(escaped, "%5D", "]")
}

// RedactURL masks the credential in a URL string.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return raw
	}

	parts := strings.Split(parsed.RawQuery, "&")
	for i, part := range parts {
		if strings.HasPrefix(part, constants.QueryKeyToken+"=") {
			parts[i] = constants.QueryKeyToken + "=" + constants.MaskedSecret
		}
	}

	parsed.RawQuery = strings.Join(parts, "&")

	return parsed.String()
}
