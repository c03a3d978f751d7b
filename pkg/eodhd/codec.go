package eodhd

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// QueryParam is one canonical key/value pair.
type QueryParam struct {
	Key   string
	Value string
}

// ParameterSet is the validated, ordered canonical query representation of
// one call. Path parameters are kept apart from query parameters.
type ParameterSet struct {
	query []QueryParam
	path  map[string]string
}

// Query returns the query parameters in insertion order.
func (p *ParameterSet) Query() []QueryParam {
	if p == nil {
		return nil
	}

	query := make([]QueryParam, len(p.query))
	copy(query, p.query)

	return query
}

// PathValue returns the value bound to a {name} path segment.
func (p *ParameterSet) PathValue(name string) (string, bool) {
	if p == nil {
		return "", false
	}

	value, ok := p.path[name]

	return value, ok
}

// Lookup returns the canonical value of a query key.
func (p *ParameterSet) Lookup(key string) (string, bool) {
	for _, param := range p.Query() {
		if param.Key == key {
			return param.Value, true
		}
	}

	return "", false
}

// Encode validates args against the endpoint's parameter schema and returns
// the canonical parameter set. It never touches the network.
func Encode(endpoint *Endpoint, args *Args) (*ParameterSet, error) {
	set := &ParameterSet{path: make(map[string]string)}
	encoded := make(map[string]string, args.Len())

	for _, arg := range args.Entries() {
		spec, ok := endpoint.Param(arg.Name)
		if !ok {
			return nil, withOp(NewValidationError(arg.Name, MsgUnknownParameter), endpoint.Name)
		}

		value, err := encodeValue(spec, arg.Value)
		if err != nil {
			return nil, withOp(err, endpoint.Name)
		}

		encoded[spec.Name] = value

		if spec.InPath {
			set.path[spec.Name] = value

			continue
		}

		set.query = append(set.query, QueryParam{Key: spec.Name, Value: value})
	}

	for _, spec := range endpoint.Params {
		if !spec.Required {
			continue
		}

		if encoded[spec.Name] == "" {
			return nil, withOp(NewValidationError(spec.Name, MsgMissingRequired), endpoint.Name)
		}
	}

	for _, group := range endpoint.OneOf {
		if !slices.ContainsFunc(group, func(name string) bool { return encoded[name] != "" }) {
			return nil, withOp(NewValidationError(strings.Join(group, "|"), MsgMissingRequired), endpoint.Name)
		}
	}

	return set, nil
}

func withOp(err *Error, op string) *Error {
	err.Op = op

	return err
}

// encodeValue checks one value against its spec and returns its wire form.
func encodeValue(spec ParamSpec, value Value) (string, *Error) {
	if spec.Kind != KindList && value.IsCollection() && len(value.Items()) != 1 {
		return "", NewValidationError(spec.Name, MsgExpectedSingle)
	}

	if spec.Kind == KindList {
		return encodeList(spec, value)
	}

	text := strings.TrimSpace(value.String())
	if text == "" {
		// Present but empty is sent as-is; required params are rejected later.
		return text, nil
	}

	switch spec.Kind {
	case KindInt:
		number, err := strconv.Atoi(text)
		if err != nil {
			return "", NewValidationError(spec.Name, MsgInvalidInteger)
		}

		if outOfRange(spec, number) {
			return "", NewValidationError(spec.Name, MsgOutOfRange)
		}

		return strconv.Itoa(number), nil
	case KindFloat:
		number, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return "", NewValidationError(spec.Name, MsgInvalidNumber)
		}

		return strconv.FormatFloat(number, 'f', -1, 64), nil
	case KindDate:
		if _, err := time.Parse(DateLayout, text); err != nil {
			return "", NewValidationError(spec.Name, MsgInvalidDate)
		}

		return text, nil
	case KindEnum:
		if !slices.Contains(spec.Enum, text) {
			return "", NewValidationError(spec.Name, MsgUnsupportedValue)
		}

		return text, nil
	default:
		return text, nil
	}
}

// encodeList flattens a scalar or collection into a comma-joined string.
// Items of a pre-joined scalar are split so both forms normalize alike.
func encodeList(spec ParamSpec, value Value) (string, *Error) {
	var items []string

	for _, item := range value.Items() {
		for _, part := range strings.Split(item, ListSeparator) {
			part = strings.TrimSpace(part)
			if part != "" {
				items = append(items, part)
			}
		}
	}

	if len(spec.Enum) > 0 {
		for _, item := range items {
			if !slices.Contains(spec.Enum, item) {
				return "", NewValidationError(spec.Name, MsgUnsupportedValue)
			}
		}
	}

	return strings.Join(items, ListSeparator), nil
}

func outOfRange(spec ParamSpec, number int) bool {
	if minimum, ok := spec.Min.Get(); ok && number < minimum {
		return true
	}

	if maximum, ok := spec.Max.Get(); ok && number > maximum {
		return true
	}

	return false
}
