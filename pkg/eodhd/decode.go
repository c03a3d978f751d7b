package eodhd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
)

// Static errors for err113 compliance.
var (
	errNotJSONContent     = errors.New("content type is not JSON")
	errExpectedObject     = errors.New("expected an object")
	errExpectedCollection = errors.New("expected an array or object")
	errEmptyValue         = errors.New("empty value")
	errNotEnvelope        = errors.New("result is not an envelope")
	errNotBare            = errors.New("result is not bare")
	errInvalidJSON        = errors.New("invalid JSON")
	errMissingField       = errors.New("envelope field absent")
)

// Decode parses a successful response into the declared shape.
func Decode(raw *RawResponse, shape Shape) (*Result, error) {
	body := bytes.TrimSpace(raw.Body)

	if err := checkContentType(raw.ContentType, body); err != nil {
		return nil, NewDecodeError(MsgMalformedBody, err)
	}

	if !json.Valid(body) {
		return nil, NewDecodeError(MsgMalformedBody, fmt.Errorf("%w (%d bytes)", errInvalidJSON, len(body)))
	}

	if shape == ShapeBare {
		return &Result{Shape: ShapeBare, Bare: json.RawMessage(body)}, nil
	}

	envelope, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	return &Result{Shape: ShapeEnvelope, Envelope: envelope}, nil
}

// checkContentType rejects bodies an intermediary declared as HTML or text
// unless they still parse as JSON. An absent content type is accepted.
func checkContentType(contentType string, body []byte) error {
	if contentType == "" {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}

	if strings.Contains(mediaType, "json") || strings.HasPrefix(mediaType, "application/") {
		return nil
	}

	if strings.HasPrefix(mediaType, "text/html") || !json.Valid(body) {
		return fmt.Errorf("%w: %s", errNotJSONContent, mediaType)
	}

	return nil
}

func decodeEnvelope(body []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage

	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, NewDecodeError(MsgUnexpectedShape, err)
	}

	for _, key := range []string{"meta", "data", "links"} {
		if _, ok := fields[key]; !ok {
			return nil, NewDecodeError(MsgUnexpectedShape, fmt.Errorf("%w: missing %q", errMissingField, key))
		}
	}

	envelope := &Envelope{}

	if err := decodeObject(fields["meta"], &envelope.Meta); err != nil {
		return nil, NewDecodeError(MsgUnexpectedShape, fmt.Errorf("meta: %w", err))
	}

	if err := decodeObject(fields["links"], &envelope.Links); err != nil {
		return nil, NewDecodeError(MsgUnexpectedShape, fmt.Errorf("links: %w", err))
	}

	data, err := orderedItems(fields["data"])
	if err != nil {
		return nil, NewDecodeError(MsgUnexpectedShape, fmt.Errorf("data: %w", err))
	}

	envelope.Data = data

	return envelope, nil
}

// decodeObject requires a JSON object and never leaves a nil map behind.
func decodeObject(raw json.RawMessage, target *map[string]json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errExpectedObject
	}

	if err := json.Unmarshal(trimmed, target); err != nil {
		return err
	}

	if *target == nil {
		*target = make(map[string]json.RawMessage)
	}

	return nil
}

// orderedItems returns the elements of a JSON array, or the values of a
// JSON object in document order.
func orderedItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errEmptyValue
	}

	switch trimmed[0] {
	case '[':
		items := []json.RawMessage{}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}

		return items, nil
	case '{':
		return objectValues(trimmed)
	default:
		return nil, errExpectedCollection
	}
}

func objectValues(raw []byte) ([]json.RawMessage, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))

	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	items := []json.RawMessage{}

	for decoder.More() {
		if _, err := decoder.Token(); err != nil {
			return nil, err
		}

		var item json.RawMessage
		if err := decoder.Decode(&item); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if _, err := decoder.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return items, nil
}

// DecodeData decodes every envelope data item into T.
func DecodeData[T any](result *Result) (*ListEnvelope[T], error) {
	if result == nil || result.Envelope == nil {
		return nil, NewDecodeError(MsgUnexpectedShape, errNotEnvelope)
	}

	list := &ListEnvelope[T]{
		Meta:  result.Envelope.Meta,
		Data:  make([]T, 0, len(result.Envelope.Data)),
		Links: result.Envelope.Links,
	}

	for i, raw := range result.Envelope.Data {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, NewDecodeError(MsgUnexpectedShape, fmt.Errorf("data[%d]: %w", i, err))
		}

		list.Data = append(list.Data, item)
	}

	return list, nil
}

// DecodeBare decodes a bare result into T.
func DecodeBare[T any](result *Result) (T, error) {
	var value T

	if result == nil || result.Bare == nil {
		return value, NewDecodeError(MsgUnexpectedShape, errNotBare)
	}

	if err := json.Unmarshal(result.Bare, &value); err != nil {
		return value, NewDecodeError(MsgUnexpectedShape, err)
	}

	return value, nil
}

// DecodeList decodes a bare array, or a single bare object, into a slice of T.
func DecodeList[T any](result *Result) ([]T, error) {
	if result == nil || result.Bare == nil {
		return nil, NewDecodeError(MsgUnexpectedShape, errNotBare)
	}

	trimmed := bytes.TrimSpace(result.Bare)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single T
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, NewDecodeError(MsgUnexpectedShape, err)
		}

		return []T{single}, nil
	}

	items, err := orderedItems(trimmed)
	if err != nil {
		return nil, NewDecodeError(MsgUnexpectedShape, err)
	}

	list := make([]T, 0, len(items))

	for i, raw := range items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, NewDecodeError(MsgUnexpectedShape, fmt.Errorf("item %d: %w", i, err))
		}

		list = append(list, item)
	}

	return list, nil
}
