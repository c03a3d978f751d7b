package eodhd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire.
const DateLayout = "2006-01-02"

// ListSeparator joins collection values on the wire.
const ListSeparator = ","

// Credential is an EODHD API token. It is supplied per call and never
// rendered by fmt, so it cannot leak through logs or error strings.
type Credential string

// String implements fmt.Stringer.
func (c Credential) String() string {
	return constants.MaskedSecret
}

// GoString implements fmt.GoStringer.
func (c Credential) GoString() string {
	return constants.MaskedSecret
}

// Format implements fmt.Formatter.
func (c Credential) Format(state fmt.State, verb rune) {
	_, _ = state.Write([]byte(constants.MaskedSecret))
}

// MarshalText keeps the token out of encoded output.
func (c Credential) MarshalText() ([]byte, error) {
	return []byte(constants.MaskedSecret), nil
}

// Reveal returns the raw token. Only the request builder calls it.
func (c Credential) Reveal() string {
	return string(c)
}

type valueKind uint8

const (
	kindScalar valueKind = iota + 1
	kindCollection
)

// Value is a parameter value: either a single scalar or an ordered
// collection of scalars. The zero Value is invalid and treated as empty.
type Value struct {
	kind   valueKind
	scalar string
	items  []string
}

// Scalar wraps a single string value.
func Scalar(value string) Value {
	return Value{kind: kindScalar, scalar: value}
}

// Strings wraps an ordered collection. Order is kept as supplied.
func Strings(items ...string) Value {
	copied := make([]string, len(items))
	copy(copied, items)

	return Value{kind: kindCollection, items: copied}
}

// Int wraps an integer.
func Int(value int) Value {
	return Scalar(strconv.Itoa(value))
}

// Int64 wraps a 64-bit integer, e.g. a unix timestamp.
func Int64(value int64) Value {
	return Scalar(strconv.FormatInt(value, 10))
}

// Float wraps a float in its shortest round-trip representation.
func Float(value float64) Value {
	return Scalar(strconv.FormatFloat(value, 'f', -1, 64))
}

// Bool wraps a boolean as 1 or 0.
func Bool(value bool) Value {
	if value {
		return Scalar("1")
	}

	return Scalar("0")
}

// Date wraps a calendar date in ISO-8601 form.
func Date(value time.Time) Value {
	return Scalar(value.Format(DateLayout))
}

// IsCollection reports whether the value was built from a collection.
func (v Value) IsCollection() bool {
	return v.kind == kindCollection
}

// IsEmpty reports whether the value carries nothing to send.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case kindScalar:
		return strings.TrimSpace(v.scalar) == ""
	case kindCollection:
		for _, item := range v.items {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}

		return true
	default:
		return true
	}
}

// Items returns the collection elements, or the scalar as a single element.
func (v Value) Items() []string {
	switch v.kind {
	case kindScalar:
		return []string{v.scalar}
	case kindCollection:
		items := make([]string, len(v.items))
		copy(items, v.items)

		return items
	default:
		return nil
	}
}

// String returns the canonical wire form: collections comma-joined in order.
func (v Value) String() string {
	switch v.kind {
	case kindScalar:
		return v.scalar
	case kindCollection:
		return strings.Join(v.items, ListSeparator)
	default:
		return ""
	}
}

// Optional is an explicit present/absent option. The zero Optional is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}

	return fallback
}

// MapOptional converts a present value with fn; absent stays absent.
func MapOptional[T, U any](o Optional[T], fn func(T) U) Optional[U] {
	if !o.set {
		return None[U]()
	}

	return Some(fn(o.value))
}

// Page is the nested pagination object of envelope endpoints.
type Page struct {
	Limit  Optional[int]
	Offset Optional[int]
}

// Arg is a single named argument.
type Arg struct {
	Name  string
	Value Value
}

// Args is the ordered set of caller arguments for one call. Names are unique;
// setting an existing name replaces its value in place.
type Args struct {
	entries []Arg
	index   map[string]int
}

// NewArgs creates an empty argument list.
func NewArgs() *Args {
	return &Args{index: make(map[string]int)}
}

// Set adds or replaces an argument.
func (a *Args) Set(name string, value Value) *Args {
	if a.index == nil {
		a.index = make(map[string]int)
	}

	if i, ok := a.index[name]; ok {
		a.entries[i].Value = value

		return a
	}

	a.index[name] = len(a.entries)
	a.entries = append(a.entries, Arg{Name: name, Value: value})

	return a
}

// SetOptional adds the argument only when it is present.
func (a *Args) SetOptional(name string, value Optional[Value]) *Args {
	if v, ok := value.Get(); ok {
		a.Set(name, v)
	}

	return a
}

// SetPage expands a pagination object into its bracketed keys.
func (a *Args) SetPage(page Page) *Args {
	a.SetOptional(constants.PageLimitKey, MapOptional(page.Limit, Int))
	a.SetOptional(constants.PageOffsetKey, MapOptional(page.Offset, Int))

	return a
}

// Delete removes an argument, keeping the order of the rest.
func (a *Args) Delete(name string) *Args {
	if a == nil {
		return a
	}

	i, ok := a.index[name]
	if !ok {
		return a
	}

	a.entries = append(a.entries[:i], a.entries[i+1:]...)
	delete(a.index, name)

	for j := i; j < len(a.entries); j++ {
		a.index[a.entries[j].Name] = j
	}

	return a
}

// Get returns the named argument.
func (a *Args) Get(name string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}

	i, ok := a.index[name]
	if !ok {
		return Value{}, false
	}

	return a.entries[i].Value, true
}

// Entries returns the arguments in insertion order.
func (a *Args) Entries() []Arg {
	if a == nil {
		return nil
	}

	entries := make([]Arg, len(a.entries))
	copy(entries, a.entries)

	return entries
}

// Len returns the number of arguments.
func (a *Args) Len() int {
	if a == nil {
		return 0
	}

	return len(a.entries)
}

// Clone returns an independent copy.
func (a *Args) Clone() *Args {
	clone := NewArgs()
	for _, entry := range a.Entries() {
		clone.Set(entry.Name, entry.Value)
	}

	return clone
}
