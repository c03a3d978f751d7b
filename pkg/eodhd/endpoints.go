package eodhd

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fivetwenty-io/eodhd/internal/constants"
)

// ParamKind is the declared type of an endpoint parameter.
type ParamKind int

const (
	// KindString accepts any single value.
	KindString ParamKind = iota
	// KindList accepts a scalar or a collection, comma-joined on the wire.
	KindList
	// KindInt accepts a single integer, optionally range checked.
	KindInt
	// KindFloat accepts a single decimal number.
	KindFloat
	// KindDate accepts a single YYYY-MM-DD date.
	KindDate
	// KindEnum accepts one of the declared values.
	KindEnum
)

// ParamSpec declares one parameter an endpoint accepts.
type ParamSpec struct {
	// Name is the wire key, e.g. "s" or "page[limit]".
	Name     string
	Kind     ParamKind
	Required bool
	// InPath marks a parameter substituted into a {Name} path segment.
	InPath bool
	Min    Optional[int]
	Max    Optional[int]
	Enum   []string
}

// Endpoint is a declarative description of one remote operation.
type Endpoint struct {
	// Name identifies the operation, e.g. "us-extended-quotes".
	Name string
	// Path is relative to the base URL and may contain {param} segments.
	Path        string
	Description string
	Shape       Shape
	Params      []ParamSpec
	// OneOf lists parameter groups of which at least one must be present.
	OneOf [][]string
	// MaxPageLimit is non-zero for endpoints paginated with page[limit]/page[offset].
	MaxPageLimit int
}

// Param returns the named parameter spec.
func (e *Endpoint) Param(name string) (ParamSpec, bool) {
	for _, spec := range e.Params {
		if spec.Name == name {
			return spec, true
		}
	}

	return ParamSpec{}, false
}

// Paginated reports whether the endpoint takes page[limit]/page[offset].
func (e *Endpoint) Paginated() bool {
	return e.MaxPageLimit > 0
}

// pageParams returns the specs every paginated endpoint accepts.
func pageParams(maxLimit int) []ParamSpec {
	return []ParamSpec{
		{Name: constants.PageLimitKey, Kind: KindInt, Min: Some(0), Max: Some(maxLimit)},
		{Name: constants.PageOffsetKey, Kind: KindInt, Min: Some(0)},
	}
}

// Registry holds endpoint descriptors by name. It is safe for concurrent use.
type Registry struct {
	mutex     sync.RWMutex
	endpoints map[string]*Endpoint
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{endpoints: make(map[string]*Endpoint)}
}

// Register adds an endpoint. Paginated endpoints get their page params appended.
func (r *Registry) Register(endpoint Endpoint) error {
	if endpoint.Name == "" || endpoint.Path == "" {
		return fmt.Errorf("%w: name and path are required", ErrInvalidConfig)
	}

	if endpoint.Paginated() {
		if _, ok := endpoint.Param(constants.PageLimitKey); !ok {
			endpoint.Params = append(endpoint.Params, pageParams(endpoint.MaxPageLimit)...)
		}
	}

	for _, spec := range endpoint.Params {
		if spec.InPath && !strings.Contains(endpoint.Path, "{"+spec.Name+"}") {
			return fmt.Errorf("%w: path %q has no {%s} segment", ErrInvalidConfig, endpoint.Path, spec.Name)
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.endpoints[endpoint.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEndpoint, endpoint.Name)
	}

	r.endpoints[endpoint.Name] = &endpoint

	return nil
}

// MustRegister is Register that panics, for package-level tables.
func (r *Registry) MustRegister(endpoints ...Endpoint) *Registry {
	for _, endpoint := range endpoints {
		if err := r.Register(endpoint); err != nil {
			panic(err)
		}
	}

	return r
}

// Lookup returns the named endpoint.
func (r *Registry) Lookup(name string) (*Endpoint, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	endpoint, ok := r.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}

	return endpoint, nil
}

// List returns all endpoints sorted by name.
func (r *Registry) List() []*Endpoint {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	list := make([]*Endpoint, 0, len(r.endpoints))
	for _, endpoint := range r.endpoints {
		list = append(list, endpoint)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	return list
}

// Endpoint names of the built-in registry.
const (
	EndpointUSExtendedQuotes = "us-extended-quotes"
	EndpointEOD              = "eod"
	EndpointRealTime         = "real-time"
	EndpointIntraday         = "intraday"
	EndpointFundamentals     = "fundamentals"
	EndpointExchanges        = "exchanges-list"
	EndpointExchangeSymbols  = "exchange-symbol-list"
	EndpointDividends        = "dividends"
	EndpointSplits           = "splits"
	EndpointSearch           = "search"
	EndpointNews             = "news"
	EndpointEarningsCalendar = "earnings-calendar"
)

// Wire names of the built-in parameters.
const (
	ParamSymbol          = "symbol"
	ParamSymbols         = "s"
	ParamFrom            = "from"
	ParamTo              = "to"
	ParamPeriod          = "period"
	ParamOrder           = "order"
	ParamInterval        = "interval"
	ParamFilter          = "filter"
	ParamExchange        = "exchange"
	ParamType            = "type"
	ParamDelisted        = "delisted"
	ParamQuery           = "query"
	ParamLimit           = "limit"
	ParamOffset          = "offset"
	ParamBondsOnly       = "bonds_only"
	ParamTag             = "t"
	ParamCalendarSymbols = "symbols"
)

const (
	maxSearchLimit = 500
	maxNewsLimit   = 1000
)

func symbolPath() ParamSpec {
	return ParamSpec{Name: ParamSymbol, Kind: KindString, Required: true, InPath: true}
}

func dateRange() []ParamSpec {
	return []ParamSpec{
		{Name: ParamFrom, Kind: KindDate},
		{Name: ParamTo, Kind: KindDate},
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the built-in endpoint table.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry().MustRegister(builtinEndpoints()...)
	})

	return defaultRegistry
}

func builtinEndpoints() []Endpoint {
	return []Endpoint{
		{
			Name:         EndpointUSExtendedQuotes,
			Path:         "us-quote-delayed",
			Description:  "Live v2 delayed extended quotes for US symbols",
			Shape:        ShapeEnvelope,
			MaxPageLimit: constants.QuotesMaxPageLimit,
			Params: []ParamSpec{
				{Name: ParamSymbols, Kind: KindList, Required: true},
			},
		},
		{
			Name:        EndpointEOD,
			Path:        "eod/{symbol}",
			Description: "End-of-day historical prices",
			Shape:       ShapeBare,
			Params: append([]ParamSpec{
				symbolPath(),
				{Name: ParamPeriod, Kind: KindEnum, Enum: []string{"d", "w", "m"}},
				{Name: ParamOrder, Kind: KindEnum, Enum: []string{"a", "d"}},
			}, dateRange()...),
		},
		{
			Name:        EndpointRealTime,
			Path:        "real-time/{symbol}",
			Description: "Live (15-20 minute delayed) OHLCV snapshot",
			Shape:       ShapeBare,
			Params: []ParamSpec{
				symbolPath(),
				{Name: ParamSymbols, Kind: KindList},
			},
		},
		{
			Name:        EndpointIntraday,
			Path:        "intraday/{symbol}",
			Description: "Intraday historical bars",
			Shape:       ShapeBare,
			Params: []ParamSpec{
				symbolPath(),
				{Name: ParamInterval, Kind: KindEnum, Enum: []string{"1m", "5m", "1h"}},
				{Name: ParamFrom, Kind: KindInt, Min: Some(0)},
				{Name: ParamTo, Kind: KindInt, Min: Some(0)},
			},
		},
		{
			Name:        EndpointFundamentals,
			Path:        "fundamentals/{symbol}",
			Description: "Company fundamentals",
			Shape:       ShapeBare,
			Params: []ParamSpec{
				symbolPath(),
				{Name: ParamFilter, Kind: KindList},
			},
		},
		{
			Name:        EndpointExchanges,
			Path:        "exchanges-list",
			Description: "Supported exchanges",
			Shape:       ShapeBare,
		},
		{
			Name:        EndpointExchangeSymbols,
			Path:        "exchange-symbol-list/{exchange}",
			Description: "Tickers listed on an exchange",
			Shape:       ShapeBare,
			Params: []ParamSpec{
				{Name: ParamExchange, Kind: KindString, Required: true, InPath: true},
				{Name: ParamType, Kind: KindEnum, Enum: []string{"common_stock", "preferred_stock", "stock", "etf", "fund"}},
				{Name: ParamDelisted, Kind: KindEnum, Enum: []string{"0", "1"}},
			},
		},
		{
			Name:        EndpointDividends,
			Path:        "div/{symbol}",
			Description: "Dividend history",
			Shape:       ShapeBare,
			Params:      append([]ParamSpec{symbolPath()}, dateRange()...),
		},
		{
			Name:        EndpointSplits,
			Path:        "splits/{symbol}",
			Description: "Split history",
			Shape:       ShapeBare,
			Params:      append([]ParamSpec{symbolPath()}, dateRange()...),
		},
		{
			Name:        EndpointSearch,
			Path:        "search/{query}",
			Description: "Search instruments by ticker, name or ISIN",
			Shape:       ShapeBare,
			Params: []ParamSpec{
				{Name: ParamQuery, Kind: KindString, Required: true, InPath: true},
				{Name: ParamLimit, Kind: KindInt, Min: Some(1), Max: Some(maxSearchLimit)},
				{Name: ParamType, Kind: KindEnum, Enum: []string{"all", "stock", "etf", "fund", "bond", "index", "crypto"}},
				{Name: ParamExchange, Kind: KindString},
				{Name: ParamBondsOnly, Kind: KindEnum, Enum: []string{"0", "1"}},
			},
		},
		{
			Name:        EndpointNews,
			Path:        "news",
			Description: "Financial news by symbol or tag",
			Shape:       ShapeBare,
			OneOf:       [][]string{{ParamSymbols, ParamTag}},
			Params: append([]ParamSpec{
				{Name: ParamSymbols, Kind: KindList},
				{Name: ParamTag, Kind: KindString},
				{Name: ParamLimit, Kind: KindInt, Min: Some(1), Max: Some(maxNewsLimit)},
				{Name: ParamOffset, Kind: KindInt, Min: Some(0)},
			}, dateRange()...),
		},
		{
			Name:        EndpointEarningsCalendar,
			Path:        "calendar/earnings",
			Description: "Upcoming and historical earnings",
			Shape:       ShapeBare,
			Params: append([]ParamSpec{
				{Name: ParamCalendarSymbols, Kind: KindList},
			}, dateRange()...),
		},
	}
}
