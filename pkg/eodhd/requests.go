package eodhd

import "time"

// Arguer converts typed endpoint parameters into generic call arguments.
type Arguer interface {
	Args() *Args
}

// USExtendedQuotesParams selects symbols of the delayed extended quotes
// endpoint. Symbols may be a collection or a pre-joined scalar.
type USExtendedQuotesParams struct {
	Symbols Value
	Page    Page
}

// Args implements Arguer.
func (p *USExtendedQuotesParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	return args.Set(ParamSymbols, p.Symbols).SetPage(p.Page)
}

// EODParams selects end-of-day bars.
type EODParams struct {
	Symbol string
	From   Optional[time.Time]
	To     Optional[time.Time]
	// Period is d, w or m.
	Period Optional[string]
	// Order is a (ascending) or d (descending).
	Order Optional[string]
}

// Args implements Arguer.
func (p *EODParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	args.Set(ParamSymbol, Scalar(p.Symbol))
	setDateRange(args, p.From, p.To)
	args.SetOptional(ParamPeriod, MapOptional(p.Period, Scalar))
	args.SetOptional(ParamOrder, MapOptional(p.Order, Scalar))

	return args
}

// RealTimeParams selects live quotes. Additional symbols are fetched in the
// same request.
type RealTimeParams struct {
	Symbol     string
	Additional []string
}

// Args implements Arguer.
func (p *RealTimeParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	args.Set(ParamSymbol, Scalar(p.Symbol))

	if len(p.Additional) > 0 {
		args.Set(ParamSymbols, Strings(p.Additional...))
	}

	return args
}

// IntradayParams selects intraday bars. From and To are unix timestamps.
type IntradayParams struct {
	Symbol   string
	Interval Optional[string]
	From     Optional[time.Time]
	To       Optional[time.Time]
}

// Args implements Arguer.
func (p *IntradayParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	args.Set(ParamSymbol, Scalar(p.Symbol))
	args.SetOptional(ParamInterval, MapOptional(p.Interval, Scalar))
	args.SetOptional(ParamFrom, MapOptional(p.From, unixValue))
	args.SetOptional(ParamTo, MapOptional(p.To, unixValue))

	return args
}

// FundamentalsParams selects company fundamentals, optionally filtered to
// sections such as "General" or "Highlights".
type FundamentalsParams struct {
	Symbol  string
	Filters []string
}

// Args implements Arguer.
func (p *FundamentalsParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	args.Set(ParamSymbol, Scalar(p.Symbol))

	if len(p.Filters) > 0 {
		args.Set(ParamFilter, Strings(p.Filters...))
	}

	return args
}

// ExchangeSymbolsParams selects the tickers of one exchange.
type ExchangeSymbolsParams struct {
	Exchange string
	Type     Optional[string]
	Delisted Optional[bool]
}

// Args implements Arguer.
func (p *ExchangeSymbolsParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	args.Set(ParamExchange, Scalar(p.Exchange))
	args.SetOptional(ParamType, MapOptional(p.Type, Scalar))
	args.SetOptional(ParamDelisted, MapOptional(p.Delisted, Bool))

	return args
}

// HistoryParams selects dividend or split history.
type HistoryParams struct {
	Symbol string
	From   Optional[time.Time]
	To     Optional[time.Time]
}

// Args implements Arguer.
func (p *HistoryParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	args.Set(ParamSymbol, Scalar(p.Symbol))
	setDateRange(args, p.From, p.To)

	return args
}

// SearchParams is a free-text instrument search.
type SearchParams struct {
	Query     string
	Limit     Optional[int]
	Type      Optional[string]
	Exchange  Optional[string]
	BondsOnly Optional[bool]
}

// Args implements Arguer.
func (p *SearchParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	args.Set(ParamQuery, Scalar(p.Query))
	args.SetOptional(ParamLimit, MapOptional(p.Limit, Int))
	args.SetOptional(ParamType, MapOptional(p.Type, Scalar))
	args.SetOptional(ParamExchange, MapOptional(p.Exchange, Scalar))
	args.SetOptional(ParamBondsOnly, MapOptional(p.BondsOnly, Bool))

	return args
}

// NewsParams selects news by symbols or by tag; at least one is required.
type NewsParams struct {
	Symbols []string
	Tag     Optional[string]
	From    Optional[time.Time]
	To      Optional[time.Time]
	Limit   Optional[int]
	Offset  Optional[int]
}

// Args implements Arguer.
func (p *NewsParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	if len(p.Symbols) > 0 {
		args.Set(ParamSymbols, Strings(p.Symbols...))
	}

	args.SetOptional(ParamTag, MapOptional(p.Tag, Scalar))
	setDateRange(args, p.From, p.To)
	args.SetOptional(ParamLimit, MapOptional(p.Limit, Int))
	args.SetOptional(ParamOffset, MapOptional(p.Offset, Int))

	return args
}

// EarningsCalendarParams selects an earnings window.
type EarningsCalendarParams struct {
	Symbols []string
	From    Optional[time.Time]
	To      Optional[time.Time]
}

// Args implements Arguer.
func (p *EarningsCalendarParams) Args() *Args {
	args := NewArgs()
	if p == nil {
		return args
	}

	if len(p.Symbols) > 0 {
		args.Set(ParamCalendarSymbols, Strings(p.Symbols...))
	}

	setDateRange(args, p.From, p.To)

	return args
}

func setDateRange(args *Args, from, to Optional[time.Time]) {
	args.SetOptional(ParamFrom, MapOptional(from, Date))
	args.SetOptional(ParamTo, MapOptional(to, Date))
}

func unixValue(value time.Time) Value {
	return Int64(value.Unix())
}
