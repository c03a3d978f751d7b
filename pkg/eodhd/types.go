package eodhd

import (
	"encoding/json"
	"net/http"
)

// Shape is the response family an endpoint declares.
type Shape int

const (
	// ShapeBare endpoints return a JSON array or object directly.
	ShapeBare Shape = iota
	// ShapeEnvelope endpoints wrap results in meta/data/links.
	ShapeEnvelope
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	if s == ShapeEnvelope {
		return "envelope"
	}

	return "bare"
}

// RawResponse is what the transport returned for the final attempt.
type RawResponse struct {
	StatusCode  int
	Body        []byte
	ContentType string
	Header      http.Header
	Attempts    int
}

// Envelope is the meta/data/links wrapper. Data is always a non-nil ordered sequence.
type Envelope struct {
	Meta  map[string]json.RawMessage `json:"meta"  yaml:"meta"`
	Data  []json.RawMessage          `json:"data"  yaml:"data"`
	Links map[string]json.RawMessage `json:"links" yaml:"links"`
}

// NextLink returns links.next when it is a non-empty string.
func (e *Envelope) NextLink() (string, bool) {
	raw, ok := e.Links["next"]
	if !ok {
		return "", false
	}

	var next string
	if err := json.Unmarshal(raw, &next); err != nil || next == "" {
		return "", false
	}

	return next, true
}

// MetaInt reads an integer meta field such as "count" or "total".
func (e *Envelope) MetaInt(key string) (int, bool) {
	raw, ok := e.Meta[key]
	if !ok {
		return 0, false
	}

	var value int
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}

	return value, true
}

// Result is a decoded response. Exactly one of Envelope and Bare is set.
type Result struct {
	Shape    Shape
	Envelope *Envelope
	Bare     json.RawMessage
}

// ListEnvelope is an Envelope whose data items are decoded into T.
type ListEnvelope[T any] struct {
	Meta  map[string]json.RawMessage `json:"meta"  yaml:"meta"`
	Data  []T                        `json:"data"  yaml:"data"`
	Links map[string]json.RawMessage `json:"links" yaml:"links"`
}

// ExtendedQuote is one row of the delayed extended quotes endpoint.
type ExtendedQuote struct {
	Symbol             string  `json:"symbol"                       yaml:"symbol"`
	Exchange           string  `json:"exchange,omitempty"           yaml:"exchange,omitempty"`
	Name               string  `json:"name,omitempty"               yaml:"name,omitempty"`
	LastTradePrice     float64 `json:"lastTradePrice"               yaml:"lastTradePrice"`
	LastTradeSize      int64   `json:"lastTradeSize,omitempty"      yaml:"lastTradeSize,omitempty"`
	LastTradeTime      int64   `json:"lastTradeTime,omitempty"      yaml:"lastTradeTime,omitempty"`
	Change             float64 `json:"change"                       yaml:"change"`
	ChangePercent      float64 `json:"changePercent"                yaml:"changePercent"`
	PreviousClosePrice float64 `json:"previousClosePrice,omitempty" yaml:"previousClosePrice,omitempty"`
	Open               float64 `json:"open,omitempty"               yaml:"open,omitempty"`
	High               float64 `json:"high,omitempty"               yaml:"high,omitempty"`
	Low                float64 `json:"low,omitempty"                yaml:"low,omitempty"`
	Volume             int64   `json:"volume,omitempty"             yaml:"volume,omitempty"`
	BidPrice           float64 `json:"bidPrice,omitempty"           yaml:"bidPrice,omitempty"`
	BidSize            int64   `json:"bidSize,omitempty"            yaml:"bidSize,omitempty"`
	AskPrice           float64 `json:"askPrice,omitempty"           yaml:"askPrice,omitempty"`
	AskSize            int64   `json:"askSize,omitempty"            yaml:"askSize,omitempty"`
	MarketCap          float64 `json:"marketCap,omitempty"          yaml:"marketCap,omitempty"`
	EthPrice           float64 `json:"ethPrice,omitempty"           yaml:"ethPrice,omitempty"`
	EthTime            int64   `json:"ethTime,omitempty"            yaml:"ethTime,omitempty"`
	Timestamp          int64   `json:"timestamp,omitempty"          yaml:"timestamp,omitempty"`
}

// EODBar is one end-of-day price bar.
type EODBar struct {
	Date          string  `json:"date"           yaml:"date"`
	Open          float64 `json:"open"           yaml:"open"`
	High          float64 `json:"high"           yaml:"high"`
	Low           float64 `json:"low"            yaml:"low"`
	Close         float64 `json:"close"          yaml:"close"`
	AdjustedClose float64 `json:"adjusted_close" yaml:"adjusted_close"`
	Volume        int64   `json:"volume"         yaml:"volume"`
}

// RealTimeQuote is a live OHLCV snapshot.
type RealTimeQuote struct {
	Code          string  `json:"code"          yaml:"code"`
	Timestamp     int64   `json:"timestamp"     yaml:"timestamp"`
	GMTOffset     int     `json:"gmtoffset"     yaml:"gmtoffset"`
	Open          float64 `json:"open"          yaml:"open"`
	High          float64 `json:"high"          yaml:"high"`
	Low           float64 `json:"low"           yaml:"low"`
	Close         float64 `json:"close"         yaml:"close"`
	Volume        int64   `json:"volume"        yaml:"volume"`
	PreviousClose float64 `json:"previousClose" yaml:"previousClose"`
	Change        float64 `json:"change"        yaml:"change"`
	ChangePercent float64 `json:"change_p"      yaml:"change_p"`
}

// IntradayBar is one intraday price bar.
type IntradayBar struct {
	Timestamp int64   `json:"timestamp" yaml:"timestamp"`
	GMTOffset int     `json:"gmtoffset" yaml:"gmtoffset"`
	Datetime  string  `json:"datetime"  yaml:"datetime"`
	Open      float64 `json:"open"      yaml:"open"`
	High      float64 `json:"high"      yaml:"high"`
	Low       float64 `json:"low"       yaml:"low"`
	Close     float64 `json:"close"     yaml:"close"`
	Volume    int64   `json:"volume"    yaml:"volume"`
}

// Exchange describes a supported exchange.
type Exchange struct {
	Name         string `json:"Name"         yaml:"name"`
	Code         string `json:"Code"         yaml:"code"`
	OperatingMIC string `json:"OperatingMIC" yaml:"operating_mic"`
	Country      string `json:"Country"      yaml:"country"`
	Currency     string `json:"Currency"     yaml:"currency"`
	CountryISO2  string `json:"CountryISO2"  yaml:"country_iso2"`
	CountryISO3  string `json:"CountryISO3"  yaml:"country_iso3"`
}

// ExchangeSymbol is one ticker listed on an exchange.
type ExchangeSymbol struct {
	Code     string `json:"Code"     yaml:"code"`
	Name     string `json:"Name"     yaml:"name"`
	Country  string `json:"Country"  yaml:"country"`
	Exchange string `json:"Exchange" yaml:"exchange"`
	Currency string `json:"Currency" yaml:"currency"`
	Type     string `json:"Type"     yaml:"type"`
	Isin     string `json:"Isin"     yaml:"isin"`
}

// Dividend is one dividend payment.
type Dividend struct {
	Date            string  `json:"date"            yaml:"date"`
	DeclarationDate string  `json:"declarationDate" yaml:"declaration_date"`
	RecordDate      string  `json:"recordDate"      yaml:"record_date"`
	PaymentDate     string  `json:"paymentDate"     yaml:"payment_date"`
	Period          string  `json:"period"          yaml:"period"`
	Value           float64 `json:"value"           yaml:"value"`
	UnadjustedValue float64 `json:"unadjustedValue" yaml:"unadjusted_value"`
	Currency        string  `json:"currency"        yaml:"currency"`
}

// Split is one stock split, e.g. "4.000000/1.000000".
type Split struct {
	Date  string `json:"date"  yaml:"date"`
	Split string `json:"split" yaml:"split"`
}

// SearchHit is one instrument returned by search.
type SearchHit struct {
	Code              string  `json:"Code"              yaml:"code"`
	Exchange          string  `json:"Exchange"          yaml:"exchange"`
	Name              string  `json:"Name"              yaml:"name"`
	Type              string  `json:"Type"              yaml:"type"`
	Country           string  `json:"Country"           yaml:"country"`
	Currency          string  `json:"Currency"          yaml:"currency"`
	ISIN              string  `json:"ISIN"              yaml:"isin"`
	PreviousClose     float64 `json:"previousClose"     yaml:"previous_close"`
	PreviousCloseDate string  `json:"previousCloseDate" yaml:"previous_close_date"`
}

// Sentiment is the polarity breakdown attached to a news article.
type Sentiment struct {
	Polarity float64 `json:"polarity" yaml:"polarity"`
	Negative float64 `json:"neg"      yaml:"neg"`
	Neutral  float64 `json:"neu"      yaml:"neu"`
	Positive float64 `json:"pos"      yaml:"pos"`
}

// NewsArticle is one news item.
type NewsArticle struct {
	Date      string     `json:"date"                yaml:"date"`
	Title     string     `json:"title"               yaml:"title"`
	Content   string     `json:"content"             yaml:"content"`
	Link      string     `json:"link"                yaml:"link"`
	Symbols   []string   `json:"symbols"             yaml:"symbols"`
	Tags      []string   `json:"tags"                yaml:"tags"`
	Sentiment *Sentiment `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
}

// Earning is one earnings report entry.
type Earning struct {
	Code              string   `json:"code"                yaml:"code"`
	ReportDate        string   `json:"report_date"         yaml:"report_date"`
	Date              string   `json:"date"                yaml:"date"`
	BeforeAfterMarket string   `json:"before_after_market" yaml:"before_after_market"`
	Currency          string   `json:"currency"            yaml:"currency"`
	Actual            *float64 `json:"actual"              yaml:"actual"`
	Estimate          *float64 `json:"estimate"            yaml:"estimate"`
	Difference        *float64 `json:"difference"          yaml:"difference"`
	Percent           *float64 `json:"percent"             yaml:"percent"`
}

// EarningsCalendar is the earnings calendar response.
type EarningsCalendar struct {
	Type        string    `json:"type"        yaml:"type"`
	Description string    `json:"description" yaml:"description"`
	From        string    `json:"from"        yaml:"from"`
	To          string    `json:"to"          yaml:"to"`
	Earnings    []Earning `json:"earnings"    yaml:"earnings"`
}

// Fundamentals is the top-level sections map of the fundamentals endpoint.
type Fundamentals map[string]json.RawMessage
