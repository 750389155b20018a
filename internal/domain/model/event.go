package model

import "time"

// EventType is the DXLink feed event discriminator.
type EventType string

const (
	EventProfile EventType = "Profile"
	EventQuote   EventType = "Quote"
	EventSummary EventType = "Summary"
	EventTrade   EventType = "Trade"
	EventGreeks  EventType = "Greeks"
)

// EventTypes lists every supported feed event type in subscription order.
var EventTypes = []EventType{EventProfile, EventQuote, EventSummary, EventTrade, EventGreeks}

// ParseEventType matches a case-sensitive event type name.
func ParseEventType(s string) (EventType, bool) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ========== Feed Events ==========
//
// Every record carries Symbol, the caller-facing symbol recovered from the
// streamer symbol. Optional prices are nil when the feed sent null or NaN.

// Profile instrument profile
type Profile struct {
	Symbol            string
	Description       string
	High52Week        *float64
	Low52Week         *float64
	Beta              *float64
	EarningsPerShare  *float64
	DividendFrequency *float64
	ExDividendAmount  *float64
	Shares            *float64 // outstanding shares
	FreeFloat         *float64
}

// Quote best bid/ask
type Quote struct {
	Symbol          string
	BidPrice        *float64
	BidSize         *float64
	BidExchangeCode string
	AskPrice        *float64
	AskSize         *float64
	AskExchangeCode string
}

// Summary daily OHLC and open interest
type Summary struct {
	Symbol        string
	EventSymbol   string
	DayID         int64
	DayOpen       *float64
	DayHigh       *float64
	DayLow        *float64
	DayClose      *float64
	PrevDayID     int64
	PrevClose     *float64
	PrevDayVolume *float64
	OpenInterest  int64
}

// Trade last sale
type Trade struct {
	Symbol               string
	EventSymbol          string
	Time                 time.Time // UTC, converted from epoch ms when decoded
	Sequence             int64
	ExchangeCode         string
	Price                *float64
	Change               *float64
	Size                 int64
	ExtendedTradingHours bool
	DayID                int64
	DayVolume            int64
	DayTurnover          *float64
}

// Greeks option greeks
type Greeks struct {
	Symbol     string
	Time       int64 // epoch ms as sent by the feed
	Price      *float64
	Volatility *float64
	Delta      *float64
	Gamma      *float64
	Theta      *float64
	Rho        *float64
	Vega       *float64
}
