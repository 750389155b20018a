package dxlink

import (
	"fmt"
	"time"

	"ttstream/internal/domain/model"
	"ttstream/internal/infrastructure/metrics"
)

// Handlers are the caller's per-event callbacks. They run synchronously on
// the receive goroutine, in the order events arrive.
type Handlers struct {
	OnProfile func(model.Profile)
	OnQuote   func(model.Quote)
	OnSummary func(model.Summary)
	OnTrade   func(model.Trade)
	OnGreeks  func(model.Greeks)

	// OnError receives the error that stopped the receive loop
	OnError func(error)
}

// EventTypes returns the event types that have a handler.
func (h Handlers) EventTypes() []model.EventType {
	var out []model.EventType
	if h.OnProfile != nil {
		out = append(out, model.EventProfile)
	}
	if h.OnQuote != nil {
		out = append(out, model.EventQuote)
	}
	if h.OnSummary != nil {
		out = append(out, model.EventSummary)
	}
	if h.OnTrade != nil {
		out = append(out, model.EventTrade)
	}
	if h.OnGreeks != nil {
		out = append(out, model.EventGreeks)
	}
	return out
}

// Validate returns ErrNoHandlers when no event handler is set.
func (h Handlers) Validate() error {
	if len(h.EventTypes()) == 0 {
		return ErrNoHandlers
	}
	return nil
}

// handleFeedEvent translates and dispatches one FEED_DATA element. Event
// types without a handler are not decoded.
func (s *Subscription) handleFeedEvent(ev fields) error {
	eventType := ev.str("eventType")
	streamerSymbol := ev.str("eventSymbol")
	symbol, err := s.translator.OriginalSymbol(streamerSymbol)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropTranslation).Inc()
		return fmt.Errorf("%s event for %q: %w", eventType, streamerSymbol, err)
	}

	h := s.handlers
	dispatched := true
	switch model.EventType(eventType) {
	case model.EventProfile:
		if h.OnProfile == nil {
			return nil
		}
		h.OnProfile(decodeProfile(symbol, ev))
	case model.EventQuote:
		if h.OnQuote == nil {
			return nil
		}
		h.OnQuote(decodeQuote(symbol, ev))
	case model.EventSummary:
		if h.OnSummary == nil {
			return nil
		}
		sum, err := decodeSummary(symbol, ev)
		if err != nil {
			return s.dropDecode(err)
		}
		h.OnSummary(sum)
	case model.EventTrade:
		if h.OnTrade == nil {
			return nil
		}
		t, err := decodeTrade(symbol, ev)
		if err != nil {
			return s.dropDecode(err)
		}
		h.OnTrade(t)
	case model.EventGreeks:
		if h.OnGreeks == nil {
			return nil
		}
		g, err := decodeGreeks(symbol, ev)
		if err != nil {
			return s.dropDecode(err)
		}
		h.OnGreeks(g)
	default:
		dispatched = false
		s.log.Debug().Str("event_type", eventType).Str("symbol", symbol).Msg("unhandled feed event type")
	}
	if dispatched {
		metrics.EventsDispatched.WithLabelValues(eventType).Inc()
	}
	return nil
}

func (s *Subscription) dropDecode(err error) error {
	metrics.EventsDropped.WithLabelValues(metrics.DropDecode).Inc()
	return err
}

func decodeProfile(symbol string, ev fields) model.Profile {
	return model.Profile{
		Symbol:            symbol,
		Description:       ev.str("description"),
		High52Week:        ev.float("high52WeekPrice"),
		Low52Week:         ev.float("low52WeekPrice"),
		Beta:              ev.float("beta"),
		EarningsPerShare:  ev.float("earningsPerShare"),
		DividendFrequency: ev.float("dividendFrequency"),
		ExDividendAmount:  ev.float("exDividendAmount"),
		Shares:            ev.float("shares"),
		FreeFloat:         ev.float("freeFloat"),
	}
}

func decodeQuote(symbol string, ev fields) model.Quote {
	return model.Quote{
		Symbol:          symbol,
		BidPrice:        ev.float("bidPrice"),
		BidSize:         ev.float("bidSize"),
		BidExchangeCode: ev.str("bidExchangeCode"),
		AskPrice:        ev.float("askPrice"),
		AskSize:         ev.float("askSize"),
		AskExchangeCode: ev.str("askExchangeCode"),
	}
}

// intReader collects the first integer decode failure so record builders
// stay flat.
type intReader struct {
	ev        fields
	eventType model.EventType
	err       error
}

func (r *intReader) int(key string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.ev.int(key)
	if err != nil {
		r.err = &DecodeError{EventType: string(r.eventType), Field: key, Err: err}
	}
	return v
}

func (r *intReader) required(key string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.ev.requiredInt(key)
	if err != nil {
		r.err = &DecodeError{EventType: string(r.eventType), Field: key, Err: err}
	}
	return v
}

func decodeSummary(symbol string, ev fields) (model.Summary, error) {
	r := &intReader{ev: ev, eventType: model.EventSummary}
	s := model.Summary{
		Symbol:        symbol,
		EventSymbol:   ev.str("eventSymbol"),
		DayID:         r.int("dayId"),
		DayOpen:       ev.float("dayOpenPrice"),
		DayHigh:       ev.float("dayHighPrice"),
		DayLow:        ev.float("dayLowPrice"),
		DayClose:      ev.float("dayClosePrice"),
		PrevDayID:     r.int("prevDayId"),
		PrevClose:     ev.float("prevDayClosePrice"),
		PrevDayVolume: ev.float("prevDayVolume"),
		OpenInterest:  r.int("openInterest"),
	}
	return s, r.err
}

// decodeTrade is the only place epoch milliseconds become a time.Time.
func decodeTrade(symbol string, ev fields) (model.Trade, error) {
	r := &intReader{ev: ev, eventType: model.EventTrade}
	ms := r.required("time")
	t := model.Trade{
		Symbol:               symbol,
		EventSymbol:          ev.str("eventSymbol"),
		Time:                 time.UnixMilli(ms).UTC(),
		Sequence:             r.int("sequence"),
		ExchangeCode:         ev.str("exchangeCode"),
		Price:                ev.float("price"),
		Change:               ev.float("change"),
		Size:                 r.int("size"),
		ExtendedTradingHours: ev.bool("extendedTradingHours"),
		DayID:                r.int("dayId"),
		DayVolume:            r.int("dayVolume"),
		DayTurnover:          ev.float("dayTurnover"),
	}
	return t, r.err
}

func decodeGreeks(symbol string, ev fields) (model.Greeks, error) {
	r := &intReader{ev: ev, eventType: model.EventGreeks}
	g := model.Greeks{
		Symbol:     symbol,
		Time:       r.int("time"),
		Price:      ev.float("price"),
		Volatility: ev.float("volatility"),
		Delta:      ev.float("delta"),
		Gamma:      ev.float("gamma"),
		Theta:      ev.float("theta"),
		Rho:        ev.float("rho"),
		Vega:       ev.float("vega"),
	}
	return g, r.err
}
