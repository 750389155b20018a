package port

import "ttstream/internal/domain/model"

// EventSink receives decoded feed events for display.
type EventSink interface {
	WriteProfile(p model.Profile) error
	WriteQuote(q model.Quote) error
	WriteSummary(s model.Summary) error
	WriteTrade(t model.Trade) error
	WriteGreeks(g model.Greeks) error
}
