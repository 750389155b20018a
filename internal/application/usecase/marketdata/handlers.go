package marketdata

import (
	"github.com/rs/zerolog/log"

	"ttstream/internal/application/port"
	"ttstream/internal/domain/model"
	"ttstream/internal/infrastructure/dxlink"
)

// SinkHandlers routes the chosen event types to sink. Write failures are
// logged and do not stop the stream.
func SinkHandlers(sink port.EventSink, events []model.EventType) dxlink.Handlers {
	var h dxlink.Handlers
	for _, e := range events {
		switch e {
		case model.EventProfile:
			h.OnProfile = func(p model.Profile) { report(e, sink.WriteProfile(p)) }
		case model.EventQuote:
			h.OnQuote = func(q model.Quote) { report(e, sink.WriteQuote(q)) }
		case model.EventSummary:
			h.OnSummary = func(s model.Summary) { report(e, sink.WriteSummary(s)) }
		case model.EventTrade:
			h.OnTrade = func(t model.Trade) { report(e, sink.WriteTrade(t)) }
		case model.EventGreeks:
			h.OnGreeks = func(g model.Greeks) { report(e, sink.WriteGreeks(g)) }
		}
	}
	return h
}

func report(e model.EventType, err error) {
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(e)).Msg("sink write failed")
	}
}
