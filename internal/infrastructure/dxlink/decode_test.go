package dxlink

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"ttstream/internal/domain/model"
)

func TestCoerceFloat(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	cases := []struct {
		name string
		in   any
		want *float64
	}{
		{"digits", "123", f(123)},
		{"letters", "abc", nil},
		{"empty", "", nil},
		{"nan string", "NaN", nil},
		{"signed string", "-1", nil},
		{"decimal string", "12.5", nil},
		{"nan", math.NaN(), nil},
		{"null", nil, nil},
		{"float", 42.5, f(42.5)},
		{"json number", json.Number("7.25"), f(7.25)},
		{"bool", true, nil},
	}
	for _, tc := range cases {
		got := coerceFloat(tc.in)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("%s: expected nil, got %v", tc.name, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("%s: expected %v, got %v", tc.name, *tc.want, got)
		}
	}
}

func feedEvents(t *testing.T, raw string) []fields {
	t.Helper()
	elems, err := splitFeedData(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("splitFeedData failed: %v", err)
	}
	events := make([]fields, 0, len(elems))
	for _, e := range elems {
		ev, err := decodeFeedEvent(e)
		if err != nil {
			t.Fatalf("decodeFeedEvent failed: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func TestDecodeFeedEventRejectsNonObjects(t *testing.T) {
	elems, err := splitFeedData(json.RawMessage(`[{"eventType":"Quote"},"garbage",null,7]`))
	if err != nil {
		t.Fatalf("splitFeedData failed: %v", err)
	}
	if len(elems) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(elems))
	}
	if _, err := decodeFeedEvent(elems[0]); err != nil {
		t.Errorf("object element: %v", err)
	}
	for _, e := range elems[1:] {
		if _, err := decodeFeedEvent(e); err == nil {
			t.Errorf("expected error for element %s", e)
		}
	}
}

func TestDecodeTradeTimeIsDeterministic(t *testing.T) {
	events := feedEvents(t, `[{"eventType":"Trade","eventSymbol":"AAPL","time":1700000000123,"sequence":4,"size":100,"price":189.5,"dayId":19676,"dayVolume":1000,"extendedTradingHours":true}]`)

	want := time.Date(2023, time.November, 14, 22, 13, 20, 123e6, time.UTC)
	for i := 0; i < 2; i++ {
		tr, err := decodeTrade("AAPL", events[0])
		if err != nil {
			t.Fatalf("decodeTrade failed: %v", err)
		}
		if !tr.Time.Equal(want) || tr.Time.Location() != time.UTC {
			t.Fatalf("expected %v, got %v", want, tr.Time)
		}
		if tr.Sequence != 4 || tr.Size != 100 || tr.DayID != 19676 || tr.DayVolume != 1000 {
			t.Errorf("unexpected integer fields: %+v", tr)
		}
		if !tr.ExtendedTradingHours {
			t.Errorf("expected extended trading hours flag")
		}
	}
}

func TestDecodeTradeRequiresTime(t *testing.T) {
	for _, raw := range []string{
		`[{"eventType":"Trade","eventSymbol":"AAPL","sequence":1,"size":1,"dayId":1,"dayVolume":1}]`,
		`[{"eventType":"Trade","eventSymbol":"AAPL","time":null,"sequence":1,"size":1,"dayId":1,"dayVolume":1}]`,
	} {
		_, err := decodeTrade("AAPL", feedEvents(t, raw)[0])
		var de *DecodeError
		if !errors.As(err, &de) || de.Field != "time" {
			t.Errorf("expected DecodeError on time, got %v", err)
		}
	}
}

func TestDecodeSummary(t *testing.T) {
	events := feedEvents(t, `[{"eventType":"Summary","eventSymbol":".SPXW240119C4800","dayId":19740,"dayOpenPrice":1.5,"dayHighPrice":"NaN","dayLowPrice":null,"dayClosePrice":2,"prevDayId":19739,"prevDayClosePrice":1.25,"prevDayVolume":"300","openInterest":"NaN"}]`)

	s, err := decodeSummary("SPXW  240119C04800000", events[0])
	if err != nil {
		t.Fatalf("decodeSummary failed: %v", err)
	}
	if s.Symbol != "SPXW  240119C04800000" || s.EventSymbol != ".SPXW240119C4800" {
		t.Errorf("unexpected symbols %q %q", s.Symbol, s.EventSymbol)
	}
	if s.DayID != 19740 || s.PrevDayID != 19739 || s.OpenInterest != 0 {
		t.Errorf("unexpected ints: %+v", s)
	}
	if s.DayHigh != nil || s.DayLow != nil {
		t.Errorf("expected NaN and null prices to be nil")
	}
	if s.PrevDayVolume == nil || *s.PrevDayVolume != 300 {
		t.Errorf("unexpected prev day volume %v", s.PrevDayVolume)
	}

	_, err = decodeSummary("X", feedEvents(t, `[{"eventType":"Summary","eventSymbol":"X","dayId":1,"prevDayId":1}]`)[0])
	var de *DecodeError
	if !errors.As(err, &de) || de.Field != "openInterest" || !errors.Is(err, errMissingField) {
		t.Errorf("expected missing openInterest, got %v", err)
	}
}

func TestDecodeGreeksKeepsRawTime(t *testing.T) {
	events := feedEvents(t, `[{"eventType":"Greeks","eventSymbol":".AAPL240119C190","time":1700000000999,"price":3.2,"volatility":0.21,"delta":0.55,"gamma":0.04,"theta":-0.08,"rho":0.01,"vega":0.12}]`)

	g, err := decodeGreeks("AAPL  240119C00190000", events[0])
	if err != nil {
		t.Fatalf("decodeGreeks failed: %v", err)
	}
	if g.Time != 1700000000999 {
		t.Errorf("expected raw epoch ms, got %d", g.Time)
	}
	if g.Delta == nil || *g.Delta != 0.55 || g.Theta == nil || *g.Theta != -0.08 {
		t.Errorf("unexpected greeks %+v", g)
	}
}

func TestDecodeProfileAndQuote(t *testing.T) {
	events := feedEvents(t, `[
		{"eventType":"Profile","eventSymbol":"AAPL","description":"Apple Inc.","high52WeekPrice":199.62,"low52WeekPrice":"NaN","beta":null,"shares":15550061000},
		{"eventType":"Quote","eventSymbol":"AAPL","bidPrice":189.1,"bidSize":300,"bidExchangeCode":"Q","askPrice":189.2,"askSize":"NaN","askExchangeCode":"Z"}
	]`)

	p := decodeProfile("AAPL", events[0])
	if p.Description != "Apple Inc." || p.High52Week == nil || *p.High52Week != 199.62 {
		t.Errorf("unexpected profile %+v", p)
	}
	if p.Low52Week != nil || p.Beta != nil {
		t.Errorf("expected missing values to be nil")
	}
	if p.Shares == nil || *p.Shares != 15550061000 {
		t.Errorf("unexpected shares %v", p.Shares)
	}

	q := decodeQuote("AAPL", events[1])
	if q.BidPrice == nil || *q.BidPrice != 189.1 || q.AskSize != nil || q.AskExchangeCode != "Z" {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestHandlersEventTypes(t *testing.T) {
	h := Handlers{OnGreeks: func(model.Greeks) {}, OnProfile: func(model.Profile) {}, OnTrade: func(model.Trade) {}}
	got := h.EventTypes()
	want := []model.EventType{model.EventProfile, model.EventTrade, model.EventGreeks}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if err := (Handlers{}).Validate(); !errors.Is(err, ErrNoHandlers) {
		t.Errorf("expected ErrNoHandlers, got %v", err)
	}
}

func TestAbsentKeysFollowFieldOptionality(t *testing.T) {
	events := feedEvents(t, `[{"eventType":"Quote","eventSymbol":"AAPL"},{"eventType":"Summary","eventSymbol":"AAPL"}]`)

	q := decodeQuote("AAPL", events[0])
	if q.BidPrice != nil || q.AskPrice != nil || q.BidSize != nil || q.AskSize != nil || q.BidExchangeCode != "" {
		t.Errorf("expected absent optional fields to be empty, got %+v", q)
	}

	_, err := decodeSummary("AAPL", events[1])
	var de *DecodeError
	if !errors.As(err, &de) || de.Field != "dayId" || !errors.Is(err, errMissingField) {
		t.Errorf("expected missing dayId DecodeError, got %v", err)
	}
}
