package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"ttstream/internal/application/port"
	"ttstream/internal/domain/model"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

// Sink prints one line per event.
type Sink struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

func NewSink() port.EventSink { return NewWriterSink(os.Stdout, true) }

// NewWriterSink writes to w; color adds ANSI escapes.
func NewWriterSink(w io.Writer, color bool) *Sink {
	return &Sink{out: w, color: color}
}

func (s *Sink) line(eventType model.EventType, symbol, body string) error {
	tag := "[" + string(eventType) + "]"
	if s.color {
		tag = colorize(tag, ansiDim)
		symbol = colorize(symbol, ansiCyan)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s %s %s\n", tag, symbol, body)
	return err
}

// num renders an optional value; "--" when absent.
func num(v *float64) string {
	if v == nil {
		return "--"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (s *Sink) WriteProfile(p model.Profile) error {
	return s.line(model.EventProfile, p.Symbol, fmt.Sprintf("%q 52w=%s-%s beta=%s eps=%s shares=%s",
		p.Description, num(p.Low52Week), num(p.High52Week), num(p.Beta), num(p.EarningsPerShare), num(p.Shares)))
}

func (s *Sink) WriteQuote(q model.Quote) error {
	bid, ask := num(q.BidPrice), num(q.AskPrice)
	if s.color {
		bid = colorize(bid, ansiGreen)
		ask = colorize(ask, ansiYellow)
	}
	return s.line(model.EventQuote, q.Symbol, fmt.Sprintf("bid=%s x %s ask=%s x %s",
		bid, num(q.BidSize), ask, num(q.AskSize)))
}

func (s *Sink) WriteSummary(m model.Summary) error {
	return s.line(model.EventSummary, m.Symbol, fmt.Sprintf("day=%d o=%s h=%s l=%s c=%s prev=%s oi=%d",
		m.DayID, num(m.DayOpen), num(m.DayHigh), num(m.DayLow), num(m.DayClose), num(m.PrevClose), m.OpenInterest))
}

func (s *Sink) WriteTrade(t model.Trade) error {
	price := num(t.Price)
	if s.color {
		price = colorize(price, ansiGreen)
	}
	return s.line(model.EventTrade, t.Symbol, fmt.Sprintf("%s price=%s size=%d vol=%d seq=%d",
		t.Time.Format(time.RFC3339Nano), price, t.Size, t.DayVolume, t.Sequence))
}

func (s *Sink) WriteGreeks(g model.Greeks) error {
	return s.line(model.EventGreeks, g.Symbol, fmt.Sprintf("iv=%s delta=%s gamma=%s theta=%s vega=%s rho=%s",
		num(g.Volatility), num(g.Delta), num(g.Gamma), num(g.Theta), num(g.Vega), num(g.Rho)))
}
