package symbols

import (
	"regexp"
	"strings"

	"ttstream/internal/domain/model"
)

var (
	// OCC option symbol: root padded to six chars, yymmdd, C/P, strike x1000
	occOption = regexp.MustCompile(`^[A-Z0-9.]{1,6}\s*\d{6}[CP]\d{8}$`)
	// crypto pairs quote against USD, e.g. BTC/USD
	cryptoPair = regexp.MustCompile(`^[A-Z0-9]+/USD$`)
)

// Classify picks the instruments endpoint for a caller symbol.
func Classify(symbol string) model.InstrumentType {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case strings.HasPrefix(sym, "./"):
		return model.InstrumentFutureOption
	case strings.HasPrefix(sym, "/"):
		return model.InstrumentFuture
	case cryptoPair.MatchString(sym):
		return model.InstrumentCrypto
	case occOption.MatchString(sym):
		return model.InstrumentEquityOption
	default:
		return model.InstrumentEquity
	}
}
