package model

// InstrumentType selects the instruments endpoint a symbol is looked up on.
type InstrumentType string

const (
	InstrumentEquity       InstrumentType = "equities"
	InstrumentEquityOption InstrumentType = "equity-options"
	InstrumentFuture       InstrumentType = "futures"
	InstrumentFutureOption InstrumentType = "future-options"
	InstrumentCrypto       InstrumentType = "cryptocurrencies"
)

// InstrumentTypes in lookup order.
var InstrumentTypes = []InstrumentType{
	InstrumentEquity,
	InstrumentEquityOption,
	InstrumentFuture,
	InstrumentFutureOption,
	InstrumentCrypto,
}
