package stream

// Binance payloads carry keys that differ only in case ("e"/"E", "t"/"T").
// encoding/json falls back to case-insensitive matching, so both keys of a
// pair must be declared whenever one of them is.

// AggTradeEvent represents an aggregated trade pushed on <symbol>@aggTrade.
type AggTradeEvent struct {
	Event     string `json:"e"` // Event type, "aggTrade"
	EventTime int64  `json:"E"` // Event time (in milliseconds since epoch)
	Symbol    string `json:"s"`
	Price     string `json:"p"` // Trade price as a decimal string
	TradeTime int64  `json:"T"` // Trade time (in milliseconds since epoch)
}

// KlineEvent represents a candle update pushed on <symbol>@kline_<interval>.
type KlineEvent struct {
	Event     string       `json:"e"` // Event type, "kline"
	EventTime int64        `json:"E"` // Event time (in milliseconds since epoch)
	Symbol    string       `json:"s"`
	Kline     KlinePayload `json:"k"`
}

// KlinePayload is the subset of the kline body the chart uses.
type KlinePayload struct {
	StartTime int64  `json:"t"` // Candle open time (in milliseconds since epoch)
	CloseTime int64  `json:"T"` // Candle close time (in milliseconds since epoch)
	Close     string `json:"c"` // Close price so far, decimal string
	Closed    bool   `json:"x"` // True once the candle is final
}
