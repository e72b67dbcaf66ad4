package binance

import (
	"fmt"
	"strings"
)

// Stream names are lower-case on Binance, e.g. "btcusdt@aggTrade".

// AggTradeStream returns the aggregated trade stream name for symbol.
func AggTradeStream(symbol string) string {
	return strings.ToLower(symbol) + "@aggTrade"
}

// KlineStream returns the kline stream name for symbol and interval.
func KlineStream(symbol, interval string) string {
	return fmt.Sprintf("%s@kline_%s", strings.ToLower(symbol), interval)
}

// APIError is the error body returned by the REST API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance error %d: %s", e.Code, e.Message)
}
