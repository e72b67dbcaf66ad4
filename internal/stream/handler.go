package stream

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"wschart/internal/memorystore"
	"wschart/internal/metrics"

	"go.uber.org/zap"
)

const (
	tradeStream = "aggTrade"
	klineStream = "kline"
)

// MakeTradeHandler returns a function that parses aggTrade messages and hands
// each trade to apply: AppendClosed in tick mode, SetLive in candle mode.
func MakeTradeHandler(logger *zap.Logger, apply func(memorystore.Sample)) func(msg []byte) {
	return func(msg []byte) {
		sample, err := parseTrade(msg)
		if err != nil {
			drop(logger, tradeStream, msg, err)
			return
		}
		apply(sample)
		metrics.MessagesTotal.WithLabelValues(tradeStream).Inc()
	}
}

// MakeKlineHandler returns a function that parses kline messages and appends
// every closed candle to store. Updates of the still-forming candle are
// ignored; its price comes from the trade stream.
func MakeKlineHandler(logger *zap.Logger, store *memorystore.WindowStore) func(msg []byte) {
	return func(msg []byte) {
		sample, closed, err := parseKline(msg)
		if err != nil {
			drop(logger, klineStream, msg, err)
			return
		}
		metrics.MessagesTotal.WithLabelValues(klineStream).Inc()
		if !closed {
			return
		}
		store.AppendClosed(sample)
		logger.Debug("candle closed", zap.Int64("open_time", sample.Time), zap.Float64("close", sample.Price))
	}
}

func parseTrade(msg []byte) (memorystore.Sample, error) {
	var ev AggTradeEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return memorystore.Sample{}, fmt.Errorf("decode trade: %w", err)
	}
	if ev.Event != "aggTrade" {
		return memorystore.Sample{}, fmt.Errorf("unexpected event type %q", ev.Event)
	}
	price, err := parsePrice(ev.Price)
	if err != nil {
		return memorystore.Sample{}, err
	}
	return memorystore.Sample{Time: ev.TradeTime, Price: price}, nil
}

func parseKline(msg []byte) (memorystore.Sample, bool, error) {
	var ev KlineEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return memorystore.Sample{}, false, fmt.Errorf("decode kline: %w", err)
	}
	if ev.Event != "kline" {
		return memorystore.Sample{}, false, fmt.Errorf("unexpected event type %q", ev.Event)
	}
	price, err := parsePrice(ev.Kline.Close)
	if err != nil {
		return memorystore.Sample{}, false, err
	}
	return memorystore.Sample{Time: ev.Kline.StartTime, Price: price}, ev.Kline.Closed, nil
}

// parsePrice rejects values that cannot be plotted.
func parsePrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return price, nil
}

func drop(logger *zap.Logger, stream string, msg []byte, err error) {
	metrics.DroppedMessages.WithLabelValues(stream).Inc()
	logger.Warn("dropping malformed message",
		zap.String("stream", stream), zap.ByteString("payload", truncate(msg, 256)), zap.Error(err))
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
