package snapshot

import (
	"context"
	"time"

	"wschart/internal/memorystore"
	"wschart/internal/metrics"

	"go.uber.org/zap"
)

// KlineSource fetches recent closed candles.
type KlineSource interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]memorystore.Sample, error)
}

// HistoryLoader seeds a candle store from the REST history so the chart does
// not start empty.
type HistoryLoader struct {
	Client  KlineSource
	Logger  *zap.Logger
	Timeout time.Duration
}

// Seed requests store.Width() candles and appends the closed ones. The API
// includes the forming candle, which the client filters out, so at most
// Width-1 remain and the store keeps all of them. A failed request leaves the
// store empty and is only logged; the live streams fill it in over time.
func (l *HistoryLoader) Seed(ctx context.Context, store *memorystore.WindowStore, symbol, interval string) int {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	samples, err := l.Client.GetKlines(ctx, symbol, interval, store.Width())
	if err != nil {
		l.Logger.Warn("failed to load historical klines, starting empty",
			zap.String("symbol", symbol), zap.String("interval", interval), zap.Error(err))
		return 0
	}

	store.Extend(samples)
	metrics.SeededSamples.Add(float64(len(samples)))
	l.Logger.Info("loaded historical klines",
		zap.String("symbol", symbol), zap.String("interval", interval), zap.Int("count", len(samples)))
	return len(samples)
}
