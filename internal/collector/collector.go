package collector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"wschart/config"
	"wschart/internal/alert"
	"wschart/internal/memorystore"
	"wschart/internal/metrics"
	"wschart/internal/render"
	"wschart/internal/snapshot"
	"wschart/internal/stats"
	"wschart/internal/stream"
	"wschart/pkg/binance"

	"go.uber.org/zap"
)

// Run builds the pipeline for cfg and blocks until ctx is cancelled: the
// feeds write into one window store, the renderer draws it to out and raises
// alerts. Only setup problems are returned; everything after start-up is
// absorbed and logged.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	loc := chartLocation(cfg.Chart.Timezone, logger)

	var store *memorystore.WindowStore
	if cfg.CandleMode() {
		store = memorystore.NewCandleStore(cfg.Chart.Width)
	} else {
		store = memorystore.NewTickStore(cfg.Chart.Width)
	}

	renderer := render.New(render.Options{
		Symbol:          cfg.Symbol,
		Interval:        cfg.Interval,
		Height:          cfg.Chart.Height,
		Width:           cfg.Chart.Width,
		Bands:           cfg.Indicator.Enabled,
		Period:          cfg.Indicator.Period,
		Multiplier:      cfg.Indicator.Multiplier,
		RefreshInterval: cfg.Chart.RefreshInterval,
		Location:        loc,
	}, store, out, logger)
	if cfg.Indicator.Enabled {
		logger.Info("Bollinger Bands enabled",
			zap.Int("period", cfg.Indicator.Period), zap.Float64("multiplier", cfg.Indicator.Multiplier))
	}

	// Alerts
	var dispatcher *alert.Dispatcher
	recorder := alert.Recorder(alert.NewNoopRecorder())
	if monitor := loadMonitor(cfg, logger); monitor != nil {
		recorder = openJournal(cfg, logger)
		dispatcher = alert.NewDispatcher(ctx, buildNotifier(cfg, logger), recorder,
			cfg.Alert.Repeat, cfg.Alert.RepeatDelay, logger)
		renderer.WithMonitor(monitor, dispatcher)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		metricsSrv = metrics.Serve(cfg.Metrics.Addr)
		logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	// Draw the placeholder while the history loads.
	spawn(func() { renderer.Run(ctx) })

	wsOpts := binance.WSOptions{
		HandshakeTimeout: cfg.Binance.WS.HandshakeTimeout,
		ReadTimeout:      cfg.Binance.WS.ReadTimeout,
		ReconnectDelay:   cfg.Binance.WS.ReconnectDelay,
	}

	var feeds []*binance.WSClient
	tradeClient := binance.NewWSClient(cfg.Binance.WS.URL, binance.AggTradeStream(cfg.Symbol), wsOpts, logger)
	if cfg.CandleMode() {
		loader := &snapshot.HistoryLoader{
			Client:  binance.NewRESTClient(cfg.Binance.REST.BaseURL, cfg.Binance.REST.Timeout),
			Logger:  logger,
			Timeout: cfg.Binance.REST.Timeout,
		}
		loader.Seed(ctx, store, cfg.Symbol, cfg.Interval)

		klineClient := binance.NewWSClient(cfg.Binance.WS.URL, binance.KlineStream(cfg.Symbol, cfg.Interval), wsOpts, logger)
		klineClient.SetMessageHandler(stream.MakeKlineHandler(logger, store))
		feeds = append(feeds, klineClient)

		tradeClient.SetMessageHandler(stream.MakeTradeHandler(logger, store.SetLive))
	} else {
		tradeClient.SetMessageHandler(stream.MakeTradeHandler(logger, store.AppendClosed))
	}
	feeds = append(feeds, tradeClient)

	statusFeeds := make([]stats.Feed, 0, len(feeds))
	for _, c := range feeds {
		c := c
		c.OnStateChange(trackState(c.Stream()))
		statusFeeds = append(statusFeeds, c)
		spawn(func() { c.Run(ctx) })
	}

	var reporter *stats.Reporter
	if cfg.Stats.Schedule != "" {
		reporter = stats.NewReporter(store, statusFeeds, logger)
		if err := reporter.Register(cfg.Stats.Schedule); err != nil {
			logger.Warn("stats reporter disabled", zap.Error(err))
			reporter = nil
		} else {
			reporter.Start()
		}
	}

	<-ctx.Done()
	wg.Wait()

	if reporter != nil {
		reporter.Stop()
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
		cancel()
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if err := recorder.Close(); err != nil {
		logger.Warn("failed to close alert journal", zap.Error(err))
	}

	logger.Info("pipeline stopped")
	return nil
}

// trackState mirrors a feed's connection state into metrics.
func trackState(streamName string) func(binance.ConnState) {
	var started bool
	return func(s binance.ConnState) {
		metrics.ConnState.WithLabelValues(streamName).Set(float64(s))
		if s == binance.StateConnecting {
			if started {
				metrics.Reconnects.WithLabelValues(streamName).Inc()
			}
			started = true
		}
	}
}

func chartLocation(name string, logger *zap.Logger) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown chart timezone, using local time", zap.String("timezone", name), zap.Error(err))
		return time.Local
	}
	return loc
}
