package stats

import (
	"fmt"

	"wschart/internal/memorystore"
	"wschart/pkg/binance"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Feed is the part of a WebSocket client the reporter looks at.
type Feed interface {
	Stream() string
	State() binance.ConnState
}

// Snapshot is one status report.
type Snapshot struct {
	Closed     int
	Capacity   int
	LastClosed int64 // Time of the newest closed sample, 0 when empty
	HasLive    bool
	LivePrice  float64
	Feeds      map[string]string
}

// Reporter periodically logs the window store fill level and feed states.
// Stdout belongs to the chart, so this is the way to watch a running
// session from its log file.
type Reporter struct {
	Cron   *cron.Cron
	store  *memorystore.WindowStore
	feeds  []Feed
	logger *zap.Logger
}

func NewReporter(store *memorystore.WindowStore, feeds []Feed, logger *zap.Logger) *Reporter {
	return &Reporter{
		Cron:   cron.New(cron.WithSeconds()),
		store:  store,
		feeds:  feeds,
		logger: logger,
	}
}

// Register schedules the report, e.g. "@every 30s" or "0 */5 * * * *".
func (r *Reporter) Register(schedule string) error {
	if _, err := r.Cron.AddFunc(schedule, func() { r.Report() }); err != nil {
		return fmt.Errorf("register stats report %q: %w", schedule, err)
	}
	return nil
}

func (r *Reporter) Start() {
	r.Cron.Start()
	r.logger.Debug("stats reporter started")
}

// Stop waits for a running report to finish.
func (r *Reporter) Stop() {
	<-r.Cron.Stop().Done()
}

// Report takes and logs a snapshot.
func (r *Reporter) Report() Snapshot {
	closed := r.store.Closed()
	snap := Snapshot{
		Closed:   len(closed),
		Capacity: r.store.Capacity(),
		Feeds:    make(map[string]string, len(r.feeds)),
	}
	if len(closed) > 0 {
		snap.LastClosed = closed[len(closed)-1].Time
	}
	if live, ok := r.store.Live(); ok {
		snap.HasLive = true
		snap.LivePrice = live.Price
	}
	for _, f := range r.feeds {
		snap.Feeds[f.Stream()] = f.State().String()
	}

	r.logger.Info("window status",
		zap.Int("closed", snap.Closed),
		zap.Int("capacity", snap.Capacity),
		zap.Int64("last_closed", snap.LastClosed),
		zap.Bool("has_live", snap.HasLive),
		zap.Float64("live_price", snap.LivePrice),
		zap.Any("feeds", snap.Feeds),
	)
	return snap
}
