package alert

import (
	"context"
	"sync"
	"time"

	"wschart/internal/metrics"

	"go.uber.org/zap"
)

// Dispatcher delivers events off the caller's goroutine. Each event gets its
// own goroutine that journals it and then notifies Repeat times, Delay apart.
type Dispatcher struct {
	ctx      context.Context
	notifier Notifier
	recorder Recorder
	repeat   int
	delay    time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewDispatcher binds deliveries to ctx: cancelling it stops pending repeats.
func NewDispatcher(ctx context.Context, notifier Notifier, recorder Recorder,
	repeat int, delay time.Duration, logger *zap.Logger) *Dispatcher {
	if recorder == nil {
		recorder = NewNoopRecorder()
	}
	if repeat < 1 {
		repeat = 1
	}
	return &Dispatcher{
		ctx:      ctx,
		notifier: notifier,
		recorder: recorder,
		repeat:   repeat,
		delay:    delay,
		logger:   logger,
	}
}

// Dispatch returns immediately.
func (d *Dispatcher) Dispatch(ev Event) {
	metrics.AlertsTotal.WithLabelValues(ev.Symbol, ev.Kind.String()).Inc()
	d.logger.Info("queuing alert notification", zap.String("message", ev.Message()))

	d.wg.Add(1)
	go d.deliver(ev)
}

// Wait blocks until every dispatched event has finished delivering.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ev Event) {
	defer d.wg.Done()

	// The journal write is allowed to finish during shutdown.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(d.ctx), 5*time.Second)
	if err := d.recorder.RecordAlert(recCtx, ev); err != nil {
		d.logger.Warn("failed to record alert", zap.Error(err))
	}
	cancel()

	msg := ev.Message()
	for i := 0; i < d.repeat; i++ {
		if err := d.notifier.Notify(d.ctx, msg); err != nil {
			metrics.NotifyFailures.Inc()
			d.logger.Warn("notification failed", zap.Int("attempt", i+1), zap.Error(err))
		}
		if i == d.repeat-1 {
			break
		}
		select {
		case <-d.ctx.Done():
			return
		case <-time.After(d.delay):
		}
	}
	d.logger.Info("finished alert notification", zap.String("message", msg))
}
