package alert

import "context"

// Recorder journals fired alerts.
type Recorder interface {
	RecordAlert(ctx context.Context, ev Event) error
	Close() error
}

// NoopRecorder is used when no journal is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordAlert(context.Context, Event) error { return nil }
func (NoopRecorder) Close() error                             { return nil }
