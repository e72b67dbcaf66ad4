package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve("127.0.0.1:0")
	defer srv.Close()

	MessagesTotal.WithLabelValues("aggTrade").Inc()
	AlertsTotal.WithLabelValues("BTCUSDT", "below").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{"wschart_messages_total": false, "wschart_alerts_total": false}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s metric not found", name)
		}
	}
}
