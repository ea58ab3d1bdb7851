package realtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "sbrt"
	metricsSubsystem = "realtime"
)

// clientMetrics holds the Prometheus metrics for the engine, registered on
// the default registerer the first time a client is created.
type clientMetrics struct {
	framesReceived prometheus.Counter
	framesDropped  prometheus.Counter
	dispatches     prometheus.Counter
	heartbeats     prometheus.Counter
	activeSubs     prometheus.Gauge
}

var (
	sharedMetrics     *clientMetrics
	sharedMetricsOnce sync.Once
)

func getMetrics() *clientMetrics {
	sharedMetricsOnce.Do(func() {
		factory := promauto.With(prometheus.DefaultRegisterer)
		sharedMetrics = &clientMetrics{
			framesReceived: factory.NewCounter(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "frames_received_total",
				Help:      "Total number of frames received off the socket",
			}),
			framesDropped: factory.NewCounter(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "frames_dropped_total",
				Help:      "Total number of frames skipped because they failed to decode",
			}),
			dispatches: factory.NewCounter(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "dispatches_total",
				Help:      "Total number of callback dispatches",
			}),
			heartbeats: factory.NewCounter(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "heartbeats_total",
				Help:      "Total number of heartbeat envelopes sent",
			}),
			activeSubs: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "active_subscriptions",
				Help:      "Number of live subscriptions across all clients",
			}),
		}
	})
	return sharedMetrics
}
