package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	TurnsScanned    prometheus.Counter
	OrdersExtracted prometheus.Counter
	SessionsNoOrder prometheus.Counter
	StatusAdvanced  prometheus.Counter
	StatusRejected  prometheus.Counter
	SyncLatencySec  prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	turns := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderboard_turns_scanned_total"})
	extracted := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderboard_orders_extracted_total"})
	noOrder := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderboard_sessions_no_order_total"})
	advanced := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderboard_status_advanced_total"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderboard_status_rejected_total"})
	syncLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderboard_sync_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(turns, extracted, noOrder, advanced, rejected, syncLatency)
	return &Registry{
		reg:             r,
		TurnsScanned:    turns,
		OrdersExtracted: extracted,
		SessionsNoOrder: noOrder,
		StatusAdvanced:  advanced,
		StatusRejected:  rejected,
		SyncLatencySec:  syncLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
