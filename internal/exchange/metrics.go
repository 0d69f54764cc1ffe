package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Метрики запросов к биржам ============

// RequestsTotal - запросы к биржам по результату (ok или категория ошибки)
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradekeys",
		Subsystem: "exchange",
		Name:      "requests_total",
		Help:      "Total number of signed requests sent to exchanges",
	},
	[]string{"exchange", "endpoint", "outcome"},
)

// RequestLatency - время ответа биржи в миллисекундах
var RequestLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tradekeys",
		Subsystem: "exchange",
		Name:      "request_latency_ms",
		Help:      "Exchange request latency in milliseconds",
		Buckets:   []float64{25, 50, 100, 200, 400, 800, 1600, 3200, 6400, 15000},
	},
	[]string{"exchange", "endpoint"},
)

const outcomeOK = "ok"

func observeRequest(exchange, endpoint string, ms float64, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = string(KindUnknown)
		}
	}
	RequestsTotal.WithLabelValues(exchange, endpoint, outcome).Inc()
	RequestLatency.WithLabelValues(exchange, endpoint).Observe(ms)
}
