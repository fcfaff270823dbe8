package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GameMetrics aggregates the Prometheus collectors for the draw platform:
// HTTP traffic plus the business counters the operators watch during a
// round cycle.
type GameMetrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	betsPlaced    prometheus.Counter
	betsRejected  *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	redeems       *prometheus.CounterVec
	potDOS        prometheus.Gauge
	carryDOS      prometheus.Gauge
}

var (
	gameOnce     sync.Once
	gameRegistry *GameMetrics
)

// Game returns the process-wide metrics instance, registering all
// collectors on first use.
func Game() *GameMetrics {
	gameOnce.Do(func() {
		gameRegistry = &GameMetrics{
			httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ddj_http_requests_total",
				Help: "Count of HTTP requests by method, route and status.",
			}, []string{"method", "route", "status"}),
			httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "ddj_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route.",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route"}),
			betsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "ddj_bets_placed_total",
				Help: "Count of accepted bets.",
			}),
			betsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ddj_bets_rejected_total",
				Help: "Count of rejected bets by reason.",
			}, []string{"reason"}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ddj_settlements_total",
				Help: "Count of settlement calls by result.",
			}, []string{"result"}),
			redeems: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ddj_redeems_total",
				Help: "Count of gift-code redemption attempts by result.",
			}, []string{"result"}),
			potDOS: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "ddj_pot_dos",
				Help: "Pot of the most recently settled round in DOS.",
			}),
			carryDOS: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "ddj_carry_dos",
				Help: "Running carry in DOS after the last settlement.",
			}),
		}
		prometheus.MustRegister(
			gameRegistry.httpRequests,
			gameRegistry.httpDuration,
			gameRegistry.betsPlaced,
			gameRegistry.betsRejected,
			gameRegistry.settlements,
			gameRegistry.redeems,
			gameRegistry.potDOS,
			gameRegistry.carryDOS,
		)
	})
	return gameRegistry
}

func (m *GameMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *GameMetrics) ObserveBetPlaced() {
	if m == nil {
		return
	}
	m.betsPlaced.Inc()
}

func (m *GameMetrics) ObserveBetRejected(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.betsRejected.WithLabelValues(reason).Inc()
}

func (m *GameMetrics) ObserveSettlement(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.settlements.WithLabelValues(result).Inc()
}

func (m *GameMetrics) ObserveRedeem(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.redeems.WithLabelValues(result).Inc()
}

func (m *GameMetrics) SetPot(dos int64) {
	if m == nil {
		return
	}
	m.potDOS.Set(float64(dos))
}

func (m *GameMetrics) SetCarry(dos int64) {
	if m == nil {
		return
	}
	m.carryDOS.Set(float64(dos))
}
