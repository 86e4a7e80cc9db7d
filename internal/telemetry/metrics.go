package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ledgerport_reports_total", Help: "Reports generated, by terminal status"},
		[]string{"status"})
	Executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ledgerport_executions_total", Help: "Scheduled task executions, by outcome"},
		[]string{"status"})
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ledgerport_deliveries_total", Help: "Delivery attempts, by channel and outcome"},
		[]string{"channel", "outcome"})
	DueTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "ledgerport_due_tasks", Help: "Due tasks found by the last poll cycle"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsGenerated,
			Executions,
			Deliveries,
			DueTasks,
		)
	})
	return promhttp.Handler()
}
