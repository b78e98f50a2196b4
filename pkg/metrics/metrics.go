package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScanCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_scan_cycles_total",
			Help: "Total number of scan cycles",
		},
		[]string{"trigger", "status"}, // status: completed|failed|skipped
	)

	ScanCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_scan_cycle_duration_seconds",
			Help:    "Scan cycle duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	AccountScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_account_scans_total",
			Help: "Total number of per-account scans",
		},
		[]string{"status"}, // status: success|error
	)

	PostsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_posts_analyzed_total",
			Help: "Total number of posts analyzed",
		},
		[]string{"actionable"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_notifications_total",
			Help: "Notification dispatch attempts",
		},
		[]string{"channel", "status"}, // status: success|error
	)
)

func init() {
	prometheus.MustRegister(
		ScanCycles,
		ScanCycleDuration,
		AccountScans,
		PostsAnalyzed,
		Notifications,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
