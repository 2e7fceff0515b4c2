package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	searchStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shelf",
		Name:      "search_requests_started_total",
		Help:      "Total number of catalog search requests started",
	})
	searchCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shelf",
		Name:      "search_requests_completed_total",
		Help:      "Total number of catalog search requests whose results were committed",
	})
	searchFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelf",
		Name:      "search_requests_failed_total",
		Help:      "Total number of failed catalog search requests by status",
	}, []string{"status"})
	searchCanceled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shelf",
		Name:      "search_requests_canceled_total",
		Help:      "Total number of superseded or cancelled catalog search requests",
	})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shelf",
		Name:      "search_request_duration_seconds",
		Help:      "Histogram of catalog search request durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
	})
	readingListEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shelf",
		Name:      "reading_list_entries",
		Help:      "Current number of entries in the reading list",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searchStarted, searchCompleted, searchFailed, searchCanceled,
			searchDuration, readingListEntries)
	})
}

func IncSearchStarted()   { searchStarted.Inc() }
func IncSearchCompleted() { searchCompleted.Inc() }
func IncSearchCanceled()  { searchCanceled.Inc() }

// IncSearchFailed counts a failure; status is the HTTP code or "error" for transport failures
func IncSearchFailed(status string) { searchFailed.WithLabelValues(status).Inc() }

func ObserveSearchDuration(d time.Duration) { searchDuration.Observe(d.Seconds()) }

func SetReadingListEntries(n int) { readingListEntries.Set(float64(n)) }
