package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	referencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfmerger",
			Name:      "references_total",
			Help:      "Source references processed, by classified kind",
		},
		[]string{"kind"},
	)

	referencesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfmerger",
			Name:      "references_dropped_total",
			Help:      "Source references dropped, by pipeline stage",
		},
		[]string{"stage"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfmerger",
			Name:      "jobs_total",
			Help:      "Merge jobs by environment and terminal result",
		},
		[]string{"environment", "result"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfmerger",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of merge jobs by environment",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"environment"},
	)

	uploadAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfmerger",
			Name:      "upload_attempts_total",
			Help:      "Object store upload attempts by result",
		},
		[]string{"result"},
	)

	mergedPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfmerger",
			Name:      "merged_pages",
			Help:      "Pages per merged output document",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(referencesTotal, referencesDropped, jobsTotal, jobDuration, uploadAttempts, mergedPages)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncReference(kind string) { referencesTotal.WithLabelValues(kind).Inc() }
func IncDropped(stage string)  { referencesDropped.WithLabelValues(stage).Inc() }
func ObserveMergedPages(n int) { mergedPages.Observe(float64(n)) }

func ObserveJob(environment, result string, dur time.Duration) {
	jobsTotal.WithLabelValues(environment, result).Inc()
	jobDuration.WithLabelValues(environment).Observe(dur.Seconds())
}

func IncUploadAttempt(result string) { uploadAttempts.WithLabelValues(result).Inc() }
