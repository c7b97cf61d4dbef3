package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docscan_scans_total",
		Help: "Scan requests by document type and resulting status.",
	}, []string{"document_type", "status"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docscan_scan_duration_seconds",
		Help:    "Time spent uploading and extracting a document.",
		Buckets: prometheus.DefBuckets,
	}, []string{"document_type"})

	RetrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docscan_retrievals_total",
		Help: "Document content retrievals by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docscan_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "code"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
