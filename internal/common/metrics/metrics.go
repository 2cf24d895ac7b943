package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_api_requests_total",
			Help: "Total number of backend API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "client_api_request_duration_seconds",
			Help: "Duration of backend API calls in seconds",
		},
		[]string{"operation"},
	)

	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_analysis_runs_total",
			Help: "Total number of analysis runs by terminal status",
		},
		[]string{"status"},
	)

	UploadsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_uploads_failed_total",
			Help: "Total number of failed document uploads by error code",
		},
		[]string{"error_code"},
	)
)
