// Package metrics provides Prometheus instrumentation for the moderation
// service. It exposes counters for verdict outcomes, classifier failures,
// and redactions, plus histograms for pipeline and classifier latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// VerdictsTotal counts moderation verdicts, labeled by pipeline stage
	// ("input" or "output") and outcome ("allowed" or "blocked").
	VerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studysafe_verdicts_total",
		Help: "Total number of moderation verdicts issued",
	}, []string{"stage", "outcome"})

	// FlaggedTotal counts flagged verdicts by severity. Allowed-but-
	// flagged output verdicts (e.g. PII redactions) are included.
	FlaggedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studysafe_flagged_total",
		Help: "Total number of flagged verdicts by severity",
	}, []string{"severity"})

	// ClassifierFailClosed counts classifier calls that could not be
	// completed and resolved to a fail-closed verdict.
	ClassifierFailClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studysafe_classifier_fail_closed_total",
		Help: "Total number of classifier calls that failed closed",
	})

	// PIIRedactions counts generated responses that had PII redacted.
	PIIRedactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studysafe_pii_redactions_total",
		Help: "Total number of responses with personal information redacted",
	})

	// RegenerationRequests counts output verdicts asking the caller to
	// regenerate the response.
	RegenerationRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studysafe_regeneration_requests_total",
		Help: "Total number of verdicts requiring response regeneration",
	})

	// RateLimited counts requests rejected by the rate-limit pre-check.
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studysafe_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting",
	})

	// Suspensions counts automatic requester suspensions triggered by
	// repeated high-severity blocks.
	Suspensions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studysafe_suspensions_total",
		Help: "Total number of automatic requester suspensions",
	})

	// ModerationLatency records full pipeline latency in seconds, labeled
	// by stage.
	ModerationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studysafe_moderation_latency_seconds",
		Help:    "Moderation pipeline latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(
		VerdictsTotal,
		FlaggedTotal,
		ClassifierFailClosed,
		PIIRedactions,
		RegenerationRequests,
		RateLimited,
		Suspensions,
		ModerationLatency,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
