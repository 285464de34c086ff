package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	analysesTotal            *prometheus.CounterVec
	analysisLatencySeconds   *prometheus.HistogramVec
	persistenceFailuresTotal prometheus.Counter
	submissionsSavedTotal    prometheus.Counter
	chatQuestionsTotal       *prometheus.CounterVec
	dashboardCacheTotal      *prometheus.CounterVec
	roadmapRequestsTotal     *prometheus.CounterVec
	roadmapLatencySeconds    prometheus.Histogram
	activityConnectionsTotal prometheus.Counter
	activityEventsTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the coach API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coach_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0, 60.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_analyses_total",
			Help: "Code analyses by source and outcome.",
		}, []string{"source", "outcome"})

		analysisLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coach_analysis_latency_seconds",
			Help:    "End to end latency of code analyses.",
			Buckets: []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"})

		persistenceFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_persistence_failures_total",
			Help: "Background submission saves that failed.",
		})

		submissionsSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_submissions_saved_total",
			Help: "Submissions persisted together with their analysis.",
		})

		chatQuestionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_chat_questions_total",
			Help: "Follow-up questions by outcome.",
		}, []string{"outcome"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_dashboard_cache_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"})

		roadmapRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_roadmap_requests_total",
			Help: "Roadmap requests by result.",
		}, []string{"result"})

		roadmapLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coach_roadmap_latency_seconds",
			Help:    "Latency of roadmap generation.",
			Buckets: []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		})

		activityConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_activity_connections_total",
			Help: "Activity stream websocket connections accepted.",
		})

		activityEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_activity_events_total",
			Help: "Activity events fanned out to local clients by origin.",
		}, []string{"origin"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			analysesTotal, analysisLatencySeconds, persistenceFailuresTotal, submissionsSavedTotal,
			chatQuestionsTotal, dashboardCacheTotal,
			roadmapRequestsTotal, roadmapLatencySeconds,
			activityConnectionsTotal, activityEventsTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Analyses counts analyses by source (model provider or heuristic) and outcome.
func Analyses() *prometheus.CounterVec {
	RegisterMetrics()
	return analysesTotal
}

// AnalysisLatency exposes the analysis latency histogram.
func AnalysisLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return analysisLatencySeconds
}

// PersistenceFailures counts failed background saves.
func PersistenceFailures() prometheus.Counter {
	RegisterMetrics()
	return persistenceFailuresTotal
}

// SubmissionsSaved counts successful saves.
func SubmissionsSaved() prometheus.Counter {
	RegisterMetrics()
	return submissionsSavedTotal
}

// ChatQuestions counts follow-up questions.
func ChatQuestions() *prometheus.CounterVec {
	RegisterMetrics()
	return chatQuestionsTotal
}

// DashboardCache counts dashboard cache hits and misses.
func DashboardCache() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}

// RoadmapRequests counts roadmap requests.
func RoadmapRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return roadmapRequestsTotal
}

// RoadmapLatency exposes the roadmap latency histogram.
func RoadmapLatency() prometheus.Histogram {
	RegisterMetrics()
	return roadmapLatencySeconds
}

// ActivityConnections counts accepted activity stream connections.
func ActivityConnections() prometheus.Counter {
	RegisterMetrics()
	return activityConnectionsTotal
}

// ActivityEvents counts activity events delivered to the local hub.
func ActivityEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return activityEventsTotal
}
