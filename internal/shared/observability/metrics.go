package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hydralsp_analysis_seconds",
		Help:    "Time spent analyzing one document, by stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	AnalysisRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydralsp_analysis_runs_total",
		Help: "Total number of analysis runs by outcome (published, superseded, failed).",
	}, []string{"outcome"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydralsp_findings_total",
		Help: "Total number of findings emitted, by severity.",
	}, []string{"severity"})

	TargetsAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydralsp_targets_analyzed_total",
		Help: "Total number of target references validated.",
	})

	ModuleResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydralsp_module_resolve_total",
		Help: "Module resolution attempts by result (found, not_found).",
	}, []string{"result"})

	PythonParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hydralsp_python_parse_seconds",
		Help:    "Time spent parsing a Python source file and extracting a definition.",
		Buckets: prometheus.DefBuckets,
	})

	DefinitionCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydralsp_definition_cache_total",
		Help: "Definition cache lookups by result (hit, miss).",
	}, []string{"result"})

	DocumentsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydralsp_documents_open",
		Help: "Current number of documents held by the session.",
	})

	SchedulerInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydralsp_scheduler_in_flight",
		Help: "Current number of analysis runs executing.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydralsp_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HistoryWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydralsp_history_writes_total",
		Help: "Analysis history writes by result (ok, error).",
	}, []string{"result"})
)
