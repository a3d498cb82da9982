package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics
var (
	RecordsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthwatch", Subsystem: "store", Name: "records_appended_total", Help: "Total insight records appended, by modality."},
		[]string{"modality"},
	)
	AppendRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "hearthwatch", Subsystem: "store", Name: "appends_rejected_total", Help: "Total appends rejected by validation."},
	)
	AssessmentsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthwatch", Subsystem: "engine", Name: "assessments_total", Help: "Total threat assessments emitted, by threat level."},
		[]string{"threat_level"},
	)
	ScenarioTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthwatch", Subsystem: "engine", Name: "scenario_transitions_total", Help: "Total scenario status transitions, by scenario and status."},
		[]string{"scenario", "status"},
	)
	ActionsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthwatch", Subsystem: "engine", Name: "actions_total", Help: "Total escalation actions issued, by action kind."},
		[]string{"action"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "hearthwatch", Subsystem: "store", Name: "active_sessions", Help: "Currently active monitoring sessions."},
	)
	EvaluateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "hearthwatch", Subsystem: "engine", Name: "evaluate_duration_seconds", Help: "Evaluation cycle duration.", Buckets: prometheus.DefBuckets},
	)
	EmbedDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "hearthwatch", Subsystem: "embedding", Name: "embed_duration_seconds", Help: "Embedding generation duration.", Buckets: prometheus.DefBuckets},
	)
)

func init() {
	_ = prometheus.Register(RecordsAppended)
	_ = prometheus.Register(AppendRejected)
	_ = prometheus.Register(AssessmentsEmitted)
	_ = prometheus.Register(ScenarioTransitions)
	_ = prometheus.Register(ActionsIssued)
	_ = prometheus.Register(ActiveSessions)
	_ = prometheus.Register(EvaluateDuration)
	_ = prometheus.Register(EmbedDuration)
}
