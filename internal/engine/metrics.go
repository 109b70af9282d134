package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

type Metrics struct {
	// Latency: длительность одного цикла опроса ресурса
	FetchDuration *prometheus.HistogramVec

	// Traffic: количество циклов опроса по исходу
	FetchTotal *prometheus.CounterVec

	// Тики, пропущенные из-за запроса в полете, и результаты, отброшенные после остановки
	TicksSkipped     *prometheus.CounterVec
	ResultsDiscarded *prometheus.CounterVec

	// Errors: классификация отказов вызовов бэкенда
	ErrorTotal *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - закрыт, 1 - открыт, 2 - полуоткрыт)
	CircuitBreakerState *prometheus.GaugeVec

	// Audit: заполненность буфера журнала (backpressure)
	AuditBufferFill prometheus.Gauge

	// Домен: последние примененные снимки
	FleetAgents           *prometheus.GaugeVec
	FleetHealthPercentage prometheus.Gauge
	ApprovalsPending      prometheus.Gauge
	ApprovalsFlagged      *prometheus.GaugeVec
	EvolutionsByBucket    *prometheus.GaugeVec
	EscalationsPublished  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_fetch_duration_seconds",
			Help:    "Histogram of resource poll latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"resource", "outcome"}),

		FetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "console_fetch_total",
			Help: "Total number of resource polls by outcome.",
		}, []string{"resource", "outcome"}),

		TicksSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "console_poll_ticks_skipped_total",
			Help: "Timer ticks skipped because a fetch was still in flight.",
		}, []string{"resource"}),

		ResultsDiscarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "console_poll_results_discarded_total",
			Help: "Fetch results discarded because the poller was stopped.",
		}, []string{"resource"}),

		ErrorTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "console_backend_errors_total",
			Help: "Total number of backend call errors by type.",
		}, []string{"type"}), // типы: rate_limit, circuit_open, client, server, transport

		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "console_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=open, 2=half-open).",
		}, []string{"breaker"}),

		AuditBufferFill: f.NewGauge(prometheus.GaugeOpts{
			Name: "console_audit_buffer_utilization",
			Help: "Current number of events in audit buffer.",
		}),

		FleetAgents: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "console_fleet_agents",
			Help: "Agents in the last applied snapshot by health grade.",
		}, []string{"grade"}),

		FleetHealthPercentage: f.NewGauge(prometheus.GaugeOpts{
			Name: "console_fleet_health_percentage",
			Help: "Share of healthy agents in the last applied snapshot.",
		}),

		ApprovalsPending: f.NewGauge(prometheus.GaugeOpts{
			Name: "console_approvals_pending",
			Help: "Approval requests in the last applied queue snapshot.",
		}),

		ApprovalsFlagged: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "console_approvals_flagged",
			Help: "Approval requests carrying a temporal flag at the last evaluation.",
		}, []string{"flag"}),

		EvolutionsByBucket: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "console_evolutions",
			Help: "Tracked evolutions by lifecycle bucket.",
		}, []string{"bucket"}),

		EscalationsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "console_escalations_published_total",
			Help: "Escalation alerts published to the broker.",
		}),
	}
}

// FetchObserved, TickSkipped и ResultDiscarded реализуют poller.Recorder.
func (m *Metrics) FetchObserved(resource string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.FetchDuration.WithLabelValues(resource, outcome).Observe(d.Seconds())
	m.FetchTotal.WithLabelValues(resource, outcome).Inc()
}

func (m *Metrics) TickSkipped(resource string) {
	m.TicksSkipped.WithLabelValues(resource).Inc()
}

func (m *Metrics) ResultDiscarded(resource string) {
	m.ResultsDiscarded.WithLabelValues(resource).Inc()
}

func (m *Metrics) ObserveFleet(s domain.SystemSnapshot) {
	m.FleetAgents.WithLabelValues(string(domain.GradeHealthy)).Set(float64(s.HealthyAgents))
	m.FleetAgents.WithLabelValues(string(domain.GradeDegraded)).Set(float64(s.DegradedAgents))
	m.FleetAgents.WithLabelValues(string(domain.GradeUnhealthy)).Set(float64(s.UnhealthyAgents))
	m.FleetAgents.WithLabelValues(string(domain.GradeUnknown)).Set(float64(s.UnknownAgents))
	m.FleetHealthPercentage.Set(float64(s.HealthPercentage))
}

func (m *Metrics) ObserveApprovals(total, overdue, needsEscalation int) {
	m.ApprovalsPending.Set(float64(total))
	m.ApprovalsFlagged.WithLabelValues("overdue").Set(float64(overdue))
	m.ApprovalsFlagged.WithLabelValues("needs_escalation").Set(float64(needsEscalation))
}

func (m *Metrics) ObserveEvolutions(buckets map[string]int) {
	for bucket, n := range buckets {
		m.EvolutionsByBucket.WithLabelValues(bucket).Set(float64(n))
	}
}
