package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ndau/simple-dao/dao"
)

const (
	Namespace = "simpledao"

	GovernanceSubsystem = "governance"
	APISubsystem        = "api"
)

// Recorder counts committed governance events and API requests. It is a
// dao.Notifier and owns its registry, so several recorders can coexist.
type Recorder struct {
	registry *prometheus.Registry

	EventsTotal            *prometheus.CounterVec
	ProposalDecisionsTotal *prometheus.CounterVec
	TokenSupply            prometheus.Gauge
	Members                prometheus.Gauge

	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.SummaryVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: GovernanceSubsystem,
			Name:      "events_total",
			Help:      "Total number of committed governance events.",
		}, []string{"type"}),
		ProposalDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: GovernanceSubsystem,
			Name:      "proposal_decisions_total",
			Help:      "Proposals decided by a vote, by outcome.",
		}, []string{"status"}),
		TokenSupply: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: GovernanceSubsystem,
			Name:      "token_supply",
			Help:      "Current total token supply.",
		}),
		Members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: GovernanceSubsystem,
			Name:      "members",
			Help:      "Number of organization members.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: APISubsystem,
			Name:      "requests_total",
			Help:      "Total number of requests.",
		}, []string{"endpoint", "method", "status"}),
		RequestDurationSeconds: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: Namespace,
			Subsystem: APISubsystem,
			Name:      "request_duration_seconds",
			Help:      "Request latency.",
		}, []string{"endpoint", "method"}),
	}
	r.registry.MustRegister(
		r.EventsTotal,
		r.ProposalDecisionsTotal,
		r.TokenSupply,
		r.Members,
		r.RequestsTotal,
		r.RequestDurationSeconds,
	)
	return r
}

// Prime sets the gauges from state that was restored rather than announced.
func (r *Recorder) Prime(members int, supply dao.Amount) {
	r.Members.Set(float64(members))
	r.TokenSupply.Set(float64(supply))
}

func (r *Recorder) Notify(_ context.Context, e dao.Event) {
	r.EventsTotal.WithLabelValues(e.EventType()).Inc()

	switch ev := e.(type) {
	case dao.OrganizationInitialized:
		r.Prime(len(ev.Members), ev.TotalSupply)
	case dao.TokensDistributed:
		r.TokenSupply.Set(float64(ev.TotalSupply))
	case dao.VoteCast:
		if ev.Status != dao.Active.String() {
			r.ProposalDecisionsTotal.WithLabelValues(ev.Status).Inc()
		}
	}
}

func (r *Recorder) ObserveRequest(endpoint, method string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	r.RequestDurationSeconds.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
