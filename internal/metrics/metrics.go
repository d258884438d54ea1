package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the collectors of one process. A sync run is a batch job, so
// they live on a private registry that is pushed once the run ends.
type Metrics struct {
	Registry *prometheus.Registry

	PagesFetched   prometheus.Counter
	UsersFetched   prometheus.Counter
	LoginsSynced   prometheus.Counter
	FetchesSkipped *prometheus.CounterVec
	Upserts        *prometheus.CounterVec
	RunDuration    prometheus.Gauge
	LastRunSuccess prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		PagesFetched: f.NewCounter(prometheus.CounterOpts{
			Name: MetricNamePagesFetched,
			Help: HelpTextPagesFetched,
		}),
		UsersFetched: f.NewCounter(prometheus.CounterOpts{
			Name: MetricNameUsersFetched,
			Help: HelpTextUsersFetched,
		}),
		LoginsSynced: f.NewCounter(prometheus.CounterOpts{
			Name: MetricNameLoginsSynced,
			Help: HelpTextLoginsSynced,
		}),
		FetchesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricNameFetchesSkipped,
			Help: HelpTextFetchesSkipped,
		}, []string{LabelStage, LabelReason}),
		Upserts: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricNameUpserts,
			Help: HelpTextUpserts,
		}, []string{LabelKind}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameRunDuration,
			Help: HelpTextRunDuration,
		}),
		LastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameLastRunSuccess,
			Help: HelpTextLastRunSuccess,
		}),
	}
}

// ObserveRun records the run duration and, on success, its completion time.
func (m *Metrics) ObserveRun(start, end time.Time, ok bool) {
	m.RunDuration.Set(end.Sub(start).Seconds())
	if ok {
		m.LastRunSuccess.Set(float64(end.Unix()))
	}
}

// Push sends the registry to a Pushgateway under the authsync job, grouped by tenant.
func (m *Metrics) Push(ctx context.Context, gatewayURL, domain string) error {
	return push.New(gatewayURL, JobName).
		Gatherer(m.Registry).
		Grouping("domain", domain).
		PushContext(ctx)
}
