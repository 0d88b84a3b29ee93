// Package metrics exposes Prometheus collectors for document lifecycle outcomes.
// A nil *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "briefcase"

// Read outcomes.
const (
	ReadOK           = "ok"
	ReadNotFound     = "not_found"
	ReadForbidden    = "forbidden"
	ReadExpired      = "expired"
	ReadLimitReached = "limit_reached"
	ReadError        = "error"
)

// Deletion reasons.
const (
	DeletedExpired      = "expired"
	DeletedLimitReached = "limit_reached"
	DeletedSweep        = "sweep"
)

type Metrics struct {
	created prometheus.Counter
	reads   *prometheus.CounterVec
	deleted *prometheus.CounterVec
}

// New creates the lifecycle collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_created_total",
			Help:      "Documents stored for delivery.",
		}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_reads_total",
			Help:      "Read attempts by outcome.",
		}, []string{"outcome"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_deleted_total",
			Help:      "Documents soft-deleted, by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.created, m.reads, m.deleted} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) DocumentCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

func (m *Metrics) Read(outcome string) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Deleted(reason string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.WithLabelValues(reason).Add(float64(n))
}
