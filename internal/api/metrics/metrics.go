// Package metrics centralizes the Prometheus instruments for token lifecycle
// and authorization outcomes. Counters are fire-and-forget observability;
// nothing on the correctness path depends on them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authorize outcome label values.
const (
	ResultHit          = "hit"
	ResultFallback     = "fallback"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

type Metrics struct {
	tokensIssued  prometheus.Counter
	tokensRevoked prometheus.Counter
	authorize     *prometheus.CounterVec
}

// New registers the service metrics on reg and returns the handle services
// record through.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		tokensIssued: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "builder",
			Subsystem: "tokens",
			Name:      "issued_total",
			Help:      "Access tokens successfully issued.",
		}),
		tokensRevoked: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "builder",
			Subsystem: "tokens",
			Name:      "revoked_total",
			Help:      "Access tokens successfully revoked.",
		}),
		authorize: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "builder",
			Subsystem: "authorize",
			Name:      "requests_total",
			Help:      "Authorization attempts by outcome.",
		}, []string{"result"}),
	}
}

func (m *Metrics) TokenIssued()  { m.tokensIssued.Inc() }
func (m *Metrics) TokenRevoked() { m.tokensRevoked.Inc() }

func (m *Metrics) Authorize(result string) {
	m.authorize.WithLabelValues(result).Inc()
}
