package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"csi-api/internal/domain"
)

// Metrics agrupa los contadores del ciclo de vida de los tests.
// Todos los metodos aceptan receptor nil para que los tests puedan omitirlo.
type Metrics struct {
	registry         *prometheus.Registry
	sessionsOpened   prometheus.Counter
	sessionsComplete prometheus.Counter
	rejected         *prometheus.CounterVec
	levels           *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csi_test_sessions_opened_total",
			Help: "Number of CSI test sessions opened.",
		}),
		sessionsComplete: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csi_test_sessions_completed_total",
			Help: "Number of CSI test sessions completed with a scored result.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csi_submissions_rejected_total",
			Help: "Rejected response submissions by reason.",
		}, []string{"reason"}),
		levels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csi_indicator_levels_total",
			Help: "Scored indicator levels by indicator code.",
		}, []string{"indicator", "level"}),
	}
	m.registry.MustRegister(m.sessionsOpened, m.sessionsComplete, m.rejected, m.levels)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc()
}

// SessionCompleted registra el cierre y el nivel de cada indicador.
func (m *Metrics) SessionCompleted(result domain.ScoreResult) {
	if m == nil {
		return
	}
	m.sessionsComplete.Inc()
	for code, level := range result.Levels {
		m.levels.WithLabelValues(string(code), string(level)).Inc()
	}
}

func (m *Metrics) SubmissionRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
