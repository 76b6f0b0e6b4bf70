package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"csi-api/internal/domain"
)

func TestMetricsCountersAndNilReceiver(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.SessionOpened()
	nilMetrics.SubmissionRejected("conflict")
	nilMetrics.SessionCompleted(domain.ScoreResult{})
	if nilMetrics.Registry() != nil {
		t.Fatalf("expected nil registry for nil metrics")
	}

	m := New()
	m.SessionOpened()
	m.SessionOpened()
	m.SubmissionRejected("validation")
	m.SessionCompleted(domain.ScoreResult{
		Levels: map[domain.IndicatorCode]domain.Level{
			domain.IndicatorREP: domain.LevelHigh,
			domain.IndicatorAUC: domain.LevelLow,
		},
	})

	if got := testutil.ToFloat64(m.sessionsOpened); got != 2 {
		t.Fatalf("expected 2 opened, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsComplete); got != 1 {
		t.Fatalf("expected 1 completed, got %v", got)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("validation")); got != 1 {
		t.Fatalf("expected 1 validation rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.levels.WithLabelValues("REP", "High")); got != 1 {
		t.Fatalf("expected REP High counted once, got %v", got)
	}
}
