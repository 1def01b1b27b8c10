package telemetry

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/ssasim/internal/gillespie"
)

func TestCollectorCountsTrajectories(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	for i, stop := range []gillespie.StopReason{gillespie.StoppedNoReaction, gillespie.StoppedNoReaction, gillespie.StoppedFinalTime} {
		tr := gillespie.NewTrajectory(1, 4)
		tr.Append(0, gillespie.Counts{1})
		tr.Stop = stop
		c.OnTrajectory(i, tr)
	}

	if got := testutil.ToFloat64(c.trajectories.WithLabelValues("no_reaction")); got != 2 {
		t.Errorf("no_reaction = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.trajectories.WithLabelValues("final_time")); got != 1 {
		t.Errorf("final_time = %v, want 1", got)
	}

	c.ObserveEnsemble(10*time.Millisecond, nil)
	c.ObserveEnsemble(time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(c.ensembles.WithLabelValues("error")); got != 1 {
		t.Errorf("error ensembles = %v, want 1", got)
	}
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCollector(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewCollector(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	c.ObserveEnsemble(time.Second, nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ssasim_ensembles_total") {
		t.Errorf("metrics output missing ensembles counter:\n%s", rec.Body.String())
	}
}
