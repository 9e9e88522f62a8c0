package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringjudge/internal/interactor"
)

func TestObserve(t *testing.T) {
	r := NewRecorder()
	r.Observe("astar", interactor.Outcome{Reason: interactor.ReasonOK, Runtime: 200 * time.Millisecond})
	r.Observe("astar", interactor.Outcome{Reason: interactor.ReasonOK, Runtime: time.Second})
	r.Observe("astar", interactor.Outcome{Reason: interactor.ReasonTimeout, Runtime: 2 * time.Second})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("astar", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("astar", "timeout")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runSeconds))
}

func TestSuiteFinished(t *testing.T) {
	r := NewRecorder()
	r.SuiteFinished("astar", 3, 4)
	r.SuiteFinished("backtracking", 0, 0)

	assert.Equal(t, 0.75, testutil.ToFloat64(r.successRatio.WithLabelValues("astar")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.successRatio.WithLabelValues("backtracking")))
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.Observe("astar", interactor.Outcome{Reason: interactor.ReasonOK})
	assert.Equal(t, 0, testutil.CollectAndCount(b.runsTotal))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe("astar", interactor.Outcome{Reason: interactor.ReasonWrongLength, Runtime: time.Second})
	r.SuiteFinished("astar", 0, 1)

	path := filepath.Join(t.TempDir(), "ringjudge.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `ringjudge_runs_total{algo="astar",reason="wrong_length"} 1`)
	assert.Contains(t, text, `ringjudge_last_suite_success_ratio{algo="astar"} 0`)
	assert.True(t, strings.Contains(text, "ringjudge_run_seconds_count"), text)
}

func TestWriteTextfileBadDir(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
