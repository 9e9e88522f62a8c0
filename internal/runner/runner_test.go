package runner

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ringjudge/internal/interactor"
	"ringjudge/internal/metrics"
	"ringjudge/internal/store"
	"ringjudge/internal/suite"
	"ringjudge/internal/tactile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const helperEnv = "RINGJUDGE_RUNNER_HELPER"

func helperCommand(mode string) tactile.Command {
	return tactile.Command{
		Binary:      os.Args[0],
		Arguments:   []string{"-test.run=TestHelperProcess", "--", mode},
		Environment: []string{helperEnv + "=1"},
	}
}

// TestHelperProcess is the candidate body for the process-backed tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	in := bufio.NewScanner(os.Stdin)
	next := func() string {
		if !in.Scan() {
			os.Exit(0)
		}
		return in.Text()
	}
	observe := func() {
		n, _ := strconv.Atoi(next())
		for i := 0; i < n; i++ {
			next()
		}
	}

	switch os.Args[len(os.Args)-1] {
	case "direct":
		// Walks origin -> (1,0) waypoint -> (2,0) destination.
		next()
		next()
		observe()
		fmt.Println("m 1 0")
		observe()
		next()
		fmt.Println("m 2 0")
		observe()
		fmt.Println("e 2")
		os.Exit(0)
	case "wander":
		next()
		next()
		observe()
		fmt.Println("m 0 5")
		for in.Scan() {
		}
		os.Exit(0)
	}
	os.Exit(2)
}

// adjacentCase puts the waypoint next to the origin and the destination next to it.
func adjacentCase(index int) suite.Case {
	return suite.Case{
		Index:   index,
		Variant: 2,
		Map: suite.SerializedMap{
			G: [2]int{1, 0},
			M: [2]int{2, 0},
			C: [2]int{5, 5},
		},
	}
}

func testOptions(t *testing.T, cmd tactile.Command) Options {
	return Options{
		Algo:    "helper",
		Command: cmd,
		Session: interactor.Config{CommandTimeout: 5 * time.Second, ProcessTimeout: 20 * time.Second},
		Teardown: tactile.Teardown{
			GracePeriod: 200 * time.Millisecond,
			KillWait:    2 * time.Second,
			JoinWait:    500 * time.Millisecond,
		},
		OutputDir: t.TempDir(),
	}
}

func newLedger(t *testing.T) *store.Ledger {
	t.Helper()
	l, err := store.NewLedger(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestNewValidates(t *testing.T) {
	_, err := New(Options{Command: tactile.Command{Binary: "x"}})
	assert.Error(t, err)
	_, err = New(Options{Algo: "astar"})
	assert.Error(t, err)

	r, err := New(Options{Algo: "astar", Command: tactile.Command{Binary: "java"}})
	require.NoError(t, err)
	assert.Equal(t, interactor.DefaultConfig(), r.opts.Session)
}

func TestRunCaseWithProcess(t *testing.T) {
	ledger := newLedger(t)
	rec := metrics.NewRecorder()
	r, err := New(testOptions(t, helperCommand("direct")), WithLedger(ledger), WithMetrics(rec))
	require.NoError(t, err)

	res, err := r.RunCase(context.Background(), adjacentCase(0))
	require.NoError(t, err)

	assert.True(t, res.Outcome.Success, res.Outcome.String())
	assert.Equal(t, interactor.ReasonOK, res.Outcome.Reason)
	require.NotNil(t, res.Expected())
	assert.Equal(t, 2, *res.Expected())
	assert.Empty(t, res.DumpPath)

	entries, err := ledger.Recent("helper", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.Outcome.RunID, entries[0].RunID)
	assert.Equal(t, 2, *entries[0].ExpectedLength)
}

func TestRunCaseFailureWritesDump(t *testing.T) {
	opts := testOptions(t, helperCommand("wander"))
	r, err := New(opts)
	require.NoError(t, err)

	res, err := r.RunCase(context.Background(), adjacentCase(3))
	require.NoError(t, err)

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, interactor.ReasonNonAdjacentMove, res.Outcome.Reason)
	assert.Equal(t, filepath.Join(opts.OutputDir, "failures", "helper_v2_map0003_non_adjacent_move.txt"), res.DumpPath)
	assert.FileExists(t, res.DumpPath)
}

func TestRunCaseSpawnFailure(t *testing.T) {
	opts := testOptions(t, tactile.Command{Binary: filepath.Join(t.TempDir(), "no-such-candidate")})
	r, err := New(opts)
	require.NoError(t, err)

	res, err := r.RunCase(context.Background(), adjacentCase(1))
	require.NoError(t, err)
	assert.Equal(t, interactor.ReasonSpawnFailed, res.Outcome.Reason)
	assert.True(t, res.Outcome.WasSolvable)
	assert.NotEmpty(t, res.Outcome.Diagnostics)
	assert.FileExists(t, res.DumpPath)
}

func TestRunCaseInvalidMap(t *testing.T) {
	r, err := New(testOptions(t, helperCommand("direct")))
	require.NoError(t, err)

	c := adjacentCase(4)
	c.Map.Enemies = []suite.SerializedAgent{{Kind: "X", X: 3, Y: 3}}
	_, err = r.RunCase(context.Background(), c)
	assert.ErrorContains(t, err, "case 4")
}

// scriptChannel answers every Receive with the next scripted line, then hangs up.
type scriptChannel struct {
	lines []string
}

func (s *scriptChannel) Send(string) error { return nil }
func (s *scriptChannel) Receive(context.Context, time.Duration) (string, tactile.Status) {
	if len(s.lines) == 0 {
		return "", tactile.StatusClosed
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, tactile.StatusLine
}
func (s *scriptChannel) Kill()               {}
func (s *scriptChannel) Exited() bool        { return true }
func (s *scriptChannel) Diagnostics() string { return "" }
func (s *scriptChannel) Close() error        { return nil }

func scriptedSpawner(scripts ...[]string) SpawnFunc {
	return func(tactile.Command, tactile.Teardown) (tactile.Channel, error) {
		if len(scripts) == 0 {
			return nil, fmt.Errorf("no script left")
		}
		next := scripts[0]
		scripts = scripts[1:]
		return &scriptChannel{lines: next}, nil
	}
}

func TestRunSuite(t *testing.T) {
	opts := testOptions(t, tactile.Command{Binary: "candidate"})
	opts.MetricsTextfile = filepath.Join(t.TempDir(), "ringjudge.prom")
	rec := metrics.NewRecorder()
	r, err := New(opts, WithMetrics(rec), WithSpawner(scriptedSpawner(
		[]string{"m 1 0", "m 2 0", "e 2"},
		[]string{"e -1"},
	)))
	require.NoError(t, err)

	sr, err := r.RunSuite(context.Background(), []suite.Case{adjacentCase(0), adjacentCase(1)})
	require.NoError(t, err)
	require.Len(t, sr.Results, 2)

	assert.Equal(t, interactor.ReasonOK, sr.Results[0].Outcome.Reason)
	assert.Equal(t, interactor.ReasonFalseUnsolvable, sr.Results[1].Outcome.Reason)
	assert.NotEmpty(t, sr.Results[1].DumpPath)

	assert.Equal(t, 2, sr.Summary.Total)
	assert.Equal(t, 1, sr.Summary.Wins)
	assert.Equal(t, 1, sr.Aggregate.Successes)
	assert.Equal(t, 1, sr.Aggregate.ClaimedUnsolvableFalse)

	assert.Equal(t, filepath.Join(opts.OutputDir, "helper_import_summary.txt"), sr.SummaryPath)
	assert.FileExists(t, sr.AggregatePath)
	assert.FileExists(t, opts.MetricsTextfile)
}

func TestRunSuiteStopsWhenCanceled(t *testing.T) {
	r, err := New(testOptions(t, tactile.Command{Binary: "candidate"}), WithSpawner(scriptedSpawner()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sr, err := r.RunSuite(ctx, []suite.Case{adjacentCase(0)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sr.Results)
	assert.Equal(t, 0, sr.Summary.Total)
	assert.FileExists(t, sr.SummaryPath)
}
