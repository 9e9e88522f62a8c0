// Package runner judges candidates over test suites: it solves each map once,
// runs one interactive session per case, and fans the outcome out to the ledger,
// the metrics recorder and the report writers.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ringjudge/internal/grid"
	"ringjudge/internal/interactor"
	"ringjudge/internal/logging"
	"ringjudge/internal/metrics"
	"ringjudge/internal/oracle"
	"ringjudge/internal/report"
	"ringjudge/internal/store"
	"ringjudge/internal/suite"
	"ringjudge/internal/tactile"
	"ringjudge/internal/vision"
)

// SpawnFunc starts a candidate and returns the channel to talk to it.
type SpawnFunc func(cmd tactile.Command, td tactile.Teardown) (tactile.Channel, error)

// Ledger persists outcomes. *store.Ledger implements it.
type Ledger interface {
	Record(e store.Entry) (int64, error)
}

// Options configures a Runner for one candidate algorithm.
type Options struct {
	Algo     string
	Command  tactile.Command
	Session  interactor.Config
	Teardown tactile.Teardown

	// OutputDir receives the summary, aggregate and failure dumps. Empty
	// disables report files.
	OutputDir string

	// MetricsTextfile, when set, is rewritten after every suite.
	MetricsTextfile string
}

// Option adds an optional collaborator.
type Option func(*Runner)

// WithLedger records every outcome in l.
func WithLedger(l Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithMetrics counts every outcome in m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithSpawner replaces process spawning, mainly for tests.
func WithSpawner(fn SpawnFunc) Option {
	return func(r *Runner) { r.spawn = fn }
}

// Runner judges one candidate.
type Runner struct {
	opts    Options
	ledger  Ledger
	metrics *metrics.Recorder
	spawn   SpawnFunc
}

// New creates a Runner.
func New(opts Options, options ...Option) (*Runner, error) {
	if opts.Algo == "" {
		return nil, fmt.Errorf("runner requires an algorithm name")
	}
	if opts.Command.Binary == "" {
		return nil, fmt.Errorf("runner for %s requires a candidate binary", opts.Algo)
	}
	if opts.Session == (interactor.Config{}) {
		opts.Session = interactor.DefaultConfig()
	}
	r := &Runner{opts: opts, spawn: spawnProcess}
	for _, o := range options {
		o(r)
	}
	return r, nil
}

func spawnProcess(cmd tactile.Command, td tactile.Teardown) (tactile.Channel, error) {
	return tactile.Spawn(cmd, td)
}

// CaseResult is the judged outcome of one case.
type CaseResult struct {
	Case    suite.Case
	Truth   oracle.Result
	Outcome interactor.Outcome
	// DumpPath is set when a failure dump was written.
	DumpPath string
}

// Expected returns the optimal path length, or nil for an unsolvable map.
func (cr CaseResult) Expected() *int {
	if d, ok := cr.Truth.Destination(); ok {
		return &d
	}
	return nil
}

// RunCase judges c. The returned error covers only a case whose map cannot be
// built; every candidate failure is an Outcome.
func (r *Runner) RunCase(ctx context.Context, c suite.Case) (CaseResult, error) {
	m, err := c.Definition()
	if err != nil {
		return CaseResult{}, err
	}
	hazards := grid.NewHazardCache(m)
	truth := oracle.Solve(m, hazards)
	res := CaseResult{Case: c, Truth: truth}

	runID := uuid.NewString()
	log := logging.WithRequestID(logging.CategoryRunner, runID)
	log.Info("%s case %d variant %d: %s", r.opts.Algo, c.Index, c.Variant, truth)

	cmd := r.opts.Command
	cmd.RequestID = runID
	start := time.Now()
	ch, err := r.spawn(cmd, r.opts.Teardown)
	if err != nil {
		log.Warn("spawn failed: %v", err)
		res.Outcome = interactor.Failed(runID, interactor.ReasonSpawnFailed, truth.Solvable(), time.Since(start), err.Error())
	} else {
		sess, err := interactor.NewSession(ch, interactor.Case{
			Map:     m,
			Hazards: hazards,
			Truth:   truth,
			Variant: vision.Variant(c.Variant),
			RunID:   runID,
		}, r.opts.Session)
		if err != nil {
			ch.Close()
			return CaseResult{}, fmt.Errorf("case %d: %w", c.Index, err)
		}
		res.Outcome = sess.Run(ctx)
	}
	log.Info("outcome: %s", res.Outcome)

	r.record(&res, m, hazards)
	return res, nil
}

func (r *Runner) record(res *CaseResult, m *grid.MapDefinition, hazards *grid.HazardCache) {
	o := res.Outcome
	if r.ledger != nil {
		entry := store.NewEntry(r.opts.Algo, res.Case.Index, res.Case.Variant, res.Expected(), o)
		if _, err := r.ledger.Record(entry); err != nil {
			logging.RunnerWarn("ledger: %v", err)
		}
	}
	if r.metrics != nil {
		r.metrics.Observe(r.opts.Algo, o)
	}
	if o.Success || r.opts.OutputDir == "" {
		return
	}
	path, err := report.DumpFailure(r.opts.OutputDir, report.Failure{
		Algo:     r.opts.Algo,
		Variant:  res.Case.Variant,
		Index:    res.Case.Index,
		Map:      m,
		Hazards:  hazards,
		Expected: res.Expected(),
		Outcome:  o,
	})
	if err != nil {
		logging.RunnerWarn("failure dump: %v", err)
		return
	}
	res.DumpPath = path
}

// SuiteResult is the judged suite with its statistics.
type SuiteResult struct {
	Results       []CaseResult
	Summary       report.ImportSummary
	Aggregate     report.Aggregate
	SummaryPath   string
	AggregatePath string
}

// Outcomes returns the outcome of every judged case in order.
func (sr SuiteResult) Outcomes() []interactor.Outcome {
	out := make([]interactor.Outcome, len(sr.Results))
	for i, res := range sr.Results {
		out[i] = res.Outcome
	}
	return out
}

// RunSuite judges cases sequentially. When ctx is done the remaining cases are
// skipped and the statistics cover only the judged ones; ctx.Err() is returned
// alongside them.
func (r *Runner) RunSuite(ctx context.Context, cases []suite.Case) (SuiteResult, error) {
	timer := logging.StartTimer(logging.CategoryRunner, "Suite "+r.opts.Algo)
	defer timer.Stop()

	var sr SuiteResult
	var stopErr error
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			logging.RunnerWarn("%s suite stopped before case %d: %v", r.opts.Algo, c.Index, err)
			stopErr = err
			break
		}
		res, err := r.RunCase(ctx, c)
		if err != nil {
			return sr, err
		}
		sr.Results = append(sr.Results, res)
	}

	outcomes := sr.Outcomes()
	sr.Summary = report.Summary(r.opts.Algo, outcomes)
	sr.Aggregate = report.Summarize(outcomes)
	logging.Runner("%s: %d/%d successful", r.opts.Algo, sr.Aggregate.Successes, sr.Aggregate.TotalRuns)

	if r.opts.OutputDir != "" {
		var err error
		if sr.SummaryPath, err = report.WriteSummary(r.opts.OutputDir, sr.Summary); err != nil {
			return sr, err
		}
		if sr.AggregatePath, err = report.WriteAggregate(r.opts.OutputDir, r.opts.Algo, sr.Aggregate); err != nil {
			return sr, err
		}
	}
	if r.metrics != nil {
		r.metrics.SuiteFinished(r.opts.Algo, sr.Aggregate.Successes, sr.Aggregate.TotalRuns)
		if r.opts.MetricsTextfile != "" {
			if err := r.metrics.WriteTextfile(r.opts.MetricsTextfile); err != nil {
				return sr, err
			}
		}
	}
	return sr, stopErr
}
