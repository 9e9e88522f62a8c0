// Package report turns run outcomes into summaries: the per-suite import
// summary, aggregate statistics, and text dumps of failed runs.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ringjudge/internal/interactor"
	"ringjudge/internal/logging"
)

// Aggregate is the statistical breakdown of a set of runs. Runtimes are seconds.
type Aggregate struct {
	TotalRuns   int     `json:"total_runs"`
	Successes   int     `json:"successes"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"success_rate"`
	FailureRate float64 `json:"failure_rate"`

	RuntimeMeanAll   *float64 `json:"runtime_mean_all"`
	RuntimeMedianAll *float64 `json:"runtime_median_all"`
	RuntimeModeAll   *float64 `json:"runtime_mode_all"`
	RuntimeStdAll    float64  `json:"runtime_std_all"`

	RuntimeMeanSuccess   *float64 `json:"runtime_mean_success"`
	RuntimeMedianSuccess *float64 `json:"runtime_median_success"`
	RuntimeModeSuccess   *float64 `json:"runtime_mode_success"`
	RuntimeStdSuccess    float64  `json:"runtime_std_success"`

	MovesMeanSuccess   *float64 `json:"moves_mean_success"`
	MovesMedianSuccess *float64 `json:"moves_median_success"`
	MovesModeSuccess   *float64 `json:"moves_mode_success"`
	MovesStdSuccess    float64  `json:"moves_std_success"`

	TogglesMeanSuccess   *float64 `json:"toggles_mean_success"`
	TogglesMedianSuccess *float64 `json:"toggles_median_success"`
	TogglesModeSuccess   *float64 `json:"toggles_mode_success"`
	TogglesStdSuccess    float64  `json:"toggles_std_success"`

	ClaimedUnsolvableTotal   int `json:"claimed_unsolvable_total"`
	ClaimedUnsolvableCorrect int `json:"claimed_unsolvable_correct"`
	ClaimedUnsolvableFalse   int `json:"claimed_unsolvable_false"`

	ReasonBreakdown map[interactor.Reason]int `json:"reason_breakdown"`
}

// Summarize computes the aggregate over outcomes.
func Summarize(outcomes []interactor.Outcome) Aggregate {
	a := Aggregate{
		TotalRuns:       len(outcomes),
		ReasonBreakdown: make(map[interactor.Reason]int),
	}

	var runtimesAll, runtimesOK []float64
	var movesOK, togglesOK []int
	for _, o := range outcomes {
		secs := o.Runtime.Seconds()
		runtimesAll = append(runtimesAll, secs)
		if o.Success {
			a.Successes++
			runtimesOK = append(runtimesOK, secs)
			movesOK = append(movesOK, o.Moves)
			togglesOK = append(togglesOK, o.Toggles)
		}
		a.ReasonBreakdown[o.Reason]++
		if o.ClaimedUnsolvable {
			a.ClaimedUnsolvableTotal++
			if !o.WasSolvable && o.Success {
				a.ClaimedUnsolvableCorrect++
			}
		}
		if o.Reason == interactor.ReasonFalseUnsolvable {
			a.ClaimedUnsolvableFalse++
		}
	}
	a.Failures = a.TotalRuns - a.Successes
	if a.TotalRuns > 0 {
		a.SuccessRate = float64(a.Successes) / float64(a.TotalRuns)
		a.FailureRate = float64(a.Failures) / float64(a.TotalRuns)
	}

	all := describe(runtimesAll)
	a.RuntimeMeanAll, a.RuntimeMedianAll, a.RuntimeModeAll, a.RuntimeStdAll = all.Mean, all.Median, all.Mode, all.Std
	ok := describe(runtimesOK)
	a.RuntimeMeanSuccess, a.RuntimeMedianSuccess, a.RuntimeModeSuccess, a.RuntimeStdSuccess = ok.Mean, ok.Median, ok.Mode, ok.Std
	mv := describe(ints(movesOK))
	a.MovesMeanSuccess, a.MovesMedianSuccess, a.MovesModeSuccess, a.MovesStdSuccess = mv.Mean, mv.Median, mv.Mode, mv.Std
	tg := describe(ints(togglesOK))
	a.TogglesMeanSuccess, a.TogglesMedianSuccess, a.TogglesModeSuccess, a.TogglesStdSuccess = tg.Mean, tg.Median, tg.Mode, tg.Std
	return a
}

// WriteAggregate writes a as indented JSON to <dir>/<algo>_aggregate.json.
func WriteAggregate(dir, algo string, a Aggregate) (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode aggregate: %w", err)
	}
	path := filepath.Join(dir, algo+"_aggregate.json")
	if err := writeFile(path, append(data, '\n')); err != nil {
		return "", err
	}
	logging.Report("Aggregate for %s written to %s", algo, path)
	return path, nil
}

// ImportSummary is the short per-suite summary. A win is any run in which the
// candidate reported a path length, right or wrong.
type ImportSummary struct {
	Algo          string
	Total         int
	Wins          int
	Losses        int
	RuntimeMean   *float64
	RuntimeMode   *float64
	RuntimeMedian *float64
	RuntimeStd    float64
}

// Summary builds the import summary for algo.
func Summary(algo string, outcomes []interactor.Outcome) ImportSummary {
	s := ImportSummary{Algo: algo, Total: len(outcomes)}
	runtimes := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		runtimes = append(runtimes, o.Runtime.Seconds())
		if o.ReportedLength != nil {
			s.Wins++
		}
	}
	s.Losses = s.Total - s.Wins

	d := describe(runtimes)
	s.RuntimeMean, s.RuntimeMode, s.RuntimeMedian, s.RuntimeStd = d.Mean, d.Mode, d.Median, d.Std
	return s
}

// Lines renders the summary as "key: value" lines in a fixed order.
func (s ImportSummary) Lines() []string {
	return []string{
		"algo: " + s.Algo,
		"total: " + strconv.Itoa(s.Total),
		"wins: " + strconv.Itoa(s.Wins),
		"losses: " + strconv.Itoa(s.Losses),
		"runtime_mean: " + formatOptional(s.RuntimeMean),
		"runtime_mode: " + formatOptional(s.RuntimeMode),
		"runtime_median: " + formatOptional(s.RuntimeMedian),
		"runtime_std: " + formatFloat(s.RuntimeStd),
	}
}

// WriteSummary writes the summary to <dir>/<algo>_import_summary.txt.
func WriteSummary(dir string, s ImportSummary) (string, error) {
	path := filepath.Join(dir, s.Algo+"_import_summary.txt")
	if err := writeFile(path, []byte(strings.Join(s.Lines(), "\n")+"\n")); err != nil {
		return "", err
	}
	logging.Report("Import summary for %s written to %s", s.Algo, path)
	return path, nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return "none"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
