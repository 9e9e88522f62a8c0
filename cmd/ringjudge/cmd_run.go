package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ringjudge/internal/config"
	"ringjudge/internal/metrics"
	"ringjudge/internal/runner"
	"ringjudge/internal/store"
	"ringjudge/internal/suite"
)

func newRunCmd() *cobra.Command {
	var (
		algos     []string
		outputDir string
		noStore   bool
		textfile  string
		watch     bool
	)
	cmd := &cobra.Command{
		Use:   "run [suite-file]",
		Short: "Judge candidates against a suite of test cases",
		Long: `Runs every case of the suite (JSON array or JSONL) against each selected
candidate, one session at a time. Writes <algo>_import_summary.txt,
<algo>_aggregate.json and failures/ dumps into the output directory.

Example:
  ringjudge run tests/maps.jsonl --algo astar`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ws, err := loadConfig()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Judge.OutputDir
			}
			if textfile == "" {
				textfile = cfg.Metrics.Textfile
			}
			if len(algos) == 0 {
				algos = cfg.CandidateNames()
			}

			var ledger *store.Ledger
			if cfg.Store.Enabled && !noStore {
				ledger, err = store.NewLedger(inWorkspace(ws, cfg.Store.Path))
				if err != nil {
					return err
				}
				defer ledger.Close()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			suitePath := inWorkspace(ws, args[0])
			rec := metrics.NewRecorder()
			judgeAll := func() error {
				cases, err := suite.ReadFile(suitePath)
				switch {
				case errors.Is(err, suite.ErrEmptySuite):
					logger.Warn("suite has no test cases", zap.String("suite", args[0]))
				case err != nil:
					return err
				}
				for _, algo := range algos {
					if err := judge(ctx, cmd, cfg, algo, cases, ledger, rec, inWorkspace(ws, outputDir), inWorkspace(ws, textfile)); err != nil {
						return err
					}
				}
				return nil
			}

			if err := judgeAll(); err != nil {
				if !watch {
					return err
				}
				logger.Warn("judging failed", zap.Error(err))
			}
			if !watch {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes (Ctrl+C to stop)\n", args[0])
			return runner.Watch(ctx, suitePath, 500*time.Millisecond, func() {
				if err := judgeAll(); err != nil {
					logger.Warn("judging failed", zap.Error(err))
				}
			})
		},
	}
	cmd.Flags().StringSliceVarP(&algos, "algo", "a", nil, "Candidates to judge (default: all configured)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: judge.output_dir)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record outcomes in the ledger")
	cmd.Flags().StringVar(&textfile, "metrics-textfile", "", "Write Prometheus metrics to this file after each suite")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-judge whenever the suite file changes")
	return cmd
}

func judge(ctx context.Context, cmd *cobra.Command, cfg *config.Config, algo string, cases []suite.Case,
	ledger *store.Ledger, rec *metrics.Recorder, outputDir, textfile string) error {
	command, err := cfg.Candidate(algo)
	if err != nil {
		return err
	}
	opts := []runner.Option{runner.WithMetrics(rec)}
	if ledger != nil {
		opts = append(opts, runner.WithLedger(ledger))
	}
	r, err := runner.New(runner.Options{
		Algo:            algo,
		Command:         command,
		Session:         cfg.Session(),
		Teardown:        cfg.Teardown(),
		OutputDir:       outputDir,
		MetricsTextfile: textfile,
	}, opts...)
	if err != nil {
		return err
	}

	logger.Info("Judging candidate",
		zap.String("algo", algo),
		zap.String("command", command.CommandString()),
		zap.Int("cases", len(cases)))

	sr, err := r.RunSuite(ctx, cases)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	out := cmd.OutOrStdout()
	for _, res := range sr.Results {
		fmt.Fprintf(out, "[%s] case %d v%d: %s\n", algo, res.Case.Index, res.Case.Variant, res.Outcome)
	}
	for _, line := range sr.Summary.Lines() {
		fmt.Fprintln(out, line)
	}
	if sr.SummaryPath != "" {
		fmt.Fprintf(out, "summary: %s\n", sr.SummaryPath)
	}
	if err != nil {
		logger.Warn("suite interrupted", zap.String("algo", algo), zap.Error(err))
		return err
	}
	return nil
}
