package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/config"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/driver"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/health"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/metrics"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/solver"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/source"
)

type runFlags struct {
	input        string
	output       string
	maxDeletions int
	strategy     string
	quiet        bool
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Decompose an instance and write the solved pieces",
		Long: `run loads an instance document from a local path or an s3://bucket/key URI,
decomposes it and writes a JSON report of the solutions and deleted entity ids.
Pieces that could not be decomposed are listed in the report and make the
command exit with an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("max-deletions") {
				a.cfg.Split.MaxDeletions = f.maxDeletions
			}
			if cmd.Flags().Changed("strategy") {
				a.cfg.Split.Strategy = f.strategy
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.run(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "instance document (path or s3://bucket/key)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "-", "report destination (path, s3://bucket/key, or - for stdout)")
	cmd.Flags().IntVar(&f.maxDeletions, "max-deletions", 0, "initial deletion budget per split")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "split search strategy: exhaustive or greedy")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print the summary")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) run(cmd *cobra.Command, f *runFlags) error {
	runID := uuid.NewString()
	logger := a.logger.With(logging.String("run_id", runID))
	reg := metrics.NewRegistry()
	src := source.NewRouter(a.cfg.Source)

	ctx := cmd.Context()
	root, err := source.LoadInstance(ctx, src, f.input)
	if err != nil {
		return err
	}
	logger.Info("instance loaded",
		logging.InstanceID(root.ID),
		logging.Entities(root.NumberOfEntities()),
		logging.Statements(root.NumberOfStatements()))

	optimizer, closeOptimizer, err := buildOptimizer(a.cfg, logger, reg)
	if err != nil {
		return err
	}
	defer closeOptimizer()

	searchOpts := a.cfg.SplitOptions()
	searchOpts.Logger = logger
	searchOpts.Metrics = reg
	d, err := driver.New(optimizer,
		driver.WithMaxDeletions(a.cfg.Split.MaxDeletions),
		driver.WithSearchOptions(searchOpts),
		driver.WithLogger(logger),
		driver.WithMetrics(reg),
		driver.WithMaxIterations(a.cfg.Driver.MaxIterations),
		driver.WithEscalationLimit(a.cfg.Driver.EscalationLimit),
		driver.WithSolveTimeout(a.cfg.Driver.SolveTimeout),
	)
	if err != nil {
		return err
	}

	var (
		res    *driver.Result
		runErr error
	)
	start := time.Now()
	err = withMetricsServer(ctx, a.cfg.Metrics, reg, nil, logger, func(ctx context.Context) error {
		res, runErr = d.Run(ctx, root)
		reg.UpdateSystemMetrics()
		if res == nil {
			return runErr
		}
		return nil
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	rep := newReport(runID, root, res)
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if f.output == "-" {
		if _, err := cmd.OutOrStdout().Write(append(data, '\n')); err != nil {
			return err
		}
	} else if err := src.Write(ctx, f.output, data); err != nil {
		return err
	}

	if !f.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(rep, elapsed))
	}
	return runErr
}

func buildOptimizer(cfg *config.Config, logger logging.Logger, reg *metrics.Registry) (solver.Optimizer, func(), error) {
	switch cfg.Optimizer.Kind {
	case config.OptimizerRemote:
		remote, err := solver.Dial(cfg.Optimizer.Address,
			solver.WithTimeout(cfg.Optimizer.Timeout),
			solver.WithRemoteLogger(logger),
			solver.WithRemoteMetrics(reg))
		if err != nil {
			return nil, nil, err
		}
		return remote, func() { remote.Close() }, nil
	default:
		return solver.NewCapacity(cfg.Optimizer.Dimensions, cfg.Optimizer.MaxEntities), func() {}, nil
	}
}

// withMetricsServer runs job, serving /metrics (and the health probes when
// checker is set) alongside it when enabled. The server stops once job
// returns.
func withMetricsServer(ctx context.Context, mc config.MetricsConfig, reg *metrics.Registry, checker *health.Checker, logger logging.Logger, job func(context.Context) error) error {
	if !mc.Enabled {
		return job(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	if checker != nil {
		checker.Register(mux)
	}
	srv := &http.Server{Addr: mc.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	jobCtx, jobDone := context.WithCancel(gctx)
	g.Go(func() error {
		logger.Info("metrics server listening", logging.String("addr", mc.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-jobCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		defer jobDone()
		return job(jobCtx)
	})
	return g.Wait()
}
