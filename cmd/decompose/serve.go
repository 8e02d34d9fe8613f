package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/health"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/metrics"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/solver"
)

const defaultServeAddr = "tcp://127.0.0.1:5555"

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the capacity optimizer to remote decompose runs",
		Long: `serve answers solve requests on a mangos REP socket using the capacity
optimizer from the config file. Point a run at it with optimizer.kind: remote.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Optimizer.Address
			}
			if addr == "" {
				addr = defaultServeAddr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default optimizer.address or "+defaultServeAddr+")")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	reg := metrics.NewRegistry()
	sock, err := solver.Listen(addr)
	if err != nil {
		return err
	}
	defer sock.Close()

	srv := &solver.Server{
		Optimizer: solver.NewCapacity(a.cfg.Optimizer.Dimensions, a.cfg.Optimizer.MaxEntities),
		Logger:    a.logger,
		Metrics:   reg,
	}
	a.logger.Info("optimizer listening",
		logging.String("addr", addr),
		logging.Int("dimensions", a.cfg.Optimizer.Dimensions))

	checker := health.NewChecker()
	checker.RegisterReadiness("optimizer", health.ServingCheck(srv.Serving))
	checker.RegisterLiveness("memory", health.MemoryCheck(0))

	return withMetricsServer(ctx, a.cfg.Metrics, reg, checker, a.logger, func(ctx context.Context) error {
		err := srv.Serve(ctx, sock)
		if ctx.Err() != nil {
			a.logger.Info("optimizer stopped")
			return nil
		}
		return err
	})
}
