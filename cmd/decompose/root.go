package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/config"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "decompose",
		Short: "Decompose statement/entity instances for an external optimizer",
		Long: `decompose reads an instance of entities and the statements they own, and
repeatedly either solves a piece with the configured optimizer or splits it by
deleting a few entities until the intersection graph falls apart.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config and LOG_LEVEL)")

	root.AddCommand(newRunCmd(a), newServeCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), logging.ParseLevel(level))
	logging.SetDefaultLogger(a.logger)
	return nil
}
