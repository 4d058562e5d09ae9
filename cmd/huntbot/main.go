// Command huntbot drives the shiny hunt controller against a game host and
// manages its settings.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/config"
)

type app struct {
	configPath string
	verbose    bool

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:           "huntbot",
		Short:         "Shiny hunt controller",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to huntbot.yaml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.runCmd(), a.settingsCmd(), a.rankCmd(), a.telemetryCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	zc := zap.NewProductionConfig()
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := zc.Build()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log
	return nil
}

func (a *app) catalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(a.cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", a.cfg.Catalog, err)
	}
	return cat, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "huntbot:", err)
		os.Exit(1)
	}
}
