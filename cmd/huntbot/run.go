package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shinyhunt.ai/internal/bridge"
	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/hunt"
	"shinyhunt.ai/internal/hunt/telemetry"
	"shinyhunt.ai/internal/settings"
)

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the host and hunt while Shiny-Enabled is true",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	cat, err := a.catalog()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr := settings.NewManager(store, cat, a.log.Named("settings"))
	if err := mgr.Reload(ctx); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err := os.MkdirAll(a.cfg.Telemetry.Dir, 0o755); err != nil {
		return err
	}
	sink := telemetry.NewJSONLZstdWriter(a.cfg.Telemetry.Dir, a.cfg.Telemetry.Prefix)
	rec := telemetry.NewRecorder(a.log.Named("telemetry"), sink, telemetry.DefaultInterval)
	defer rec.Close()

	client, err := bridge.New(bridge.Options{
		URL:              a.cfg.Host.URL,
		ClientName:       a.cfg.Host.ClientName,
		SessionID:        rec.Session(),
		CatalogDigest:    cat.Digest,
		HandshakeTimeout: a.cfg.Host.HandshakeTimeout,
		ReconnectDelay:   a.cfg.Host.ReconnectDelay,
		ReadTimeout:      a.cfg.Host.ReadTimeout,
	}, a.log.Named("bridge"))
	if err != nil {
		return err
	}

	a.log.Info("huntbot starting",
		zap.String("host", a.cfg.Host.URL),
		zap.String("catalog_digest", cat.Digest),
		zap.String("session", rec.Session()),
		zap.String("settings", store.Path()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.Run(gctx) })
	g.Go(func() error {
		return settings.NewWatcher(store.Path(), mgr, a.log.Named("settings")).Run(gctx)
	})
	g.Go(func() error { return a.drive(gctx, client, cat, mgr, rec) })
	return g.Wait()
}

// drive runs the controller for the life of ctx. The controller is built only
// after the first STATE so the enable-time decision sees the host.
func (a *app) drive(ctx context.Context, client *bridge.Client, cat *catalog.Catalog, mgr *settings.Manager, rec *telemetry.Recorder) error {
	if err := client.StateReady(ctx); err != nil {
		return nil
	}
	ctrl := hunt.New(cat, client.Host(), mgr, a.log.Named("hunt"), hunt.Options{
		Scheduler:    hunt.NewTickerScheduler(a.cfg.Hunt.Tick),
		Dwell:        a.cfg.Hunt.Dwell,
		AdvanceEvery: a.cfg.Hunt.AdvanceEvery,
		Recorder:     rec,
	})
	apply := func(cur settings.Config) {
		if cur.Enabled {
			ctrl.Enable()
		} else {
			ctrl.Disable()
		}
	}
	mgr.OnChange(func(old, cur settings.Config) {
		if old.Enabled != cur.Enabled {
			apply(cur)
		}
	})
	apply(mgr.Current())

	<-ctx.Done()
	ctrl.Disable()
	return nil
}
