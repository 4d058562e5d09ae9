package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shinyhunt.ai/internal/settings"
)

func (a *app) openStore(ctx context.Context) (*settings.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.Settings.DB), 0o755); err != nil {
		return nil, err
	}
	st, err := settings.OpenSQLite(a.cfg.Settings.DB)
	if err != nil {
		return nil, err
	}
	first, err := settings.Bootstrap(ctx, st, a.cfg.Settings.Seed)
	switch {
	case err != nil && !first:
		_ = st.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	case err != nil:
		// Bad seed entries were skipped; the store still holds defaults.
		a.log.Warn("settings seed file has invalid entries", zap.String("seed", a.cfg.Settings.Seed), zap.Error(err))
	case first:
		a.log.Info("settings initialised", zap.String("path", st.Path()))
	}
	return st, nil
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change hunt settings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every setting with its default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			entries, err := settings.Entries(cmd.Context(), st)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tVALUE\tDEFAULT")
			for _, e := range entries {
				def := e.Default
				if !e.Known {
					def = "(unknown key)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.Value, def)
			}
			return tw.Flush()
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := settings.Default(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			v, ok, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				v = def
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and store one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return settings.Set(cmd.Context(), st, cat, args[0], args[1])
		},
	}

	reset := &cobra.Command{
		Use:   "reset <key>...",
		Short: "Restore settings to their defaults",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			var errs []error
			for _, key := range args {
				if err := settings.Reset(cmd.Context(), st, key); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.AddCommand(list, get, set, reset)
	return cmd
}
