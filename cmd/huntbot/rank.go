package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shinyhunt.ai/internal/bridge"
	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/hunt/completion"
	"shinyhunt.ai/internal/hunt/ranking"
)

// openWorld reaches every route. It stands in for the host when ranking
// offline.
type openWorld struct{ host.Stationary }

func (openWorld) CanReach(catalog.Route) bool { return true }

func (a *app) rankCmd() *cobra.Command {
	var (
		tool    string
		offline bool
		wait    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "rank <shiny|tokens|safari>",
		Short: "Score every eligible route for a purpose",
		Long: `Scores routes the way the controller does when it picks a farming route.
With --offline nothing is caught, every route is reachable and the economy is
flat; otherwise the live host state is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ranking.ParsePurpose(args[0])
			if err != nil {
				return err
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			t, ok := cat.Tool(tool)
			if !ok {
				return fmt.Errorf("unknown tool %q", tool)
			}
			if offline {
				return printRanking(cmd.OutOrStdout(), cat, host.Host{Movement: openWorld{}}, p, t)
			}
			return a.rankLive(cmd.Context(), cmd.OutOrStdout(), cat, p, t, wait)
		},
	}
	cmd.Flags().StringVar(&tool, "tool", catalog.ToolPokeball, "capture tool to score with")
	cmd.Flags().BoolVar(&offline, "offline", false, "rank without connecting to the host")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for the host state")
	return cmd
}

func (a *app) rankLive(ctx context.Context, w io.Writer, cat *catalog.Catalog, p ranking.Purpose, t catalog.Tool, wait time.Duration) error {
	client, err := bridge.New(bridge.Options{
		URL:              a.cfg.Host.URL,
		ClientName:       a.cfg.Host.ClientName + "-rank",
		CatalogDigest:    cat.Digest,
		HandshakeTimeout: a.cfg.Host.HandshakeTimeout,
	}, a.log.Named("bridge"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		if err := client.StateReady(gctx); err != nil {
			return fmt.Errorf("no host state: %w", err)
		}
		return printRanking(w, cat, client.Host(), p, t)
	})
	return g.Wait()
}

func printRanking(w io.Writer, cat *catalog.Catalog, h host.Host, p ranking.Purpose, t catalog.Tool) error {
	h = host.Resolve(h)
	rk := ranking.New(cat, completion.New(cat, h), h.Economy)
	best, found := rk.Best(p, t)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ROUTE\tNAME\t%s SCORE\t\n", p)
	for _, s := range rk.Rank(p, t) {
		mark := ""
		if found && s.Route.Ref() == best.Ref() {
			mark = "best"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", s.Route.Ref(), s.Route.Name, s.Score, mark)
	}
	if !found {
		fmt.Fprintln(tw, "no eligible route\t\t\t")
	}
	return tw.Flush()
}
