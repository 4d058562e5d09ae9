package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"shinyhunt.ai/internal/hunt/telemetry"
)

func (a *app) telemetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Read hunt telemetry files",
	}

	var kind string
	cat := &cobra.Command{
		Use:   "cat <file.jsonl.zst>...",
		Short: "Decode telemetry files as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, path := range args {
				err := telemetry.ReadFile(path, func(ev telemetry.Event) error {
					if kind != "" && string(ev.Kind) != kind {
						return nil
					}
					return enc.Encode(ev)
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cat.Flags().StringVar(&kind, "kind", "", "only print events of this kind (snapshot, transition, fault)")

	cmd.AddCommand(cat)
	return cmd
}
