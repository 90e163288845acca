package main

import (
	"fmt"

	"github.com/aretw0/botflow/internal/presentation/graph"
	"github.com/aretw0/botflow/internal/xjson"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flow-id | flow-file]",
	Short: "Print a flow as a Mermaid diagram or editor JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		loader, flowID, err := a.resolveFlow(args)
		if err != nil {
			return err
		}
		flow, err := loader.Load(cmd.Context(), flowID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format, _ := cmd.Flags().GetString("format"); format {
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(flow, nil))
		case "json":
			data, err := xjson.MarshalIndent(flow.Spec(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		default:
			return fmt.Errorf("unknown format %q (want mermaid or json)", format)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().String("format", "mermaid", "Output format: mermaid or json")
	rootCmd.AddCommand(graphCmd)
}
