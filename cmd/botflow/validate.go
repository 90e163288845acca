package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aretw0/botflow/pkg/adapters/file"
	"github.com/aretw0/botflow/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flow-file...]",
	Short: "Check flow files for structural problems",
	Long: `Decodes each flow and checks node payloads, edges and handles.
Without arguments every configured flow is checked.
Unreachable nodes are reported as warnings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}

		files := map[string]string{}
		for _, path := range args {
			files[strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))] = path
		}
		if len(args) == 0 {
			files = a.cfg.FlowFiles()
		}
		if len(files) == 0 {
			return fmt.Errorf("nothing to validate: pass flow files or configure flows")
		}

		if failed := validateFiles(cmd.OutOrStdout(), files); failed > 0 {
			return fmt.Errorf("%d of %d flow(s) invalid", failed, len(files))
		}
		return nil
	},
}

// validateFiles reports on every flow and returns how many failed.
func validateFiles(w io.Writer, files map[string]string) int {
	failed := 0
	for _, id := range sortedKeys(files) {
		path := files[id]
		flow, warnings, err := file.ReadFlow(path, id)
		if err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", path, err)
			failed++
			continue
		}
		for _, warn := range warnings {
			fmt.Fprintf(w, "  warning: %v\n", warn)
		}

		if err := schema.ValidateFlow(flow); err != nil {
			errs := schema.ValidationErrors(err)
			if errs == nil {
				errs = []error{err}
			}
			fmt.Fprintf(w, "✗ %s: %d error(s)\n", path, len(errs))
			for _, e := range errs {
				fmt.Fprintf(w, "  - %v\n", e)
			}
			failed++
			continue
		}

		fmt.Fprintf(w, "✓ %s (%d nodes, %d commands)\n", path, len(flow.Graph.Nodes()), len(flow.Commands()))
		for _, id := range schema.Unreachable(flow) {
			fmt.Fprintf(w, "  warning: node %q is unreachable\n", id)
		}
	}
	return failed
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
