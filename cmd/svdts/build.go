package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsgonest/svdts/internal/build"
	"github.com/tsgonest/svdts/internal/diagnostic"
)

func newBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "Rewrite component declaration files",
		Long: `Rewrite component declaration files.

Without arguments every file under rootDir matching include and not exclude is
processed. Files and directories given as arguments restrict the run to them.
A file that cannot be rewritten is reported and left untouched; the command
exits with status 1 if any file failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := a.cleanCache(cmd, cfg); err != nil {
				return err
			}

			start := time.Now()
			diags := diagnostic.NewCollector(a.strict, a.quiet)
			summary, err := build.New(cfg, a.log, diags).Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			report(cmd.ErrOrStderr(), diags, summary, time.Since(start))

			if summary.Failed > 0 || diags.HasErrors() {
				return errFailed
			}
			return nil
		},
	}
	addBuildFlags(cmd)
	return cmd
}

// report prints diagnostics followed by the summary line.
func report(w io.Writer, diags *diagnostic.Collector, summary *build.Summary, elapsed time.Duration) {
	if out := diags.FormatAll(); out != "" {
		fmt.Fprint(w, out)
	}
	fmt.Fprintf(w, "%s (%s)\n", summary, elapsed.Round(time.Millisecond))
	if diags.ErrorCount()+diags.WarningCount() > 0 {
		fmt.Fprintln(w, diags.Summary())
	}
}
