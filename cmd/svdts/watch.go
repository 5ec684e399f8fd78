package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsgonest/svdts/internal/build"
	"github.com/tsgonest/svdts/internal/config"
	"github.com/tsgonest/svdts/internal/diagnostic"
	"github.com/tsgonest/svdts/internal/runner"
	"github.com/tsgonest/svdts/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	var execCmd string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild declarations when they or their components change",
		Long: `Run a full build, then watch rootDir (and docs.sourceRoot when set).

A changed .svelte.d.ts is rebuilt; a changed .svelte component or docs sidecar
rebuilds the declaration next to it. With --exec, the given shell command is
(re)started after every rebuild that had no failures. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := a.cleanCache(cmd, cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			b := build.New(cfg, a.log, nil)

			var run *runner.Runner
			if execCmd != "" {
				run = runner.New(execCmd, cfg.RootDir, a.log)
				defer run.Stop()
			}

			var mu sync.Mutex
			var watchers []*watcher.Watcher
			rebuild := func(paths []string) {
				mu.Lock()
				defer mu.Unlock()

				start := time.Now()
				diags := diagnostic.NewCollector(a.strict, a.quiet)
				builder := build.New(cfg, a.log, diags)
				if paths != nil && cfg.OutDir == "" {
					// In-place rewrites must not retrigger themselves.
					for _, w := range watchers {
						w.Suppress(paths...)
					}
				}
				summary, err := builder.Run(ctx, paths)
				if err != nil {
					a.log.Error("build failed", zap.Error(err))
					return
				}
				report(cmd.ErrOrStderr(), diags, summary, time.Since(start))
				if run == nil || summary.Failed > 0 || diags.HasErrors() {
					return
				}
				if err := run.Restart(); err != nil {
					a.log.Error("exec failed", zap.String("command", run.Command()), zap.Error(err))
				}
			}

			onChange := func(events []watcher.Event) {
				changed := make([]string, 0, len(events))
				for _, e := range events {
					if e.Op != "remove" {
						changed = append(changed, e.Path)
					}
				}
				affected := b.Affected(changed)
				if len(affected) == 0 {
					return
				}
				a.log.Info("rebuilding", zap.Strings("files", affected))
				rebuild(affected)
			}

			roots := []string{cfg.RootDir}
			if cfg.Docs.SourceRoot != "" {
				roots = append(roots, cfg.Docs.SourceRoot)
			}
			for _, root := range roots {
				w, err := watcher.New(root, watchExtensions(cfg), debounce, onChange, a.log)
				if err != nil {
					return err
				}
				watchers = append(watchers, w)
			}

			rebuild(nil)
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s for changes...\n", strings.Join(roots, ", "))

			g, gctx := errgroup.WithContext(ctx)
			for _, w := range watchers {
				g.Go(func() error { return w.Watch(gctx) })
			}
			return g.Wait()
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before rebuilding")
	cmd.Flags().StringVar(&execCmd, "exec", "", "Shell command to (re)start after each successful rebuild")
	return cmd
}

func watchExtensions(cfg *config.Config) []string {
	exts := []string{".svelte.d.ts"}
	switch cfg.Docs.Source {
	case config.DocsSourceSvelte:
		exts = append(exts, ".svelte")
	case config.DocsSourceSidecar:
		exts = append(exts, cfg.Docs.SidecarSuffix)
	}
	return exts
}
