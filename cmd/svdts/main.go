package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsgonest/svdts/internal/buildcache"
	"github.com/tsgonest/svdts/internal/config"
	"github.com/tsgonest/svdts/internal/logging"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "0.0.1-dev"

// errFailed signals a non-zero exit after diagnostics were already printed.
var errFailed = errors.New("one or more files failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			for _, hint := range errors.GetAllHints(err) {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
			}
		}
		os.Exit(1)
	}
}

// app holds the global flags and the logger shared by subcommands.
type app struct {
	configPath string
	verbosity  int
	logJSON    bool
	strict     bool
	quiet      bool

	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logging.Nop()}

	root := &cobra.Command{
		Use:   "svdts",
		Short: "svdts - reshape generated Svelte component declarations",
		Long: `svdts rewrites the .svelte.d.ts files emitted for Svelte components.

Each default-exported component class becomes an ambient class merged with a
namespace of the same name holding its Props, Events and Slots types, and the
component and prop documentation from the .svelte source is restored.

Examples:
  svdts build                       # rewrite every **/*.svelte.d.ts under rootDir
  svdts build dist/Button.svelte.d.ts
  svdts watch -v                    # rebuild on change
  svdts docs src/lib/Button.svelte  # show the docs that would be attached`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(logging.Options{Verbosity: a.verbosity, JSON: a.logJSON})
			if err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to svdts.config.{json,yaml,toml} (default: searched upward from the working directory)")
	flags.CountVarP(&a.verbosity, "verbose", "v", "Increase output verbosity (-v, -vv)")
	flags.BoolVar(&a.logJSON, "log-json", false, "Emit logs as JSON")
	flags.BoolVar(&a.strict, "strict", false, "Treat warnings as errors")
	flags.BoolVar(&a.quiet, "quiet", false, "Suppress warnings and informational diagnostics")

	root.AddCommand(newBuildCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newDocsCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig merges defaults, the config file, SVDTS_* environment variables
// and the build flags of cmd, in increasing precedence.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := a.configPath
	if path == "" {
		path = config.Find(".")
	}
	v, err := config.NewViper(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	// Directory flags are relative to the working directory, not the config
	// file, so they are made absolute before resolution.
	for flag, key := range map[string]string{"root": "rootDir", "out-dir": "outDir", "source-root": "docs.sourceRoot"} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			abs, err := filepath.Abs(f.Value.String())
			if err != nil {
				return nil, errors.Wrapf(err, "resolving --%s", flag)
			}
			v.Set(key, abs)
		}
	}
	for flag, key := range map[string]string{
		"helper":                "helperName",
		"concurrency":           "concurrency",
		"docs":                  "docs.source",
		"strict-type-arguments": "strictTypeArguments",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "binding --%s", flag)
			}
		}
	}
	if f := flags.Lookup("no-cache"); f != nil && f.Changed && f.Value.String() == "true" {
		v.Set("cache.enabled", false)
	}

	base := "."
	if path != "" {
		base = filepath.Dir(path)
		a.log.Debug("loaded config", zap.String("path", path))
	}
	cfg, err := config.FromViper(v, base)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.ValidateDetailed().Warnings {
		a.log.Warn("config: " + w)
	}
	return cfg, nil
}

// addBuildFlags registers the config overrides shared by build and watch.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("root", "", "Directory searched for declarations (config: rootDir)")
	f.String("out-dir", "", "Write rewritten declarations here instead of in place (config: outDir)")
	f.String("source-root", "", "Directory holding the .svelte sources (config: docs.sourceRoot)")
	f.String("helper", config.DefaultConfig().HelperName, "Name of the prop definition helper variable")
	f.Int("concurrency", 0, "Files processed in parallel (0 = number of CPUs)")
	f.String("docs", config.DocsSourceSvelte, "Documentation source: svelte, sidecar or none")
	f.Bool("strict-type-arguments", false, "Fail when the base type does not have exactly three type arguments")
	f.Bool("no-cache", false, "Ignore and do not update the build cache")
	f.Bool("clean", false, "Delete the build cache before building")
}

// cleanCache removes the cache file when --clean is set.
func (a *app) cleanCache(cmd *cobra.Command, cfg *config.Config) error {
	clean, _ := cmd.Flags().GetBool("clean")
	if !clean || cfg.Cache.Path == "" {
		return nil
	}
	a.log.Debug("deleting build cache", zap.String("path", cfg.Cache.Path))
	return buildcache.Delete(cfg.Cache.Path)
}
