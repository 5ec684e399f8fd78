package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SVDTS_OUTDIR.
const EnvPrefix = "SVDTS"

// FileBaseName is the config file name searched for when no path is given.
const FileBaseName = "svdts.config"

// configExtensions lists the formats Find recognises, in preference order.
var configExtensions = []string{".json", ".yaml", ".yml", ".toml"}

// Docs sources.
const (
	DocsSourceSvelte  = "svelte"
	DocsSourceSidecar = "sidecar"
	DocsSourceNone    = "none"
)

// ErrInvalid is returned by Validate when the config cannot be used.
var ErrInvalid = errors.New("invalid config")

// Config represents the svdts configuration.
type Config struct {
	Include []string `mapstructure:"include" json:"include"`
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty"`

	RootDir string `mapstructure:"rootDir" json:"rootDir"`
	// OutDir receives rewritten declarations under the same relative path.
	// Empty rewrites in place.
	OutDir string `mapstructure:"outDir" json:"outDir,omitempty"`

	HelperName          string `mapstructure:"helperName" json:"helperName"`
	StrictTypeArguments bool   `mapstructure:"strictTypeArguments" json:"strictTypeArguments"`
	// Concurrency caps parallel file processing. 0 means GOMAXPROCS.
	Concurrency int `mapstructure:"concurrency" json:"concurrency"`

	Docs  DocsConfig  `mapstructure:"docs" json:"docs"`
	Cache CacheConfig `mapstructure:"cache" json:"cache"`
}

// DocsConfig selects where component and prop documentation comes from.
type DocsConfig struct {
	Source string `mapstructure:"source" json:"source"` // "svelte" (default), "sidecar", "none"
	// SourceRoot is where .svelte sources live when declarations were
	// emitted to a separate tree. Empty means next to the declaration.
	SourceRoot    string `mapstructure:"sourceRoot" json:"sourceRoot,omitempty"`
	SidecarSuffix string `mapstructure:"sidecarSuffix" json:"sidecarSuffix"` // e.g. ".docs.json"
}

// CacheConfig controls the incremental build cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" json:"path"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Include:    []string{"**/*.svelte.d.ts"},
		RootDir:    ".",
		HelperName: "__propDef",
		Docs: DocsConfig{
			Source:        DocsSourceSvelte,
			SidecarSuffix: ".docs.json",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".svdts-cache.json",
		},
	}
}

// SetDefaults registers DefaultConfig with v. Every key must have a default
// for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("include", d.Include)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("rootDir", d.RootDir)
	v.SetDefault("outDir", d.OutDir)
	v.SetDefault("helperName", d.HelperName)
	v.SetDefault("strictTypeArguments", d.StrictTypeArguments)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("docs.source", d.Docs.Source)
	v.SetDefault("docs.sourceRoot", d.Docs.SourceRoot)
	v.SetDefault("docs.sidecarSuffix", d.Docs.SidecarSuffix)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
}

// NewViper returns a viper instance seeded with defaults, environment
// bindings and, when path is non-empty, the given config file. Callers bind
// CLI flags on the result before handing it to FromViper.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %q", path)
	}
	return v, nil
}

// FromViper unmarshals and validates the config held by v. Relative
// directories are resolved against base, normally the config file's directory.
func FromViper(v *viper.Viper, base string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.Docs.Source = strings.ToLower(cfg.Docs.Source)
	cfg.resolve(base)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads a config file. An empty path yields the defaults plus any
// environment overrides.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	base := "."
	if path != "" {
		base = filepath.Dir(path)
	}
	cfg, err := FromViper(v, base)
	if err != nil {
		if path != "" {
			return nil, errors.Wrapf(err, "invalid config in %q", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Find walks up from dir looking for svdts.config.{json,yaml,yml,toml}.
// It returns "" when none exists.
func Find(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		for _, ext := range configExtensions {
			p := filepath.Join(dir, FileBaseName+ext)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (c *Config) resolve(base string) {
	if base == "" {
		return
	}
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.RootDir = join(c.RootDir)
	c.OutDir = join(c.OutDir)
	c.Docs.SourceRoot = join(c.Docs.SourceRoot)
	c.Cache.Path = join(c.Cache.Path)
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	r := c.ValidateDetailed()
	if r.IsValid() {
		return nil
	}
	return errors.WithHint(errors.Wrap(ErrInvalid, strings.Join(r.Errors, "; ")),
		"see svdts.config.json; every key can also be set as SVDTS_<KEY>")
}

// Fingerprint joins the settings that change generated output. The build
// cache is invalidated when it differs from the recorded one.
func (c *Config) Fingerprint() string {
	return strings.Join([]string{
		c.HelperName,
		strconv.FormatBool(c.StrictTypeArguments),
		c.Docs.Source,
		c.Docs.SourceRoot,
		c.Docs.SidecarSuffix,
		c.OutDir,
	}, "\x00")
}
