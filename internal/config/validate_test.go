package config

import (
	"testing"
)

func TestValidateDetailed_Valid(t *testing.T) {
	cfg := DefaultConfig()
	result := cfg.ValidateDetailed()
	if !result.IsValid() {
		t.Errorf("expected valid config, got errors: %v", result.Errors)
	}
}

func TestValidateDetailed_MissingInclude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Include = nil
	result := cfg.ValidateDetailed()
	if result.IsValid() {
		t.Error("expected invalid config")
	}
}

func TestValidateDetailed_WeirdIncludePattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Include = []string{"src/lib"}
	result := cfg.ValidateDetailed()
	if len(result.Warnings) == 0 {
		t.Error("expected warning for pattern without wildcard")
	}
}

func TestValidateDetailed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty helper", func(c *Config) { c.HelperName = "" }},
		{"helper with dash", func(c *Config) { c.HelperName = "prop-def" }},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }},
		{"unknown docs source", func(c *Config) { c.Docs.Source = "jsdoc" }},
		{"sidecar suffix", func(c *Config) {
			c.Docs.Source = DocsSourceSidecar
			c.Docs.SidecarSuffix = ".docs.txt"
		}},
		{"cache without path", func(c *Config) { c.Cache.Path = "" }},
		{"empty root", func(c *Config) { c.RootDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if cfg.ValidateDetailed().IsValid() {
				t.Error("expected invalid config")
			}
			if cfg.Validate() == nil {
				t.Error("expected Validate to fail")
			}
		})
	}
}

func TestValidateDetailed_OutDirEqualsRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutDir = "./"
	result := cfg.ValidateDetailed()
	if !result.IsValid() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", result.Warnings)
	}
}
