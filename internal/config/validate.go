package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// ValidateDetailed performs thorough config validation with suggestions.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	if len(c.Include) == 0 {
		result.Errors = append(result.Errors, "include: at least one pattern required")
	}
	for _, pattern := range c.Include {
		if !strings.Contains(pattern, "*") && !strings.HasSuffix(pattern, ".d.ts") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("include: pattern %q has no wildcard and no .d.ts extension; did you mean %q?", pattern, pattern+"/**/*.svelte.d.ts"))
		}
	}

	if c.RootDir == "" {
		result.Errors = append(result.Errors, "rootDir: must not be empty")
	}
	if c.OutDir != "" && filepath.Clean(c.OutDir) == filepath.Clean(c.RootDir) {
		result.Warnings = append(result.Warnings,
			"outDir: same as rootDir; declarations are rewritten in place")
	}

	if !identifierPattern.MatchString(c.HelperName) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("helperName: %q is not a valid identifier", c.HelperName))
	}

	if c.Concurrency < 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("concurrency: must be >= 0, got %d", c.Concurrency))
	}

	switch strings.ToLower(c.Docs.Source) {
	case DocsSourceSvelte, DocsSourceNone:
	case DocsSourceSidecar:
		switch filepath.Ext(c.Docs.SidecarSuffix) {
		case ".json", ".yaml", ".yml":
		default:
			result.Errors = append(result.Errors,
				fmt.Sprintf("docs.sidecarSuffix: %q must end in .json, .yaml or .yml", c.Docs.SidecarSuffix))
		}
	default:
		result.Errors = append(result.Errors,
			fmt.Sprintf("docs.source: invalid value %q; must be svelte, sidecar or none", c.Docs.Source))
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		result.Errors = append(result.Errors, "cache.path: required when cache.enabled is true")
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}
