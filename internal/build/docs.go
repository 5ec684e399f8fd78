package build

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/tsgonest/svdts/internal/buildcache"
	"github.com/tsgonest/svdts/internal/comments"
	"github.com/tsgonest/svdts/internal/config"
	"github.com/tsgonest/svdts/internal/diagnostic"
	"github.com/tsgonest/svdts/internal/glob"
)

const (
	declSuffix       = ".d.ts"
	svelteDeclSuffix = ".svelte.d.ts"
	svelteSuffix     = ".svelte"
)

// LoadComments reads documentation from a .svelte component or from a
// .json/.yaml sidecar, chosen by extension.
func LoadComments(ctx context.Context, path string) (*comments.Comments, error) {
	if strings.HasSuffix(path, svelteSuffix) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		return comments.FromSvelte(ctx, data)
	}
	return comments.Load(path)
}

// loadComments resolves the documentation for a declaration file. The second
// result hashes the resolved comments so doc edits invalidate the cache.
// Missing documentation is not an error.
func (b *Builder) loadComments(ctx context.Context, declPath string) (*comments.Comments, string) {
	var src string
	switch b.cfg.Docs.Source {
	case config.DocsSourceSvelte:
		src = b.SvelteSource(declPath)
	case config.DocsSourceSidecar:
		src = b.SidecarPath(declPath)
	default:
		return nil, ""
	}
	if src == "" {
		return nil, ""
	}

	c, err := LoadComments(ctx, src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			b.diags.Info(diagnostic.CategoryDocs, declPath, 0, "no documentation source at "+src)
			return nil, ""
		}
		b.diags.Warn(diagnostic.CategoryDocs, declPath, 0, "ignoring documentation: "+err.Error())
		return nil, ""
	}
	if c.IsEmpty() {
		return nil, ""
	}
	data, err := comments.Marshal(c)
	if err != nil {
		b.log.Debug("failed to hash comments", zap.String("source", src), zap.Error(err))
		return c, ""
	}
	return c, buildcache.HashBytes(data)
}

// docsDir maps a path under RootDir into Docs.SourceRoot when one is set.
func (b *Builder) docsDir(declPath string) string {
	if b.cfg.Docs.SourceRoot != "" {
		if rel := b.relPath(declPath); rel != "" {
			return filepath.Join(b.cfg.Docs.SourceRoot, rel)
		}
	}
	return declPath
}

// SvelteSource returns the component source a declaration was emitted from:
// Button.svelte.d.ts -> Button.svelte. It returns "" for other files.
func (b *Builder) SvelteSource(declPath string) string {
	if !strings.HasSuffix(declPath, svelteDeclSuffix) {
		return ""
	}
	return strings.TrimSuffix(b.docsDir(declPath), declSuffix)
}

// SidecarPath returns the documentation sidecar for a declaration:
// Button.svelte.d.ts -> Button.docs.json with the default suffix.
func (b *Builder) SidecarPath(declPath string) string {
	p := b.docsDir(declPath)
	stem := strings.TrimSuffix(p, svelteDeclSuffix)
	if stem == p {
		stem = strings.TrimSuffix(p, declSuffix)
	}
	return stem + b.cfg.Docs.SidecarSuffix
}

// Affected maps changed files to the declaration files that must be rebuilt.
// A component source or sidecar maps to its declaration; declarations map to
// themselves. Only existing files matching the configured globs are returned.
func (b *Builder) Affected(changed []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range changed {
		decl := b.declarationFor(filepath.Clean(p))
		if decl == "" || seen[decl] {
			continue
		}
		if info, err := os.Stat(decl); err != nil || info.IsDir() {
			continue
		}
		rel := b.relPath(decl)
		if rel == "" || b.inOutDir(decl) || !glob.MatchesGlob(rel, b.cfg.Include, b.cfg.Exclude) {
			continue
		}
		seen[decl] = true
		out = append(out, decl)
	}
	sort.Strings(out)
	return out
}

func (b *Builder) declarationFor(path string) string {
	switch {
	case strings.HasSuffix(path, declSuffix):
		return path
	case strings.HasSuffix(path, svelteSuffix):
		return b.fromDocsDir(path) + declSuffix
	case b.cfg.Docs.Source == config.DocsSourceSidecar && strings.HasSuffix(path, b.cfg.Docs.SidecarSuffix):
		return strings.TrimSuffix(b.fromDocsDir(path), b.cfg.Docs.SidecarSuffix) + svelteDeclSuffix
	default:
		return ""
	}
}

// fromDocsDir is the inverse of docsDir.
func (b *Builder) fromDocsDir(path string) string {
	if b.cfg.Docs.SourceRoot == "" {
		return path
	}
	srcRoot, err := filepath.Abs(b.cfg.Docs.SourceRoot)
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(srcRoot, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.Join(b.cfg.RootDir, rel)
}
