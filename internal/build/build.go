// Package build runs the declaration rewrite over a tree of emitted
// `.svelte.d.ts` files.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsgonest/svdts/internal/buildcache"
	"github.com/tsgonest/svdts/internal/config"
	"github.com/tsgonest/svdts/internal/diagnostic"
	"github.com/tsgonest/svdts/internal/dts"
	"github.com/tsgonest/svdts/internal/transform"
)

// utf8BOM is kept on output when the input carried it.
var utf8BOM = []byte("\xEF\xBB\xBF")

// Summary counts per-file outcomes of a Run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	// Written lists the output paths written by this run.
	Written []string
}

func (s *Summary) String() string {
	return fmt.Sprintf("processed %d file(s), skipped %d, failed %d", s.Processed, s.Skipped, s.Failed)
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Builder rewrites declaration files according to a Config.
type Builder struct {
	cfg   *config.Config
	log   *zap.Logger
	diags *diagnostic.Collector
}

// New creates a Builder. log and diags may be nil.
func New(cfg *config.Config, log *zap.Logger, diags *diagnostic.Collector) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{cfg: cfg, log: log, diags: diags}
}

// Run rewrites paths, or every file Discover finds when paths is empty.
// Directories in paths are searched with the configured globs. A failing
// file is reported to the collector and never stops the others; the
// returned error is reserved for discovery failures and cancellation.
func (b *Builder) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, full, err := b.targets(paths)
	if err != nil {
		return nil, err
	}
	b.log.Info("building declarations", zap.Int("files", len(files)), zap.String("root", b.cfg.RootDir))

	var cache *buildcache.Cache
	if b.cfg.Cache.Enabled {
		cache = buildcache.Open(b.cfg.Cache.Path, buildcache.HashString(b.cfg.Fingerprint()))
	}

	summary := &Summary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	limit := b.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, written := b.processFile(gctx, file, cache)
			mu.Lock()
			defer mu.Unlock()
			switch out {
			case outcomeProcessed:
				summary.Processed++
				summary.Written = append(summary.Written, written)
			case outcomeSkipped:
				summary.Skipped++
			case outcomeFailed:
				summary.Failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, errors.Wrap(err, "build interrupted")
	}
	sort.Strings(summary.Written)

	if cache != nil {
		if full {
			keep := make(map[string]bool, len(files))
			for _, f := range files {
				keep[b.cacheKey(f)] = true
			}
			cache.Retain(keep)
		}
		if err := buildcache.Save(b.cfg.Cache.Path, cache); err != nil {
			b.log.Warn("failed to save build cache", zap.String("path", b.cfg.Cache.Path), zap.Error(err))
		}
	}
	return summary, nil
}

// targets expands paths into declaration files. full is true when the whole
// root was discovered.
func (b *Builder) targets(paths []string) (files []string, full bool, err error) {
	if len(paths) == 0 {
		found, err := Discover(b.cfg.RootDir, b.cfg.Include, b.cfg.Exclude)
		if err != nil {
			return nil, false, err
		}
		for _, f := range found {
			if !b.inOutDir(f) {
				files = append(files, f)
			}
		}
		return files, true, nil
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, false, errors.Wrapf(err, "resolving %s", p)
		}
		var found []string
		if info.IsDir() {
			if found, err = Discover(p, b.cfg.Include, b.cfg.Exclude); err != nil {
				return nil, false, err
			}
		} else {
			found = []string{filepath.Clean(p)}
		}
		for _, f := range found {
			if info.IsDir() && b.inOutDir(f) {
				continue
			}
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, false, nil
}

// processFile runs read, parse, docs, transform, print and write for one file.
func (b *Builder) processFile(ctx context.Context, path string, cache *buildcache.Cache) (outcome, string) {
	key := b.cacheKey(path)
	log := b.log.With(zap.String("file", path))

	data, err := os.ReadFile(path)
	if err != nil {
		b.diags.Error(diagnostic.CategoryIO, path, 0, err.Error())
		return outcomeFailed, ""
	}
	inputHash := buildcache.HashBytes(data)
	content, hasBOM := bytes.CutPrefix(data, utf8BOM)

	docs, docsHash := b.loadComments(ctx, path)
	outPath := b.outputPath(path)

	if cache.Fresh(key, inputHash, docsHash, outPath) {
		log.Debug("unchanged, skipping")
		return outcomeSkipped, ""
	}

	sf, err := dts.Parse(ctx, path, content)
	if err != nil {
		b.diags.Error(diagnostic.CategorySyntax, path, 0, err.Error())
		b.forget(cache, key)
		return outcomeFailed, ""
	}

	if class, ok := transform.Transformed(sf, b.cfg.HelperName); ok {
		b.reportTransformed(path, class, key, inputHash, docsHash, cache)
		return outcomeSkipped, ""
	}

	opts := []transform.Option{transform.WithHelperName(b.cfg.HelperName)}
	if b.cfg.StrictTypeArguments {
		opts = append(opts, transform.WithTypeArgumentPolicy(transform.TypeArgumentsStrict))
	}
	res, err := transform.Process(docs, log, sf, opts...)
	if err != nil {
		category := diagnostic.CategoryShapeUnsupported
		if transform.KindOf(err) == transform.KindTypeArgumentCount {
			category = diagnostic.CategoryTypeArguments
		}
		b.diags.ErrorWithHint(category, path, 0, err.Error(), strings.Join(errors.GetAllHints(err), "; "))
		b.forget(cache, key)
		return outcomeFailed, ""
	}

	if !res.TypeArgumentsRewritten {
		b.diags.WarnWithHint(diagnostic.CategoryTypeArguments, path, 0,
			fmt.Sprintf("class %s extends a base type with %d type argument(s); extends clause left unchanged", res.ClassName, res.TypeArgumentCount),
			"set strictTypeArguments to fail instead")
	}
	if want := ComponentName(path); want != "" && want != res.ClassName {
		b.diags.Warn(diagnostic.CategoryNaming, path, 0,
			fmt.Sprintf("component class %q does not match file name (expected %q)", res.ClassName, want))
	}

	out := []byte(sf.Print())
	if hasBOM {
		out = append(append([]byte(nil), utf8BOM...), out...)
	}
	if err := writeFileAtomic(outPath, out); err != nil {
		b.diags.Error(diagnostic.CategoryIO, outPath, 0, err.Error())
		b.forget(cache, key)
		return outcomeFailed, ""
	}
	if cache != nil {
		cache.Record(key, buildcache.Entry{Input: inputHash, Docs: docsHash, Output: buildcache.HashBytes(out)})
	}

	log.Info("rewrote declaration",
		zap.String("class", res.ClassName),
		zap.String("output", outPath),
		zap.Int("docsAttached", res.DocsAttached))
	return outcomeProcessed, outPath
}

// reportTransformed explains why an already rewritten declaration is
// skipped. Doc comments are spliced into the text, so new docs can only be
// applied to a freshly emitted declaration.
func (b *Builder) reportTransformed(path, class, key, inputHash, docsHash string, cache *buildcache.Cache) {
	if e, ok := cache.Lookup(key); ok && e.Output == inputHash && e.Docs != docsHash {
		b.diags.WarnWithHint(diagnostic.CategoryDocs, path, 0,
			fmt.Sprintf("documentation for %s changed after the declaration was rewritten in place", class),
			"re-emit the declaration (e.g. svelte-package) and run svdts again to apply it")
		return
	}
	b.log.Debug("declaration already rewritten, skipping", zap.String("file", path), zap.String("class", class))
	b.diags.Info(diagnostic.CategoryDocs, path, 0,
		fmt.Sprintf("declaration for %s is already rewritten; re-emit it to apply documentation changes", class))
}

func (b *Builder) forget(cache *buildcache.Cache, key string) {
	if cache != nil {
		cache.Forget(key)
	}
}

// relPath returns path relative to the root, or "" when it lies outside.
func (b *Builder) relPath(path string) string {
	root, err := filepath.Abs(b.cfg.RootDir)
	if err != nil {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return rel
}

// inOutDir reports whether path is a previous output nested under the root.
func (b *Builder) inOutDir(path string) bool {
	if b.cfg.OutDir == "" {
		return false
	}
	out, err := filepath.Abs(b.cfg.OutDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(out, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (b *Builder) cacheKey(path string) string {
	if rel := b.relPath(path); rel != "" {
		return filepath.ToSlash(rel)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(path)
}

// outputPath mirrors path under OutDir, or returns path for in-place rewrites.
func (b *Builder) outputPath(path string) string {
	if b.cfg.OutDir == "" {
		return path
	}
	if rel := b.relPath(path); rel != "" {
		return filepath.Join(b.cfg.OutDir, rel)
	}
	return filepath.Join(b.cfg.OutDir, filepath.Base(path))
}

// writeFileAtomic writes data next to path and renames it into place,
// creating parent directories as needed.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "writing %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "closing %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "renaming to %s", path)
	}
	return nil
}
