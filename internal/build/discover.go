package build

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/tsgonest/svdts/internal/glob"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".svelte-kit":  true,
}

// Discover walks root and returns the files whose root-relative path matches
// include and not exclude, sorted.
func Discover(root string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if glob.MatchesGlob(rel, include, exclude) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "discovering declarations under %s", root)
	}
	sort.Strings(files)
	return files, nil
}
