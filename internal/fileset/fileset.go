// Package fileset snapshots the files under a working directory and
// computes set differences between snapshots. The bridge uses it to
// discover files the agent created as a side effect of an invocation.
package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExtensions is the allow-list used when no explicit extension
// list is given: common text, code, and image formats worth forwarding.
var DefaultExtensions = []string{
	".html", ".css", ".js", ".py", ".json", ".md", ".txt",
	".png", ".jpg", ".jpeg", ".gif", ".webp",
	".xml", ".yaml", ".yml",
}

// ImageExtensions lists extensions delivered as photos rather than
// documents.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// IsImage reports whether path has an image extension.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}

	return false
}

// Snapshot recursively lists files under dir whose extension is in the
// allow-list, returned as absolute paths sorted ascending. A nil or
// empty extension list means DefaultExtensions.
func Snapshot(dir string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]struct{})

	for _, ext := range extensions {
		matches, err := doublestar.Glob(fsys, "**/*"+ext, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("scan %s for %s files: %w", dir, ext, err)
		}

		for _, m := range matches {
			seen[filepath.Join(dir, filepath.FromSlash(m))] = struct{}{}
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths, nil
}

// Diff returns the paths present in current but not in previous, sorted
// ascending. The tracker is stateless; callers hold the previous
// snapshot themselves.
func Diff(previous, current []string) []string {
	known := make(map[string]struct{}, len(previous))
	for _, p := range previous {
		known[p] = struct{}{}
	}

	var fresh []string

	for _, p := range current {
		if _, ok := known[p]; !ok {
			fresh = append(fresh, p)
		}
	}

	sort.Strings(fresh)

	return fresh
}
