package search

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// skipDirs is the fixed set of directories the manual tiers never descend
// into: version-control metadata, dependency caches, build output.
var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".idea":        {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	"target":       {},
	"dist":         {},
	"build":        {},
}

// walkFiles visits every regular file under root with an explicit stack (no
// recursion), entries sorted for deterministic output. fn receives the
// slash-separated relative path and the absolute path; returning false stops
// the walk early.
func walkFiles(ctx context.Context, root string, fn func(rel, abs string) (bool, error)) error {
	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		// Push subdirectories in reverse so they pop in sorted order.
		var dirs []string
		for _, entry := range entries {
			name := entry.Name()
			abs := filepath.Join(dir, name)
			if entry.IsDir() {
				if _, skip := skipDirs[name]; !skip {
					dirs = append(dirs, abs)
				}
				continue
			}
			if !entry.Type().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				continue
			}
			keep, err := fn(filepath.ToSlash(rel), abs)
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
		}
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}
	return nil
}
