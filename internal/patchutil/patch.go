// Package patchutil prepares unified diffs for application: normalization,
// touched-path extraction, and repository root discovery. It performs no
// filesystem writes itself.
package patchutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalize canonicalizes a model-authored diff: CRLF to LF, leading and
// trailing blank lines stripped, and a guaranteed trailing newline (git
// rejects diffs without one).
func Normalize(diff string) string {
	diff = strings.ReplaceAll(diff, "\r\n", "\n")
	diff = strings.Trim(diff, "\n")
	if diff == "" {
		return ""
	}
	return diff + "\n"
}

// ExtractPaths returns the set of file paths a diff touches, in order of
// first appearance. `diff --git a/... b/...` headers are preferred; diffs
// without them fall back to the ---/+++ pairs.
func ExtractPaths(diff string) ([]string, error) {
	var fromGit []string
	var pendingOld string
	var fromHeaders []string

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			if p := parseGitHeader(line); p != "" {
				fromGit = append(fromGit, p)
			}
			continue
		}
		if strings.HasPrefix(line, "--- ") {
			pendingOld = stripHeaderPath(strings.TrimPrefix(line, "--- "))
			continue
		}
		if strings.HasPrefix(line, "+++ ") {
			newPath := stripHeaderPath(strings.TrimPrefix(line, "+++ "))
			oldPath := pendingOld
			pendingOld = ""
			pick := newPath
			if pick == "" || pick == "/dev/null" {
				pick = oldPath
			}
			if pick == "" || pick == "/dev/null" {
				continue
			}
			fromHeaders = append(fromHeaders, pick)
		}
	}

	paths := fromGit
	if len(paths) == 0 {
		paths = fromHeaders
	}
	paths = dedupe(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no file paths found in diff")
	}
	return paths, nil
}

// parseGitHeader pulls the b-side path out of `diff --git a/x b/x`,
// falling back to the a-side for deletions.
func parseGitHeader(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return ""
	}
	b := strings.TrimPrefix(fields[len(fields)-1], "b/")
	if b != "" && b != "/dev/null" {
		return b
	}
	return strings.TrimPrefix(fields[0], "a/")
}

// stripHeaderPath removes the a/ b/ prefix and any trailing timestamp from
// a ---/+++ header path.
func stripHeaderPath(rest string) string {
	rest = strings.TrimSpace(rest)
	if i := strings.IndexByte(rest, '\t'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "/dev/null" {
		return rest
	}
	if strings.HasPrefix(rest, "a/") || strings.HasPrefix(rest, "b/") {
		rest = rest[2:]
	}
	return strings.TrimSpace(rest)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// FindRepoRoot walks parent directories from dir looking for a `.git`
// marker. Returns dir itself when no repository is found, with found=false.
func FindRepoRoot(dir string) (root string, found bool) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return dir, false
	}
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, false
		}
		current = parent
	}
}

// Prefix computes the path prefix between the repository root and the
// working directory, so a diff written relative to the working directory
// applies correctly from the root ("" when they coincide).
func Prefix(repoRoot, workdir string) (string, error) {
	rel, err := filepath.Rel(repoRoot, workdir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("working directory %s is outside repository %s", workdir, repoRoot)
	}
	return filepath.ToSlash(rel), nil
}
