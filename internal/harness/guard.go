package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The guard turns model-supplied paths into absolute, validated ones. It is
// pure validation: no caching, every call re-stats the filesystem, and every
// filesystem-touching handler goes through it before doing anything.

// ResolveBaseDir resolves the working directory to absolute form and checks
// it against the allowlist.
func ResolveBaseDir(env ExecutionContext) (string, error) {
	wd := env.WorkingDirectory
	if strings.TrimSpace(wd) == "" {
		wd = "."
	}
	abs, err := filepath.Abs(wd)
	if err != nil {
		return "", ValidationError{Reason: fmt.Sprintf("invalid working directory: %v", err)}
	}
	abs = filepath.Clean(abs)
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", ValidationError{Reason: fmt.Sprintf("invalid working directory: %s", abs)}
	}
	if !withinAllowed(abs, env.AllowedDirectories) {
		return "", SecurityError{
			Code:   CodeDirectoryNotAllowed,
			Reason: fmt.Sprintf("working directory not allowed: %s", abs),
		}
	}
	return abs, nil
}

// ResolvePath resolves raw against the base directory (absolute input is
// used as-is) and applies the same containment check.
func ResolvePath(raw string, env ExecutionContext) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ValidationError{Reason: "empty path"}
	}
	base, err := ResolveBaseDir(env)
	if err != nil {
		return "", err
	}
	target := raw
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)
	if !withinAllowed(target, env.AllowedDirectories) {
		return "", SecurityError{
			Code:   CodePathNotAllowed,
			Reason: fmt.Sprintf("path not allowed: %s", raw),
		}
	}
	return target, nil
}

// CheckPatchPath validates a path named inside a diff. Patch payloads only
// ever name paths relative to the diff root, so anything absolute, empty, or
// escaping is rejected outright.
func CheckPatchPath(raw string) error {
	cleaned := filepath.Clean(strings.TrimSpace(raw))
	if cleaned == "" || cleaned == "." || cleaned == "/" {
		return SecurityError{Code: CodePatchPathRejected, Reason: fmt.Sprintf("patch path rejected: %q", raw)}
	}
	if strings.ContainsRune(cleaned, 0) {
		return SecurityError{Code: CodePatchPathRejected, Reason: "patch path contains NUL"}
	}
	if filepath.IsAbs(cleaned) {
		return SecurityError{Code: CodePatchPathRejected, Reason: fmt.Sprintf("patch path must be relative: %s", raw)}
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return SecurityError{Code: CodePatchPathRejected, Reason: fmt.Sprintf("patch path escapes root: %s", raw)}
	}
	return nil
}

// withinAllowed reports whether path equals or descends from one of the
// allowed directories. An empty allowlist disables the check.
func withinAllowed(path string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range allowed {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		dirAbs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(dirAbs, abs)
		if err != nil {
			continue
		}
		if rel == "." {
			return true
		}
		if !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel) {
			return true
		}
	}
	return false
}
