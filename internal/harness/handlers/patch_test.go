package handlers

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"toolweave/internal/config"
	"toolweave/internal/harness"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

const sampleDiff = `--- a/hello.txt
+++ b/hello.txt
@@ -1 +1 @@
-old line
+new line
`

func TestApplyPatch(t *testing.T) {
	requireGit(t)
	env := workspace(t, map[string]string{"hello.txt": "old line\n"})
	h := NewApplyPatchHandler(config.Default(), harness.NewRunner(nil))

	out, err := h.Handle(context.Background(), call(sampleDiff, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out, "hello.txt") {
		t.Fatalf("unexpected output: %q", out)
	}
	data, _ := os.ReadFile(filepath.Join(env.WorkingDirectory, "hello.txt"))
	if string(data) != "new line\n" {
		t.Fatalf("patch not applied: %q", data)
	}
}

func TestApplyPatchNormalizesCRLF(t *testing.T) {
	requireGit(t)
	env := workspace(t, map[string]string{"hello.txt": "old line\n"})
	h := NewApplyPatchHandler(config.Default(), harness.NewRunner(nil))

	crlf := strings.ReplaceAll(sampleDiff, "\n", "\r\n")
	if _, err := h.Handle(context.Background(), call(crlf, env)); err != nil {
		t.Fatalf("CRLF diff rejected: %v", err)
	}
}

func TestApplyPatchRejectsEscapingPaths(t *testing.T) {
	env := workspace(t, nil)
	h := NewApplyPatchHandler(config.Default(), harness.NewRunner(nil))

	diff := strings.Join([]string{
		"--- a/../outside.txt",
		"+++ b/../outside.txt",
		"@@",
		"+x",
	}, "\n")
	if _, err := h.Handle(context.Background(), call(diff, env)); !errors.Is(err, harness.SecurityError{}) {
		t.Fatalf("expected SecurityError, got %v", err)
	}

	abs := strings.Join([]string{
		"--- /etc/passwd",
		"+++ /etc/passwd",
		"@@",
		"+x",
	}, "\n")
	if _, err := h.Handle(context.Background(), call(abs, env)); !errors.Is(err, harness.SecurityError{}) {
		t.Fatalf("expected SecurityError for absolute path, got %v", err)
	}
}

func TestApplyPatchRejectsOversized(t *testing.T) {
	env := workspace(t, nil)
	cfg := config.Default()
	cfg.PatchMaxBytes = 16
	h := NewApplyPatchHandler(cfg, harness.NewRunner(nil))

	if _, err := h.Handle(context.Background(), call(sampleDiff, env)); !errors.Is(err, harness.ResourceLimitError{}) {
		t.Fatalf("expected ResourceLimitError, got %v", err)
	}
}

func TestApplyPatchRejectsPathlessDiff(t *testing.T) {
	env := workspace(t, nil)
	h := NewApplyPatchHandler(config.Default(), harness.NewRunner(nil))
	for _, payload := range []string{"", "  \n ", "just prose, no headers"} {
		if _, err := h.Handle(context.Background(), call(payload, env)); !errors.Is(err, harness.ValidationError{}) {
			t.Fatalf("payload %q: expected ValidationError, got %v", payload, err)
		}
	}
}

func TestApplyPatchConflictSurfacesGitError(t *testing.T) {
	requireGit(t)
	env := workspace(t, map[string]string{"hello.txt": "something else entirely\n"})
	h := NewApplyPatchHandler(config.Default(), harness.NewRunner(nil))

	_, err := h.Handle(context.Background(), call(sampleDiff, env))
	if !errors.Is(err, harness.UpstreamError{}) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !strings.Contains(err.Error(), "git apply failed") {
		t.Fatalf("unexpected message: %v", err)
	}
}
