package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"toolweave/internal/config"
	"toolweave/internal/harness"
)

func TestExecPlainCommandLine(t *testing.T) {
	env := workspace(t, nil)
	h := NewExecHandler(config.Default(), harness.NewRunner(nil))

	out, err := h.Handle(context.Background(), call("echo hello world", env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExecJSONPayload(t *testing.T) {
	env := workspace(t, nil)
	h := NewExecHandler(config.Default(), harness.NewRunner(nil))

	out, err := h.Handle(context.Background(), call(`{"cmd":"sh","args":["-c","echo json"]}`, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "json" {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = h.Handle(context.Background(), call(`{"command":"echo","argv":["aliases"]}`, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "aliases" {
		t.Fatalf("alias keys ignored: %q", out)
	}
}

func TestExecReportsExitAndStderr(t *testing.T) {
	env := workspace(t, nil)
	h := NewExecHandler(config.Default(), harness.NewRunner(nil))

	out, err := h.Handle(context.Background(), call(`{"cmd":"sh","args":["-c","echo oops >&2; exit 2"]}`, env))
	if err != nil {
		t.Fatalf("non-zero exit must not be a handler error: %v", err)
	}
	if !strings.Contains(out, "--- stderr ---\noops") {
		t.Fatalf("stderr not labelled: %q", out)
	}
	if !strings.Contains(out, "(exit status 2)") {
		t.Fatalf("exit status missing: %q", out)
	}
}

func TestExecTimeoutNote(t *testing.T) {
	env := workspace(t, nil)
	h := NewExecHandler(config.Default(), harness.NewRunner(nil))

	out, err := h.Handle(context.Background(), call(`{"cmd":"sleep","args":["30"],"timeoutMs":100}`, env))
	if err != nil {
		t.Fatalf("timeout must not be a handler error: %v", err)
	}
	if !strings.Contains(out, "(timed out after 100ms)") {
		t.Fatalf("timeout note missing: %q", out)
	}
}

func TestExecRunsInWorkingDirectory(t *testing.T) {
	env := workspace(t, map[string]string{"marker.txt": "x"})
	h := NewExecHandler(config.Default(), harness.NewRunner(nil))

	out, err := h.Handle(context.Background(), call("ls", env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out, "marker.txt") {
		t.Fatalf("command did not run in the workdir: %q", out)
	}
}

func TestExecAllowlist(t *testing.T) {
	env := workspace(t, nil)
	h := NewExecHandler(config.Default(), harness.NewRunner([]string{"echo"}))

	if _, err := h.Handle(context.Background(), call("cat /etc/passwd", env)); !errors.Is(err, harness.SecurityError{}) {
		t.Fatalf("expected SecurityError, got %v", err)
	}
	if _, err := h.Handle(context.Background(), call("echo ok", env)); err != nil {
		t.Fatalf("allowlisted command rejected: %v", err)
	}
}

func TestExecBadPayload(t *testing.T) {
	env := workspace(t, nil)
	h := NewExecHandler(config.Default(), harness.NewRunner(nil))
	for _, payload := range []string{"", `{"args":["x"]}`, `{"cmd":""}`, "echo 'unclosed"} {
		if _, err := h.Handle(context.Background(), call(payload, env)); !errors.Is(err, harness.ValidationError{}) {
			t.Fatalf("payload %q: expected ValidationError, got %v", payload, err)
		}
	}
}

func TestExecOutputCapBoundedByConfig(t *testing.T) {
	env := workspace(t, nil)
	cfg := config.Default()
	cfg.ExecOutputBytes = 1024
	h := NewExecHandler(cfg, harness.NewRunner(nil))

	payload := `{"cmd":"sh","args":["-c","head -c 100000 /dev/zero | tr '\\0' x"],"maxOutputBytes":1000000}`
	out, err := h.Handle(context.Background(), call(payload, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out, "[stdout truncated]") {
		t.Fatalf("requested cap exceeded the configured limit without truncation: %q", out)
	}
	if len(out) > 2048 {
		t.Fatalf("output not held to the configured cap: %d bytes", len(out))
	}
}

func TestExecNoOutput(t *testing.T) {
	env := workspace(t, nil)
	h := NewExecHandler(config.Default(), harness.NewRunner(nil))
	out, err := h.Handle(context.Background(), call("true", env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "(no output)" {
		t.Fatalf("unexpected output: %q", out)
	}
}
