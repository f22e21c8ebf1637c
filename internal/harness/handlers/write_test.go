package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"toolweave/internal/config"
	"toolweave/internal/harness"
)

func TestWriteCreatesFileAndParents(t *testing.T) {
	env := workspace(t, nil)
	h := NewWriteHandler(config.Default())

	out, err := h.Handle(context.Background(), call(`{"path":"deep/nested/out.txt","content":"hello"}`, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out, "wrote 5 bytes") {
		t.Fatalf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(filepath.Join(env.WorkingDirectory, "deep", "nested", "out.txt"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestWriteOverwriteAndAppend(t *testing.T) {
	env := workspace(t, map[string]string{"f.txt": "old"})
	h := NewWriteHandler(config.Default())

	if _, err := h.Handle(context.Background(), call(`{"path":"f.txt","content":"new"}`, env)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(env.WorkingDirectory, "f.txt"))
	if string(data) != "new" {
		t.Fatalf("overwrite failed: %q", data)
	}

	if _, err := h.Handle(context.Background(), call(`{"path":"f.txt","content":"+more","append":true}`, env)); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(env.WorkingDirectory, "f.txt"))
	if string(data) != "new+more" {
		t.Fatalf("append failed: %q", data)
	}
}

func TestWriteOverLimitLeavesNoFile(t *testing.T) {
	env := workspace(t, nil)
	cfg := config.Default()
	cfg.WriteMaxBytes = 8
	h := NewWriteHandler(cfg)

	_, err := h.Handle(context.Background(), call(`{"path":"big.txt","content":"0123456789"}`, env))
	if !errors.Is(err, harness.ResourceLimitError{}) {
		t.Fatalf("expected ResourceLimitError, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(env.WorkingDirectory, "big.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("over-limit write left a file behind")
	}
}

func TestWriteRejectsEscape(t *testing.T) {
	env := workspace(t, nil)
	h := NewWriteHandler(config.Default())
	if _, err := h.Handle(context.Background(), call(`{"path":"../outside.txt","content":"x"}`, env)); !errors.Is(err, harness.SecurityError{}) {
		t.Fatalf("expected SecurityError, got %v", err)
	}
}

func TestWriteRejectsBadPayload(t *testing.T) {
	env := workspace(t, nil)
	h := NewWriteHandler(config.Default())
	for _, payload := range []string{"not json", `{"content":"x"}`} {
		if _, err := h.Handle(context.Background(), call(payload, env)); !errors.Is(err, harness.ValidationError{}) {
			t.Fatalf("payload %q: expected ValidationError, got %v", payload, err)
		}
	}
}

func TestWriteTextAlias(t *testing.T) {
	env := workspace(t, nil)
	h := NewWriteHandler(config.Default())
	if _, err := h.Handle(context.Background(), call(`{"path":"f.txt","text":"via alias"}`, env)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(env.WorkingDirectory, "f.txt"))
	if string(data) != "via alias" {
		t.Fatalf("text alias ignored: %q", data)
	}
}
