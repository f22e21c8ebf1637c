package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolweave/internal/config"
	"toolweave/internal/harness"
)

type WriteHandler struct {
	cfg config.HarnessConfig
}

func NewWriteHandler(cfg config.HarnessConfig) WriteHandler {
	return WriteHandler{cfg: cfg}
}

func (WriteHandler) Name() string           { return "write" }
func (WriteHandler) Kind() harness.ToolKind { return harness.ToolWrite }
func (WriteHandler) SupportsParallel() bool { return false }

type writePayload struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Text    string `json:"text"`
	Append  bool   `json:"append"`
}

func (h WriteHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	var p writePayload
	if err := json.Unmarshal([]byte(call.Inv.Payload), &p); err != nil {
		return "", harness.ValidationError{Reason: fmt.Sprintf("invalid write payload: %v", err)}
	}
	if strings.TrimSpace(p.Path) == "" {
		return "", harness.ValidationError{Reason: "write payload missing path"}
	}
	content := p.Content
	if content == "" {
		content = p.Text
	}

	// The size check runs before anything touches the disk, so an
	// over-limit write leaves no partial file behind.
	if len(content) > h.cfg.WriteLimit() {
		return "", harness.ResourceLimitError{
			Reason: fmt.Sprintf("write of %d bytes exceeds the %d byte limit", len(content), h.cfg.WriteLimit()),
		}
	}

	path, err := harness.ResolvePath(p.Path, call.Env)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", harness.CancellationError{Cause: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", harness.UpstreamError{Reason: "create parent directories", Cause: err}
	}
	if p.Append {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return "", harness.UpstreamError{Reason: "open " + p.Path, Cause: err}
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return "", harness.UpstreamError{Reason: "append to " + p.Path, Cause: err}
		}
		return fmt.Sprintf("appended %d bytes to %s", len(content), p.Path), nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", harness.UpstreamError{Reason: "write " + p.Path, Cause: err}
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), p.Path), nil
}
