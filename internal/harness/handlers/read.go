package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"toolweave/internal/config"
	"toolweave/internal/harness"
)

type ReadHandler struct {
	cfg config.HarnessConfig
}

func NewReadHandler(cfg config.HarnessConfig) ReadHandler {
	return ReadHandler{cfg: cfg}
}

func (ReadHandler) Name() string           { return "read" }
func (ReadHandler) Kind() harness.ToolKind { return harness.ToolRead }
func (ReadHandler) SupportsParallel() bool { return true }

type readRequest struct {
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	MaxBytes  int    `json:"maxBytes"`
}

func (r *readRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Path       string `json:"path"`
		File       string `json:"file"`
		StartLine  int    `json:"startLine"`
		StartSnake int    `json:"start_line"`
		EndLine    int    `json:"endLine"`
		EndSnake   int    `json:"end_line"`
		MaxBytes   int    `json:"maxBytes"`
		MaxSnake   int    `json:"max_bytes"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	r.Path = a.Path
	if r.Path == "" {
		r.Path = a.File
	}
	r.StartLine = pick(a.StartLine, a.StartSnake)
	r.EndLine = pick(a.EndLine, a.EndSnake)
	r.MaxBytes = pick(a.MaxBytes, a.MaxSnake)
	return nil
}

func pick(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func (h ReadHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	reqs, err := parseReadPayload(call.Inv.Payload)
	if err != nil {
		return "", err
	}

	sections := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return "", harness.CancellationError{Cause: err}
		}
		body, err := h.readOne(call.Env, req)
		if err != nil {
			return "", err
		}
		if len(reqs) > 1 {
			body = fmt.Sprintf("--- %s ---\n%s", req.Path, body)
		}
		sections = append(sections, body)
	}
	return strings.Join(sections, "\n\n"), nil
}

func parseReadPayload(payload string) ([]readRequest, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, harness.ValidationError{Reason: "empty read payload"}
	}
	if !strings.HasPrefix(payload, "{") && !strings.HasPrefix(payload, "[") {
		return []readRequest{{Path: payload}}, nil
	}

	if strings.HasPrefix(payload, "[") {
		var paths []string
		if err := json.Unmarshal([]byte(payload), &paths); err != nil {
			return nil, harness.ValidationError{Reason: fmt.Sprintf("invalid read payload: %v", err)}
		}
		return pathsToRequests(paths)
	}

	var multi struct {
		Paths []string `json:"paths"`
		Files []string `json:"files"`
	}
	if err := json.Unmarshal([]byte(payload), &multi); err == nil {
		if paths := multi.Paths; len(paths) > 0 || len(multi.Files) > 0 {
			if len(paths) == 0 {
				paths = multi.Files
			}
			return pathsToRequests(paths)
		}
	}

	var req readRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, harness.ValidationError{Reason: fmt.Sprintf("invalid read payload: %v", err)}
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, harness.ValidationError{Reason: "read payload missing path"}
	}
	return []readRequest{req}, nil
}

func pathsToRequests(paths []string) ([]readRequest, error) {
	if len(paths) == 0 {
		return nil, harness.ValidationError{Reason: "read payload missing path"}
	}
	reqs := make([]readRequest, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return nil, harness.ValidationError{Reason: "read payload contains empty path"}
		}
		reqs = append(reqs, readRequest{Path: p})
	}
	return reqs, nil
}

func (h ReadHandler) readOne(env harness.ExecutionContext, req readRequest) (string, error) {
	path, err := harness.ResolvePath(req.Path, env)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", harness.NotFoundError{Path: req.Path}
		}
		return "", harness.UpstreamError{Reason: "stat " + req.Path, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return "", harness.ValidationError{Reason: fmt.Sprintf("%s is not a regular file", req.Path)}
	}

	limit := req.MaxBytes
	if limit <= 0 || limit > h.cfg.ReadLimit() {
		limit = h.cfg.ReadLimit()
	}
	f, err := os.Open(path)
	if err != nil {
		return "", harness.UpstreamError{Reason: "open " + req.Path, Cause: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return "", harness.UpstreamError{Reason: "read " + req.Path, Cause: err}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", harness.ValidationError{Reason: fmt.Sprintf("%s looks binary", req.Path)}
	}
	truncated := info.Size() > int64(limit)

	text := string(data)
	if req.StartLine > 0 || req.EndLine > 0 {
		text, err = sliceLines(text, req.StartLine, req.EndLine)
		if err != nil {
			return "", err
		}
	}
	if truncated {
		text = strings.TrimRight(text, "\n") + fmt.Sprintf("\n[truncated at %d bytes, file is %d bytes]", limit, info.Size())
	}
	return text, nil
}

func sliceLines(text string, start, end int) (string, error) {
	lines := strings.Split(text, "\n")
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) || start > end {
		return "", harness.ValidationError{Reason: fmt.Sprintf("line range %d-%d out of bounds", start, end)}
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}
