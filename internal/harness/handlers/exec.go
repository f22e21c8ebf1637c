package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"toolweave/internal/config"
	"toolweave/internal/harness"
)

type ExecHandler struct {
	cfg    config.HarnessConfig
	runner *harness.Runner
}

func NewExecHandler(cfg config.HarnessConfig, runner *harness.Runner) ExecHandler {
	return ExecHandler{cfg: cfg, runner: runner}
}

func (ExecHandler) Name() string           { return "exec" }
func (ExecHandler) Kind() harness.ToolKind { return harness.ToolExec }
func (ExecHandler) SupportsParallel() bool { return false }

type execPayload struct {
	Cmd     string   `json:"cmd"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Argv    []string `json:"argv"`

	TimeoutMs      int  `json:"timeoutMs"`
	TimeoutMsSnake int  `json:"timeout_ms"`
	MaxOutputBytes int  `json:"maxOutputBytes"`
	PTY            bool `json:"pty"`
}

func (h ExecHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	argv, p, err := h.parsePayload(call.Inv.Payload)
	if err != nil {
		return "", err
	}
	baseDir, err := harness.ResolveBaseDir(call.Env)
	if err != nil {
		return "", err
	}

	timeoutMs := p.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = p.TimeoutMsSnake
	}
	if timeoutMs <= 0 {
		timeoutMs = h.cfg.Timeout()
	}
	maxOut := p.MaxOutputBytes
	if maxOut <= 0 || maxOut > h.cfg.ExecOutputLimit() {
		maxOut = h.cfg.ExecOutputLimit()
	}

	res, err := h.runner.Run(ctx, harness.RunSpec{
		Argv:           argv,
		Dir:            baseDir,
		Timeout:        time.Duration(timeoutMs) * time.Millisecond,
		MaxOutputBytes: maxOut,
		PTY:            p.PTY,
	})
	if err != nil {
		return "", err
	}
	return formatRunResult(res, timeoutMs), nil
}

// parsePayload accepts either a structured JSON object or a raw command
// line. Arguments always end up as an argv vector; nothing ever passes
// through a shell.
func (h ExecHandler) parsePayload(payload string) ([]string, execPayload, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, execPayload{}, harness.ValidationError{Reason: "empty exec payload"}
	}
	if !strings.HasPrefix(payload, "{") {
		argv, err := harness.SplitCommandLine(payload)
		return argv, execPayload{}, err
	}

	var p execPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, execPayload{}, harness.ValidationError{Reason: fmt.Sprintf("invalid exec payload: %v", err)}
	}
	cmd := p.Cmd
	if cmd == "" {
		cmd = p.Command
	}
	if strings.TrimSpace(cmd) == "" {
		return nil, execPayload{}, harness.ValidationError{Reason: "exec payload missing cmd"}
	}
	args := p.Args
	if len(args) == 0 {
		args = p.Argv
	}
	return append([]string{cmd}, args...), p, nil
}

func formatRunResult(res harness.RunResult, timeoutMs int) string {
	var b strings.Builder
	out := strings.TrimRight(res.Stdout, "\n")
	if out != "" {
		b.WriteString(out)
		b.WriteString("\n")
	}
	if res.TruncatedStdout {
		b.WriteString("[stdout truncated]\n")
	}
	if strings.TrimSpace(res.Stderr) != "" {
		b.WriteString("--- stderr ---\n")
		b.WriteString(strings.TrimRight(res.Stderr, "\n"))
		b.WriteString("\n")
	}
	if res.TruncatedStderr {
		b.WriteString("[stderr truncated]\n")
	}
	if res.TimedOut {
		fmt.Fprintf(&b, "(timed out after %dms)\n", timeoutMs)
	}
	if res.ExitCode != 0 {
		if res.Signal != "" {
			fmt.Fprintf(&b, "(terminated by signal %s)\n", res.Signal)
		} else {
			fmt.Fprintf(&b, "(exit status %d)\n", res.ExitCode)
		}
	}
	if b.Len() == 0 {
		return "(no output)"
	}
	return strings.TrimRight(b.String(), "\n")
}
