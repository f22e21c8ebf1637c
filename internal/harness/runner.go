package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// DefaultRunTimeout bounds a process when the caller supplies none.
const DefaultRunTimeout = 2 * time.Minute

// DefaultRunOutputBytes caps each output stream when the caller supplies no
// limit. Output is never buffered unbounded.
const DefaultRunOutputBytes = 64 * 1024

// RunSpec describes one process launch. Argv is executed as a vector; there
// is no shell in the path.
type RunSpec struct {
	Argv           []string
	Dir            string
	Timeout        time.Duration
	MaxOutputBytes int
	Env            []string
	Stdin          string

	// PTY runs the process under a pseudo-terminal. Output arrives combined
	// on Stdout; Stderr stays empty.
	PTY bool
}

// RunResult reports what happened. TimedOut is informational, not an error.
type RunResult struct {
	ExitCode        int
	Signal          string
	Stdout          string
	Stderr          string
	TruncatedStdout bool
	TruncatedStderr bool
	TimedOut        bool
	Elapsed         time.Duration
	CommandLine     string
}

// Runner spawns external processes with timeout, output caps, and an
// optional executable allowlist. The zero value allows every executable.
type Runner struct {
	// Allowlist restricts the basename of argv[0], case-insensitively.
	// Empty allows all; a "*" entry disables the check explicitly.
	Allowlist []string
}

func NewRunner(allowlist []string) *Runner {
	return &Runner{Allowlist: allowlist}
}

// Run launches the process and waits for completion, timeout, or caller
// cancellation. Cancellation kills the child and returns a
// CancellationError; a timeout kills the child and is reported in the
// result instead.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (RunResult, error) {
	if len(spec.Argv) == 0 || strings.TrimSpace(spec.Argv[0]) == "" {
		return RunResult{}, ValidationError{Reason: "empty command"}
	}
	if err := r.checkAllowlist(spec.Argv[0]); err != nil {
		return RunResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return RunResult{}, cancelled(err)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	maxOut := spec.MaxOutputBytes
	if maxOut <= 0 {
		maxOut = DefaultRunOutputBytes
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	if spec.Stdin != "" && !spec.PTY {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	stdout := &capWriter{max: maxOut}
	stderr := &capWriter{max: maxOut}

	start := time.Now()
	var drained sync.WaitGroup

	if spec.PTY {
		ptmx, err := pty.Start(cmd)
		if err != nil {
			return RunResult{}, UpstreamError{Reason: "start pty", Cause: err}
		}
		drained.Add(1)
		go func() {
			defer drained.Done()
			_, _ = io.Copy(stdout, ptmx)
			_ = ptmx.Close()
		}()
	} else {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Start(); err != nil {
			return RunResult{}, UpstreamError{Reason: fmt.Sprintf("start %s", spec.Argv[0]), Cause: err}
		}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	res := RunResult{CommandLine: strings.Join(spec.Argv, " ")}

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		drained.Wait()
		return RunResult{}, cancelled(ctx.Err())
	case <-timer.C:
		_ = cmd.Process.Kill()
		waitErr = <-done
		res.TimedOut = true
	}
	drained.Wait()

	res.Elapsed = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.TruncatedStdout = stdout.truncated
	res.TruncatedStderr = stderr.truncated
	res.ExitCode, res.Signal = exitStatus(cmd)

	if waitErr != nil && !res.TimedOut {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			// Failure outside normal process exit (e.g. permission denied).
			// Non-zero exits are not errors here; the handler decides what a
			// non-zero exit means.
			return res, UpstreamError{Reason: "run " + spec.Argv[0], Cause: waitErr}
		}
	}
	return res, nil
}

func (r *Runner) checkAllowlist(path string) error {
	if len(r.Allowlist) == 0 {
		return nil
	}
	base := strings.ToLower(filepath.Base(path))
	for _, allowed := range r.Allowlist {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" {
			return nil
		}
		if strings.EqualFold(allowed, base) {
			return nil
		}
	}
	return SecurityError{
		Code:   CodeExecutableNotAllowed,
		Reason: fmt.Sprintf("executable not allowed: %s", filepath.Base(path)),
	}
}

func exitStatus(cmd *exec.Cmd) (int, string) {
	state := cmd.ProcessState
	if state == nil {
		return -1, ""
	}
	code := state.ExitCode()
	signal := ""
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		signal = ws.Signal().String()
	}
	return code, signal
}

// capWriter buffers up to max bytes and drops the rest, remembering that it
// did. Write never reports a short count so the copier keeps draining the
// pipe instead of blocking the child.
type capWriter struct {
	max       int
	buf       bytes.Buffer
	mu        sync.Mutex
	truncated bool
}

func (w *capWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	room := w.max - w.buf.Len()
	if room <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil
	}
	if len(p) > room {
		w.buf.Write(p[:room])
		w.truncated = true
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func (w *capWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
