package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolweave/internal/config"
	"toolweave/internal/harness"
	"toolweave/internal/patchutil"
)

const applyPatchTimeout = time.Minute

type ApplyPatchHandler struct {
	cfg    config.HarnessConfig
	runner *harness.Runner
}

func NewApplyPatchHandler(cfg config.HarnessConfig, runner *harness.Runner) ApplyPatchHandler {
	return ApplyPatchHandler{cfg: cfg, runner: runner}
}

func (ApplyPatchHandler) Name() string           { return "apply_patch" }
func (ApplyPatchHandler) Kind() harness.ToolKind { return harness.ToolApplyPatch }
func (ApplyPatchHandler) SupportsParallel() bool { return false }

func (h ApplyPatchHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	diff := call.Inv.Payload
	if strings.TrimSpace(diff) == "" {
		return "", harness.ValidationError{Reason: "empty patch payload"}
	}
	if len(diff) > h.cfg.PatchLimit() {
		return "", harness.ResourceLimitError{
			Reason: fmt.Sprintf("patch of %d bytes exceeds the %d byte limit", len(diff), h.cfg.PatchLimit()),
		}
	}
	diff = patchutil.Normalize(diff)

	paths, err := patchutil.ExtractPaths(diff)
	if err != nil {
		return "", harness.ValidationError{Reason: err.Error()}
	}
	baseDir, err := harness.ResolveBaseDir(call.Env)
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if err := harness.CheckPatchPath(p); err != nil {
			return "", err
		}
		if _, err := harness.ResolvePath(p, call.Env); err != nil {
			return "", err
		}
	}

	// git resolves diff paths against the repo root, not the cwd. When
	// the working directory sits below the root, --directory maps the
	// paths back onto it.
	argv := []string{"git", "apply", "--whitespace=nowarn"}
	repoRoot, inRepo := patchutil.FindRepoRoot(baseDir)
	if inRepo {
		prefix, err := patchutil.Prefix(repoRoot, baseDir)
		if err != nil {
			return "", harness.ValidationError{Reason: err.Error()}
		}
		if prefix != "" {
			argv = append(argv, "--directory="+prefix)
		}
	}

	res, err := h.runner.Run(ctx, harness.RunSpec{
		Argv:    argv,
		Dir:     baseDir,
		Timeout: applyPatchTimeout,
		Stdin:   diff,
	})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(res.Stdout)
		}
		return "", harness.UpstreamError{Reason: "git apply failed", Cause: fmt.Errorf("%s", msg)}
	}
	return fmt.Sprintf("patch applied to %s", strings.Join(paths, ", ")), nil
}
