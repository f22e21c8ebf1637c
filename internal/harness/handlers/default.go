// Package handlers implements the built-in tools dispatched by the harness.
// Every filesystem-touching handler resolves paths through the guard before
// doing anything, and every process launch goes through the shared runner.
package handlers

import (
	"toolweave/internal/config"
	"toolweave/internal/harness"
)

// Default returns the handler set for the given configuration. Disabled
// tools are simply not registered, so they neither execute nor show up in
// the capability guide.
//
// The runner is used for the harness's own launches (rg, find, git) and
// carries no allowlist; the exec tool gets its own runner restricted by
// cfg.ExecAllowlist.
func Default(cfg config.HarnessConfig, runner *harness.Runner, probe harness.BinaryProbe) []harness.Handler {
	hs := []harness.Handler{
		NewGrepHandler(cfg, runner, probe),
		NewFindHandler(cfg, runner, probe),
		SearchHandler{},
		VectorSearchHandler{},
		DelegateHandler{},
	}
	if cfg.EnableExec {
		hs = append(hs, NewExecHandler(cfg, harness.NewRunner(cfg.ExecAllowlist)))
	}
	if cfg.EnableFileTools {
		hs = append(hs, NewReadHandler(cfg), NewWriteHandler(cfg))
	}
	if cfg.EnablePatch {
		hs = append(hs, NewApplyPatchHandler(cfg, runner))
	}
	return hs
}
