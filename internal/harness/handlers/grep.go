package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"toolweave/internal/config"
	"toolweave/internal/harness"
	"toolweave/internal/i18n"
	"toolweave/internal/search"
)

type GrepHandler struct {
	cfg  config.HarnessConfig
	deps search.Deps
}

func NewGrepHandler(cfg config.HarnessConfig, runner *harness.Runner, probe harness.BinaryProbe) GrepHandler {
	return GrepHandler{cfg: cfg, deps: search.Deps{Runner: runner, Probe: probe}}
}

func (GrepHandler) Name() string           { return "grep" }
func (GrepHandler) Kind() harness.ToolKind { return harness.ToolGrep }
func (GrepHandler) SupportsParallel() bool { return true }

type grepPayload struct {
	Pattern    string `json:"pattern"`
	Path       string `json:"path"`
	Glob       string `json:"glob"`
	IgnoreCase bool   `json:"ignoreCase"`
	MaxResults int    `json:"maxResults"`
}

func (h GrepHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	p, err := parseGrepPayload(call.Inv.Payload)
	if err != nil {
		return "", err
	}
	baseDir, err := harness.ResolveBaseDir(call.Env)
	if err != nil {
		return "", err
	}
	root := baseDir
	if p.Path != "" {
		root, err = harness.ResolvePath(p.Path, call.Env)
		if err != nil {
			return "", err
		}
	}
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = h.cfg.SearchCap()
	}

	res, err := search.Grep(ctx, h.deps, search.GrepRequest{
		Pattern:    p.Pattern,
		Root:       root,
		Glob:       p.Glob,
		IgnoreCase: p.IgnoreCase,
		MaxResults: maxResults,
	})
	if err != nil {
		return "", err
	}
	if res.Total == 0 {
		return i18n.T(i18n.Normalize(h.cfg.Language), i18n.MsgNoMatches), nil
	}

	var b strings.Builder
	b.WriteString(matchSummary(p.Pattern, res))
	for _, hit := range res.Hits {
		fmt.Fprintf(&b, "\n%s:%d:%s", hit.Path, hit.Line, hit.Text)
	}
	return b.String(), nil
}

func parseGrepPayload(payload string) (grepPayload, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return grepPayload{}, harness.ValidationError{Reason: "empty grep payload"}
	}
	if !strings.HasPrefix(payload, "{") {
		return grepPayload{Pattern: payload}, nil
	}
	var p grepPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return grepPayload{}, harness.ValidationError{Reason: fmt.Sprintf("invalid grep payload: %v", err)}
	}
	if strings.TrimSpace(p.Pattern) == "" {
		return grepPayload{}, harness.ValidationError{Reason: "grep payload missing pattern"}
	}
	return p, nil
}

func matchSummary(pattern string, res search.Result) string {
	var s string
	switch {
	case res.Truncated():
		s = fmt.Sprintf("pattern %q: %d matches, showing %d", pattern, res.Total, len(res.Hits))
	case res.Total == 1:
		s = fmt.Sprintf("pattern %q: 1 match", pattern)
	default:
		s = fmt.Sprintf("pattern %q: %d matches", pattern, res.Total)
	}
	if res.Clipped {
		s += " [search output truncated, match count is incomplete]"
	}
	return s
}
