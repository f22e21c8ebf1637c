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

type FindHandler struct {
	cfg  config.HarnessConfig
	deps search.Deps
}

func NewFindHandler(cfg config.HarnessConfig, runner *harness.Runner, probe harness.BinaryProbe) FindHandler {
	return FindHandler{cfg: cfg, deps: search.Deps{Runner: runner, Probe: probe}}
}

func (FindHandler) Name() string           { return "find" }
func (FindHandler) Kind() harness.ToolKind { return harness.ToolFind }
func (FindHandler) SupportsParallel() bool { return true }

type findPayload struct {
	Pattern    string `json:"pattern"`
	Path       string `json:"path"`
	IgnoreCase bool   `json:"ignoreCase"`
	MaxResults int    `json:"maxResults"`
	Fuzzy      bool   `json:"fuzzy"`
}

func (h FindHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	p, err := parseFindPayload(call.Inv.Payload)
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

	res, err := search.Find(ctx, h.deps, search.FindRequest{
		Pattern:    p.Pattern,
		Root:       root,
		IgnoreCase: p.IgnoreCase,
		MaxResults: maxResults,
		Fuzzy:      p.Fuzzy,
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
		b.WriteString("\n")
		b.WriteString(hit.Path)
	}
	return b.String(), nil
}

func parseFindPayload(payload string) (findPayload, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return findPayload{}, harness.ValidationError{Reason: "empty find payload"}
	}
	if !strings.HasPrefix(payload, "{") {
		return findPayload{Pattern: payload}, nil
	}
	var p findPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return findPayload{}, harness.ValidationError{Reason: fmt.Sprintf("invalid find payload: %v", err)}
	}
	if strings.TrimSpace(p.Pattern) == "" {
		return findPayload{}, harness.ValidationError{Reason: "find payload missing pattern"}
	}
	return p, nil
}
