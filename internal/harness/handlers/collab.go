package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"toolweave/internal/harness"
)

// The collaborator handlers wrap caller-supplied functions. The harness owns
// payload parsing and error classification; the function owns everything
// else.

type SearchHandler struct{}

func (SearchHandler) Name() string           { return "search" }
func (SearchHandler) Kind() harness.ToolKind { return harness.ToolSearch }
func (SearchHandler) SupportsParallel() bool { return true }

type searchPayload struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
	Site       string `json:"site"`
}

func (SearchHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	if call.Env.Search == nil {
		return "", harness.ValidationError{Reason: "search is not configured"}
	}
	p := searchPayload{Query: strings.TrimSpace(call.Inv.Payload)}
	if strings.HasPrefix(p.Query, "{") {
		if err := json.Unmarshal([]byte(call.Inv.Payload), &p); err != nil {
			return "", harness.ValidationError{Reason: fmt.Sprintf("invalid search payload: %v", err)}
		}
	}
	if strings.TrimSpace(p.Query) == "" {
		return "", harness.ValidationError{Reason: "empty search query"}
	}
	out, err := call.Env.Search(ctx, p.Query, harness.SearchOptions{MaxResults: p.MaxResults, Site: p.Site})
	if err != nil {
		if harness.IsCancellation(err) {
			return "", harness.CancellationError{Cause: err}
		}
		return "", harness.UpstreamError{Reason: "search", Cause: err}
	}
	return out, nil
}

type VectorSearchHandler struct{}

func (VectorSearchHandler) Name() string           { return "vector-search" }
func (VectorSearchHandler) Kind() harness.ToolKind { return harness.ToolVectorSearch }
func (VectorSearchHandler) SupportsParallel() bool { return true }

func (VectorSearchHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	if call.Env.VectorSearch == nil {
		return "", harness.ValidationError{Reason: "vector-search is not configured"}
	}
	query := strings.TrimSpace(call.Inv.Payload)
	if query == "" {
		return "", harness.ValidationError{Reason: "empty vector-search query"}
	}
	root, err := harness.ResolveBaseDir(call.Env)
	if err != nil {
		return "", err
	}
	out, err := call.Env.VectorSearch(ctx, root, query)
	if err != nil {
		if harness.IsCancellation(err) {
			return "", harness.CancellationError{Cause: err}
		}
		return "", harness.UpstreamError{Reason: "vector-search", Cause: err}
	}
	return out, nil
}

type DelegateHandler struct{}

func (DelegateHandler) Name() string           { return "agent-delegate" }
func (DelegateHandler) Kind() harness.ToolKind { return harness.ToolDelegate }
func (DelegateHandler) SupportsParallel() bool { return false }

type delegatePayload struct {
	Agent  string `json:"agent"`
	Prompt string `json:"prompt"`
	Task   string `json:"task"`
}

func (DelegateHandler) Handle(ctx context.Context, call harness.Call) (string, error) {
	if call.Env.Delegate == nil {
		return "", harness.ValidationError{Reason: "agent-delegate is not configured"}
	}
	var p delegatePayload
	if err := json.Unmarshal([]byte(call.Inv.Payload), &p); err != nil {
		return "", harness.ValidationError{Reason: fmt.Sprintf("invalid agent-delegate payload: %v", err)}
	}
	if strings.TrimSpace(p.Agent) == "" {
		return "", harness.ValidationError{Reason: "agent-delegate payload missing agent"}
	}
	prompt := p.Prompt
	if prompt == "" {
		prompt = p.Task
	}
	if strings.TrimSpace(prompt) == "" {
		return "", harness.ValidationError{Reason: "agent-delegate payload missing prompt"}
	}
	out, err := call.Env.Delegate(ctx, p.Agent, prompt)
	if err != nil {
		if harness.IsCancellation(err) {
			return "", harness.CancellationError{Cause: err}
		}
		return "", harness.UpstreamError{Reason: "agent-delegate", Cause: err}
	}
	return out, nil
}
