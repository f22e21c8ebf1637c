package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"toolweave/internal/harness"
)

func TestSearchHandler(t *testing.T) {
	env := workspace(t, nil)
	env.Search = func(_ context.Context, query string, opts harness.SearchOptions) (string, error) {
		return fmt.Sprintf("results for %s (max %d, site %s)", query, opts.MaxResults, opts.Site), nil
	}

	out, err := SearchHandler{}.Handle(context.Background(), call("golang generics", env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "results for golang generics (max 0, site )" {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = SearchHandler{}.Handle(context.Background(), call(`{"query":"q","maxResults":5,"site":"go.dev"}`, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "results for q (max 5, site go.dev)" {
		t.Fatalf("options not forwarded: %q", out)
	}
}

func TestSearchHandlerNotConfigured(t *testing.T) {
	env := workspace(t, nil)
	if _, err := (SearchHandler{}).Handle(context.Background(), call("q", env)); !errors.Is(err, harness.ValidationError{}) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSearchHandlerUpstreamFailure(t *testing.T) {
	env := workspace(t, nil)
	env.Search = func(context.Context, string, harness.SearchOptions) (string, error) {
		return "", errors.New("backend down")
	}
	if _, err := (SearchHandler{}).Handle(context.Background(), call("q", env)); !errors.Is(err, harness.UpstreamError{}) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestVectorSearchHandler(t *testing.T) {
	env := workspace(t, nil)
	var gotRoot string
	env.VectorSearch = func(_ context.Context, root, query string) (string, error) {
		gotRoot = root
		return "vector:" + query, nil
	}

	out, err := VectorSearchHandler{}.Handle(context.Background(), call("how does auth work", env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "vector:how does auth work" {
		t.Fatalf("unexpected output: %q", out)
	}
	if gotRoot == "" {
		t.Fatalf("workspace root not forwarded")
	}

	if _, err := (VectorSearchHandler{}).Handle(context.Background(), call("q", harness.ExecutionContext{WorkingDirectory: env.WorkingDirectory})); !errors.Is(err, harness.ValidationError{}) {
		t.Fatalf("expected ValidationError without collaborator, got %v", err)
	}
}

func TestDelegateHandler(t *testing.T) {
	env := workspace(t, nil)
	env.Delegate = func(_ context.Context, agentID, prompt string) (string, error) {
		return agentID + " did: " + prompt, nil
	}

	out, err := DelegateHandler{}.Handle(context.Background(), call(`{"agent":"reviewer","prompt":"check the diff"}`, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "reviewer did: check the diff" {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = DelegateHandler{}.Handle(context.Background(), call(`{"agent":"a","task":"via task key"}`, env))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != "a did: via task key" {
		t.Fatalf("task alias ignored: %q", out)
	}
}

func TestDelegateHandlerBadPayload(t *testing.T) {
	env := workspace(t, nil)
	env.Delegate = func(context.Context, string, string) (string, error) { return "", nil }
	for _, payload := range []string{"not json", `{"prompt":"no agent"}`, `{"agent":"a"}`} {
		if _, err := (DelegateHandler{}).Handle(context.Background(), call(payload, env)); !errors.Is(err, harness.ValidationError{}) {
			t.Fatalf("payload %q: expected ValidationError, got %v", payload, err)
		}
	}
}

func TestCollabCancellationPropagates(t *testing.T) {
	env := workspace(t, nil)
	env.Search = func(ctx context.Context, _ string, _ harness.SearchOptions) (string, error) {
		return "", ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SearchHandler{}.Handle(ctx, call("q", env))
	if !harness.IsCancellation(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
