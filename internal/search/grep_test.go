package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"toolweave/internal/harness"
)

// walkDeps forces the manual walk tier by reporting every helper missing.
var walkDeps = Deps{
	Runner: harness.NewRunner(nil),
	Probe:  func(string) bool { return false },
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func TestGrepWalk(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go":     "package a\n// TODO fix this\n",
		"sub/b.go": "package b\nTODO and TODO again\n",
		"sub/c.md": "nothing here\n",
	})

	res, err := Grep(context.Background(), walkDeps, GrepRequest{Pattern: "TODO", Root: root})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected 2 matching lines, got %d", res.Total)
	}
	for _, hit := range res.Hits {
		if hit.Line <= 0 || hit.Path == "" {
			t.Fatalf("bad hit: %+v", hit)
		}
	}
}

func TestGrepWalkCountsBeyondCap(t *testing.T) {
	root := writeTree(t, map[string]string{
		"f.txt": "x\nx\nx\nx\nx\n",
	})
	res, err := Grep(context.Background(), walkDeps, GrepRequest{Pattern: "x", Root: root, MaxResults: 2})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if res.Total != 5 || len(res.Hits) != 2 {
		t.Fatalf("expected total 5 showing 2, got total %d showing %d", res.Total, len(res.Hits))
	}
	if !res.Truncated() {
		t.Fatalf("expected truncated result")
	}
}

func TestGrepWalkGlobFilter(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "needle\n",
		"a.md": "needle\n",
	})
	res, err := Grep(context.Background(), walkDeps, GrepRequest{Pattern: "needle", Root: root, Glob: "*.go"})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if res.Total != 1 || res.Hits[0].Path != "a.go" {
		t.Fatalf("glob filter failed: %+v", res)
	}
}

func TestGrepWalkSkipsBinaryAndVendored(t *testing.T) {
	root := writeTree(t, map[string]string{
		"ok.txt":              "needle\n",
		"bin.dat":             "nee\x00dle",
		"node_modules/x.txt":  "needle\n",
		".git/config":         "needle\n",
		"vendor/dep/file.txt": "needle\n",
	})
	res, err := Grep(context.Background(), walkDeps, GrepRequest{Pattern: "needle", Root: root})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if res.Total != 1 || res.Hits[0].Path != "ok.txt" {
		t.Fatalf("expected only ok.txt, got %+v", res)
	}
}

func TestGrepWalkIgnoreCase(t *testing.T) {
	root := writeTree(t, map[string]string{"f.txt": "Needle\n"})
	res, err := Grep(context.Background(), walkDeps, GrepRequest{Pattern: "needle", Root: root, IgnoreCase: true})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("case-insensitive search missed: %+v", res)
	}
}

func TestGrepWalkCancellation(t *testing.T) {
	root := writeTree(t, map[string]string{"f.txt": "x\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Grep(ctx, walkDeps, GrepRequest{Pattern: "x", Root: root}); !harness.IsCancellation(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestGrepRipgrepClippedOutput(t *testing.T) {
	if !harness.LookPathProbe("rg") {
		t.Skip("rg not installed")
	}
	// Enough matching lines that ripgrep's stdout blows past the 1 MiB cap.
	line := "needle " + strings.Repeat("pad ", 30) + "\n"
	root := writeTree(t, map[string]string{
		"big.txt": strings.Repeat(line, 12000),
	})

	res, err := Grep(context.Background(), Deps{Runner: harness.NewRunner(nil)}, GrepRequest{
		Pattern:    "needle",
		Root:       root,
		MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if !res.Clipped {
		t.Fatalf("expected clipped result, total %d", res.Total)
	}
	if len(res.Hits) != 5 {
		t.Fatalf("expected 5 hits, got %d", len(res.Hits))
	}
}

func TestParseRipgrepLine(t *testing.T) {
	hit, ok := parseRipgrepLine("src/main.go:42:	return nil")
	if !ok {
		t.Fatalf("line not parsed")
	}
	if hit.Path != "src/main.go" || hit.Line != 42 || hit.Text != "\treturn nil" {
		t.Fatalf("bad hit: %+v", hit)
	}
	if _, ok := parseRipgrepLine("garbage"); ok {
		t.Fatalf("garbage line accepted")
	}
}
