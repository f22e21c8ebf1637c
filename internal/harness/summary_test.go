package harness

import (
	"strings"
	"testing"
)

func TestPreviewCollapsesAndTruncates(t *testing.T) {
	if got := preview("a\n  b\t\tc"); got != "a b c" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}

	long := strings.Repeat("x", 500)
	got := preview(long)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("long preview not truncated: %q", got)
	}
	if len([]rune(got)) > 200 {
		t.Fatalf("preview too long: %d runes", len([]rune(got)))
	}
}

func TestSummarizeUsesErrorForFailedCalls(t *testing.T) {
	call := Call{ID: "id-1", Inv: Invocation{Name: "grep"}}
	s := summarize(call, ToolResult{Tool: "grep", OK: false, Err: "bad pattern", Output: "ignored"})
	if s.OutputPreview != "bad pattern" {
		t.Fatalf("expected error preview, got %q", s.OutputPreview)
	}
	if s.CallID != "id-1" || s.OK {
		t.Fatalf("bad summary: %+v", s)
	}
}
