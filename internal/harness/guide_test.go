package harness

import (
	"context"
	"strings"
	"testing"
)

func guideStub(name string) Handler {
	return stubHandler{name: name, parallel: true, fn: func(_ context.Context, call Call) (string, error) {
		return "", nil
	}}
}

func TestBuildGuideListsRegisteredTools(t *testing.T) {
	reg := NewRegistry(guideStub("grep"), guideStub("exec"))
	guide := BuildGuide(reg, func(string) bool { return true })

	if !strings.Contains(guide, "<<<tool.NAME") {
		t.Fatalf("guide missing block syntax: %q", guide)
	}
	if !strings.Contains(guide, "- grep:") || !strings.Contains(guide, "- exec:") {
		t.Fatalf("guide missing registered tools: %q", guide)
	}
	if strings.Contains(guide, "apply_patch") {
		t.Fatalf("guide advertises an unregistered tool: %q", guide)
	}
	if strings.Contains(guide, "ripgrep is not installed") {
		t.Fatalf("unexpected fallback note when rg is present")
	}
}

func TestBuildGuideNotesMissingRipgrep(t *testing.T) {
	reg := NewRegistry(guideStub("grep"))
	guide := BuildGuide(reg, func(name string) bool { return false })
	if !strings.Contains(guide, "ripgrep is not installed") {
		t.Fatalf("expected fallback note: %q", guide)
	}
}

func TestBuildGuideEmptyRegistry(t *testing.T) {
	if guide := BuildGuide(NewRegistry(), nil); guide != "" {
		t.Fatalf("expected empty guide, got %q", guide)
	}
}
