package harness

import "context"

// ToolKind identifies one of the closed set of tools the harness dispatches.
type ToolKind string

const (
	ToolExec         ToolKind = "exec"
	ToolRead         ToolKind = "read"
	ToolWrite        ToolKind = "write"
	ToolApplyPatch   ToolKind = "apply_patch"
	ToolGrep         ToolKind = "grep"
	ToolFind         ToolKind = "find"
	ToolSearch       ToolKind = "search"
	ToolVectorSearch ToolKind = "vector-search"
	ToolDelegate     ToolKind = "agent-delegate"
)

// Invocation is one parsed tool-call block. RawBlock is the exact matched
// span so the scheduler can replace it in place; identical payloads at
// different positions are distinct invocations.
type Invocation struct {
	Name     string
	RawBlock string
	Payload  string
}

// SearchOptions is forwarded untouched to the external search collaborator.
type SearchOptions struct {
	MaxResults int
	Site       string
}

// Collaborator functions supplied by the caller. A nil function means the
// corresponding tool is not available.
type (
	SearchFn       func(ctx context.Context, query string, opts SearchOptions) (string, error)
	VectorSearchFn func(ctx context.Context, workspaceRoot, query string) (string, error)
	DelegateFn     func(ctx context.Context, agentID, prompt string) (string, error)
)

// ExecutionContext carries the per-batch environment. It is immutable for
// the duration of a call; AllowedDirectories, when non-empty, is the sole
// security boundary for every path a handler touches.
type ExecutionContext struct {
	WorkingDirectory   string
	AllowedDirectories []string

	Search       SearchFn
	VectorSearch VectorSearchFn
	Delegate     DelegateFn

	HistoryNamespace string
	HistorySessionID string
}

// ToolResult is the outcome of a single invocation. OK=false is ordinary
// tool failure, already rendered into the rewritten text; cancellation never
// produces a ToolResult.
type ToolResult struct {
	Tool    string
	Payload string
	OK      bool
	Output  string
	Err     string
}

// ToolCallSummary is emitted to the OnResult hook. Previews are whitespace
// collapsed and truncated; the summary is observability only, never control
// flow.
type ToolCallSummary struct {
	CallID        string
	Tool          string
	OK            bool
	InputPreview  string
	OutputPreview string
}

// Hooks are optional batch observers. OnInvoke fires before a call starts,
// in invocation order within a sequential segment; OnResult may interleave
// across a parallel run.
type Hooks struct {
	OnInvoke func(callID string, inv Invocation)
	OnResult func(summary ToolCallSummary)
}

// BatchResult is returned by ExecuteBatch on success.
type BatchResult struct {
	RewrittenText string
	StrippedText  string
	Results       []ToolResult
	Summaries     []ToolCallSummary
}
