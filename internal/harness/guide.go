package harness

import (
	"os/exec"
	"sort"
	"strings"
)

// BinaryProbe reports whether an external helper is installed. Injected so
// tests can simulate missing binaries.
type BinaryProbe func(name string) bool

// LookPathProbe is the default probe.
func LookPathProbe(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

var guideIntro = strings.TrimSpace(`
You can call tools by embedding blocks in your reply. Each block is replaced
by the tool output before the text reaches the user:

<<<tool.NAME
payload
>>>
`)

var guideLines = map[string]string{
	"exec":           `exec: run a command. Payload is a plain command line, or {"cmd":"go","args":["test","./..."],"timeoutMs":60000}`,
	"read":           `read: read files. Payload is a path, {"path":"main.go","startLine":10,"endLine":40}, or a list of either`,
	"write":          `write: create or overwrite a file. Payload is {"path":"notes.md","content":"...","append":false}`,
	"apply_patch":    `apply_patch: apply a unified diff to the workspace; paths are relative to the diff root`,
	"grep":           `grep: search file contents. Payload is a pattern, or {"pattern":"TODO","path":"src","ignoreCase":true,"maxResults":50}`,
	"find":           `find: list files by glob. Payload is a pattern, or {"pattern":"**/*.go","maxResults":50}`,
	"search":         `search: query the web search backend with a plain query string`,
	"vector-search":  `vector-search: semantic search over the workspace with a plain query string`,
	"agent-delegate": `agent-delegate: hand a prompt to a named agent. Payload is {"agent":"reviewer","prompt":"..."}`,
}

// BuildGuide assembles the capability advertisement appended to prompts. It
// only advertises tools that are actually registered, and notes helper
// availability where it changes behavior.
func BuildGuide(reg *Registry, probe BinaryProbe) string {
	if probe == nil {
		probe = LookPathProbe
	}
	names := reg.Names()
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(guideIntro)
	b.WriteString("\n\nAvailable tools:\n")
	for _, name := range names {
		line, ok := guideLines[name]
		if !ok {
			line = name
		}
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	if _, ok := reg.Handler("grep"); ok && !probe("rg") {
		b.WriteString("\nNote: ripgrep is not installed; content search falls back to a slower built-in scan.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
