package harness

import (
	"io"
	"strings"
	"sync"

	"toolweave/internal/logger"
)

// DefaultToolsLogPath is where per-call tool logging lands by default.
const DefaultToolsLogPath = "logs/tools.log"

var (
	toolsLog           = logger.Named("tools")
	toolsLogConfigured bool
	toolsLogMu         sync.Mutex
	toolsLogCloser     io.Closer
)

// SetupToolsLog routes per-call logging to its own file. Only the first call
// takes effect; an empty path means DefaultToolsLogPath.
func SetupToolsLog(logPath string) (io.Closer, string, error) {
	toolsLogMu.Lock()
	defer toolsLogMu.Unlock()

	if toolsLogConfigured {
		return toolsLogCloser, logPath, nil
	}
	if logPath == "" {
		logPath = DefaultToolsLogPath
	}
	entry, closer, resolved, err := logger.SetupComponentFile("tools", logPath)
	toolsLogConfigured = true
	if err != nil {
		return nil, resolved, err
	}
	if entry != nil {
		toolsLog = entry
	}
	toolsLogCloser = closer
	return closer, resolved, nil
}

// CloseToolsLog closes the tools log file handle if one was opened.
func CloseToolsLog() {
	toolsLogMu.Lock()
	defer toolsLogMu.Unlock()
	if toolsLogCloser != nil {
		_ = toolsLogCloser.Close()
		toolsLogCloser = nil
	}
}

func toolsLogReady() bool {
	toolsLogMu.Lock()
	defer toolsLogMu.Unlock()
	return toolsLogConfigured
}

func logToolCall(call Call) {
	if !toolsLogReady() {
		return
	}
	toolsLog.Infof("tool_call id=%s name=%s payload=%s",
		call.ID, call.Inv.Name, sanitizeForLog(call.Inv.Payload))
}

func logToolResult(call Call, res ToolResult) {
	if !toolsLogReady() {
		return
	}
	status := "ok"
	if !res.OK {
		status = "failed"
	}
	toolsLog.Infof("tool_result id=%s name=%s status=%s error=%s output=%s",
		call.ID, call.Inv.Name, status, sanitizeForLog(res.Err), sanitizeForLog(preview(res.Output)))
}

func sanitizeForLog(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "(empty)"
	}
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}
