package harness

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// previewWidth bounds hook previews. Truncation is display-width aware so
// wide runes do not blow past the budget in a terminal.
const previewWidth = 180

func summarize(call Call, res ToolResult) ToolCallSummary {
	return ToolCallSummary{
		CallID:        call.ID,
		Tool:          res.Tool,
		OK:            res.OK,
		InputPreview:  preview(res.Payload),
		OutputPreview: preview(outputOrError(res)),
	}
}

func outputOrError(res ToolResult) string {
	if !res.OK && res.Err != "" {
		return res.Err
	}
	return res.Output
}

// preview collapses whitespace runs to single spaces and truncates to the
// preview width with a trailing ellipsis.
func preview(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(collapsed) <= previewWidth {
		return collapsed
	}
	return runewidth.Truncate(collapsed, previewWidth, "…")
}
