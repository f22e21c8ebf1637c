package harness

import (
	"fmt"
	"strings"
)

// SplitCommandLine tokenizes a shell-like command line into an argv vector.
// It understands double quotes, single quotes, and backslash escapes outside
// single quotes, and nothing more. The result is always executed as a vector,
// never through a shell.
func SplitCommandLine(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		single  bool
		double  bool
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && !single:
			escaped = true
			inWord = true
		case r == '\'' && !double:
			single = !single
			inWord = true
		case r == '"' && !single:
			double = !double
			inWord = true
		case (r == ' ' || r == '\t' || r == '\n') && !single && !double:
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if escaped {
		return nil, ValidationError{Reason: "trailing backslash in command"}
	}
	if single || double {
		return nil, ValidationError{Reason: fmt.Sprintf("unbalanced quote in command: %s", line)}
	}
	if inWord {
		args = append(args, current.String())
	}
	if len(args) == 0 {
		return nil, ValidationError{Reason: "empty command"}
	}
	return args, nil
}
