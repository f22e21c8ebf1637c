package search

import (
	"bytes"
	"context"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"toolweave/internal/harness"
)

// maxGrepFileBytes caps how much of a single file the manual tier scans.
const maxGrepFileBytes = 2 << 20

// DefaultMaxResults caps hits when the request does not say otherwise.
const DefaultMaxResults = 50

// Deps carries what the tiers need: the process runner for the external
// programs and a probe to detect their presence.
type Deps struct {
	Runner *harness.Runner
	Probe  harness.BinaryProbe
}

func (d Deps) probe(name string) bool {
	if d.Probe != nil {
		return d.Probe(name)
	}
	return harness.LookPathProbe(name)
}

// Hit is one result line. Line is zero for file-only results (find).
type Hit struct {
	Path string
	Line int
	Text string
}

// Result carries the capped hits plus the total number of matches observed,
// so callers can report "(N matches, showing M)". Clipped means the helper
// program's output hit the byte cap, so Total undercounts.
type Result struct {
	Hits    []Hit
	Total   int
	Clipped bool
}

func (r Result) Truncated() bool { return r.Total > len(r.Hits) }

// GrepRequest is a content search under Root.
type GrepRequest struct {
	Pattern    string
	Root       string
	Glob       string
	IgnoreCase bool
	MaxResults int
}

// Grep searches file contents. Tier 1 is ripgrep; when it is not installed
// the manual walk takes over. Both tiers produce the same Result shape.
func Grep(ctx context.Context, deps Deps, req GrepRequest) (Result, error) {
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.Root == "" {
		req.Root = "."
	}
	if deps.probe("rg") {
		return grepRipgrep(ctx, deps, req)
	}
	return grepWalk(ctx, req)
}

func grepRipgrep(ctx context.Context, deps Deps, req GrepRequest) (Result, error) {
	argv := []string{"rg", "--line-number", "--no-heading", "--color", "never"}
	if req.IgnoreCase {
		argv = append(argv, "--ignore-case")
	}
	if req.Glob != "" {
		argv = append(argv, "--glob", req.Glob)
	}
	argv = append(argv, "--regexp", req.Pattern, "./")

	res, err := deps.Runner.Run(ctx, harness.RunSpec{
		Argv:           argv,
		Dir:            req.Root,
		MaxOutputBytes: 1 << 20,
	})
	if err != nil {
		return Result{}, err
	}
	// rg exits 1 on zero matches, 2 on real errors.
	if res.ExitCode > 1 {
		return Result{}, harness.UpstreamError{Reason: "ripgrep failed: " + strings.TrimSpace(res.Stderr)}
	}

	out := Result{Clipped: res.TruncatedStdout}
	for _, line := range strings.Split(res.Stdout, "\n") {
		hit, ok := parseRipgrepLine(line)
		if !ok {
			continue
		}
		out.Total++
		if len(out.Hits) < req.MaxResults {
			out.Hits = append(out.Hits, hit)
		}
	}
	return out, nil
}

func parseRipgrepLine(line string) (Hit, bool) {
	line = strings.TrimPrefix(line, "./")
	first := strings.Index(line, ":")
	if first <= 0 {
		return Hit{}, false
	}
	second := strings.Index(line[first+1:], ":")
	if second < 0 {
		return Hit{}, false
	}
	num, err := strconv.Atoi(line[first+1 : first+1+second])
	if err != nil {
		return Hit{}, false
	}
	return Hit{
		Path: line[:first],
		Line: num,
		Text: line[first+1+second+1:],
	}, true
}

func grepWalk(ctx context.Context, req GrepRequest) (Result, error) {
	re := compilePattern(req.Pattern, req.IgnoreCase)

	var globRe *regexp.Regexp
	if req.Glob != "" {
		compiled, err := TranslateGlob(req.Glob, false)
		if err != nil {
			return Result{}, harness.ValidationError{Reason: "invalid glob: " + req.Glob}
		}
		globRe = compiled
	}

	var out Result
	err := walkFiles(ctx, req.Root, func(rel, abs string) (bool, error) {
		if globRe != nil && !globMatches(globRe, rel) {
			return true, nil
		}
		data, err := readCapped(abs, maxGrepFileBytes)
		if err != nil {
			return true, nil
		}
		if bytes.IndexByte(data, 0) >= 0 {
			return true, nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if !re.MatchString(line) {
				continue
			}
			out.Total++
			if len(out.Hits) < req.MaxResults {
				out.Hits = append(out.Hits, Hit{Path: rel, Line: i + 1, Text: strings.TrimRight(line, "\r")})
			}
		}
		return true, nil
	})
	if err != nil {
		return Result{}, err
	}
	return out, nil
}

// globMatches applies a glob regexp to the relative path or, failing that,
// its basename, so `*.go` behaves the way users expect at any depth.
func globMatches(re *regexp.Regexp, rel string) bool {
	if re.MatchString(rel) {
		return true
	}
	if idx := strings.LastIndex(rel, "/"); idx >= 0 {
		return re.MatchString(rel[idx+1:])
	}
	return false
}

func readCapped(path string, limit int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, int64(limit)))
}
