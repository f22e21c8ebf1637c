package search

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"toolweave/internal/harness"
)

// FindRequest lists files under Root whose relative path matches a glob. In
// fuzzy mode the pattern instead ranks paths by fuzzy match quality.
type FindRequest struct {
	Pattern    string
	Root       string
	IgnoreCase bool
	MaxResults int
	Fuzzy      bool
}

// Find resolves the file listing through the tier ladder (`rg --files`,
// then find(1), then the manual walk) and filters in-process so every tier
// yields the same Result shape.
func Find(ctx context.Context, deps Deps, req FindRequest) (Result, error) {
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.Root == "" {
		req.Root = "."
	}

	paths, clipped, err := listFiles(ctx, deps, req.Root)
	if err != nil {
		return Result{}, err
	}

	if req.Fuzzy {
		out := fuzzyRank(req, paths)
		out.Clipped = clipped
		return out, nil
	}

	globRe, err := TranslateGlob(req.Pattern, req.IgnoreCase)
	if err != nil {
		return Result{}, harness.ValidationError{Reason: "invalid glob: " + req.Pattern}
	}

	out := Result{Clipped: clipped}
	for _, rel := range paths {
		if !globMatches(globRe, rel) {
			continue
		}
		out.Total++
		if len(out.Hits) < req.MaxResults {
			out.Hits = append(out.Hits, Hit{Path: rel})
		}
	}
	return out, nil
}

func fuzzyRank(req FindRequest, paths []string) Result {
	matches := fuzzy.Find(req.Pattern, paths)
	var out Result
	for _, m := range matches {
		out.Total++
		if len(out.Hits) < req.MaxResults {
			out.Hits = append(out.Hits, Hit{Path: m.Str})
		}
	}
	return out
}

func listFiles(ctx context.Context, deps Deps, root string) ([]string, bool, error) {
	if deps.probe("rg") {
		if paths, clipped, err := listExternal(ctx, deps, root, []string{"rg", "--files", "./"}); err == nil {
			return paths, clipped, nil
		} else if harness.IsCancellation(err) {
			return nil, false, err
		}
	}
	if deps.probe("find") {
		if paths, clipped, err := listExternal(ctx, deps, root, []string{"find", ".", "-type", "f"}); err == nil {
			return paths, clipped, nil
		} else if harness.IsCancellation(err) {
			return nil, false, err
		}
	}
	paths, err := listWalk(ctx, root)
	return paths, false, err
}

func listExternal(ctx context.Context, deps Deps, root string, argv []string) ([]string, bool, error) {
	res, err := deps.Runner.Run(ctx, harness.RunSpec{
		Argv:           argv,
		Dir:            root,
		MaxOutputBytes: 1 << 20,
	})
	if err != nil {
		return nil, false, err
	}
	if res.ExitCode != 0 {
		return nil, false, harness.UpstreamError{Reason: argv[0] + " failed: " + strings.TrimSpace(res.Stderr)}
	}
	var paths []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "./")
		if line == "" {
			continue
		}
		if skipExternalPath(line) {
			continue
		}
		paths = append(paths, line)
	}
	return paths, res.TruncatedStdout, nil
}

// skipExternalPath applies the walk skip-set to find(1) output, which does
// not honor ignore files the way ripgrep does.
func skipExternalPath(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if _, skip := skipDirs[seg]; skip {
			return true
		}
	}
	return false
}

func listWalk(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := walkFiles(ctx, root, func(rel, _ string) (bool, error) {
		paths = append(paths, rel)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
