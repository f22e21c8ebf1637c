package search

import "testing"

func TestTranslateGlob(t *testing.T) {
	cases := []struct {
		glob  string
		path  string
		match bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "sub/main.go", false},
		{"**/*.go", "sub/deep/main.go", true},
		{"**/*.go", "main.go", true},
		{"sub/*.go", "sub/main.go", true},
		{"sub/*.go", "sub/deep/main.go", false},
		{"?.txt", "a.txt", true},
		{"?.txt", "ab.txt", false},
		{"[ab].txt", "a.txt", true},
		{"[ab].txt", "c.txt", false},
		{"[!ab].txt", "c.txt", true},
		{"[!ab].txt", "a.txt", false},
		{"docs/**", "docs/a/b/c.md", true},
		{"*.go", "main.rs", false},
		{"[éø].txt", "é.txt", true},
		{"[éø].txt", "a.txt", false},
		{"[éø]*.go", "ø_main.go", true},
		{"[!é].txt", "a.txt", true},
		{"[!é].txt", "é.txt", false},
	}
	for _, c := range cases {
		re, err := TranslateGlob(c.glob, false)
		if err != nil {
			t.Fatalf("TranslateGlob(%q): %v", c.glob, err)
		}
		if got := re.MatchString(c.path); got != c.match {
			t.Fatalf("glob %q against %q = %v, want %v", c.glob, c.path, got, c.match)
		}
	}
}

func TestTranslateGlobIgnoreCase(t *testing.T) {
	re, err := TranslateGlob("*.GO", true)
	if err != nil {
		t.Fatalf("TranslateGlob: %v", err)
	}
	if !re.MatchString("main.go") {
		t.Fatalf("case-insensitive glob did not match")
	}
}

func TestCompilePatternFallsBackToLiteral(t *testing.T) {
	re := compilePattern("a(b", false)
	if !re.MatchString("found a(b here") {
		t.Fatalf("broken regexp should match literally")
	}
	if re.MatchString("ab") {
		t.Fatalf("literal fallback matched too loosely")
	}
}
