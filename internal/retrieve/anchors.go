package retrieve

import (
	"regexp"
	"strings"
)

// ErrorAnchors are the concrete leads extracted from a diagnostic query:
// exception type names, quoted message substrings, and file references
// from stack-trace-like text.
type ErrorAnchors struct {
	Exceptions   []string
	ErrorStrings []string
	Files        []string
}

// Empty reports whether no anchor of any kind was found.
func (a ErrorAnchors) Empty() bool {
	return len(a.Exceptions) == 0 && len(a.ErrorStrings) == 0 && len(a.Files) == 0
}

var (
	exceptionRe = regexp.MustCompile(`\b([A-Z][A-Za-z0-9]*(?:Error|Exception))\b`)
	quotedRe    = regexp.MustCompile(`["']([^"']{4,120})["']`)
	// "File "app/auth.py", line 42" and bare "app/auth.py:42" forms.
	traceFileRe = regexp.MustCompile(`File "([^"]+)", line \d+`)
	pathLineRe  = regexp.MustCompile(`\b([\w./-]+\.\w{1,4}):\d+\b`)
	pathLikeRe  = regexp.MustCompile(`^[\w./-]+\.\w{1,4}$`)
)

// ExtractErrorAnchors pulls error anchors out of free text. Duplicates are
// removed; order follows first appearance.
func ExtractErrorAnchors(query string) ErrorAnchors {
	var a ErrorAnchors

	a.Exceptions = dedupeMatches(exceptionRe.FindAllStringSubmatch(query, -1))

	for _, m := range quotedRe.FindAllStringSubmatch(query, -1) {
		s := strings.TrimSpace(m[1])
		if s == "" {
			continue
		}
		// Quoted exception names and quoted file paths (stack-trace File
		// clauses) are covered by the other anchor kinds.
		if len(strings.Fields(s)) == 1 && (exceptionRe.MatchString(s) || pathLikeRe.MatchString(s)) {
			continue
		}
		a.ErrorStrings = appendUnique(a.ErrorStrings, s)
	}

	for _, m := range traceFileRe.FindAllStringSubmatch(query, -1) {
		a.Files = appendUnique(a.Files, m[1])
	}
	for _, m := range pathLineRe.FindAllStringSubmatch(query, -1) {
		a.Files = appendUnique(a.Files, m[1])
	}

	return a
}

func dedupeMatches(matches [][]string) []string {
	var out []string
	for _, m := range matches {
		out = appendUnique(out, m[1])
	}
	return out
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
