package parser

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
)

// fallbackParser handles files with no language-aware parser. It scans
// doc-comment conventions only: a leading comment block becomes the file
// synopsis, a Rust-style "Examples" heading is noted, and a handful of
// cross-language declaration shapes are picked up by regex.
type fallbackParser struct {
	declRe *regexp.Regexp
}

// NewFallbackParser creates the doc-comment fallback parser.
func NewFallbackParser() *fallbackParser {
	return &fallbackParser{
		declRe: regexp.MustCompile(`^\s*(?:pub\s+|export\s+|async\s+)*(func|fn|function|def|class|struct|trait|interface|module)\s+([A-Za-z_]\w*)`),
	}
}

func (p *fallbackParser) Language() string     { return "unknown" }
func (p *fallbackParser) Extensions() []string { return nil }

var commentPrefixes = []string{"///", "//!", "//", "#", "--", ";;", "*"}

// examplesRe matches a Rust-style Examples heading inside a doc comment.
var examplesRe = regexp.MustCompile(`(?i)^#+\s*examples?\b|^examples?:\s*$`)

// Parse never fails: an unreadable structure just yields fewer symbols.
func (p *fallbackParser) Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ParseError{FilePath: filePath, Reason: err.Error()}
	}

	lines := strings.Split(string(source), "\n")
	res := &ParseResult{
		FilePath: filePath,
		Language: "unknown",
	}

	synopsis, hasExamples := p.leadingSynopsis(lines)
	if synopsis != "" {
		name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		sym := Symbol{
			Name:      name,
			Kind:      SymbolVariable,
			StartLine: 1,
			EndLine:   len(lines),
			Docstring: synopsis,
		}
		if hasExamples {
			sym.Signature = "examples"
		}
		res.Symbols = append(res.Symbols, sym)
	}

	for i, line := range lines {
		m := p.declRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind := SymbolFunction
		switch m[1] {
		case "class", "struct":
			kind = SymbolClass
		case "trait", "interface":
			kind = SymbolInterface
		case "module":
			kind = SymbolVariable
		}
		res.Symbols = append(res.Symbols, Symbol{
			Name:      m[2],
			Kind:      kind,
			StartLine: i + 1,
			EndLine:   i + 1,
		})
	}

	return res, nil
}

// leadingSynopsis collects the comment block at the top of the file.
func (p *fallbackParser) leadingSynopsis(lines []string) (string, bool) {
	var doc []string
	hasExamples := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" && len(doc) == 0 {
			continue
		}
		stripped, ok := stripCommentPrefix(trimmed)
		if !ok {
			break
		}
		if examplesRe.MatchString(stripped) {
			hasExamples = true
		}
		doc = append(doc, stripped)
	}
	return strings.TrimSpace(strings.Join(doc, "\n")), hasExamples
}

func stripCommentPrefix(line string) (string, bool) {
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	// Block comment delimiters.
	if strings.HasPrefix(line, "/*") {
		return strings.TrimSpace(strings.Trim(line, "/*")), true
	}
	if strings.HasSuffix(line, "*/") {
		return strings.TrimSpace(strings.TrimSuffix(line, "*/")), true
	}
	return "", false
}
