package parser

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterParser holds the pieces shared by all tree-sitter based parsers.
type treeSitterParser struct {
	language   *sitter.Language
	lang       string
	extensions []string
	decorators *DecoratorRegistry
}

func newTreeSitterParser(language *sitter.Language, lang string, extensions ...string) *treeSitterParser {
	return &treeSitterParser{
		language:   language,
		lang:       lang,
		extensions: extensions,
		decorators: DefaultDecoratorRegistry(),
	}
}

func (p *treeSitterParser) Language() string     { return p.lang }
func (p *treeSitterParser) Extensions() []string { return p.extensions }

// parse runs tree-sitter over the source and hands the root to extract.
// A nil tree or an inner panic is reported as a *ParseError.
func (p *treeSitterParser) parse(
	ctx context.Context,
	filePath string,
	source []byte,
	extract func(root *sitter.Node, src []byte, res *ParseResult),
) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ParseError{FilePath: filePath, Reason: err.Error()}
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{FilePath: filePath, Reason: "syntax error: tree-sitter produced no tree"}
	}
	defer tree.Close()

	res := &ParseResult{
		FilePath: filePath,
		Language: p.lang,
	}
	extract(tree.RootNode(), source, res)
	return res, nil
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// nodeLine returns the 1-indexed start line of a node.
func nodeLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// nodeEndLine returns the 1-indexed end line of a node.
func nodeEndLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// walkTree recursively visits every node. Returning false from the visitor
// prunes the subtree.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// findChildByKind finds the first direct child of the given kind.
func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// findChildrenByKind finds all direct children of the given kind.
func findChildrenByKind(node *sitter.Node, kind string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			results = append(results, child)
		}
	}
	return results
}

// lastSegment returns the final identifier of a dotted or :: separated path.
func lastSegment(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// isCapitalized reports whether the name starts with an uppercase letter,
// the instantiation heuristic for Python and TypeScript.
func isCapitalized(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

// collapseWhitespace squeezes runs of whitespace into single spaces so that
// multi-line signatures and decorators compare stably.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
