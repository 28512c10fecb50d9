package parser

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// rustParser parses Rust files.
type rustParser struct {
	*treeSitterParser
}

// NewRustParser creates a new Rust parser.
func NewRustParser() *rustParser {
	lang := sitter.NewLanguage(rust.Language())
	return &rustParser{
		treeSitterParser: newTreeSitterParser(lang, "rust", ".rs"),
	}
}

// Parse parses a Rust source file.
func (p *rustParser) Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	return p.parse(ctx, filePath, source, p.extract)
}

func (p *rustParser) extract(root *sitter.Node, src []byte, res *ParseResult) {
	lines := strings.Split(string(src), "\n")
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		switch child.Kind() {
		case "use_declaration":
			p.extractUse(child, src, res)
		case "function_item":
			p.extractFunction(child, src, lines, res, "")
		case "struct_item":
			p.addItem(child, src, lines, res, SymbolClass)
		case "enum_item":
			p.addItem(child, src, lines, res, SymbolEnum)
		case "trait_item":
			p.addItem(child, src, lines, res, SymbolInterface)
		case "type_item":
			p.addItem(child, src, lines, res, SymbolTypeAlias)
		case "impl_item":
			p.extractImpl(child, src, lines, res)
		case "const_item", "static_item":
			p.addItem(child, src, lines, res, SymbolConstant)
		}
	}
}

func (p *rustParser) extractUse(node *sitter.Node, src []byte, res *ParseResult) {
	text := collapseWhitespace(nodeText(node, src))
	text = strings.TrimSuffix(strings.TrimPrefix(text, "use "), ";")
	// Grouped and aliased use trees are recorded whole; only the trailing
	// segment is resolvable anyway.
	name := lastSegment(strings.TrimSuffix(text, "::*"))
	name = strings.Trim(name, "{}")
	if name == "" || name == "*" {
		return
	}
	res.Imports = append(res.Imports, text)
	sym := Symbol{
		Name:      name,
		Kind:      SymbolImport,
		StartLine: nodeLine(node),
		EndLine:   nodeEndLine(node),
	}
	res.Symbols = append(res.Symbols, sym)
	res.References = append(res.References, Reference{
		SourceSymbol: sym.Name,
		TargetName:   name,
		Kind:         RefImports,
		Confidence:   ConfidenceImport,
		Line:         nodeLine(node),
	})
}

// addItem records a named item with its doc comment.
func (p *rustParser) addItem(node *sitter.Node, src []byte, lines []string, res *ParseResult, kind SymbolKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	res.Symbols = append(res.Symbols, Symbol{
		Name:      nodeText(nameNode, src),
		Kind:      kind,
		StartLine: nodeLine(node),
		EndLine:   nodeEndLine(node),
		Docstring: docCommentAbove(lines, nodeLine(node)),
	})
}

func (p *rustParser) extractFunction(node *sitter.Node, src []byte, lines []string, res *ParseResult, parent string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, src)

	kind := SymbolFunction
	if parent != "" {
		kind = SymbolMethod
	}
	sym := Symbol{
		Name:      name,
		Kind:      kind,
		StartLine: nodeLine(node),
		EndLine:   nodeEndLine(node),
		Docstring: docCommentAbove(lines, nodeLine(node)),
		Signature: p.signature(node, src, parent),
		Parent:    parent,
	}
	res.Symbols = append(res.Symbols, sym)

	if body := node.ChildByFieldName("body"); body != nil {
		p.extractCalls(body, src, res, sym.QualifiedName())
	}
}

// extractImpl extracts methods of an impl block, qualified by the impl type.
func (p *rustParser) extractImpl(node *sitter.Node, src []byte, lines []string, res *ParseResult) {
	typeName := lastSegment(nodeText(node.ChildByFieldName("type"), src))
	// Strip generic arguments from the impl type.
	if i := strings.IndexByte(typeName, '<'); i >= 0 {
		typeName = typeName[:i]
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for _, fn := range findChildrenByKind(body, "function_item") {
		p.extractFunction(fn, src, lines, res, typeName)
	}

	// "impl Trait for Type" records Type inherits Trait.
	if traitNode := node.ChildByFieldName("trait"); traitNode != nil && typeName != "" {
		res.References = append(res.References, Reference{
			SourceSymbol: typeName,
			TargetName:   lastSegment(nodeText(traitNode, src)),
			Kind:         RefInherits,
			Confidence:   ConfidenceInheritance,
			Line:         nodeLine(node),
		})
	}
}

func (p *rustParser) extractCalls(body *sitter.Node, src []byte, res *ParseResult, sourceSymbol string) {
	walkTree(body, func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return true
		}

		switch fn.Kind() {
		case "identifier":
			res.References = append(res.References, Reference{
				SourceSymbol: sourceSymbol,
				TargetName:   nodeText(fn, src),
				Kind:         RefCalls,
				Confidence:   ConfidenceDirectCall,
				Line:         nodeLine(n),
			})
		case "field_expression":
			name := nodeText(fn.ChildByFieldName("field"), src)
			if name == "" {
				return true
			}
			res.References = append(res.References, Reference{
				SourceSymbol: sourceSymbol,
				TargetName:   name,
				Kind:         RefCalls,
				Confidence:   ConfidenceAttributeCall,
				Line:         nodeLine(n),
			})
		case "scoped_identifier":
			// Type::new(...) is the Rust instantiation idiom.
			text := nodeText(fn, src)
			segments := strings.Split(text, "::")
			name := segments[len(segments)-1]
			if name == "new" && len(segments) > 1 {
				res.References = append(res.References, Reference{
					SourceSymbol: sourceSymbol,
					TargetName:   segments[len(segments)-2],
					Kind:         RefInstantiates,
					Confidence:   ConfidenceInstantiation,
					Line:         nodeLine(n),
				})
			} else {
				res.References = append(res.References, Reference{
					SourceSymbol: sourceSymbol,
					TargetName:   name,
					Kind:         RefCalls,
					Confidence:   ConfidenceAttributeCall,
					Line:         nodeLine(n),
				})
			}
		}
		return true
	})
}

func (p *rustParser) signature(node *sitter.Node, src []byte, parent string) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	sig := "fn "
	if parent != "" {
		sig = parent + "::"
	}
	sig += nodeText(nameNode, src)
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig += collapseWhitespace(nodeText(params, src))
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig += " -> " + collapseWhitespace(nodeText(ret, src))
	}
	return sig
}

// docCommentAbove collects the /// block immediately above a 1-indexed line.
func docCommentAbove(lines []string, startLine int) string {
	var doc []string
	for i := startLine - 2; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "///") {
			doc = append([]string{strings.TrimSpace(strings.TrimPrefix(trimmed, "///"))}, doc...)
			continue
		}
		if strings.HasPrefix(trimmed, "#[") || trimmed == "" {
			continue // attributes and blank lines between doc and item
		}
		break
	}
	return strings.TrimSpace(strings.Join(doc, "\n"))
}
