package parser

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// typeScriptParser parses TypeScript and JavaScript-flavored files.
type typeScriptParser struct {
	*treeSitterParser
}

// NewTypeScriptParser creates a parser for .ts/.js/.mjs files.
func NewTypeScriptParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "typescript", ".ts", ".js", ".mjs", ".cjs"),
	}
}

// NewTSXParser creates a parser for .tsx/.jsx files using the TSX grammar.
func NewTSXParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTSX())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "tsx", ".tsx", ".jsx"),
	}
}

// Parse parses a TypeScript source file.
func (p *typeScriptParser) Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	return p.parse(ctx, filePath, source, p.extract)
}

func (p *typeScriptParser) extract(root *sitter.Node, src []byte, res *ParseResult) {
	for i := 0; i < int(root.ChildCount()); i++ {
		p.extractTopLevel(root.Child(uint(i)), src, res, false)
	}
}

func (p *typeScriptParser) extractTopLevel(node *sitter.Node, src []byte, res *ParseResult, exported bool) {
	switch node.Kind() {
	case "import_statement":
		p.extractImport(node, src, res)
	case "export_statement":
		// Unwrap and mark the inner declaration as exported.
		for i := 0; i < int(node.ChildCount()); i++ {
			p.extractTopLevel(node.Child(uint(i)), src, res, true)
		}
	case "function_declaration", "generator_function_declaration":
		p.extractFunction(node, src, res, "", exported)
	case "class_declaration":
		p.extractClass(node, src, res, exported)
	case "interface_declaration":
		p.addSimpleSymbol(node, src, res, SymbolInterface, exported)
	case "type_alias_declaration":
		p.addSimpleSymbol(node, src, res, SymbolTypeAlias, exported)
	case "enum_declaration":
		p.addSimpleSymbol(node, src, res, SymbolEnum, exported)
	case "lexical_declaration", "variable_declaration":
		p.extractLexical(node, src, res, exported)
	}
}

// addSimpleSymbol records a named declaration such as an interface,
// type alias, or enum.
func (p *typeScriptParser) addSimpleSymbol(node *sitter.Node, src []byte, res *ParseResult, kind SymbolKind, exported bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, src)
	res.Symbols = append(res.Symbols, Symbol{
		Name:      name,
		Kind:      kind,
		StartLine: nodeLine(node),
		EndLine:   nodeEndLine(node),
	})
	if exported {
		res.Exports = append(res.Exports, name)
	}
}

func (p *typeScriptParser) extractImport(node *sitter.Node, src []byte, res *ParseResult) {
	line := nodeLine(node)

	addNamed := func(name string) {
		if name == "" {
			return
		}
		res.Imports = append(res.Imports, name)
		sym := Symbol{
			Name:      name,
			Kind:      SymbolImport,
			StartLine: line,
			EndLine:   nodeEndLine(node),
		}
		res.Symbols = append(res.Symbols, sym)
		res.References = append(res.References, Reference{
			SourceSymbol: name,
			TargetName:   name,
			Kind:         RefImports,
			Confidence:   ConfidenceImport,
			Line:         line,
		})
	}

	clause := findChildByKind(node, "import_clause")
	if clause == nil {
		return
	}
	// Default import: identifier directly under the clause.
	if ident := findChildByKind(clause, "identifier"); ident != nil {
		addNamed(nodeText(ident, src))
	}
	// Named imports: { a, b as c }.
	if named := findChildByKind(clause, "named_imports"); named != nil {
		for _, spec := range findChildrenByKind(named, "import_specifier") {
			name := nodeText(spec.ChildByFieldName("name"), src)
			addNamed(name)
		}
	}
}

func (p *typeScriptParser) extractClass(node *sitter.Node, src []byte, res *ParseResult, exported bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, src)

	sym := Symbol{
		Name:      name,
		Kind:      SymbolClass,
		StartLine: nodeLine(node),
		EndLine:   nodeEndLine(node),
	}
	res.Symbols = append(res.Symbols, sym)
	if exported {
		res.Exports = append(res.Exports, name)
	}

	// extends clause -> inherits reference.
	if heritage := findChildByKind(node, "class_heritage"); heritage != nil {
		walkTree(heritage, func(n *sitter.Node) bool {
			if n.Kind() == "identifier" {
				res.References = append(res.References, Reference{
					SourceSymbol: name,
					TargetName:   nodeText(n, src),
					Kind:         RefInherits,
					Confidence:   ConfidenceInheritance,
					Line:         nodeLine(n),
				})
				return false
			}
			return true
		})
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for _, method := range findChildrenByKind(body, "method_definition") {
			p.extractMethod(method, src, res, name)
		}
	}
}

func (p *typeScriptParser) extractMethod(node *sitter.Node, src []byte, res *ParseResult, className string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, src)

	sym := Symbol{
		Name:      name,
		Kind:      SymbolMethod,
		StartLine: nodeLine(node),
		EndLine:   nodeEndLine(node),
		Signature: p.signature(node, src, className),
		Parent:    className,
	}
	res.Symbols = append(res.Symbols, sym)

	if body := node.ChildByFieldName("body"); body != nil {
		p.extractCalls(body, src, res, sym.QualifiedName())
	}
}

func (p *typeScriptParser) extractFunction(node *sitter.Node, src []byte, res *ParseResult, parent string, exported bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, src)

	sym := Symbol{
		Name:      name,
		Kind:      SymbolFunction,
		StartLine: nodeLine(node),
		EndLine:   nodeEndLine(node),
		Signature: p.signature(node, src, parent),
		Parent:    parent,
	}
	res.Symbols = append(res.Symbols, sym)
	if exported {
		res.Exports = append(res.Exports, name)
	}

	if body := node.ChildByFieldName("body"); body != nil {
		p.extractCalls(body, src, res, sym.QualifiedName())
	}
}

// extractLexical handles "const f = () => {...}" style declarations, the
// dominant function form in modern TypeScript.
func (p *typeScriptParser) extractLexical(node *sitter.Node, src []byte, res *ParseResult, exported bool) {
	for _, decl := range findChildrenByKind(node, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, src)

		if value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression") {
			sym := Symbol{
				Name:      name,
				Kind:      SymbolFunction,
				StartLine: nodeLine(node),
				EndLine:   nodeEndLine(node),
				Signature: name + collapseWhitespace(nodeText(value.ChildByFieldName("parameters"), src)),
			}
			res.Symbols = append(res.Symbols, sym)
			if exported {
				res.Exports = append(res.Exports, name)
			}
			if body := value.ChildByFieldName("body"); body != nil {
				p.extractCalls(body, src, res, name)
			}
			continue
		}

		kind := SymbolVariable
		if strings.HasPrefix(collapseWhitespace(nodeText(node, src)), "const ") && strings.ToUpper(name) == name {
			kind = SymbolConstant
		}
		res.Symbols = append(res.Symbols, Symbol{
			Name:      name,
			Kind:      kind,
			StartLine: nodeLine(node),
			EndLine:   nodeEndLine(node),
		})
		if exported {
			res.Exports = append(res.Exports, name)
		}
	}
}

func (p *typeScriptParser) extractCalls(body *sitter.Node, src []byte, res *ParseResult, sourceSymbol string) {
	walkTree(body, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return true
			}
			var name string
			confidence := ConfidenceDirectCall
			switch fn.Kind() {
			case "identifier":
				name = nodeText(fn, src)
			case "member_expression":
				name = nodeText(fn.ChildByFieldName("property"), src)
				confidence = ConfidenceAttributeCall
			default:
				return true
			}
			if name == "" {
				return true
			}
			res.References = append(res.References, Reference{
				SourceSymbol: sourceSymbol,
				TargetName:   name,
				Kind:         RefCalls,
				Confidence:   confidence,
				Line:         nodeLine(n),
			})
		case "new_expression":
			ctor := n.ChildByFieldName("constructor")
			if ctor == nil || ctor.Kind() != "identifier" {
				return true
			}
			res.References = append(res.References, Reference{
				SourceSymbol: sourceSymbol,
				TargetName:   nodeText(ctor, src),
				Kind:         RefInstantiates,
				Confidence:   ConfidenceInstantiation,
				Line:         nodeLine(n),
			})
		}
		return true
	})
}

func (p *typeScriptParser) signature(node *sitter.Node, src []byte, parent string) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	sig := ""
	if parent != "" {
		sig = parent + "."
	}
	sig += nodeText(nameNode, src)
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig += collapseWhitespace(nodeText(params, src))
	} else {
		sig += "()"
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig += collapseWhitespace(nodeText(ret, src))
	}
	return sig
}
