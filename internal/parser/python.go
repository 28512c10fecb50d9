package parser

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// pythonParser parses Python files.
type pythonParser struct {
	*treeSitterParser
}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *pythonParser {
	lang := sitter.NewLanguage(python.Language())
	return &pythonParser{
		treeSitterParser: newTreeSitterParser(lang, "python", ".py", ".pyi"),
	}
}

// Parse parses a Python source file.
func (p *pythonParser) Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	return p.parse(ctx, filePath, source, p.extract)
}

func (p *pythonParser) extract(root *sitter.Node, src []byte, res *ParseResult) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		switch child.Kind() {
		case "import_statement", "import_from_statement":
			p.extractImport(child, src, res)
		case "class_definition":
			p.extractClass(child, src, res, nil)
		case "function_definition":
			p.extractFunction(child, src, res, "", nil)
		case "decorated_definition":
			p.extractDecorated(child, src, res, "")
		}
	}
}

// extractImport records both the import symbols and an imports reference per
// imported name. From-imports target the imported member so the resolver can
// link cross-file imports; plain imports usually stay dangling (external).
func (p *pythonParser) extractImport(node *sitter.Node, src []byte, res *ParseResult) {
	line := nodeLine(node)

	addImport := func(name string) {
		if name == "" {
			return
		}
		res.Imports = append(res.Imports, name)
		sym := Symbol{
			Name:      lastSegment(name),
			Kind:      SymbolImport,
			StartLine: line,
			EndLine:   nodeEndLine(node),
		}
		res.Symbols = append(res.Symbols, sym)
		res.References = append(res.References, Reference{
			SourceSymbol: sym.Name,
			TargetName:   lastSegment(name),
			Kind:         RefImports,
			Confidence:   ConfidenceImport,
			Line:         line,
		})
	}

	switch node.Kind() {
	case "import_statement":
		for _, dotted := range findChildrenByKind(node, "dotted_name") {
			addImport(nodeText(dotted, src))
		}
		for _, aliased := range findChildrenByKind(node, "aliased_import") {
			addImport(nodeText(findChildByKind(aliased, "dotted_name"), src))
		}
	case "import_from_statement":
		// "from a.b import x, y" - the dotted names after the module
		// name are the imported members.
		names := findChildrenByKind(node, "dotted_name")
		for i, n := range names {
			if i == 0 {
				continue // module path
			}
			addImport(nodeText(n, src))
		}
		for _, aliased := range findChildrenByKind(node, "aliased_import") {
			addImport(nodeText(findChildByKind(aliased, "dotted_name"), src))
		}
	}
}

// extractDecorated handles a decorated_definition: applies the decorator
// registry, then extracts the wrapped class or function with the decorator
// effects attached.
func (p *pythonParser) extractDecorated(node *sitter.Node, src []byte, res *ParseResult, parent string) {
	var decorators []string
	for _, dec := range findChildrenByKind(node, "decorator") {
		text := strings.TrimPrefix(collapseWhitespace(nodeText(dec, src)), "@")
		decorators = append(decorators, text)
	}

	if def := findChildByKind(node, "class_definition"); def != nil {
		p.extractClass(def, src, res, decorators)
		return
	}
	if def := findChildByKind(node, "function_definition"); def != nil {
		p.extractFunction(def, src, res, parent, decorators)
	}
}

func (p *pythonParser) extractClass(node *sitter.Node, src []byte, res *ParseResult, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, src)

	sym := Symbol{
		Name:       name,
		Kind:       SymbolClass,
		StartLine:  nodeLine(node),
		EndLine:    nodeEndLine(node),
		Docstring:  p.docstring(node.ChildByFieldName("body"), src),
		Decorators: decorators,
	}
	p.applyDecorators(&sym, res)
	res.Symbols = append(res.Symbols, sym)

	// Base classes become inherits references.
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.ChildCount()); i++ {
			base := supers.Child(uint(i))
			kind := base.Kind()
			if kind != "identifier" && kind != "attribute" {
				continue
			}
			res.References = append(res.References, Reference{
				SourceSymbol: name,
				TargetName:   lastSegment(nodeText(base, src)),
				Kind:         RefInherits,
				Confidence:   ConfidenceInheritance,
				Line:         nodeLine(base),
			})
		}
	}

	// Methods.
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(uint(i))
			switch child.Kind() {
			case "function_definition":
				p.extractFunction(child, src, res, name, nil)
			case "decorated_definition":
				p.extractDecorated(child, src, res, name)
			}
		}
	}
}

func (p *pythonParser) extractFunction(node *sitter.Node, src []byte, res *ParseResult, parent string, decorators []string) {
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
		Name:       name,
		Kind:       kind,
		StartLine:  nodeLine(node),
		EndLine:    nodeEndLine(node),
		Docstring:  p.docstring(node.ChildByFieldName("body"), src),
		Signature:  p.signature(node, src, parent),
		Parent:     parent,
		Decorators: decorators,
	}
	p.applyDecorators(&sym, res)
	res.Symbols = append(res.Symbols, sym)

	if body := node.ChildByFieldName("body"); body != nil {
		p.extractCalls(body, src, res, sym.QualifiedName())
	}
}

// applyDecorators runs the registry over the symbol's decorators, flagging
// entry points and emitting type references for recognized arguments.
func (p *pythonParser) applyDecorators(sym *Symbol, res *ParseResult) {
	for _, raw := range sym.Decorators {
		eff := p.decorators.Apply(raw)
		if !eff.Matched {
			continue
		}
		if eff.EntryPoint {
			sym.Meta.IsEntryPoint = true
		}
		if eff.Kind != "" {
			sym.Kind = eff.Kind
		}
		if eff.HTTPMethod != "" {
			sym.Meta.HTTPMethod = eff.HTTPMethod
		}
		if eff.Route != "" {
			sym.Meta.Route = eff.Route
		}
		for _, typeName := range eff.TypeRefs {
			res.References = append(res.References, Reference{
				SourceSymbol: sym.QualifiedName(),
				TargetName:   typeName,
				Kind:         RefInstantiates,
				Confidence:   ConfidenceDecoratorRef,
				Line:         sym.StartLine,
			})
		}
	}
}

// extractCalls walks a function body collecting call references. Nested
// function definitions are attributed to the enclosing symbol.
func (p *pythonParser) extractCalls(body *sitter.Node, src []byte, res *ParseResult, sourceSymbol string) {
	walkTree(body, func(n *sitter.Node) bool {
		if n.Kind() != "call" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return true
		}

		var name string
		confidence := ConfidenceDirectCall
		switch fn.Kind() {
		case "identifier":
			name = nodeText(fn, src)
		case "attribute":
			name = nodeText(fn.ChildByFieldName("attribute"), src)
			confidence = ConfidenceAttributeCall
		default:
			return true
		}
		if name == "" {
			return true
		}

		kind := RefCalls
		if isCapitalized(name) {
			kind = RefInstantiates
			confidence = ConfidenceInstantiation
		}
		res.References = append(res.References, Reference{
			SourceSymbol: sourceSymbol,
			TargetName:   name,
			Kind:         kind,
			Confidence:   confidence,
			Line:         nodeLine(n),
		})
		return true
	})
}

// docstring returns the leading string literal of a block, if any.
func (p *pythonParser) docstring(body *sitter.Node, src []byte) string {
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Kind() != "expression_statement" {
		return ""
	}
	str := findChildByKind(first, "string")
	if str == nil {
		return ""
	}
	text := nodeText(str, src)
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}

// signature renders "Class.name(params) -> ret" from the definition node.
func (p *pythonParser) signature(node *sitter.Node, src []byte, parent string) string {
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
		sig += " -> " + nodeText(ret, src)
	}
	return sig
}
