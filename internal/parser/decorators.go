package parser

import (
	"regexp"
	"strings"
)

// DecoratorPattern maps framework decorator usage to entry-point metadata
// and extra type references. Matching rule: the decorator name must match
// NamePattern, and either ObjectPattern is nil or the decorator has an
// object name that matches it. Bare decorators (no object) only match
// patterns with a nil ObjectPattern.
type DecoratorPattern struct {
	Name          string
	NamePattern   *regexp.Regexp
	ObjectPattern *regexp.Regexp

	// MarksEntryPoint flags the decorated symbol as externally invoked.
	MarksEntryPoint bool

	// Kind overrides the decorated symbol's kind when non-empty
	// (route, cli-command).
	Kind SymbolKind

	// TypeArgKeys names keyword arguments whose values denote a type;
	// each produces an additional instantiates reference.
	TypeArgKeys []string

	// HTTPMethod is recorded on the symbol metadata when non-empty.
	// "*" means the decorator name itself is the verb.
	HTTPMethod string
}

// Matches applies the pattern matching rule to a decorator usage.
func (p *DecoratorPattern) Matches(object, name string) bool {
	if !p.NamePattern.MatchString(name) {
		return false
	}
	if p.ObjectPattern == nil {
		return true
	}
	return object != "" && p.ObjectPattern.MatchString(object)
}

// DecoratorRegistry is a declarative table of decorator patterns matched
// at parse time.
type DecoratorRegistry struct {
	patterns []DecoratorPattern
}

// DefaultDecoratorRegistry covers the common Python web/CLI frameworks.
func DefaultDecoratorRegistry() *DecoratorRegistry {
	return &DecoratorRegistry{patterns: []DecoratorPattern{
		{
			Name:            "http-verb",
			NamePattern:     regexp.MustCompile(`^(get|post|put|delete|patch|head|options)$`),
			ObjectPattern:   regexp.MustCompile(`^(app|router|api|blueprint|bp)$`),
			MarksEntryPoint: true,
			Kind:            SymbolRoute,
			TypeArgKeys:     []string{"response_model", "response_class"},
			HTTPMethod:      "*",
		},
		{
			Name:            "route",
			NamePattern:     regexp.MustCompile(`^route$`),
			ObjectPattern:   regexp.MustCompile(`^(app|router|api|blueprint|bp)$`),
			MarksEntryPoint: true,
			Kind:            SymbolRoute,
			TypeArgKeys:     []string{"response_model"},
		},
		{
			Name:            "cli-command",
			NamePattern:     regexp.MustCompile(`^(command|group)$`),
			ObjectPattern:   regexp.MustCompile(`^(click|cli|app|typer)$`),
			MarksEntryPoint: true,
			Kind:            SymbolCLICommand,
		},
		{
			Name:            "task",
			NamePattern:     regexp.MustCompile(`^(task|shared_task)$`),
			MarksEntryPoint: true,
		},
		{
			Name:        "event-handler",
			NamePattern: regexp.MustCompile(`^on_event$`),
			ObjectPattern: regexp.MustCompile(
				`^(app|router)$`),
			MarksEntryPoint: true,
		},
	}}
}

// decoratorCallRe splits "object.name(args)" decorator text. Group 1 is the
// optional object chain, group 2 the decorator name, group 3 the argument
// text (empty for bare decorators).
var decoratorCallRe = regexp.MustCompile(`^@?\s*(?:([\w.]+)\.)?(\w+)\s*(?:\((.*)\))?\s*$`)

// kwargRe extracts keyword arguments whose value is a bare identifier
// (a type name), e.g. response_model=UserOut.
var kwargRe = regexp.MustCompile(`(\w+)\s*=\s*([A-Za-z_]\w*)`)

// routeArgRe extracts the first quoted positional argument (the path).
var routeArgRe = regexp.MustCompile(`^\s*['"]([^'"]*)['"]`)

// DecoratorEffect is what applying the registry to one decorator yields.
type DecoratorEffect struct {
	Matched     bool
	EntryPoint  bool
	Kind        SymbolKind
	HTTPMethod  string
	Route       string
	TypeRefs    []string // type names from recognized keyword arguments
	DecoratorID string   // pattern name that matched
}

// Apply matches raw decorator text (without leading @, multi-line collapsed)
// against the registry and reports the combined effect of the first match.
func (r *DecoratorRegistry) Apply(raw string) DecoratorEffect {
	m := decoratorCallRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return DecoratorEffect{}
	}
	object, name, args := m[1], m[2], m[3]
	// Only the last segment of a dotted object chain participates in
	// matching (fastapi routers are usually bound to a local name).
	if i := strings.LastIndex(object, "."); i >= 0 {
		object = object[i+1:]
	}

	for i := range r.patterns {
		p := &r.patterns[i]
		if !p.Matches(object, name) {
			continue
		}
		eff := DecoratorEffect{
			Matched:     true,
			EntryPoint:  p.MarksEntryPoint,
			Kind:        p.Kind,
			DecoratorID: p.Name,
		}
		if p.HTTPMethod == "*" {
			eff.HTTPMethod = strings.ToUpper(name)
		} else {
			eff.HTTPMethod = p.HTTPMethod
		}
		if rm := routeArgRe.FindStringSubmatch(args); rm != nil {
			eff.Route = rm[1]
		}
		if len(p.TypeArgKeys) > 0 {
			for _, kw := range kwargRe.FindAllStringSubmatch(args, -1) {
				for _, key := range p.TypeArgKeys {
					if kw[1] == key {
						eff.TypeRefs = append(eff.TypeRefs, kw[2])
					}
				}
			}
		}
		return eff
	}
	return DecoratorEffect{}
}
