package graph

import (
	"fmt"
	"strings"
)

// Mermaid renders a subgraph as a Mermaid flowchart. Node ids are sanitized
// to Mermaid-safe identifiers and labels are quoted, so arbitrary file
// paths and symbol names survive rendering.
func Mermaid(sub Subgraph) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	known := make(map[string]bool, len(sub.Nodes))
	for _, n := range sub.Nodes {
		known[n.ID] = true
		label := n.Name
		if n.Parent != "" {
			label = n.Parent + "." + n.Name
		}
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", mermaidID(n.ID), mermaidLabel(label))
	}

	for _, e := range sub.Edges {
		// Dangling targets get a node declared on the fly so the arrow
		// has somewhere to land.
		if !known[e.Target] {
			known[e.Target] = true
			fmt.Fprintf(&b, "    %s[\"%s\"]\n", mermaidID(e.Target), mermaidLabel(e.Target))
		}
		fmt.Fprintf(&b, "    %s -->|%s| %s\n", mermaidID(e.Source), e.Kind, mermaidID(e.Target))
	}
	return b.String()
}

func mermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func mermaidLabel(label string) string {
	label = strings.ReplaceAll(label, `"`, "'")
	return strings.ReplaceAll(label, "\n", " ")
}
