package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/botflow/pkg/domain"
)

// GraphOverlay contains conversation data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string // usually the pending InputWait node
}

// GenerateMermaid produces a Mermaid flowchart for a flow.
// It applies semantic styling:
// - Command: ((Circle))
// - InputWait: [/Parallelogram/]
// - Condition: {Rhombus}
// - ApiRequest: [[Subroutine]]
// - Default: [Rectangle]
// Edges with a source handle are labelled with it.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(flow *domain.Flow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if flow == nil {
		return sb.String()
	}

	for _, node := range flow.Graph.Nodes() {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind() {
		case domain.KindCommand:
			opener, closer = "((", "))"
		case domain.KindInputWait:
			opener, closer = "[/", "/]"
		case domain.KindCondition:
			opener, closer = "{", "}"
		case domain.KindAPIRequest:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(nodeLabel(node)), closer)
	}

	for _, e := range flow.Graph.Edges() {
		arrow := "-->"
		if e.SourceHandle != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(e.SourceHandle))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// nodeLabel is the id plus the most telling field of the payload.
func nodeLabel(n domain.Node) string {
	switch p := n.Payload.(type) {
	case domain.Command:
		return p.Trigger
	case domain.InputWait:
		return fmt.Sprintf("%s <br/> {{%s}}", n.ID, p.Variable)
	case domain.Condition:
		return fmt.Sprintf("%s %s", p.Comparison, p.Value)
	case domain.Delay:
		return fmt.Sprintf("%s <br/> ⏱️ %ds", n.ID, p.Seconds)
	case domain.APIRequest:
		return fmt.Sprintf("%s %s", p.Method, p.URL)
	}
	return n.ID
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
