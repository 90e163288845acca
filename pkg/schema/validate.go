package schema

import (
	"fmt"

	"github.com/aretw0/botflow/pkg/domain"
)

// handles lists the output handles each node kind accepts on its edges.
// Kinds not listed accept only unnamed edges.
var handles = map[domain.Kind][]string{
	domain.KindCondition:  {domain.HandleTrue, domain.HandleFalse},
	domain.KindAPIRequest: {domain.HandleSuccess, domain.HandleError},
}

// ValidateFlow checks every node payload and the graph structure.
// It returns nil or an *AggregateError listing problems in node order, then
// edge order, then flow-level problems.
func ValidateFlow(flow *domain.Flow) error {
	if flow == nil || flow.Graph == nil {
		return &AggregateError{Errors: []error{&ValidationError{Reason: "flow has no graph"}}}
	}
	g := flow.Graph

	var errs []error
	seen := make(map[string]bool)
	triggers := make(map[string]string)
	callbacks := make(map[string]string)

	for _, n := range g.Nodes() {
		if seen[n.ID] {
			errs = append(errs, &ValidationError{NodeID: n.ID, Reason: "duplicate node id"})
			continue
		}
		seen[n.ID] = true
		errs = append(errs, validatePayload(n)...)

		switch p := n.Payload.(type) {
		case domain.Command:
			if other, dup := triggers[p.Trigger]; dup && p.Trigger != "" {
				errs = append(errs, &ValidationError{NodeID: n.ID, Field: "command", Reason: fmt.Sprintf("trigger %q already used by node %q", p.Trigger, other)})
			} else {
				triggers[p.Trigger] = n.ID
			}
		case domain.Buttons:
			for i, b := range p.Buttons {
				if b.IsLink() || b.Type == domain.ButtonReply {
					continue
				}
				data := b.Data()
				if other, dup := callbacks[data]; dup {
					errs = append(errs, &ValidationError{
						NodeID: n.ID,
						Field:  fmt.Sprintf("buttons[%d].callbackData", i),
						Reason: fmt.Sprintf("callback data %q already used in node %q", data, other),
					})
				} else {
					callbacks[data] = n.ID
				}
			}
		}
	}

	for i, e := range g.Edges() {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		}
		src, ok := g.Node(e.Source)
		if !ok {
			errs = append(errs, &ValidationError{EdgeID: id, Reason: fmt.Sprintf("source %q does not exist", e.Source)})
		}
		if _, ok := g.Node(e.Target); !ok {
			errs = append(errs, &ValidationError{EdgeID: id, Reason: fmt.Sprintf("target %q does not exist", e.Target)})
		}
		if ok {
			if err := checkHandle(id, src, e.SourceHandle); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(triggers) == 0 {
		errs = append(errs, &ValidationError{Reason: "flow has no command node"})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func checkHandle(edgeID string, src domain.Node, handle string) error {
	allowed, named := handles[src.Kind()]
	if !named {
		return nil
	}
	for _, h := range allowed {
		if h == handle {
			return nil
		}
	}
	return &ValidationError{
		EdgeID: edgeID,
		Field:  "sourceHandle",
		Reason: fmt.Sprintf("%s node %q needs a handle in %v, got %q", src.Kind(), src.ID, allowed, handle),
	}
}

// Unreachable returns, in declaration order, the nodes no inbound event can
// ever reach. Entry points are Command nodes, free-text Conditions and
// Buttons (through callbacks); everything downstream of them is reachable.
func Unreachable(flow *domain.Flow) []string {
	if flow == nil || flow.Graph == nil {
		return nil
	}
	g := flow.Graph

	visited := make(map[string]bool)
	var queue []string
	for _, n := range g.Nodes() {
		switch p := n.Payload.(type) {
		case domain.Command, domain.Buttons:
			queue = append(queue, n.ID)
		case domain.Condition:
			if p.Comparison != domain.CompareCallbackEquals {
				queue = append(queue, n.ID)
			}
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, next := range g.Next(id, "") {
			if !visited[next.ID] {
				queue = append(queue, next.ID)
			}
		}
	}

	var out []string
	for _, n := range g.Nodes() {
		if !visited[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}
