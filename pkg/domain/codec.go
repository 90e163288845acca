package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/botflow/internal/xjson"
	"github.com/mitchellh/mapstructure"
)

// NodeSpec is the wire form of a node, as exported by the flow editor.
type NodeSpec struct {
	ID   string         `json:"id" yaml:"id"`
	Type string         `json:"type" yaml:"type"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// FlowSpec is the wire form of a flow (the editor's export document).
type FlowSpec struct {
	Version    string     `json:"version,omitempty" yaml:"version,omitempty"`
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes      []NodeSpec `json:"nodes" yaml:"nodes"`
	Edges      []Edge     `json:"edges" yaml:"edges"`
	ExportedAt string     `json:"exportedAt,omitempty" yaml:"exportedAt,omitempty"`
}

// Build decodes every node and returns the flow.
// Nodes with malformed payloads are kept with whatever fields could be
// decoded (missing fields fall back to defaults); nodes without an id are
// dropped. Each such problem is reported in warnings.
func (s FlowSpec) Build(id string) (*Flow, []error) {
	var warnings []error
	nodes := make([]Node, 0, len(s.Nodes))
	for i, spec := range s.Nodes {
		n, err := DecodeNode(spec)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("nodes[%d]: %w", i, err))
			if errors.Is(err, ErrMissingNodeID) {
				continue
			}
		}
		nodes = append(nodes, n)
	}
	edges := make([]Edge, len(s.Edges))
	copy(edges, s.Edges)

	return &Flow{
		ID:      id,
		Name:    s.Name,
		Version: s.Version,
		Graph:   NewGraph(nodes, edges),
	}, warnings
}

// Spec converts the flow back to its wire form.
func (f *Flow) Spec() FlowSpec {
	spec := FlowSpec{Name: f.Name, Version: f.Version}
	for _, n := range f.Graph.Nodes() {
		spec.Nodes = append(spec.Nodes, EncodeNode(n))
	}
	spec.Edges = append(spec.Edges, f.Graph.Edges()...)
	return spec
}

// ErrMissingNodeID is reported for node specs without an id.
var ErrMissingNodeID = errors.New("node missing id")

// DecodeNode converts a wire node into a typed node.
// When the payload is partially malformed the returned node is still usable
// and err describes what could not be decoded.
func DecodeNode(spec NodeSpec) (Node, error) {
	if spec.ID == "" {
		return Node{}, ErrMissingNodeID
	}

	var (
		payload Payload
		err     error
	)
	switch Kind(spec.Type) {
	case KindCommand:
		p := Command{}
		err = decodeData(spec.Data, &p)
		p.Trigger = strings.TrimSpace(p.Trigger)
		payload = p
	case KindMessage:
		p := Message{}
		err = decodeData(spec.Data, &p)
		payload = p
	case KindButtons:
		p := Buttons{}
		err = decodeData(spec.Data, &p)
		for i := range p.Buttons {
			if p.Buttons[i].Type == "" {
				p.Buttons[i].Type = ButtonInline
			}
		}
		payload = p
	case KindCondition:
		p := Condition{}
		err = decodeData(spec.Data, &p)
		p.Comparison = normalizeComparison(p.Comparison)
		payload = p
	case KindBroadcast:
		p := Broadcast{}
		err = decodeData(spec.Data, &p)
		payload = p
	case KindImage:
		p := Image{}
		err = decodeData(spec.Data, &p)
		payload = p
	case KindDelay:
		p := Delay{Seconds: DefaultDelaySeconds}
		err = decodeData(spec.Data, &p)
		if p.Seconds < 0 {
			p.Seconds = 0
		}
		payload = p
	case KindAPIRequest:
		p := APIRequest{Method: DefaultHTTPMethod}
		err = decodeData(spec.Data, &p)
		p.Method = strings.ToUpper(strings.TrimSpace(p.Method))
		if p.Method == "" {
			p.Method = DefaultHTTPMethod
		}
		payload = p
	case KindInputWait:
		p := InputWait{Validation: ValidateNone}
		err = decodeData(spec.Data, &p)
		if p.Validation == "" {
			p.Validation = ValidateNone
		}
		payload = p
	default:
		payload = Unknown{Type: spec.Type, Data: spec.Data}
	}

	n := Node{ID: spec.ID, Payload: payload}
	if err != nil {
		return n, fmt.Errorf("node %q (%s): %w", spec.ID, spec.Type, err)
	}
	return n, nil
}

// EncodeNode converts a typed node into its wire form.
func EncodeNode(n Node) NodeSpec {
	spec := NodeSpec{ID: n.ID, Type: string(n.Kind())}
	if u, ok := n.Payload.(Unknown); ok {
		spec.Data = u.Data
		return spec
	}
	if n.Payload == nil {
		return spec
	}
	data := make(map[string]any)
	if err := decodeData(n.Payload, &data); err == nil {
		spec.Data = data
	}
	return spec
}

// MarshalJSON encodes the node in the editor's {id,type,data} form.
func (n Node) MarshalJSON() ([]byte, error) {
	wire := struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}{ID: n.ID, Type: string(n.Kind())}
	if u, ok := n.Payload.(Unknown); ok {
		wire.Data = u.Data
	} else {
		wire.Data = n.Payload
	}
	return xjson.Marshal(wire)
}

// UnmarshalJSON decodes a node from the editor's {id,type,data} form.
func (n *Node) UnmarshalJSON(b []byte) error {
	var spec NodeSpec
	if err := xjson.Unmarshal(b, &spec); err != nil {
		return err
	}
	decoded, err := DecodeNode(spec)
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

func decodeData(data any, out any) error {
	if m, ok := data.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

func normalizeComparison(c Comparison) Comparison {
	switch strings.ToLower(strings.TrimSpace(string(c))) {
	case "equals", "text_equals":
		return CompareEquals
	case "contains", "text_contains":
		return CompareContains
	case "callback-equals", "callback_equals", "callback_data":
		return CompareCallbackEquals
	}
	return c
}
