package runtime

import (
	"strings"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/go-playground/validator/v10"
)

// Interpreter executes flow graphs. It holds no per-call state, so one
// instance may serve concurrent traversals.
type Interpreter struct {
	messages Messages
	validate *validator.Validate
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMessages overrides the canned texts. Blank fields keep their defaults.
func WithMessages(m Messages) Option {
	return func(i *Interpreter) {
		i.messages = m.withDefaults()
	}
}

// NewInterpreter creates an interpreter with the default messages.
func NewInterpreter(opts ...Option) *Interpreter {
	i := &Interpreter{
		messages: DefaultMessages(),
		validate: newReplyValidator(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Messages returns the canned texts in use.
func (i *Interpreter) Messages() Messages {
	return i.messages
}

// traversal is the owned worklist and visited set of a single Execute call.
type traversal struct {
	graph   *domain.Graph
	input   string
	vars    map[string]string
	queue   []domain.Node
	visited map[string]bool
	result  domain.Result
}

func (t *traversal) enqueue(nodes ...domain.Node) {
	t.queue = append(t.queue, nodes...)
}

func (t *traversal) emit(a domain.Action) {
	t.result.Actions = append(t.result.Actions, a)
}

func (t *traversal) mark(id string) {
	t.visited[id] = true
	t.result.Visited = append(t.result.Visited, id)
}

// Execute walks g breadth-first from start. input is the triggering text or
// callback data (empty when there is none) and vars the variables visible to
// templates. A node is executed at most once per call. Traversal stops early
// only when an InputWait node is reached.
func (i *Interpreter) Execute(g *domain.Graph, start domain.Node, input string, vars map[string]string) domain.Result {
	t := &traversal{
		graph:   g,
		input:   input,
		vars:    vars,
		queue:   []domain.Node{start},
		visited: make(map[string]bool),
		result:  domain.Result{Actions: []domain.Action{}},
	}

	for len(t.queue) > 0 {
		n := t.queue[0]
		t.queue = t.queue[1:]
		if t.visited[n.ID] {
			continue
		}
		t.mark(n.ID)

		if stop := i.step(t, n); stop {
			break
		}
	}
	return t.result
}

// step executes one node and reports whether the traversal must stop.
func (i *Interpreter) step(t *traversal, n domain.Node) bool {
	switch p := n.Payload.(type) {
	case domain.Command:
		t.enqueue(t.graph.Next(n.ID, "")...)

	case domain.Message:
		i.message(t, n, p)

	case domain.Buttons:
		// Reached on its own: offer the choices, wait for a callback.
		if len(p.Buttons) > 0 {
			t.emit(domain.Action{
				Type:    domain.ActionSendText,
				NodeID:  n.ID,
				Text:    i.messages.ChooseOption,
				Buttons: p.Buttons,
			})
		}

	case domain.Condition:
		handle := domain.HandleFalse
		if evaluate(p, t.input) {
			handle = domain.HandleTrue
		}
		t.enqueue(t.graph.Next(n.ID, handle)...)

	case domain.Broadcast:
		t.emit(domain.Action{
			Type:      domain.ActionSendText,
			NodeID:    n.ID,
			Text:      i.render(p.Text, t.vars),
			Broadcast: true,
		})
		t.enqueue(t.graph.Next(n.ID, "")...)

	case domain.Image:
		caption := Interpolate(p.Caption, t.vars)
		if p.URL == "" {
			if caption == "" {
				caption = i.messages.EmptyMessage
			}
			t.emit(domain.Action{Type: domain.ActionSendText, NodeID: n.ID, Text: caption})
		} else {
			t.emit(domain.Action{Type: domain.ActionSendImage, NodeID: n.ID, ImageURL: p.URL, Text: caption})
		}
		t.enqueue(t.graph.Next(n.ID, "")...)

	case domain.Delay:
		t.emit(domain.Action{Type: domain.ActionDelay, NodeID: n.ID, Seconds: p.Seconds, Typing: p.ShowTyping})
		t.enqueue(t.graph.Next(n.ID, "")...)

	case domain.APIRequest:
		t.emit(domain.Action{
			Type:   domain.ActionLog,
			NodeID: n.ID,
			Text:   p.Method + " " + Interpolate(p.URL, t.vars),
		})
		t.enqueue(t.graph.Next(n.ID, domain.HandleSuccess)...)

	case domain.InputWait:
		prompt := p.Prompt
		if prompt == "" {
			prompt = i.messages.InputPrompt
		}
		t.emit(domain.Action{Type: domain.ActionSendText, NodeID: n.ID, Text: Interpolate(prompt, t.vars)})
		t.result.PendingNodeID = n.ID
		return true

	default:
		// Unknown kinds are inert.
	}
	return false
}

// message emits a text, absorbing the first directly-downstream Buttons node.
func (i *Interpreter) message(t *traversal, n domain.Node, p domain.Message) {
	next := t.graph.Next(n.ID, "")
	action := domain.Action{Type: domain.ActionSendText, NodeID: n.ID, Text: i.render(p.Text, t.vars)}

	var (
		absorbed *domain.Node
		rest     []domain.Node
	)
	for idx := range next {
		if next[idx].Kind() != domain.KindButtons {
			rest = append(rest, next[idx])
			continue
		}
		if absorbed == nil && !t.visited[next[idx].ID] {
			absorbed = &next[idx]
		}
	}

	if absorbed == nil {
		t.emit(action)
		t.enqueue(rest...)
		return
	}

	btns := absorbed.Payload.(domain.Buttons)
	if len(btns.Buttons) > 0 {
		action.Buttons = btns.Buttons
	}
	t.emit(action)
	t.mark(absorbed.ID)
	t.enqueue(rest...)
	for _, succ := range t.graph.Next(absorbed.ID, "") {
		if succ.Kind() != domain.KindCondition {
			t.enqueue(succ)
		}
	}
}

// render interpolates a message template; blank templates use the placeholder text.
func (i *Interpreter) render(tpl string, vars map[string]string) string {
	if tpl == "" {
		tpl = i.messages.EmptyMessage
	}
	return Interpolate(tpl, vars)
}

// evaluate tests a Condition against the triggering input. No input never matches.
func evaluate(c domain.Condition, input string) bool {
	if input == "" {
		return false
	}
	switch c.Comparison {
	case domain.CompareEquals, domain.CompareCallbackEquals:
		return input == c.Value
	case domain.CompareContains:
		return strings.Contains(input, c.Value)
	default:
		return false
	}
}
