package dsl

import "github.com/aretw0/botflow/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Command marks the node as an entry point for trigger (e.g. "/start").
func (n *NodeBuilder) Command(trigger string) *NodeBuilder {
	n.node.Payload = domain.Command{Trigger: trigger}
	return n
}

// Describe sets the description published for a command node.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	if c, ok := n.node.Payload.(domain.Command); ok {
		c.Description = description
		n.node.Payload = c
	}
	return n
}

// Message makes the node send text.
func (n *NodeBuilder) Message(text string) *NodeBuilder {
	n.node.Payload = domain.Message{Text: text}
	return n
}

// Buttons makes the node offer a set of choices.
func (n *NodeBuilder) Buttons(buttons ...domain.Button) *NodeBuilder {
	n.node.Payload = domain.Buttons{Buttons: buttons}
	return n
}

// SaveTo names the variable bound by a buttons or input node.
func (n *NodeBuilder) SaveTo(variable string) *NodeBuilder {
	switch p := n.node.Payload.(type) {
	case domain.Buttons:
		p.SaveToVariable = variable
		n.node.Payload = p
	case domain.InputWait:
		p.Variable = variable
		n.node.Payload = p
	}
	return n
}

// Condition makes the node branch on the triggering input.
func (n *NodeBuilder) Condition(cmp domain.Comparison, value string) *NodeBuilder {
	n.node.Payload = domain.Condition{Comparison: cmp, Value: value}
	return n
}

// Broadcast makes the node send text tagged as a broadcast.
func (n *NodeBuilder) Broadcast(text string) *NodeBuilder {
	n.node.Payload = domain.Broadcast{Text: text}
	return n
}

// Image makes the node send a picture.
func (n *NodeBuilder) Image(url, caption string) *NodeBuilder {
	n.node.Payload = domain.Image{URL: url, Caption: caption}
	return n
}

// Delay makes the node pause delivery.
func (n *NodeBuilder) Delay(seconds int) *NodeBuilder {
	n.node.Payload = domain.Delay{Seconds: seconds}
	return n
}

// Typing shows the typing indicator during a delay.
func (n *NodeBuilder) Typing() *NodeBuilder {
	if d, ok := n.node.Payload.(domain.Delay); ok {
		d.ShowTyping = true
		n.node.Payload = d
	}
	return n
}

// Request makes the node describe an external call.
func (n *NodeBuilder) Request(method, url string) *NodeBuilder {
	n.node.Payload = domain.APIRequest{Method: method, URL: url}
	return n
}

// Input makes the node prompt and wait for a reply bound to variable.
func (n *NodeBuilder) Input(prompt, variable string) *NodeBuilder {
	n.node.Payload = domain.InputWait{Prompt: prompt, Variable: variable, Validation: domain.ValidateNone}
	return n
}

// Validate constrains the reply of an input node.
func (n *NodeBuilder) Validate(rule domain.Validation, errorText string) *NodeBuilder {
	if w, ok := n.node.Payload.(domain.InputWait); ok {
		w.Validation = rule
		w.ErrorText = errorText
		n.node.Payload = w
	}
	return n
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(targets ...string) *NodeBuilder {
	for _, t := range targets {
		n.builder.connect(n.node.ID, t, "")
	}
	return n
}

// When adds an edge leaving through the given handle.
func (n *NodeBuilder) When(handle, target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, handle)
	return n
}

// True adds the edge taken when a condition matches.
func (n *NodeBuilder) True(target string) *NodeBuilder {
	return n.When(domain.HandleTrue, target)
}

// False adds the edge taken when a condition does not match.
func (n *NodeBuilder) False(target string) *NodeBuilder {
	return n.When(domain.HandleFalse, target)
}

// Success adds the success edge of a request node.
func (n *NodeBuilder) Success(target string) *NodeBuilder {
	return n.When(domain.HandleSuccess, target)
}

// Error adds the error edge of a request node.
func (n *NodeBuilder) Error(target string) *NodeBuilder {
	return n.When(domain.HandleError, target)
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}

// Inline returns a callback button.
func Inline(label, data string) domain.Button {
	return domain.Button{ID: data, Label: label, Type: domain.ButtonInline, CallbackData: data}
}

// Link returns a hyperlink button.
func Link(label, url string) domain.Button {
	return domain.Button{ID: label, Label: label, Type: domain.ButtonInline, URL: url}
}

// Reply returns a reply-keyboard button. Its label is sent back as text.
func Reply(label string) domain.Button {
	return domain.Button{ID: label, Label: label, Type: domain.ButtonReply}
}
