package runtime

import (
	"strings"

	"github.com/aretw0/botflow/pkg/domain"
)

// Route classifies event against the prior state and runs the matching entry
// point of g. The returned Result is such that state.Apply(result) is the
// next state: routes that do not traverse keep the pending node as it was.
func (i *Interpreter) Route(g *domain.Graph, event domain.Event, state *domain.State) domain.Result {
	if state == nil {
		state = domain.NewState()
	}

	if event.Kind == domain.EventCallback {
		return i.callback(g, event.Text, state)
	}

	if state.Pending() {
		if wait, ok := g.Node(state.PendingNodeID); ok && wait.Kind() == domain.KindInputWait {
			return i.resume(g, wait, event.Text, state)
		}
		// The flow changed under a suspended conversation: route as if idle.
	}

	if strings.HasPrefix(event.Text, domain.CommandPrefix) {
		return i.command(g, event.Text, state)
	}
	return i.freeText(g, event.Text, state)
}

// resume binds the reply to the InputWait variable and continues from its successors.
func (i *Interpreter) resume(g *domain.Graph, wait domain.Node, reply string, state *domain.State) domain.Result {
	p := wait.Payload.(domain.InputWait)

	if !validateReply(i.validate, p.Validation, reply) {
		text := p.ErrorText
		if text == "" {
			text = i.messages.InvalidInput
		}
		return domain.Result{
			Route:         domain.RouteInvalidInput,
			Actions:       []domain.Action{{Type: domain.ActionSendText, NodeID: wait.ID, Text: Interpolate(text, state.Variables)}},
			PendingNodeID: wait.ID,
		}
	}

	res := domain.Result{Route: domain.RouteResume, Actions: []domain.Action{}}
	vars := state.Variables
	if p.Variable != "" {
		res.Assignments = append(res.Assignments, domain.Assignment{Name: p.Variable, Value: reply})
		vars = with(vars, p.Variable, reply)
	}
	i.successors(g, wait.ID, reply, vars, &res)
	return res
}

func (i *Interpreter) command(g *domain.Graph, text string, state *domain.State) domain.Result {
	for _, n := range g.OfKind(domain.KindCommand) {
		if n.Payload.(domain.Command).Trigger == text {
			res := i.Execute(g, n, text, state.Variables)
			res.Route = domain.RouteCommand
			return res
		}
	}
	return domain.Result{
		Route:         domain.RouteUnknownCommand,
		Actions:       []domain.Action{{Type: domain.ActionSendText, Text: i.messages.unknownCommand(text)}},
		PendingNodeID: state.PendingNodeID,
	}
}

// freeText runs the first text Condition, in graph order, that matches.
func (i *Interpreter) freeText(g *domain.Graph, text string, state *domain.State) domain.Result {
	for _, n := range g.OfKind(domain.KindCondition) {
		c := n.Payload.(domain.Condition)
		if c.Comparison != domain.CompareEquals && c.Comparison != domain.CompareContains {
			continue
		}
		if evaluate(c, text) {
			res := i.Execute(g, n, text, state.Variables)
			res.Route = domain.RouteCondition
			return res
		}
	}
	return noMatch(state)
}

// callback resumes at the successors of the Buttons node owning the clicked button.
func (i *Interpreter) callback(g *domain.Graph, data string, state *domain.State) domain.Result {
	for _, n := range g.OfKind(domain.KindButtons) {
		p := n.Payload.(domain.Buttons)
		btn, ok := p.Find(data)
		if !ok {
			continue
		}

		res := domain.Result{Route: domain.RouteCallback, Actions: []domain.Action{}}
		vars := state.Variables
		if p.SaveToVariable != "" {
			res.Assignments = append(res.Assignments, domain.Assignment{Name: p.SaveToVariable, Value: btn.Label})
			vars = with(vars, p.SaveToVariable, btn.Label)
		}
		i.successors(g, n.ID, data, vars, &res)
		return res
	}
	return noMatch(state)
}

// successors executes each direct successor of id as its own traversal and
// concatenates the results in successor order.
func (i *Interpreter) successors(g *domain.Graph, id, input string, vars map[string]string, res *domain.Result) {
	for _, next := range g.Next(id, "") {
		res.Append(i.Execute(g, next, input, vars))
	}
}

func noMatch(state *domain.State) domain.Result {
	return domain.Result{
		Route:         domain.RouteNoMatch,
		Actions:       []domain.Action{},
		PendingNodeID: state.PendingNodeID,
	}
}

func with(vars map[string]string, k, v string) map[string]string {
	next := make(map[string]string, len(vars)+1)
	for key, val := range vars {
		next[key] = val
	}
	next[k] = v
	return next
}
