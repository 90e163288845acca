package schema_test

import (
	"errors"
	"testing"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/dsl"
	"github.com/aretw0/botflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messages(err error) []string {
	var out []string
	for _, e := range schema.ValidationErrors(err) {
		out = append(out, e.Error())
	}
	return out
}

func TestValidateFlow_Valid(t *testing.T) {
	b := dsl.New("support")
	b.Add("start").Command("/start").Go("hello")
	b.Add("hello").Message("Hi {{name}}").Go("menu")
	b.Add("menu").Buttons(dsl.Inline("Help", "help"), dsl.Link("Site", "https://example.com")).SaveTo("choice")
	b.Add("is-help").Condition(domain.CompareContains, "help").True("ask").False("hello")
	b.Add("ask").Input("Your email?", "email").Validate(domain.ValidateEmail, "").Go("call")
	b.Add("call").Request("POST", "https://api.example.com/leads").Success("done").Error("hello")
	b.Add("done").Delay(1).Typing()

	assert.NoError(t, schema.ValidateFlow(b.MustBuild()))
}

func TestValidateFlow_PayloadRules(t *testing.T) {
	b := dsl.New("bad")
	b.Add("start").Command("start")
	b.Add("spaced").Command("/start now")
	b.Add("empty").Message("")
	b.Add("menu").Buttons()
	b.Add("cond").Condition("regex", "")
	b.Add("ask").Input("?", "e-mail")
	b.Add("req").Request("FETCH", "")

	err := schema.ValidateFlow(b.MustBuild())
	require.Error(t, err)
	assert.Equal(t, []string{
		`node "start": field "command": must start with "/"`,
		`node "spaced": field "command": must not contain whitespace`,
		`node "empty": field "text": is required`,
		`node "menu": field "buttons": must have at least 1 item(s)`,
		`node "cond": field "conditionType": must be one of [equals contains callback-equals], got "regex"`,
		`node "cond": field "value": is required`,
		`node "ask": field "variableName": must be a variable name (letters, digits, underscore)`,
		`node "req": field "url": is required`,
		`node "req": field "method": must be one of [GET POST PUT PATCH DELETE HEAD OPTIONS], got "FETCH"`,
	}, messages(err))
}

func TestValidateFlow_Structure(t *testing.T) {
	b := dsl.New("bad")
	b.Add("a").Command("/a").Go("ghost")
	b.Add("b").Command("/a")
	b.Add("m1").Buttons(dsl.Inline("Yes", "yes"))
	b.Add("m2").Buttons(dsl.Inline("Sure", "yes"), dsl.Reply("yes"))
	b.Add("cond").Condition(domain.CompareEquals, "x").Go("m1")
	flow := b.MustBuild()

	err := schema.ValidateFlow(flow)
	require.Error(t, err)
	assert.Equal(t, []string{
		`node "b": field "command": trigger "/a" already used by node "a"`,
		`node "m2": field "buttons[0].callbackData": callback data "yes" already used in node "m1"`,
		`edge "e1": target "ghost" does not exist`,
		`edge "e2": field "sourceHandle": condition node "cond" needs a handle in [true false], got ""`,
	}, messages(err))
}

func TestValidateFlow_DuplicateAndUnknown(t *testing.T) {
	spec := domain.FlowSpec{
		Nodes: []domain.NodeSpec{
			{ID: "x", Type: "command", Data: map[string]any{"command": "/x"}},
			{ID: "x", Type: "message", Data: map[string]any{"text": "dup"}},
			{ID: "y", Type: "carousel"},
		},
	}
	flow, warnings := spec.Build("f")
	require.Empty(t, warnings)

	assert.Equal(t, []string{
		`node "x": duplicate node id`,
		`node "y": unknown node type "carousel"`,
	}, messages(schema.ValidateFlow(flow)))
}

func TestValidateFlow_NoCommand(t *testing.T) {
	b := dsl.New("f")
	b.Add("m").Message("orphan")

	err := schema.ValidateFlow(b.MustBuild())
	assert.Equal(t, []string{"flow has no command node"}, messages(err))
	assert.Equal(t, "flow has no command node", err.Error())
}

func TestValidateFlow_Nil(t *testing.T) {
	assert.Error(t, schema.ValidateFlow(nil))
}

func TestAggregateError(t *testing.T) {
	first := &schema.ValidationError{NodeID: "a", Reason: "one"}
	err := &schema.AggregateError{Errors: []error{first, &schema.ValidationError{Reason: "two"}}}

	assert.Equal(t, "2 validation errors:\n  1. node \"a\": one\n  2. two\n", err.Error())

	var ve *schema.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Same(t, first, ve)
	assert.Nil(t, schema.ValidationErrors(errors.New("plain")))
}

func TestUnreachable(t *testing.T) {
	b := dsl.New("f")
	b.Add("start").Command("/start").Go("hello")
	b.Add("hello").Message("hi")
	b.Add("menu").Buttons(dsl.Inline("A", "a")).Go("after-click")
	b.Add("after-click").Message("clicked")
	b.Add("free").Condition(domain.CompareContains, "price").True("price")
	b.Add("price").Message("10")
	b.Add("cb").Condition(domain.CompareCallbackEquals, "a").True("cb-target")
	b.Add("cb-target").Message("never")
	b.Add("island").Message("alone")

	assert.Equal(t, []string{"cb", "cb-target", "island"}, schema.Unreachable(b.MustBuild()))
}
