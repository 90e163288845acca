package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Apply(t *testing.T) {
	s := &State{PendingNodeID: "ask", Variables: map[string]string{"a": "1", "b": "2"}}

	next := s.Apply(Result{
		Assignments: []Assignment{{Name: "a", Value: "x"}, {Name: "c", Value: "3"}, {Name: "a", Value: "y"}},
	})

	assert.Equal(t, map[string]string{"a": "y", "b": "2", "c": "3"}, next.Variables)
	assert.Empty(t, next.PendingNodeID, "pending is overwritten unconditionally")
	assert.Equal(t, "ask", s.PendingNodeID, "original state untouched")
	assert.Equal(t, "1", s.Variables["a"])
}

func TestState_SnapshotNil(t *testing.T) {
	var s *State
	snap := s.Snapshot()
	assert.NotNil(t, snap.Variables)
	assert.False(t, s.Pending())
}

func TestConversationKey_String(t *testing.T) {
	assert.Equal(t, "bot:42", ConversationKey{FlowID: "bot", ConversationID: "42"}.String())

	a := ConversationKey{FlowID: "shop:eu", ConversationID: "7"}
	b := ConversationKey{FlowID: "shop", ConversationID: "eu:7"}
	assert.Equal(t, "shop%3Aeu:7", a.String())
	assert.NotEqual(t, a.String(), b.String())
}
