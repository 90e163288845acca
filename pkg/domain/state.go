package domain

import "net/url"

// ConversationKey identifies the state of one conversation within one flow.
type ConversationKey struct {
	FlowID         string `json:"flow_id"`
	ConversationID string `json:"conversation_id"`
}

// String renders the key as "flow:conversation" for logs, lock ids and
// storage keys. Both parts are query-escaped, so ":" inside an id cannot
// make two keys render alike.
func (k ConversationKey) String() string {
	return url.QueryEscape(k.FlowID) + ":" + url.QueryEscape(k.ConversationID)
}

// State is the persisted snapshot of a conversation.
type State struct {
	// PendingNodeID is the InputWait node awaiting a reply, or empty when idle.
	PendingNodeID string `json:"pending_node_id,omitempty"`

	// Variables accumulate across turns.
	Variables map[string]string `json:"variables"`
}

// NewState returns the state of a conversation that has never interacted.
func NewState() *State {
	return &State{Variables: make(map[string]string)}
}

// Pending reports whether the conversation is suspended on an InputWait node.
func (s *State) Pending() bool {
	return s != nil && s.PendingNodeID != ""
}

// Snapshot returns a deep copy safe for independent mutation.
func (s *State) Snapshot() *State {
	if s == nil {
		return NewState()
	}
	next := &State{
		PendingNodeID: s.PendingNodeID,
		Variables:     make(map[string]string, len(s.Variables)),
	}
	for k, v := range s.Variables {
		next.Variables[k] = v
	}
	return next
}

// Apply returns the state that follows r: assignments are merged into the
// existing variables in order (later wins) and the pending node is replaced
// unconditionally, including back to idle.
func (s *State) Apply(r Result) *State {
	next := s.Snapshot()
	for _, a := range r.Assignments {
		next.Variables[a.Name] = a.Value
	}
	next.PendingNodeID = r.PendingNodeID
	return next
}
