package domain

// StateDiff represents the changes between two conversation states.
// It is serialized to JSON for simulator clients and the chat REPL.
type StateDiff struct {
	// PendingNodeID is set when the pending node changed. An empty string
	// means the conversation became idle.
	PendingNodeID *string `json:"pending_node_id,omitempty"`

	// Variables contains only added or modified keys.
	// Deleted keys are present with a nil value.
	Variables map[string]*string `json:"variables,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// A nil oldState is treated as a fresh conversation.
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = NewState()
	}

	diff := &StateDiff{}
	if oldState.PendingNodeID != newState.PendingNodeID {
		pending := newState.PendingNodeID
		diff.PendingNodeID = &pending
	}
	diff.Variables = diffVariables(oldState.Variables, newState.Variables)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVariables(old, new map[string]string) map[string]*string {
	delta := make(map[string]*string)
	for k, v := range new {
		if prev, ok := old[k]; !ok || prev != v {
			val := v
			delta[k] = &val
		}
	}
	for k := range old {
		if _, ok := new[k]; !ok {
			delta[k] = nil
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || (d.PendingNodeID == nil && len(d.Variables) == 0)
}
