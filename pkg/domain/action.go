package domain

// ActionType identifies what the dispatcher must do with an Action.
type ActionType string

const (
	// ActionSendText delivers Text, optionally with Buttons.
	ActionSendText ActionType = "send_text"
	// ActionSendImage delivers ImageURL with Text as caption.
	ActionSendImage ActionType = "send_image"
	// ActionDelay pauses delivery for Seconds, showing typing if Typing is set.
	ActionDelay ActionType = "delay"
	// ActionLog is diagnostic only and never reaches the end user.
	ActionLog ActionType = "log"
)

// Action is one unit of interpreter output.
type Action struct {
	Type     ActionType `json:"type"`
	NodeID   string     `json:"node_id,omitempty"`
	Text     string     `json:"text,omitempty"`
	Buttons  []Button   `json:"buttons,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`

	// Broadcast tags text produced by a Broadcast node.
	Broadcast bool `json:"broadcast,omitempty"`

	Seconds int  `json:"seconds,omitempty"`
	Typing  bool `json:"typing,omitempty"`
}

// Assignment binds a variable during a traversal.
type Assignment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Route records which entry point the router chose for an event.
type Route string

const (
	RouteCommand        Route = "command"
	RouteUnknownCommand Route = "unknown_command"
	RouteResume         Route = "resume"
	RouteInvalidInput   Route = "invalid_input"
	RouteCondition      Route = "condition"
	RouteCallback       Route = "callback"
	RouteNoMatch        Route = "no_match"
)

// Result is the outcome of routing one event through a flow.
type Result struct {
	Route       Route        `json:"route,omitempty"`
	Actions     []Action     `json:"actions"`
	Assignments []Assignment `json:"assignments,omitempty"`

	// PendingNodeID is set when the traversal stopped on an InputWait node.
	PendingNodeID string `json:"pending_node_id,omitempty"`

	// Visited lists executed node ids in execution order.
	Visited []string `json:"visited,omitempty"`
}

// Append concatenates other after r. The last non-empty pending node wins.
func (r *Result) Append(other Result) {
	r.Actions = append(r.Actions, other.Actions...)
	r.Assignments = append(r.Assignments, other.Assignments...)
	r.Visited = append(r.Visited, other.Visited...)
	if other.PendingNodeID != "" {
		r.PendingNodeID = other.PendingNodeID
	}
}

// Outcome is what handling one event produced: the routing result and the
// conversation state before and after it was applied.
type Outcome struct {
	Result   Result `json:"result"`
	Previous *State `json:"previous"`
	State    *State `json:"state"`
}

// Diff returns the state changes caused by the event.
func (o Outcome) Diff() *StateDiff {
	return Diff(o.Previous, o.State)
}

// DeliveryReport summarizes the delivery of one action batch.
type DeliveryReport struct {
	Delivered int     `json:"delivered"`
	Skipped   int     `json:"skipped"`
	Errors    []error `json:"-"`
}

// Failed reports how many actions could not be delivered.
func (r DeliveryReport) Failed() int {
	return len(r.Errors)
}
