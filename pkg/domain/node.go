package domain

// Kind identifies the behavior of a node in a flow graph.
// Values match the node type names used by the flow editor export.
type Kind string

const (
	// KindCommand is an entry point matched against slash commands.
	KindCommand Kind = "command"
	// KindMessage sends an interpolated text.
	KindMessage Kind = "message"
	// KindButtons offers a set of choices, usually attached to the preceding message.
	KindButtons Kind = "buttons"
	// KindCondition branches on the triggering input ("true"/"false" handles).
	KindCondition Kind = "condition"
	// KindBroadcast sends an interpolated text tagged as a broadcast.
	KindBroadcast Kind = "broadcast"
	// KindImage sends an image with an optional caption.
	KindImage Kind = "image"
	// KindDelay asks the dispatcher to pause (optionally showing typing).
	KindDelay Kind = "delay"
	// KindAPIRequest describes an external call ("success"/"error" handles).
	KindAPIRequest Kind = "apiRequest"
	// KindInputWait prompts the user and suspends the conversation until a reply.
	KindInputWait Kind = "inputWait"
)

// Handle names used by nodes with more than one output.
const (
	HandleTrue    = "true"
	HandleFalse   = "false"
	HandleSuccess = "success"
	HandleError   = "error"
)

// Defaults applied when a node payload omits a field.
const (
	DefaultDelaySeconds = 3
	DefaultHTTPMethod   = "GET"
)

// Payload is the kind-specific data carried by a node.
// The concrete types in this file are its only implementations, so a type
// switch over them is exhaustive.
type Payload interface {
	Kind() Kind
}

// Node is a vertex of a flow graph.
type Node struct {
	ID      string
	Payload Payload
}

// Kind returns the kind of the node payload.
func (n Node) Kind() Kind {
	if n.Payload == nil {
		return ""
	}
	return n.Payload.Kind()
}

// Command is an entry point. Trigger is matched verbatim, including the prefix.
type Command struct {
	Trigger     string `json:"command"`
	Description string `json:"description,omitempty"`
}

func (Command) Kind() Kind { return KindCommand }

// Message is a text reply supporting {{variable}} placeholders.
type Message struct {
	Text      string `json:"text"`
	ParseMode string `json:"parseMode,omitempty"`
}

func (Message) Kind() Kind { return KindMessage }

// Buttons is an ordered set of choices.
// SaveToVariable, when set, stores the clicked button label under that name.
type Buttons struct {
	Buttons        []Button `json:"buttons"`
	Layout         string   `json:"layout,omitempty"`
	SaveToVariable string   `json:"saveToVariable,omitempty"`
}

func (Buttons) Kind() Kind { return KindButtons }

// Find returns the first callback button whose data equals callbackData.
// Hyperlink buttons never match. A button without explicit callback data
// is matched by its label, which is what the transport sends back for it.
func (b Buttons) Find(callbackData string) (Button, bool) {
	for _, btn := range b.Buttons {
		if btn.IsLink() {
			continue
		}
		if btn.Data() == callbackData {
			return btn, true
		}
	}
	return Button{}, false
}

// Comparison is the test performed by a Condition node.
type Comparison string

const (
	CompareEquals         Comparison = "equals"
	CompareContains       Comparison = "contains"
	CompareCallbackEquals Comparison = "callback-equals"
)

// Condition branches on the triggering input.
type Condition struct {
	Comparison Comparison `json:"conditionType"`
	Value      string     `json:"value"`
}

func (Condition) Kind() Kind { return KindCondition }

// Broadcast is a message tagged for multi-recipient delivery.
type Broadcast struct {
	Text      string `json:"message"`
	ParseMode string `json:"parseMode,omitempty"`
}

func (Broadcast) Kind() Kind { return KindBroadcast }

// Image sends a picture reference with an optional interpolated caption.
type Image struct {
	URL       string `json:"imageUrl"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parseMode,omitempty"`
}

func (Image) Kind() Kind { return KindImage }

// Delay is a client-visible pause.
type Delay struct {
	Seconds    int  `json:"delaySeconds"`
	ShowTyping bool `json:"showTyping"`
}

func (Delay) Kind() Kind { return KindDelay }

// APIRequest describes an external HTTP call. The interpreter never performs it.
type APIRequest struct {
	URL              string `json:"url"`
	Method           string `json:"method"`
	Headers          string `json:"headers,omitempty"`
	Body             string `json:"body,omitempty"`
	ResponseVariable string `json:"responseVariable,omitempty"`
}

func (APIRequest) Kind() Kind { return KindAPIRequest }

// Validation constrains the reply accepted by an InputWait node.
type Validation string

const (
	ValidateNone   Validation = "none"
	ValidateEmail  Validation = "email"
	ValidatePhone  Validation = "phone"
	ValidateNumber Validation = "number"
)

// InputWait prompts the user and binds the next reply to Variable.
type InputWait struct {
	Prompt     string     `json:"promptText"`
	Variable   string     `json:"variableName"`
	Validation Validation `json:"validation,omitempty"`
	ErrorText  string     `json:"errorText,omitempty"`
}

func (InputWait) Kind() Kind { return KindInputWait }

// Unknown holds a node whose type is not recognized. It is kept so the graph
// round-trips, but it has no behavior.
type Unknown struct {
	Type string
	Data map[string]any
}

func (u Unknown) Kind() Kind { return Kind(u.Type) }
