package domain

// EventKind classifies inbound events.
type EventKind string

const (
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
)

// CommandPrefix marks text that must be matched against Command nodes.
const CommandPrefix = "/"

// Event is an inbound chat event normalized from the transport.
type Event struct {
	Kind           EventKind `json:"kind"`
	ConversationID string    `json:"conversation_id"`

	// Text is the message text, or the callback data for EventCallback.
	Text string `json:"text"`

	// CallbackID identifies a button click for acknowledgement.
	CallbackID string `json:"callback_id,omitempty"`

	// UpdateID is the transport sequence number, when it has one.
	UpdateID int64 `json:"update_id,omitempty"`
}

// TextEvent builds a text event.
func TextEvent(conversationID, text string) Event {
	return Event{Kind: EventText, ConversationID: conversationID, Text: text}
}

// CallbackEvent builds a button-click event.
func CallbackEvent(conversationID, callbackID, data string) Event {
	return Event{Kind: EventCallback, ConversationID: conversationID, CallbackID: callbackID, Text: data}
}
