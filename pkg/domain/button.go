package domain

// ButtonType selects how a transport renders a button.
type ButtonType string

const (
	ButtonInline ButtonType = "inline"
	ButtonReply  ButtonType = "reply"
)

// Button is a single choice offered to the user.
type Button struct {
	ID           string     `json:"id"`
	Label        string     `json:"text"`
	Type         ButtonType `json:"buttonType"`
	CallbackData string     `json:"callbackData"`
	URL          string     `json:"url,omitempty"`
}

// IsLink reports whether the button is a pure hyperlink.
// Link buttons never produce callback events.
func (b Button) IsLink() bool {
	return b.URL != ""
}

// Data returns the callback payload sent by the transport when clicked.
// Buttons without explicit data fall back to their label.
func (b Button) Data() string {
	if b.CallbackData != "" {
		return b.CallbackData
	}
	return b.Label
}
