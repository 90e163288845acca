package dispatch

import (
	"context"
	"sync"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

var _ ports.Transport = (*Recorder)(nil)

// Sent is one call captured by a Recorder.
type Sent struct {
	Method         string          `json:"method"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Text           string          `json:"text,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	Buttons        []domain.Button `json:"buttons,omitempty"`
	CallbackID     string          `json:"callback_id,omitempty"`
}

// Recorder is a Transport that keeps every call in memory. The simulator
// endpoints use it to show what a real transport would have received.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent

	// Fail, when set, is consulted before recording; a non-nil error is
	// returned to the caller and the call is not recorded.
	Fail func(method string) error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(s Sent) error {
	if r.Fail != nil {
		if err := r.Fail(s.Method); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s)
	return nil
}

func (r *Recorder) SendText(_ context.Context, conversationID, text string, buttons []domain.Button) error {
	return r.record(Sent{Method: "text", ConversationID: conversationID, Text: text, Buttons: buttons})
}

func (r *Recorder) SendImage(_ context.Context, conversationID, imageURL, caption string) error {
	return r.record(Sent{Method: "image", ConversationID: conversationID, ImageURL: imageURL, Text: caption})
}

func (r *Recorder) SendTyping(_ context.Context, conversationID string) error {
	return r.record(Sent{Method: "typing", ConversationID: conversationID})
}

func (r *Recorder) AnswerCallback(_ context.Context, callbackID string) error {
	return r.record(Sent{Method: "answer", CallbackID: callbackID})
}

// Sent returns a copy of the recorded calls.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Reset forgets every recorded call.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
