package telegram

import "github.com/aretw0/botflow/pkg/domain"

// Markup builds the reply_markup for buttons.
//
// Inline and link buttons become an inline keyboard with one button per row.
// Only when there are none are reply buttons used, as a resized reply
// keyboard. It returns nil when there is nothing to render.
func Markup(buttons []domain.Button) any {
	var inline [][]InlineKeyboardButton
	var reply [][]KeyboardButton
	for _, b := range buttons {
		switch {
		case b.IsLink():
			inline = append(inline, []InlineKeyboardButton{{Text: b.Label, URL: b.URL}})
		case b.Type == domain.ButtonReply:
			reply = append(reply, []KeyboardButton{{Text: b.Label}})
		default:
			inline = append(inline, []InlineKeyboardButton{{Text: b.Label, CallbackData: b.Data()}})
		}
	}
	if len(inline) > 0 {
		return &InlineKeyboardMarkup{InlineKeyboard: inline}
	}
	if len(reply) > 0 {
		return &ReplyKeyboardMarkup{Keyboard: reply, ResizeKeyboard: true}
	}
	return nil
}
