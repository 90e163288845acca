package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

var (
	_ ports.Transport        = (*Client)(nil)
	_ ports.Receiver         = (*Client)(nil)
	_ ports.CommandRegistrar = (*Client)(nil)
)

// DefaultCommandDescription is used for commands without a description,
// which the Bot API rejects.
const DefaultCommandDescription = "No description"

// SendText implements ports.Transport. The sent message is not decoded:
// once the API answers ok the text was delivered.
func (c *Client) SendText(ctx context.Context, conversationID, text string, buttons []domain.Button) error {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return err
	}
	return c.call(ctx, "sendMessage", messageParams(chatID, text, Markup(buttons)), nil)
}

// SendImage implements ports.Transport.
func (c *Client) SendImage(ctx context.Context, conversationID, imageURL, caption string) error {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return err
	}
	return c.call(ctx, "sendPhoto", photoParams(chatID, imageURL, caption), nil)
}

// SendTyping implements ports.Transport.
func (c *Client) SendTyping(ctx context.Context, conversationID string) error {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return err
	}
	return c.SendChatAction(ctx, chatID, "typing")
}

// AnswerCallback implements ports.Transport.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.AnswerCallbackQuery(ctx, callbackID, "")
}

// RegisterCommands implements ports.CommandRegistrar.
func (c *Client) RegisterCommands(ctx context.Context, commands []domain.Command) error {
	return c.SetMyCommands(ctx, BotCommands(commands))
}

// Receive implements ports.Receiver. The returned offset acknowledges every
// update in the batch, including ones that carried nothing routable.
func (c *Client) Receive(ctx context.Context, offset int64) ([]domain.Event, int64, error) {
	updates, err := c.GetUpdates(ctx, offset, c.pollTimeout, c.batchLimit)
	if err != nil {
		return nil, offset, err
	}
	events := make([]domain.Event, 0, len(updates))
	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
		if ev, ok := u.Event(); ok {
			events = append(events, ev)
		}
	}
	return events, next, nil
}

// BotCommands converts Command nodes to menu entries: the prefix is stripped,
// empty triggers are skipped and the first occurrence of a name wins.
func BotCommands(commands []domain.Command) []BotCommand {
	out := make([]BotCommand, 0, len(commands))
	seen := make(map[string]bool, len(commands))
	for _, cmd := range commands {
		name := strings.TrimPrefix(strings.TrimSpace(cmd.Trigger), domain.CommandPrefix)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		desc := strings.TrimSpace(cmd.Description)
		if desc == "" {
			desc = DefaultCommandDescription
		}
		out = append(out, BotCommand{Command: name, Description: desc})
	}
	return out
}

// Event normalizes an update. Text messages and callback queries are kept;
// anything else (stickers, edits, joins) reports false.
// A callback without an originating message still yields an event, with an
// empty ConversationID, so that it can be acknowledged.
func (u Update) Event() (domain.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		var conv string
		if m := u.CallbackQuery.Message; m != nil {
			conv = strconv.FormatInt(m.Chat.ID, 10)
		}
		ev := domain.CallbackEvent(conv, u.CallbackQuery.ID, u.CallbackQuery.Data)
		ev.UpdateID = u.UpdateID
		return ev, true
	case u.Message != nil && u.Message.Text != "":
		ev := domain.TextEvent(strconv.FormatInt(u.Message.Chat.ID, 10), u.Message.Text)
		ev.UpdateID = u.UpdateID
		return ev, true
	}
	return domain.Event{}, false
}

func parseChatID(conversationID string) (int64, error) {
	id, err := strconv.ParseInt(conversationID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q: %w", conversationID, err)
	}
	return id, nil
}
