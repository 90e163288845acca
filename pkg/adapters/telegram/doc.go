// Package telegram implements the messaging transport on the Telegram Bot API.
//
// Client covers the calls a flow bot needs (send text and photos, chat
// actions, callback acknowledgement, command registration, long polling and
// webhook management). It satisfies ports.Transport, ports.Receiver and
// ports.CommandRegistrar, and normalizes raw updates into domain events.
package telegram
