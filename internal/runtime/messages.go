package runtime

import (
	"fmt"
	"strings"
)

// Messages are the canned texts the runtime emits on its own behalf.
type Messages struct {
	// UnknownCommand may contain one %s, replaced by the raw command.
	UnknownCommand string `yaml:"unknown_command" json:"unknown_command"`
	ChooseOption   string `yaml:"choose_option" json:"choose_option"`
	EmptyMessage   string `yaml:"empty_message" json:"empty_message"`
	InputPrompt    string `yaml:"input_prompt" json:"input_prompt"`
	InvalidInput   string `yaml:"invalid_input" json:"invalid_input"`
}

// DefaultMessages returns the built-in texts.
func DefaultMessages() Messages {
	return Messages{
		UnknownCommand: "Unknown command: %s",
		ChooseOption:   "Choose an option:",
		EmptyMessage:   "(empty message)",
		InputPrompt:    "Waiting for your reply...",
		InvalidInput:   "Invalid input, please try again.",
	}
}

// withDefaults fills blank fields from DefaultMessages.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.UnknownCommand == "" {
		m.UnknownCommand = d.UnknownCommand
	}
	if m.ChooseOption == "" {
		m.ChooseOption = d.ChooseOption
	}
	if m.EmptyMessage == "" {
		m.EmptyMessage = d.EmptyMessage
	}
	if m.InputPrompt == "" {
		m.InputPrompt = d.InputPrompt
	}
	if m.InvalidInput == "" {
		m.InvalidInput = d.InvalidInput
	}
	return m
}

func (m Messages) unknownCommand(cmd string) string {
	if !strings.Contains(m.UnknownCommand, "%s") {
		return m.UnknownCommand
	}
	return fmt.Sprintf(m.UnknownCommand, cmd)
}
