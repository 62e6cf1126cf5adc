// Package extract holds the prompt contract for shelf-photo book
// extraction.
package extract

import (
	_ "embed"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// SystemPrompt returns the system prompt for shelf extraction.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt returns the user prompt for shelf extraction. The contract is
// static; the image rides alongside as a separate content part.
func UserPrompt() string {
	return userPrompt
}

// Prompt keys for call recording.
const (
	SystemPromptKey = "extract.system"
	UserPromptKey   = "extract.user"
)
