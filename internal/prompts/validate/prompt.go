// Package validate holds the prompt contract for batched semantic
// validation of extracted book entries.
package validate

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the system prompt for batch validation.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the validation prompt from serialized batch entries.
func UserPrompt(entriesJSON string) string {
	var buf bytes.Buffer
	data := struct{ Entries string }{Entries: entriesJSON}
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}

// Prompt keys for call recording.
const (
	SystemPromptKey = "validate.system"
	UserPromptKey   = "validate.user"
)
