// Package repair holds the prompt contract for the JSON repair fallback.
package repair

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

// maxRawLen bounds how much broken output is forwarded to the repair call.
const maxRawLen = 12000

// SystemPrompt returns the system prompt for JSON repair.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the repair prompt from the broken output and the
// schema description it should have matched.
func UserPrompt(raw, schema string) string {
	if len(raw) > maxRawLen {
		raw = raw[:maxRawLen] + "\n...[truncated]"
	}
	var buf bytes.Buffer
	data := struct{ Raw, Schema string }{Raw: raw, Schema: schema}
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}

// Prompt keys for call recording.
const (
	SystemPromptKey = "repair.system"
	UserPromptKey   = "repair.user"
)
