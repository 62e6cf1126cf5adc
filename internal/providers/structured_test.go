package providers

import (
	"encoding/json"
	"testing"
)

const bookSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"author": {"type": "string"}
		},
		"required": ["title"]
	}
}`

func TestValidateStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		parsed  string
		wantErr bool
	}{
		{
			name:   "valid array",
			schema: bookSchema,
			parsed: `[{"title": "Dune", "author": "Frank Herbert"}]`,
		},
		{
			name:    "missing required field",
			schema:  bookSchema,
			parsed:  `[{"author": "Frank Herbert"}]`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			schema:  bookSchema,
			parsed:  `{"title": "Dune"}`,
			wantErr: true,
		},
		{
			name:   "openai wrapper",
			schema: `{"name": "books", "strict": true, "schema": ` + bookSchema + `}`,
			parsed: `[{"title": "Dune"}]`,
		},
		{
			name:   "response_format wrapper",
			schema: `{"type": "json_schema", "json_schema": {"name": "books", "schema": ` + bookSchema + `}}`,
			parsed: `[{"title": "Dune"}]`,
		},
		{
			name:   "empty schema is a no-op",
			schema: "",
			parsed: `[{"anything": true}]`,
		},
		{
			name:    "invalid schema document",
			schema:  `{not json`,
			parsed:  `[]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStructuredJSON(json.RawMessage(tt.schema), json.RawMessage(tt.parsed))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStructuredJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
