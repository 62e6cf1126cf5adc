package validate

import "encoding/json"

// ResponseSchema is the JSON schema for the batch validation output.
var ResponseSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key":      map[string]any{"type": "string"},
			"is_valid": map[string]any{"type": "boolean"},
			"final_title": map[string]any{
				"type": []string{"string", "null"},
			},
			"final_author": map[string]any{
				"type": []string{"string", "null"},
			},
			"final_confidence": map[string]any{
				"type": "string",
				"enum": []string{"high", "medium", "low"},
			},
			"fixes": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"notes": map[string]any{"type": "string"},
		},
		"required": []string{"key", "is_valid"},
	},
}

// ResponseSchemaJSON returns the schema serialized for prompt embedding.
func ResponseSchemaJSON() json.RawMessage {
	b, err := json.Marshal(ResponseSchema)
	if err != nil {
		panic(err)
	}
	return b
}
