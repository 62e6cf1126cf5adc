package extract

import "encoding/json"

// ResponseSchema is the JSON schema for the extraction output array. Used
// to describe the target shape to the repair provider and to validate
// repaired output.
var ResponseSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Book title as printed on the spine",
			},
			"author": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Author name if visible",
			},
			"confidence": map[string]any{
				"type": "string",
				"enum": []string{"high", "medium", "low"},
			},
			"spine_text": map[string]any{
				"type":        "string",
				"description": "Raw text visible on the spine",
			},
			"language": map[string]any{
				"type":        "string",
				"description": "ISO 639-1 code or 'unknown'",
			},
			"spine_index": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Left-to-right shelf position starting at 0",
			},
		},
		"required": []string{"title", "author"},
	},
}

// ResponseSchemaJSON returns the schema serialized for prompt embedding.
func ResponseSchemaJSON() json.RawMessage {
	b, err := json.Marshal(ResponseSchema)
	if err != nil {
		// Static document; marshal cannot fail at runtime.
		panic(err)
	}
	return b
}
