package validation

// MaxInputLength bounds the shorthand a caller may send in one request.
const MaxInputLength = 20000

// ChatRequestSchema describes {"input": non-blank string, "mode"?: one of modes}.
func ChatRequestSchema(modes []string) map[string]interface{} {
	mode := map[string]interface{}{"type": "string"}
	if len(modes) > 0 {
		enum := make([]interface{}, len(modes))
		for i, m := range modes {
			enum[i] = m
		}
		mode["enum"] = enum
	}

	return map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]interface{}{
			"input": map[string]interface{}{
				"type":      "string",
				"pattern":   `[^\s\p{Z}]`,
				"maxLength": MaxInputLength,
			},
			"mode": mode,
		},
		"required": []interface{}{"input"},
	}
}

// NewChatRequestValidator compiles ChatRequestSchema for the given modes.
func NewChatRequestValidator(modes []string) (*Validator, error) {
	return NewValidator(ChatRequestSchema(modes))
}
