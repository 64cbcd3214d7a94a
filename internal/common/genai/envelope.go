package genai

import (
	"github.com/tidwall/gjson"
)

// Default envelope paths per provider, tried in order.
var (
	ResponsesPaths = []string{
		"output_text",
		"output.0.content.0.text.value",
		"output.0.content.0.text",
		`output.#(type=="message").content.0.text`,
	}
	ChatPaths    = []string{"choices.0.message.content"}
	BedrockPaths = []string{"content.0.text"}
)

// Envelope pulls the generated text out of a provider response body.
type Envelope struct {
	paths []string
}

// NewEnvelope uses paths when given, otherwise defaults.
func NewEnvelope(paths []string, defaults []string) Envelope {
	if len(paths) == 0 {
		paths = defaults
	}
	return Envelope{paths: append([]string(nil), paths...)}
}

// Paths returns the configured lookup paths.
func (e Envelope) Paths() []string {
	return append([]string(nil), e.paths...)
}

// Valid reports whether body is JSON at all.
func (e Envelope) Valid(body []byte) bool {
	return gjson.ValidBytes(body)
}

// Text returns the first non-empty string found at any path.
func (e Envelope) Text(body []byte) (string, bool) {
	for _, path := range e.paths {
		res := gjson.GetBytes(body, path)
		if res.Type == gjson.String && res.Str != "" {
			return res.Str, true
		}
	}
	return "", false
}
