// internal/handlers/chat/models.go
package chat

import (
	"charting-assistant/internal/normalizer"
	"charting-assistant/pkg/registry"
)

type Request struct {
	Input string `json:"input"`
	Mode  string `json:"mode,omitempty"`
}

// Response is the normalized record, serialized as a flat JSON object.
type Response = normalizer.Record

type compiledMode struct {
	mode       registry.Mode
	normalizer *normalizer.Normalizer
}
