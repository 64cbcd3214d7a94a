// pkg/registry/schema.go
package registry

import "charting-assistant/internal/normalizer"

type ModeRegistry struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	Modes       []Mode `json:"modes"`
}

// Mode is one way of prompting the upstream model and normalizing what comes back.
type Mode struct {
	ID          string  `json:"id"`
	Description string  `json:"description,omitempty"`
	Prompt      string  `json:"prompt"`
	JSONMode    bool    `json:"jsonMode"`
	Primary     string  `json:"primary"`
	Secondary   string  `json:"secondary,omitempty"`
	Marker      string  `json:"marker,omitempty"`
	Fields      []Field `json:"fields"`
}

type Field struct {
	Name     string `json:"name"`
	Default  string `json:"default"`
	Required bool   `json:"required,omitempty"`
}

// Schema converts the mode into the normalizer schema named after the mode.
func (m Mode) Schema() normalizer.Schema {
	fields := make([]normalizer.Field, len(m.Fields))
	for i, f := range m.Fields {
		fields[i] = normalizer.Field{Name: f.Name, Default: f.Default, Required: f.Required}
	}
	return normalizer.Schema{
		Name:      m.ID,
		Fields:    fields,
		Primary:   m.Primary,
		Secondary: m.Secondary,
		Marker:    m.Marker,
	}
}

// FromSchema builds a mode around an existing normalizer schema.
func FromSchema(schema normalizer.Schema, description, prompt string, jsonMode bool) Mode {
	fields := make([]Field, len(schema.Fields))
	for i, f := range schema.Fields {
		fields[i] = Field{Name: f.Name, Default: f.Default, Required: f.Required}
	}
	return Mode{
		ID:          schema.Name,
		Description: description,
		Prompt:      prompt,
		JSONMode:    jsonMode,
		Primary:     schema.Primary,
		Secondary:   schema.Secondary,
		Marker:      schema.Marker,
		Fields:      fields,
	}
}
