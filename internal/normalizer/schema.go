// internal/normalizer/schema.go
package normalizer

import (
	"fmt"
	"strings"
)

// Field is one named string field of a normalized record.
type Field struct {
	Name     string `json:"name"`
	Default  string `json:"default"`
	Required bool   `json:"required"`
}

// Substitution replaces every whole-word occurrence of From with To.
type Substitution struct {
	From string `json:"from" mapstructure:"from"`
	To   string `json:"to" mapstructure:"to"`
}

// Schema describes the record a deployment expects back from the upstream model.
//
// Primary receives unstructured text when no JSON object can be recovered. When Marker is set,
// text after the first marker goes to Secondary.
type Schema struct {
	Name             string
	Fields           []Field
	Primary          string
	Secondary        string
	Marker           string
	Substitutions    []Substitution
	SubstituteFields []string
}

// Record is a normalized upstream response. Every schema field is present and non-empty.
type Record map[string]string

// Field returns the named field definition.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Defaults returns a record holding every field's default value.
func (s Schema) Defaults() Record {
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		rec[f.Name] = f.Default
	}
	return rec
}

// WithSubstitutions returns a copy of the schema that applies subs to the given fields.
// With no fields listed, every schema field is substituted.
func (s Schema) WithSubstitutions(subs []Substitution, fields ...string) Schema {
	out := s
	out.Fields = append([]Field(nil), s.Fields...)
	out.Substitutions = append([]Substitution(nil), subs...)
	if len(fields) == 0 {
		for _, f := range s.Fields {
			fields = append(fields, f.Name)
		}
	}
	out.SubstituteFields = append([]string(nil), fields...)
	return out
}

// Validate checks the schema can always produce a fully populated record.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %q: no fields", s.Name)
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema %q: field with empty name", s.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema %q: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = true
		if strings.TrimSpace(f.Default) == "" {
			return fmt.Errorf("schema %q: field %q has no default", s.Name, f.Name)
		}
	}

	if !seen[s.Primary] {
		return fmt.Errorf("schema %q: primary field %q not defined", s.Name, s.Primary)
	}
	if s.Marker != "" {
		if !seen[s.Secondary] {
			return fmt.Errorf("schema %q: secondary field %q not defined", s.Name, s.Secondary)
		}
		if s.Secondary == s.Primary {
			return fmt.Errorf("schema %q: primary and secondary must differ", s.Name)
		}
	}

	for _, sub := range s.Substitutions {
		if strings.TrimSpace(sub.From) == "" {
			return fmt.Errorf("schema %q: substitution with empty term", s.Name)
		}
	}
	for _, name := range s.SubstituteFields {
		if !seen[name] {
			return fmt.Errorf("schema %q: substitution field %q not defined", s.Name, name)
		}
	}

	return nil
}

// jsonSchema expresses "every required field is present with a string value".
func (s Schema) jsonSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Fields))
	required := []interface{}{}
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		props[f.Name] = map[string]interface{}{"type": "string"}
		required = append(required, f.Name)
	}

	return map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
