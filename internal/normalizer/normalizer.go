// internal/normalizer/normalizer.go
package normalizer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Result is a normalized record plus the tier that produced it.
type Result struct {
	Record Record
	Tier   Tier
}

// Normalizer turns raw upstream text into a fully populated Record for one schema.
// It is safe for concurrent use.
type Normalizer struct {
	schema    Schema
	validator *gojsonschema.Schema
	chain     Chain
	terms     []termRule
	termField map[string]bool
}

// New validates the schema and builds its strategy chain.
func New(schema Schema) (*Normalizer, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	validator, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.jsonSchema()))
	if err != nil {
		return nil, fmt.Errorf("schema %q: compile: %w", schema.Name, err)
	}

	n := &Normalizer{
		schema:    schema,
		validator: validator,
		terms:     compileTerms(schema.Substitutions),
		termField: make(map[string]bool, len(schema.SubstituteFields)),
	}
	for _, name := range schema.SubstituteFields {
		n.termField[name] = true
	}

	strategies := []Strategy{
		StrictParse(n.accept),
		ExtractParse(n.accept),
	}
	if schema.Marker != "" {
		strategies = append(strategies, DelimiterSplit(schema.Primary, schema.Secondary, schema.Marker))
	} else {
		strategies = append(strategies, PlainText(schema.Primary))
	}
	strategies = append(strategies, Defaults())
	n.chain = FirstSuccess(strategies...)

	return n, nil
}

// MustNew is New for schemas known to be valid.
func MustNew(schema Schema) *Normalizer {
	n, err := New(schema)
	if err != nil {
		panic(err)
	}
	return n
}

// Schema returns the schema the normalizer was built for.
func (n *Normalizer) Schema() Schema {
	return n.schema
}

// Normalize never fails: malformed input degrades to defaults.
func (n *Normalizer) Normalize(raw string) Result {
	cand, tier, ok := n.chain(raw)
	if !ok {
		cand, tier = Candidate{}, TierDefaults
	}

	rec := Coerce(n.schema, cand)
	if len(n.terms) > 0 {
		for name := range n.termField {
			if v := applyTerms(rec[name], n.terms); strings.TrimSpace(v) != "" {
				rec[name] = v
			}
		}
	}

	return Result{Record: rec, Tier: tier}
}

func (n *Normalizer) accept(cand Candidate) bool {
	result, err := n.validator.Validate(gojsonschema.NewGoLoader(map[string]interface{}(cand)))
	if err != nil {
		return false
	}
	return result.Valid()
}
