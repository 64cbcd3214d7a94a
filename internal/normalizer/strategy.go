package normalizer

import (
	"encoding/json"
	"strings"
)

// Tier names the strategy that produced a candidate record.
type Tier string

const (
	TierStrict    Tier = "strict"
	TierExtracted Tier = "extracted"
	TierDelimited Tier = "delimited"
	TierPlain     Tier = "plain"
	TierDefaults  Tier = "defaults"
)

// Candidate is an unchecked record produced by a strategy. Values may be missing or of any type;
// Coerce turns it into a Record.
type Candidate map[string]interface{}

// Strategy is one way of recovering a candidate from raw upstream text.
type Strategy struct {
	Tier  Tier
	Parse func(raw string) (Candidate, bool)
}

// Chain runs strategies in order.
type Chain func(raw string) (Candidate, Tier, bool)

// FirstSuccess composes strategies so the first one that succeeds wins.
func FirstSuccess(strategies ...Strategy) Chain {
	return func(raw string) (Candidate, Tier, bool) {
		for _, s := range strategies {
			if cand, ok := s.Parse(raw); ok {
				return cand, s.Tier, true
			}
		}
		return nil, "", false
	}
}

// StrictParse accepts the whole text as a JSON object when accept approves it.
func StrictParse(accept func(Candidate) bool) Strategy {
	return Strategy{
		Tier: TierStrict,
		Parse: func(raw string) (Candidate, bool) {
			return decodeObject(raw, accept)
		},
	}
}

// ExtractParse looks for the span from the first '{' to the last '}' and parses only that.
// This recovers objects wrapped in prose or code fences.
func ExtractParse(accept func(Candidate) bool) Strategy {
	return Strategy{
		Tier: TierExtracted,
		Parse: func(raw string) (Candidate, bool) {
			start := strings.Index(raw, "{")
			end := strings.LastIndex(raw, "}")
			if start < 0 || end <= start {
				return nil, false
			}
			return decodeObject(raw[start:end+1], accept)
		},
	}
}

// DelimiterSplit splits on the first marker. Text before it is the primary value; the marker and
// everything after it is the secondary value. Missing halves are left for coercion to default.
func DelimiterSplit(primary, secondary, marker string) Strategy {
	return Strategy{
		Tier: TierDelimited,
		Parse: func(raw string) (Candidate, bool) {
			if marker == "" {
				return nil, false
			}

			parts := strings.Split(raw, marker)
			cand := Candidate{}
			if before := strings.TrimSpace(parts[0]); before != "" {
				cand[primary] = before
			}
			if len(parts) > 1 {
				rest := strings.Join(parts[1:], marker)
				if strings.TrimSpace(rest) != "" {
					cand[secondary] = strings.TrimSpace(marker + rest)
				}
			}
			return cand, true
		},
	}
}

// PlainText puts the whole trimmed text into the primary field.
func PlainText(primary string) Strategy {
	return Strategy{
		Tier: TierPlain,
		Parse: func(raw string) (Candidate, bool) {
			text := strings.TrimSpace(raw)
			if text == "" {
				return nil, false
			}
			return Candidate{primary: text}, true
		},
	}
}

// Defaults always succeeds with an empty candidate.
func Defaults() Strategy {
	return Strategy{
		Tier: TierDefaults,
		Parse: func(string) (Candidate, bool) {
			return Candidate{}, true
		},
	}
}

func decodeObject(text string, accept func(Candidate) bool) (Candidate, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return nil, false
	}
	cand := Candidate(obj)
	if accept != nil && !accept(cand) {
		return nil, false
	}
	return cand, true
}

// Coerce returns a record with every schema field set. Absent, non-string and blank values are
// replaced by the field default.
func Coerce(schema Schema, cand Candidate) Record {
	rec := make(Record, len(schema.Fields))
	for _, f := range schema.Fields {
		v, ok := cand[f.Name].(string)
		if !ok || strings.TrimSpace(v) == "" {
			v = f.Default
		}
		rec[f.Name] = v
	}
	return rec
}
