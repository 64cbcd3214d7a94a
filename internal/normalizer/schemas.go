package normalizer

const (
	FeedbackMarker = "💬 Feedback:"

	DefaultNote         = "No note returned."
	DefaultFeedback     = "💬 Feedback: Keep notes objective and resident-focused."
	DefaultExample      = "No example returned."
	DefaultOutput       = "No output returned."
	DefaultFeedbackHTML = "<p>💬 Feedback: Keep notes objective and resident-focused.</p>"
)

// ChartSchema is the objective chart note plus one feedback line.
func ChartSchema() Schema {
	return Schema{
		Name: "chart",
		Fields: []Field{
			{Name: "note", Default: DefaultNote, Required: true},
			{Name: "feedback", Default: DefaultFeedback},
		},
		Primary:   "note",
		Secondary: "feedback",
		Marker:    FeedbackMarker,
	}
}

// ChartExampleSchema adds a model example note to ChartSchema.
func ChartExampleSchema() Schema {
	return Schema{
		Name: "chart_example",
		Fields: []Field{
			{Name: "note", Default: DefaultNote, Required: true},
			{Name: "feedback", Default: DefaultFeedback},
			{Name: "example", Default: DefaultExample},
		},
		Primary:   "note",
		Secondary: "feedback",
		Marker:    FeedbackMarker,
	}
}

// RewriteSchema is a single rewritten output.
func RewriteSchema() Schema {
	return Schema{
		Name: "rewrite",
		Fields: []Field{
			{Name: "output", Default: DefaultOutput, Required: true},
		},
		Primary: "output",
	}
}

// EducatorSchema is HTML educator feedback plus an example note.
func EducatorSchema() Schema {
	return Schema{
		Name: "educator",
		Fields: []Field{
			{Name: "feedbackHtml", Default: DefaultFeedbackHTML, Required: true},
			{Name: "example", Default: DefaultExample},
		},
		Primary: "feedbackHtml",
	}
}

// BuiltinSchemas returns the built-in schemas keyed by name.
func BuiltinSchemas() map[string]Schema {
	out := make(map[string]Schema)
	for _, s := range []Schema{ChartSchema(), ChartExampleSchema(), RewriteSchema(), EducatorSchema()} {
		out[s.Name] = s
	}
	return out
}
