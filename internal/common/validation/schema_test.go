package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequestValidator(t *testing.T) {
	v, err := NewChatRequestValidator([]string{"chart", "rewrite"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      map[string]interface{}
		valid      bool
		errorField string
		errorCode  string
	}{
		{"minimal", map[string]interface{}{"input": "res ate 50% bfast"}, true, "", ""},
		{"with mode", map[string]interface{}{"input": "x", "mode": "rewrite"}, true, "", ""},
		{"extra fields allowed", map[string]interface{}{"input": "x", "client": "pwa"}, true, "", ""},
		{"missing input", map[string]interface{}{"mode": "chart"}, false, "input", "REQUIRED_FIELD_MISSING"},
		{"blank input", map[string]interface{}{"input": " \n\t "}, false, "input", "PATTERN_MISMATCH"},
		{"empty input", map[string]interface{}{"input": ""}, false, "input", "PATTERN_MISMATCH"},
		{"unicode blank input", map[string]interface{}{"input": "\u00a0\u3000\u2003"}, false, "input", "PATTERN_MISMATCH"},
		{"number input", map[string]interface{}{"input": float64(42)}, false, "input", "INVALID_TYPE"},
		{"null input", map[string]interface{}{"input": nil}, false, "input", "INVALID_TYPE"},
		{"unknown mode", map[string]interface{}{"input": "x", "mode": "poetry"}, false, "mode", "INVALID_ENUM_VALUE"},
		{"too long", map[string]interface{}{"input": strings.Repeat("a", MaxInputLength+1)}, false, "input", "MAX_LENGTH_VIOLATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateInput(tt.input)
			assert.Equal(t, tt.valid, result.Valid, "%v", result.GetErrorMessages())
			if !tt.valid {
				require.NotEmpty(t, result.Errors)
				assert.True(t, result.HasErrors(tt.errorField), "%v", result.Errors)
				assert.Equal(t, tt.errorCode, result.Errors[0].Code)
			}
		})
	}
}

func TestValidator_NilBody(t *testing.T) {
	v, err := NewChatRequestValidator(nil)
	require.NoError(t, err)

	result := v.ValidateInput(nil)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"(root): body must be a JSON object"}, result.GetErrorMessages())

	assert.True(t, v.ValidateInput(map[string]interface{}{"input": "x", "mode": "anything"}).Valid)
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}
