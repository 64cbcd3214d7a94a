package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.With(map[string]interface{}{"requestId": "abc"}).
		WithError(errors.New("boom")).
		Warn("upstream failed", map[string]interface{}{"mode": "chart", "cause": errors.New("timeout")})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "upstream failed", entries[0].Message)
	assert.Equal(t, "abc", ctx["requestId"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "timeout", ctx["cause"])
	assert.Equal(t, "chart", ctx["mode"])
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		infoOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"", false, true},
		{"verbose", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, "json", "stderr")
			assert.Equal(t, tt.debugOn, l.Core().Enabled(zap.DebugLevel))
			assert.Equal(t, tt.infoOn, l.Core().Enabled(zap.InfoLevel))
		})
	}
}

func TestNoOpAndTestLoggers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoOpLogger().WithFields(nil).Info("quiet", nil)
		NewTestLogger(t).Debug("visible in -v", map[string]interface{}{"k": 1})
	})
}

func TestRequest_FieldsAndAnnotate(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		expected map[string]interface{}
	}{
		{"empty", Request{}, map[string]interface{}{}},
		{"id only", Request{ID: "abc"}, map[string]interface{}{"requestId": "abc"}},
		{"full", Request{ID: "abc", Mode: "chart", Provider: "bedrock"}, map[string]interface{}{
			"requestId": "abc", "mode": "chart", "provider": "bedrock",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.req.Fields())
		})
	}

	meta := Request{ID: "abc", Mode: "chart"}.Annotate(map[string]interface{}{"path": "/api/chat"})
	assert.Equal(t, map[string]interface{}{"path": "/api/chat", "requestId": "abc", "mode": "chart"}, meta)
	assert.Equal(t, map[string]interface{}{"requestId": "abc"}, Request{ID: "abc"}.Annotate(nil))
}

func TestForRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"handler": "chat"})

	ForRequest(base, Request{ID: "abc", Provider: "mock"}).Info("chat completed", map[string]interface{}{"tier": "json"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]interface{}{
		"handler":   "chat",
		"requestId": "abc",
		"provider":  "mock",
		"tier":      "json",
	}, entries[0].ContextMap())
}
