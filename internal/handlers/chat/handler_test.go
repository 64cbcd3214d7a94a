package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"charting-assistant/internal/common/genai"
	"charting-assistant/internal/common/logger"
	"charting-assistant/internal/normalizer"
	"charting-assistant/pkg/registry"
)

// ==========================
// Helpers
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      2 * time.Second,
		MaxBodyBytes: 64 << 10,
		DefaultMode:  ModeChart,
	}
}

func newTestHandler(t *testing.T, cfg *Config, client genai.Client, extra ...registry.Mode) *Handler {
	t.Helper()
	h, err := NewHandler(cfg, client, extra, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, Route, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

type blockingClient struct{}

func (blockingClient) Name() string { return "blocking" }

func (blockingClient) Generate(ctx context.Context, _ genai.Prompt) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// ==========================
// Success paths
// ==========================

func TestHandler_ChartSuccess(t *testing.T) {
	client := genai.NewMockClient("")
	h := newTestHandler(t, createTestConfig(), client)

	rec, out := post(t, h, `{"input":"res ate 50% bfast, c/o pain 4/10"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{
		"note":     "Resident resting in bed, call light within reach. No distress observed.",
		"feedback": "💬 Feedback: Add the time of observation and any vital signs taken.",
	}, out)

	prompts := client.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, chartPrompt, prompts[0].System)
	assert.Equal(t, "res ate 50% bfast, c/o pain 4/10", prompts[0].User)
	assert.True(t, prompts[0].JSONMode)
}

func TestHandler_DelimitedUpstreamText(t *testing.T) {
	client := genai.NewMockClient("Patient was calm. 💬 Feedback: Good objectivity.")
	h := newTestHandler(t, createTestConfig(), client)

	rec, out := post(t, h, `{"input":"pt calm"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Patient was calm.", out["note"])
	assert.Equal(t, "💬 Feedback: Good objectivity.", out["feedback"])
}

func TestHandler_EmptyUpstreamTextUsesDefaults(t *testing.T) {
	client := genai.NewMockClient(" ")
	h := newTestHandler(t, createTestConfig(), client)

	rec, out := post(t, h, `{"input":"anything"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, normalizer.DefaultNote, out["note"])
	assert.Equal(t, normalizer.DefaultFeedback, out["feedback"])
}

func TestHandler_Modes(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		upstream string
		expected map[string]string
		prompt   string
	}{
		{
			name:     "rewrite",
			mode:     "rewrite",
			upstream: `{"output":"Resident ambulated to the dining room with a walker."}`,
			expected: map[string]string{"output": "Resident ambulated to the dining room with a walker."},
			prompt:   rewritePrompt,
		},
		{
			name:     "chart with example",
			mode:     "chart_example",
			upstream: "```json\n{\"note\":\"A\",\"feedback\":\"B\",\"example\":\"C\"}\n```",
			expected: map[string]string{"note": "A", "feedback": "B", "example": "C"},
			prompt:   chartExamplePrompt,
		},
		{
			name:     "educator falls back to plain text",
			mode:     "educator",
			upstream: "<p>💬 Feedback: add times.</p>",
			expected: map[string]string{"feedbackHtml": "<p>💬 Feedback: add times.</p>", "example": normalizer.DefaultExample},
			prompt:   educatorPrompt,
		},
		{
			name:     "blank mode means default",
			mode:     " ",
			upstream: `{"note":"N","feedback":"F"}`,
			expected: map[string]string{"note": "N", "feedback": "F"},
			prompt:   chartPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := genai.NewMockClient(tt.upstream)
			h := newTestHandler(t, createTestConfig(), client)

			body, _ := json.Marshal(map[string]string{"input": "note text", "mode": tt.mode})
			rec, out := post(t, h, string(body))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.expected, out)
			require.Len(t, client.Prompts(), 1)
			assert.Equal(t, tt.prompt, client.Prompts()[0].System)
		})
	}
}

func TestHandler_TerminologySubstitution(t *testing.T) {
	cfg := createTestConfig()
	cfg.Substitutions = []normalizer.Substitution{{From: "patient", To: "resident"}}
	cfg.SubstituteFields = []string{"note", "output"}

	client := genai.NewMockClient(`{"note":"The patient refused the patient's medication","feedback":"💬 Feedback: say resident instead of patient"}`)
	h := newTestHandler(t, cfg, client)

	_, out := post(t, h, `{"input":"pt refused meds"}`)

	assert.Equal(t, "The resident refused the resident's medication", out["note"])
	assert.Equal(t, "💬 Feedback: say resident instead of patient", out["feedback"])
}

func TestHandler_RegistryModes(t *testing.T) {
	handoff := registry.Mode{
		ID:       "handoff",
		Prompt:   "Summarize the shift.",
		JSONMode: false,
		Primary:  "summary",
		Fields:   []registry.Field{{Name: "summary", Default: "No summary returned.", Required: true}},
	}
	chart := BuiltinModes()[0]
	chart.Prompt = "custom chart prompt"

	client := genai.NewMockClient("Quiet night, slept 6h.")
	h := newTestHandler(t, createTestConfig(), client, handoff, chart)

	assert.Equal(t, []string{"chart", "chart_example", "educator", "handoff", "rewrite"}, h.Modes())

	_, out := post(t, h, `{"input":"quiet","mode":"handoff"}`)
	assert.Equal(t, map[string]string{"summary": "Quiet night, slept 6h."}, out)
	assert.False(t, client.Prompts()[0].JSONMode)

	post(t, h, `{"input":"quiet"}`)
	assert.Equal(t, "custom chart prompt", client.Prompts()[1].System)
}

// ==========================
// Error paths
// ==========================

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, createTestConfig(), genai.NewMockClient(""))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, Route, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
			assert.JSONEq(t, `{"error":"Method not allowed","code":"METHOD_NOT_ALLOWED"}`, rec.Body.String())
		})
	}
}

func TestHandler_InvalidInput(t *testing.T) {
	client := genai.NewMockClient("")
	cfg := createTestConfig()
	cfg.MaxBodyBytes = 128
	h := newTestHandler(t, cfg, client)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "input=hello"},
		{"null", "null"},
		{"array", `["hello"]`},
		{"missing input", `{"mode":"chart"}`},
		{"empty input", `{"input":""}`},
		{"blank input", `{"input":"   \n"}`},
		{"unicode blank input", `{"input":"\u00a0\u3000"}`},
		{"next line only", `{"input":"\u0085 \u00a0"}`},
		{"number input", `{"input":42}`},
		{"too large", `{"input":"` + strings.Repeat("a", 200) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := post(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing or invalid 'input'.", out["error"])
			assert.Equal(t, "INVALID_INPUT", out["code"])
		})
	}
	assert.Empty(t, client.Prompts())
}

func TestHandler_UnknownMode(t *testing.T) {
	client := genai.NewMockClient("")
	h := newTestHandler(t, createTestConfig(), client)

	rec, out := post(t, h, `{"input":"x","mode":"poetry"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown 'mode'.", out["error"])
	assert.Empty(t, client.Prompts())
}

func TestHandler_MissingClient(t *testing.T) {
	h := newTestHandler(t, createTestConfig(), nil)

	rec, out := post(t, h, `{"input":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]string{"error": "Server error: missing API key.", "code": "MISSING_CREDENTIALS"}, out)
}

func TestHandler_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedBody map[string]string
	}{
		{
			name: "upstream status",
			err:  &genai.UpstreamError{Provider: "responses", StatusCode: 401, Text: "Incorrect API key provided"},
			expectedBody: map[string]string{
				"error": "Upstream error: Incorrect API key provided",
				"code":  "UPSTREAM_FAILURE",
			},
		},
		{
			name: "transport failure",
			err:  fmt.Errorf("%w: connection refused", genai.ErrUpstreamFailure),
			expectedBody: map[string]string{
				"error": "Upstream error: connection refused",
				"code":  "UPSTREAM_FAILURE",
			},
		},
		{
			name: "timeout",
			err:  fmt.Errorf("%w: context deadline exceeded", genai.ErrUpstreamTimeout),
			expectedBody: map[string]string{
				"error": "Upstream error: request timed out",
				"code":  "UPSTREAM_TIMEOUT",
			},
		},
		{
			name: "credentials rejected by provider",
			err:  genai.ErrMissingCredentials,
			expectedBody: map[string]string{
				"error": "Server error: missing API key.",
				"code":  "MISSING_CREDENTIALS",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, createTestConfig(), genai.NewFailingMockClient(tt.err))

			rec, out := post(t, h, `{"input":"x"}`)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.expectedBody, out)
		})
	}
}

func TestHandler_UpstreamDeadline(t *testing.T) {
	cfg := createTestConfig()
	cfg.Timeout = 20 * time.Millisecond
	h := newTestHandler(t, cfg, blockingClient{})

	rec, out := post(t, h, `{"input":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "UPSTREAM_TIMEOUT", out["code"])
}

func TestHandler_LogsCarryRequestScope(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := logger.NewZapAdapter(zap.New(core))

	ok, err := NewHandler(createTestConfig(), genai.NewMockClient(""), nil, nil, log)
	require.NoError(t, err)
	failing, err := NewHandler(createTestConfig(), genai.NewFailingMockClient(genai.ErrUpstreamFailure), nil, nil, log)
	require.NoError(t, err)

	post(t, ok, `{"input":"x","mode":"rewrite"}`)
	post(t, failing, `{"input":"x"}`)

	completed := logs.FilterMessage("chat completed").All()
	require.Len(t, completed, 1)
	ctx := completed[0].ContextMap()
	assert.Equal(t, "req-test", ctx["requestId"])
	assert.Equal(t, "rewrite", ctx["mode"])
	assert.Equal(t, "mock", ctx["provider"])
	assert.Equal(t, "chat", ctx["handler"])

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	ctx = failed[0].ContextMap()
	assert.Equal(t, "req-test", ctx["requestId"])
	assert.Equal(t, ModeChart, ctx["mode"])
	assert.Equal(t, "mock", ctx["provider"])
	assert.Equal(t, "UPSTREAM_FAILURE", ctx["errorCode"])
}

func TestNewHandler_Errors(t *testing.T) {
	cfg := createTestConfig()
	cfg.DefaultMode = "missing"
	_, err := NewHandler(cfg, nil, nil, nil, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "default mode")

	bad := registry.Mode{ID: "bad", Prompt: "p", Primary: "x"}
	_, err = NewHandler(createTestConfig(), nil, []registry.Mode{bad}, nil, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "mode bad")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := (&Config{}).withDefaults()
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, int64(64<<10), cfg.MaxBodyBytes)
	assert.Equal(t, ModeChart, cfg.DefaultMode)
}
