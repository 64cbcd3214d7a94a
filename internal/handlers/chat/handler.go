// internal/handlers/chat/handler.go
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "charting-assistant/internal/common/errors"
	"charting-assistant/internal/common/genai"
	"charting-assistant/internal/common/logger"
	"charting-assistant/internal/common/metrics"
	"charting-assistant/internal/common/observability"
	"charting-assistant/internal/common/validation"
	"charting-assistant/internal/normalizer"
	"charting-assistant/pkg/registry"
)

const (
	Route           = "/api/chat"
	RequestIDHeader = "X-Request-ID"
)

type Handler struct {
	config    *Config
	client    genai.Client
	modes     map[string]compiledMode
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
}

// NewHandler compiles a normalizer per mode. extra modes replace built-in ones with the same id.
// client may be nil when no credentials are configured; every request then answers 500.
func NewHandler(config *Config, client genai.Client, extra []registry.Mode, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	cfg := config.withDefaults()

	all := make(map[string]registry.Mode)
	for _, m := range BuiltinModes() {
		all[m.ID] = m
	}
	for _, m := range extra {
		all[m.ID] = m
	}
	if _, ok := all[cfg.DefaultMode]; !ok {
		return nil, fmt.Errorf("default mode %q is not defined", cfg.DefaultMode)
	}

	modes := make(map[string]compiledMode, len(all))
	ids := make([]string, 0, len(all))
	for id, m := range all {
		schema := applySubstitutions(m.Schema(), cfg.Substitutions, cfg.SubstituteFields)
		n, err := normalizer.New(schema)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", id, err)
		}
		modes[id] = compiledMode{mode: m, normalizer: n}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	validator, err := validation.NewChatRequestValidator(ids)
	if err != nil {
		return nil, fmt.Errorf("request validator: %w", err)
	}

	log = log.With(map[string]interface{}{"handler": "chat"})
	return &Handler{
		config:    cfg,
		client:    client,
		modes:     modes,
		validator: validator,
		errors:    apperrors.NewErrorHandler(log),
		obs:       obs,
		logger:    log,
	}, nil
}

// applySubstitutions restricts the configured fields to those the schema defines.
func applySubstitutions(schema normalizer.Schema, subs []normalizer.Substitution, fields []string) normalizer.Schema {
	if len(subs) == 0 {
		return schema
	}
	if len(fields) == 0 {
		return schema.WithSubstitutions(subs)
	}

	var present []string
	for _, name := range fields {
		if _, ok := schema.Field(name); ok {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return schema
	}
	return schema.WithSubstitutions(subs, present...)
}

// Modes returns the served mode ids in order.
func (h *Handler) Modes() []string {
	ids := make([]string, 0, len(h.modes))
	for id := range h.modes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.ChatRequestsActive.Inc()
	defer metrics.ChatRequestsActive.Dec()

	mode := h.config.DefaultMode
	scope := logger.Request{ID: r.Header.Get(RequestIDHeader)}
	status := http.StatusOK
	defer func() {
		statusLabel := strconv.Itoa(status)
		metrics.ChatRequestsTotal.WithLabelValues(mode, statusLabel).Inc()
		h.obs.RecordRequest(r.Context(), mode, statusLabel)
		h.obs.RecordDuration(r.Context(), time.Since(start), mode, statusLabel)
	}()

	fail := func(err *apperrors.StandardError) {
		scope.Mode = mode
		err.Metadata = scope.Annotate(err.Metadata)
		status = h.errors.Write(w, err).HTTPStatus()
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		fail(apperrors.NewMethodNotAllowedError(r.Method))
		return
	}

	req, stdErr := h.decode(w, r)
	if stdErr != nil {
		fail(stdErr)
		return
	}
	if req.Mode != "" {
		mode = req.Mode
	}
	cm := h.modes[mode]

	if h.client == nil {
		fail(apperrors.NewMissingCredentialsError("none"))
		return
	}
	provider := h.client.Name()
	scope.Provider = provider

	text, err := h.generate(r.Context(), cm.mode, req.Input)
	if err != nil {
		stdErr := upstreamError(provider, err)
		metrics.UpstreamErrorsTotal.WithLabelValues(provider, string(stdErr.Code)).Inc()
		fail(stdErr)
		return
	}

	result := cm.normalizer.Normalize(text)
	metrics.NormalizedTotal.WithLabelValues(mode, string(result.Tier)).Inc()

	scope.Mode = mode
	logger.ForRequest(h.logger, scope).Info("chat completed", map[string]interface{}{
		"tier":       string(result.Tier),
		"inputChars": len(req.Input),
		"durationMs": time.Since(start).Milliseconds(),
	})

	apperrors.WriteJSON(w, status, Response(result.Record))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*Request, *apperrors.StandardError) {
	var body map[string]interface{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("decode body: %v", err))
	}

	if m, ok := body["mode"].(string); ok && strings.TrimSpace(m) == "" {
		delete(body, "mode")
	}

	result := h.validator.ValidateInput(body)
	if !result.Valid {
		if result.HasErrors("mode") && !result.HasErrors("input") {
			return nil, apperrors.NewInvalidModeError(fmt.Sprint(body["mode"]))
		}
		return nil, apperrors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	req := &Request{Input: body["input"].(string)}
	if strings.TrimSpace(req.Input) == "" {
		return nil, apperrors.NewInvalidInputError("input is blank")
	}
	if m, ok := body["mode"].(string); ok {
		req.Mode = m
	}
	return req, nil
}

func (h *Handler) generate(ctx context.Context, mode registry.Mode, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	text, err := h.client.Generate(ctx, genai.Prompt{
		System:   mode.Prompt,
		User:     input,
		JSONMode: mode.JSONMode,
	})
	metrics.UpstreamDuration.WithLabelValues(h.client.Name()).Observe(time.Since(start).Seconds())
	return text, err
}

func upstreamError(provider string, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, genai.ErrMissingCredentials):
		return apperrors.NewMissingCredentialsError(provider)
	case errors.Is(err, genai.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewUpstreamTimeoutError(err)
	default:
		return apperrors.NewUpstreamFailureError(genai.UpstreamText(err), err)
	}
}
