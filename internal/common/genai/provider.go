// Package genai adapts upstream text-generation services to a single Generate call.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrMissingCredentials = errors.New("GENAI_MISSING_CREDENTIALS")
	ErrUpstreamFailure    = errors.New("GENAI_UPSTREAM_FAILURE")
	ErrUpstreamTimeout    = errors.New("GENAI_UPSTREAM_TIMEOUT")
)

// Prompt is one system instruction plus one user message.
type Prompt struct {
	System   string
	User     string
	JSONMode bool
}

// Client returns the raw text produced for a prompt. The text is not interpreted here.
type Client interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Name() string
}

// UpstreamError is a non-success answer from the provider. Text is what the caller is shown.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Text       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s", ErrUpstreamFailure, e.Provider, e.StatusCode, e.Text)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamFailure
}

// UpstreamText extracts the message to show the caller for a failed Generate.
func UpstreamText(err error) string {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Text
	}
	msg := err.Error()
	msg = strings.TrimPrefix(msg, ErrUpstreamFailure.Error()+": ")
	return msg
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	if errors.Is(err, ErrUpstreamFailure) || errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
}
