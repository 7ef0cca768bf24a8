// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	// defaultMaxTokens is the default maximum output tokens per request.
	defaultMaxTokens = 4096

	// defaultMaxRetries is the number of automatic transport retries on
	// transient errors (429 rate-limit, 5xx server errors). Retries are
	// opt-in: by default one Complete call is one service request.
	defaultMaxRetries = 0
)

// Backend names accepted by New.
const (
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
	BackendGemini    = "gemini"
)

// Option configures a backend.
type Option func(*options)

type options struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	httpClient *http.Client
}

func defaultOptions(model string) options {
	return options{model: model, maxRetries: defaultMaxRetries}
}

// WithAPIKey sets the API key. If not provided, each backend reads its
// conventional environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithModel overrides the default model for all requests.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithMaxRetries enables up to n transport retries on transient errors.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithBaseURL points the backend at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the backend.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func resolveKey(explicit, envVar string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("llm: %s not set and no API key provided", envVar)
}

var constructors = map[string]func(...Option) (Provider, error){
	BackendAnthropic: func(opts ...Option) (Provider, error) { return NewAnthropicProvider(opts...) },
	BackendOpenAI:    func(opts ...Option) (Provider, error) { return NewOpenAIProvider(opts...) },
	BackendGemini:    func(opts ...Option) (Provider, error) { return NewGeminiProvider(opts...) },
}

// Backends returns the names accepted by New, sorted.
func Backends() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the named backend.
func New(backend string, opts ...Option) (Provider, error) {
	ctor, ok := constructors[backend]
	if !ok {
		return nil, fmt.Errorf("llm: unknown backend %q (available: %s)", backend, strings.Join(Backends(), ", "))
	}
	return ctor(opts...)
}

// retryBaseDelay is the first backoff step between transport retries.
var retryBaseDelay = 500 * time.Millisecond

// withRetries calls fn until it succeeds, fails with a non-retryable error,
// or maxRetries retries have been spent. Delays double after each attempt.
func withRetries[T any](ctx context.Context, maxRetries int, retryable func(error) bool, fn func() (T, error)) (T, error) {
	delay := retryBaseDelay
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil || attempt >= maxRetries || !retryable(err) {
			return v, err
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// transientStatus reports rate-limit and server errors.
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
