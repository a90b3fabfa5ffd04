// Package llm routes composed prompts to a hosted language model and
// normalizes heterogeneous provider responses and failures into one
// result shape.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies provider failures so downstream logging and
// display never special-case providers.
type ErrorKind string

const (
	KindAuth        ErrorKind = "AUTH_ERROR"
	KindRateLimited ErrorKind = "RATE_LIMITED"
	KindNetwork     ErrorKind = "NETWORK_ERROR"
	KindProvider    ErrorKind = "PROVIDER_ERROR"
	KindTimeout     ErrorKind = "TIMEOUT"
)

// Error is the normalized provider failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Provider, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Request carries the composed prompt and generation parameters for one
// completion call.
type Request struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Result is a successful completion.
type Result struct {
	Answer string
}

// Provider is one hosted language-model service.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Result, error)
}

// Router holds the configured providers and performs the single
// name→provider lookup per call. Exactly one network call is made per
// Complete invocation; retry, if any, is the caller's decision.
type Router struct {
	providers map[string]Provider
	timeout   time.Duration
}

func NewRouter(timeout time.Duration, providers ...Provider) *Router {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Router{providers: m, timeout: timeout}
}

// Providers returns the registered provider names.
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Complete routes the request to the named provider under the router's
// timeout. Exceeding the timeout yields KindTimeout, never a hang.
func (r *Router) Complete(ctx context.Context, provider string, req Request) (Result, error) {
	p, ok := r.providers[provider]
	if !ok {
		return Result{}, &Error{Kind: KindProvider, Provider: provider, Message: "unknown provider"}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := p.Complete(callCtx, req)
	if err != nil {
		return Result{}, normalize(provider, callCtx, err)
	}
	return res, nil
}

// normalize maps transport and context failures onto the shared kinds.
// Provider implementations return *Error for HTTP-level failures; this
// covers everything else.
func normalize(provider string, ctx context.Context, err error) error {
	var lerr *Error
	if errors.As(err, &lerr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: provider, Message: "request deadline exceeded", Cause: err}
	}
	return &Error{Kind: KindNetwork, Provider: provider, Message: "request failed", Cause: err}
}

// classifyStatus maps an HTTP status onto the shared kinds. Used by all
// provider implementations.
func classifyStatus(provider string, status int, body string) *Error {
	kind := KindProvider
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	}
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf("HTTP %d: %s", status, truncate(body, 200))}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
