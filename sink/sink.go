// Package sink fans a final answer out to the configured output
// destinations and reports one outcome per sink.
package sink

import (
	"context"
	"fmt"
	"time"
)

// Payload is the delivered answer plus the context it was produced in.
type Payload struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Template  string    `json:"template"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink is one output destination. Deliver is a single attempt; the
// dispatcher records the outcome and never retries.
type Sink interface {
	Name() string
	// Configured reports whether the sink has an endpoint to deliver
	// to. Unconfigured sinks are skipped, not attempted.
	Configured() bool
	Deliver(ctx context.Context, p Payload) error
}

// Outcome is the per-sink delivery report. A run produces one Outcome
// per configured sink, in configuration order.
type Outcome struct {
	Sink    string `json:"sink"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

// Dispatcher delivers to its sinks in order. Sinks are isolated from
// each other: one failure never prevents delivery to the rest.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Sinks returns the configured sink names in dispatch order.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Dispatch delivers p to every sink and returns the ordered outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) []Outcome {
	outcomes := make([]Outcome, 0, len(d.sinks))
	for _, s := range d.sinks {
		outcomes = append(outcomes, deliverOne(ctx, s, p))
	}
	return outcomes
}

func deliverOne(ctx context.Context, s Sink, p Payload) (out Outcome) {
	out = Outcome{Sink: s.Name()}
	if !s.Configured() {
		out.Detail = "not configured"
		return out
	}

	// A panicking sink must not take its siblings down with it.
	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Detail = fmt.Sprintf("panic: %v", r)
		}
	}()

	if err := s.Deliver(ctx, p); err != nil {
		out.Detail = err.Error()
		return out
	}
	out.Success = true
	return out
}
