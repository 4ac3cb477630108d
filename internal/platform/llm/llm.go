// Package llm wraps the generative text service behind a minimal completion
// interface. The pipeline's three generative stages (translation,
// reconciliation, summarization) each build their own constrained prompt and
// decode the response themselves; this package only performs the call.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Options constrain a single completion call.
type Options struct {
	// Temperature is the sampling temperature. All pipeline stages use a
	// low value for near-deterministic output.
	Temperature float32
	// JSONOutput requests a JSON-shaped response from the model.
	JSONOutput bool
	// MaxOutputTokens bounds the response size; 0 means the model default.
	MaxOutputTokens int32
}

// Client is the generative text service contract.
type Client interface {
	Complete(ctx context.Context, system, user string, opts Options) (string, error)
}
