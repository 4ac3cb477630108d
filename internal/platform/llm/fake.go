package llm

import (
	"context"
	"sync"
)

// Call records one completion request made against a ScriptedClient.
type Call struct {
	System string
	User   string
	Opts   Options
}

// ScriptedClient replays canned responses in order and records every call.
// It exists for tests; the pipeline stages call the model at most once each
// per request, so a queue is sufficient to script a whole run.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []Call
}

// NewScriptedClient builds a client that returns the given responses in
// order. A nil error slot means the corresponding response is returned.
func NewScriptedClient(responses []string, errs []error) *ScriptedClient {
	return &ScriptedClient{responses: responses, errs: errs}
}

func (s *ScriptedClient) Complete(_ context.Context, system, user string, opts Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.calls)
	s.calls = append(s.calls, Call{System: system, User: user, Opts: opts})

	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", ErrEmptyResponse
}

// Calls returns a copy of all recorded calls.
func (s *ScriptedClient) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}
