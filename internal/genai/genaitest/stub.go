// Package genaitest provides a scriptable genai.Generator for tests.
package genaitest

import (
	"context"
	"sync"

	"travel-planner/internal/genai"
)

// Stub answers every call with Respond, or with Text/Err when Respond is nil.
type Stub struct {
	Text    string
	Err     error
	Respond func(ctx context.Context, req genai.Request) (string, error)

	mu    sync.Mutex
	calls []genai.Request
}

func (s *Stub) Generate(ctx context.Context, req genai.Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.Respond != nil {
		return s.Respond(ctx, req)
	}
	return s.Text, s.Err
}

// Calls returns a copy of every request received so far.
func (s *Stub) Calls() []genai.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]genai.Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// LastPrompt returns the final message of the most recent call.
func (s *Stub) LastPrompt() string {
	calls := s.Calls()
	if len(calls) == 0 {
		return ""
	}
	msgs := calls[len(calls)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
