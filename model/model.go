// Package model defines the reply generation contract used by the dialogue
// engine. Providers are adapted behind a single non-streaming interface;
// the audio stack owns streaming and barge-in, so the backend only ever
// needs complete replies.
package model

import (
	"context"
	"fmt"

	"github.com/subthread/companion/core"
)

// Request captures the normalized model input for one reply.
type Request struct {
	// Instructions is the system-level guidance for this reply.
	Instructions string `json:"instructions"`
	// History is the conversation so far, oldest first.
	History []core.Turn `json:"history"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model generates conversational replies.
type Model interface {
	// GenerateReply produces one assistant reply for the request.
	GenerateReply(ctx context.Context, req Request) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model for tests and local runs.
// Canned replies are keyed on the content of the newest history turn.
type MockModel struct {
	info      Info
	responses map[string]string
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned reply for an input turn.
func (m *MockModel) AddResponse(input, reply string) { m.responses[input] = reply }

// Requests returns every request seen, in order.
func (m *MockModel) Requests() []Request { return m.requests }

// GenerateReply implements Model.
func (m *MockModel) GenerateReply(_ context.Context, req Request) (string, error) {
	m.requests = append(m.requests, req)

	var input string
	if last, ok := core.LastTurn(req.History); ok {
		input = last.Content
	}
	if reply, ok := m.responses[input]; ok {
		return reply, nil
	}
	return fmt.Sprintf("Mock reply to: %s", input), nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
