// Package execution sends study questions to language models and returns
// their raw answers. Engines hide the transport; the orchestration layer
// treats every model the same way.
package execution

import (
	"context"
	"strings"
)

// ModelEngine is the interface for querying one model identity.
type ModelEngine interface {
	// Initialize sets up the engine
	Initialize(ctx context.Context) error

	// Ask sends one prompt and returns the raw answer
	Ask(ctx context.Context, req *QueryRequest) (*QueryResponse, error)

	// Shutdown cleans up resources
	Shutdown(ctx context.Context) error

	// ModelID reports the model identity answers are attributed to
	ModelID() string
}

// QueryRequest is one prompt for one question iteration.
type QueryRequest struct {
	QuestionID   string
	SystemPrompt string
	Prompt       string
	Iteration    int
	TimeoutSec   int
}

// QueryResponse is the raw result of a single model query.
type QueryResponse struct {
	RawAnswer  string
	ModelID    string
	DurationMs int64
	Success    bool
	ErrorMsg   string
}

// ContainsText checks if the answer contains text (case-insensitive)
func (r *QueryResponse) ContainsText(text string) bool {
	return strings.Contains(strings.ToLower(r.RawAnswer), strings.ToLower(text))
}
