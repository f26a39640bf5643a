package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// MockEngine is a deterministic in-process engine for tests and offline demos.
// It answers every prompt with valid JSON for the mode it infers from the
// prompt text, sampling from the tracked brands with a seeded generator.
type MockEngine struct {
	modelID string
	brands  []string
	seed    int64
	calls   int
}

// NewMockEngine creates a mock engine that recommends from the given brands.
func NewMockEngine(modelID string, brands []string, seed int64) *MockEngine {
	return &MockEngine{modelID: modelID, brands: brands, seed: seed}
}

func (m *MockEngine) Initialize(ctx context.Context) error { return nil }

func (m *MockEngine) Shutdown(ctx context.Context) error { return nil }

func (m *MockEngine) ModelID() string { return m.modelID }

func (m *MockEngine) Ask(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	m.calls++
	rng := rand.New(rand.NewSource(m.seed + int64(m.calls) + int64(req.Iteration)))

	var payload any
	switch {
	case strings.Contains(req.Prompt, `"chosen_brand"`):
		payload = map[string]any{
			"chosen_brand": m.brands[rng.Intn(len(m.brands))],
			"confidence":   0.5 + rng.Float64()*0.5,
		}
	default:
		count := 1 + rng.Intn(len(m.brands))
		items := make([]map[string]any, 0, count)
		order := rng.Perm(len(m.brands))
		for i := 0; i < count; i++ {
			items = append(items, map[string]any{
				"brand":     m.brands[order[i]],
				"rank":      i + 1,
				"sentiment": []string{"positive", "neutral", "negative"}[rng.Intn(3)],
			})
		}
		payload = map[string]any{"items": items}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling mock answer: %w", err)
	}

	return &QueryResponse{
		RawAnswer:  string(raw),
		ModelID:    m.modelID,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
	}, nil
}
