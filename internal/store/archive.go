package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/brandpulse/brandpulse/internal/models"
)

// ExportArtifact writes a run artifact to path as zstd-compressed JSON. The
// artifact is self-contained, so two archived runs can be compared without a
// database.
func ExportArtifact(path string, artifact *models.RunArtifact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(artifact); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing archive: %w", err)
	}
	return f.Close()
}

// ImportArtifact reads a run artifact written by ExportArtifact.
func ImportArtifact(path string) (*models.RunArtifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	var artifact models.RunArtifact
	if err := json.NewDecoder(dec).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	return &artifact, nil
}
