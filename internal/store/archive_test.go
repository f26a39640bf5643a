package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/brandpulse/internal/models"
)

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json.zst")

	artifact := &models.RunArtifact{
		RunID:           "run-1",
		StudyID:         "study-1",
		Category:        "running shoes",
		Model:           "model-a",
		TotalIterations: 10,
		Timestamp:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Statistics: []models.BrandStatistics{
			{
				Brand:              "Acme",
				MentionFrequency:   0.3,
				MentionFrequencyCI: models.CI{Low: 0.1085, High: 0.6032},
				TotalIterations:    10,
				TotalMentions:      3,
				PersonaAffinity:    map[string]float64{"p1": 0.3},
			},
		},
	}

	require.NoError(t, ExportArtifact(path, artifact))

	got, err := ImportArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, artifact, got)
}

func TestImportArtifact_MissingFile(t *testing.T) {
	_, err := ImportArtifact(filepath.Join(t.TempDir(), "absent.json.zst"))
	assert.Error(t, err)
}

func TestImportArtifact_NotCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"run_id":"r"}`), 0o644))
	_, err := ImportArtifact(path)
	assert.Error(t, err)
}
