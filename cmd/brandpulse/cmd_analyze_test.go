package main

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/store"
)

func resetAnalyzeGlobals() {
	analyzeModel = ""
	analyzeDBPath = ""
	analyzeJSON = false
	analyzeRecompute = false
}

func resetCompareGlobals() {
	compareModel = ""
	compareDBPath = ""
	compareJSON = false
}

func sampleStats(mention float64, n int) []models.BrandStatistics {
	return []models.BrandStatistics{
		{
			Brand:            "Acme",
			MentionFrequency: mention,
			Top3Rate:         mention,
			TotalIterations:  n,
			ShareOfVoice:     1.0,
		},
	}
}

func createArtifact(t *testing.T, dir, name string, stats []models.BrandStatistics) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, store.ExportArtifact(path, &models.RunArtifact{
		RunID:           "run-" + name,
		StudyID:         "study-1",
		Category:        "laptops",
		Model:           "mock-model",
		TotalIterations: stats[0].TotalIterations,
		Timestamp:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Statistics:      stats,
	}))
	return path
}

func TestAnalyzeArtifact(t *testing.T) {
	resetAnalyzeGlobals()
	dir := t.TempDir()
	path := createArtifact(t, dir, "a.json.zst", sampleStats(0.4, 50))

	out, err := executeCommand(t, "analyze", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "run-a.json.zst / mock-model")
}

func TestAnalyzeArtifactJSON(t *testing.T) {
	resetAnalyzeGlobals()
	dir := t.TempDir()
	path := createArtifact(t, dir, "a.json.zst", sampleStats(0.4, 50))

	out, err := executeCommand(t, "analyze", path, "--json")
	require.NoError(t, err, out)

	var stats []models.BrandStatistics
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 0.4, stats[0].MentionFrequency)
}

func TestAnalyzeRunFromDatabase(t *testing.T) {
	resetAnalyzeGlobals()
	resetRunGlobals()
	dir := t.TempDir()
	studyPath := writeTestStudy(t, dir)
	dbPath := filepath.Join(dir, "test.db")

	out, err := executeCommand(t, "run", studyPath,
		"--engine", "mock", "--model", "mock-model", "--db", dbPath)
	require.NoError(t, err, out)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	runs, err := st.ListRuns(t.Context(), "study-cli-test")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NoError(t, st.Close())

	// Single-model run: --model may be omitted.
	out, err = executeCommand(t, "analyze", runs[0].ID, "--db", dbPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Globex")
}

func TestAnalyzeRecomputeMatchesSnapshot(t *testing.T) {
	resetAnalyzeGlobals()
	resetRunGlobals()
	dir := t.TempDir()
	studyPath := writeTestStudy(t, dir)
	dbPath := filepath.Join(dir, "test.db")

	out, err := executeCommand(t, "run", studyPath,
		"--engine", "mock", "--model", "mock-model", "--db", dbPath)
	require.NoError(t, err, out)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	runs, err := st.ListRuns(t.Context(), "study-cli-test")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NoError(t, st.Close())

	resetAnalyzeGlobals()
	snapshot, err := executeCommand(t, "analyze", runs[0].ID, "--db", dbPath, "--json")
	require.NoError(t, err, snapshot)

	resetAnalyzeGlobals()
	recomputed, err := executeCommand(t, "analyze", runs[0].ID, "--db", dbPath, "--json", "--recompute")
	require.NoError(t, err, recomputed)

	var a, b []models.BrandStatistics
	require.NoError(t, json.Unmarshal([]byte(snapshot), &a))
	require.NoError(t, json.Unmarshal([]byte(recomputed), &b))
	assert.Equal(t, a, b)
}

func TestAnalyzeRecomputeRejectsArtifacts(t *testing.T) {
	resetAnalyzeGlobals()
	dir := t.TempDir()
	path := createArtifact(t, dir, "a.json.zst", sampleStats(0.4, 50))

	_, err := executeCommand(t, "analyze", path, "--recompute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no raw judgments")
}

func TestAnalyzeUnknownRun(t *testing.T) {
	resetAnalyzeGlobals()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	_, err := executeCommand(t, "analyze", "no-such-run", "--db", dbPath, "--model", "m")
	require.Error(t, err)
}

func TestCompareArtifacts(t *testing.T) {
	resetCompareGlobals()
	dir := t.TempDir()
	pathA := createArtifact(t, dir, "a.json.zst", sampleStats(0.2, 50))
	pathB := createArtifact(t, dir, "b.json.zst", sampleStats(0.5, 50))

	out, err := executeCommand(t, "compare", pathA, pathB)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Mention Rate")
	assert.Contains(t, out, "+30.0pp")
	assert.Contains(t, out, "major")
}

func TestCompareArtifactsJSON(t *testing.T) {
	resetCompareGlobals()
	dir := t.TempDir()
	pathA := createArtifact(t, dir, "a.json.zst", sampleStats(0.4, 50))
	pathB := createArtifact(t, dir, "b.json.zst", sampleStats(0.42, 50))

	out, err := executeCommand(t, "compare", pathA, pathB, "--json")
	require.NoError(t, err, out)

	var records []models.ChangeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].Brand)
	assert.Equal(t, models.InterpretationNoise, records[0].Metrics[0].Interpretation)
}

func TestCompareMissingArtifact(t *testing.T) {
	resetCompareGlobals()
	dir := t.TempDir()
	pathA := createArtifact(t, dir, "a.json.zst", sampleStats(0.4, 50))

	_, err := executeCommand(t, "compare", pathA, filepath.Join(dir, "missing.json.zst"))
	require.Error(t, err)
}
