package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/brandpulse/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleStudy() *models.Study {
	return &models.Study{
		ID: uuid.NewString(),
		Setup: models.StudySetup{
			Category:   "running shoes",
			Brands:     []string{"Acme", "Globex"},
			Iterations: 5,
		},
		Personas: []models.Persona{
			{ID: "p1", Name: "Maya", Archetype: models.ArchetypePragmatist},
		},
		Questions: []models.Question{
			{ID: "q1", PersonaID: "p1", Text: "Which shoes?", Mode: models.ModeRecall},
		},
	}
}

func TestStudyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	study := sampleStudy()

	require.NoError(t, s.SaveStudy(ctx, study))

	got, err := s.GetStudy(ctx, study.ID)
	require.NoError(t, err)
	assert.Equal(t, study, got)

	list, err := s.ListStudies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, study.ID, list[0].ID)
}

func TestGetStudy_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetStudy(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	study := sampleStudy()
	require.NoError(t, s.SaveStudy(ctx, study))

	run := &models.Run{
		ID:         uuid.NewString(),
		StudyID:    study.ID,
		Status:     models.RunStatusRunning,
		Models:     []string{"model-a"},
		Iterations: 5,
		StartedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.CreateRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, got.Status)
	assert.Equal(t, []string{"model-a"}, got.Models)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.FinishRun(ctx, run.ID, models.RunStatusCompleted))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	runs, err := s.ListRuns(ctx, study.ID)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestFinishRun_NotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.FinishRun(context.Background(), "missing", models.RunStatusFailed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJudgmentsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	runID := uuid.NewString()

	judgments := []*models.Judgment{
		{
			Model: "model-a", Mode: models.ModeRecall, PersonaID: "p1", Iteration: 1,
			Items: []models.RankedItem{{Brand: "Acme", Rank: 1, Sentiment: models.SentimentPositive}},
		},
		{
			Model: "model-a", Mode: models.ModeForcedChoice, PersonaID: "p1", Iteration: 2,
			ChosenBrand: "Globex", Confidence: 0.7,
		},
	}
	require.NoError(t, s.SaveJudgments(ctx, runID, judgments))

	got, err := s.LoadJudgments(ctx, runID, "model-a")
	require.NoError(t, err)
	assert.Equal(t, judgments, got)

	empty, err := s.LoadJudgments(ctx, runID, "model-b")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStatisticsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	runID := uuid.NewString()

	stats := []models.BrandStatistics{
		{
			Brand:              "Acme",
			MentionFrequency:   0.3,
			MentionFrequencyCI: models.CI{Low: 0.1085, High: 0.6032},
			TotalIterations:    10,
			TotalMentions:      3,
			ShareOfVoice:       1.0,
			PersonaAffinity:    map[string]float64{"p1": 0.3},
		},
		{
			Brand:           "Globex",
			TotalIterations: 10,
			PersonaAffinity: map[string]float64{"p1": 0},
		},
	}
	require.NoError(t, s.SaveStatistics(ctx, runID, "model-a", stats))

	got, err := s.LoadStatistics(ctx, runID, "model-a")
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	_, err = s.LoadStatistics(ctx, runID, "model-b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteStudy_CascadesRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	study := sampleStudy()
	require.NoError(t, s.SaveStudy(ctx, study))

	run := &models.Run{
		ID: uuid.NewString(), StudyID: study.ID, Status: models.RunStatusRunning,
		Models: []string{"model-a"}, Iterations: 5, StartedAt: time.Now(),
	}
	require.NoError(t, s.CreateRun(ctx, run))
	require.NoError(t, s.SaveJudgments(ctx, run.ID, []*models.Judgment{
		{Model: "model-a", Mode: models.ModeRecall, Iteration: 1},
	}))

	require.NoError(t, s.DeleteStudy(ctx, study.ID))

	_, err := s.GetStudy(ctx, study.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	left, err := s.LoadJudgments(ctx, run.ID, "model-a")
	require.NoError(t, err)
	assert.Empty(t, left)
}
