package analysis

import (
	"math"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/statistics"
)

const (
	significanceLevel = 0.05
	noiseThresholdPP  = 3.0
	majorThresholdPP  = 10.0
)

// proportionMetrics are the metrics the change detector runs a two-proportion
// z-test on, in report order.
var proportionMetrics = []struct {
	key   string
	label string
	value func(*models.BrandStatistics) float64
}{
	{"mention_frequency", "Mention Rate", func(s *models.BrandStatistics) float64 { return s.MentionFrequency }},
	{"top3_rate", "Top-3 Rate", func(s *models.BrandStatistics) float64 { return s.Top3Rate }},
	{"first_mention_rate", "First Mention Rate", func(s *models.BrandStatistics) float64 { return s.FirstMentionRate }},
	{"recommendation_rate", "Recommendation Rate", func(s *models.BrandStatistics) float64 { return s.RecommendationRate }},
	{"share_of_voice", "Share of Voice", func(s *models.BrandStatistics) float64 { return s.ShareOfVoice }},
}

// DetectChanges compares a baseline run's statistics (A) against a later run's
// (B), brand by brand. Brands present in only one run are skipped. Records
// follow run A's brand order.
func DetectChanges(statsA, statsB []models.BrandStatistics) []models.ChangeRecord {
	byBrandB := make(map[string]*models.BrandStatistics, len(statsB))
	for i := range statsB {
		byBrandB[statsB[i].Brand] = &statsB[i]
	}

	var records []models.ChangeRecord
	for i := range statsA {
		a := &statsA[i]
		b, ok := byBrandB[a.Brand]
		if !ok {
			continue
		}

		metrics := make([]models.MetricChange, 0, len(proportionMetrics))
		for _, m := range proportionMetrics {
			va, vb := m.value(a), m.value(b)
			z, p := statistics.TwoProportionZTest(va, a.TotalIterations, vb, b.TotalIterations)
			significant := p < significanceLevel
			deltaPP := statistics.RoundTo((vb-va)*100, 1)
			metrics = append(metrics, models.MetricChange{
				Metric:         m.key,
				Label:          m.label,
				ValueA:         va,
				ValueB:         vb,
				DeltaPP:        deltaPP,
				ZScore:         z,
				PValue:         p,
				Significant:    significant,
				Interpretation: interpret(deltaPP, significant),
			})
		}

		records = append(records, models.ChangeRecord{
			Brand:         a.Brand,
			NA:            a.TotalIterations,
			NB:            b.TotalIterations,
			Metrics:       metrics,
			StrengthA:     a.RecommendationStrength,
			StrengthB:     b.RecommendationStrength,
			StrengthDelta: statistics.RoundTo(b.RecommendationStrength-a.RecommendationStrength, 2),
		})
	}
	return records
}

// interpret classifies the practical magnitude of a delta given its
// statistical significance.
func interpret(deltaPP float64, significant bool) models.Interpretation {
	abs := math.Abs(deltaPP)
	switch {
	case abs < noiseThresholdPP && !significant:
		return models.InterpretationNoise
	case abs >= majorThresholdPP && significant:
		return models.InterpretationMajor
	case significant:
		return models.InterpretationNotable
	default:
		return models.InterpretationNoise
	}
}
