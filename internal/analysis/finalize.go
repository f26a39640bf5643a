package analysis

import (
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/statistics"
)

// Finalize converts the accumulated counters into one immutable statistics
// record per tracked brand, in declared brand order. Brands never mentioned
// still appear with well-formed zero-valued metrics. Proportions use the run's
// declared iteration count as denominator, never the mention count.
func (a *Accumulator) Finalize(totalIterations int, personaIDs, contexts []string) []models.BrandStatistics {
	// Zero-iteration runs still produce records; guard the denominator so the
	// point estimates stay defined while the Wilson CI collapses to (0, 0).
	n := totalIterations
	if n <= 0 {
		n = 1
	}
	totalMentions := a.TotalMentions()

	out := make([]models.BrandStatistics, 0, len(a.tracked))
	for _, name := range a.tracked {
		c := a.counters[name]

		mentionFreq := float64(c.mentions) / float64(n)
		mentionCI := statistics.WilsonCI(c.mentions, totalIterations, statistics.DefaultZ)
		top3Rate := float64(c.recommendations) / float64(n)
		top3CI := statistics.WilsonCI(c.recommendations, totalIterations, statistics.DefaultZ)

		avgRank, rankCI := statistics.MeanCI(c.ranks, statistics.DefaultZ)
		avgSentiment, sentimentCI := statistics.MeanCI(c.sentiments, statistics.DefaultZ)

		// Strength averages over presence and absence alike: pad the recorded
		// samples with a zero for every iteration the brand went unmentioned.
		padded := c.strengths
		if missing := totalIterations - c.mentions; missing > 0 {
			padded = make([]float64, 0, totalIterations)
			padded = append(padded, c.strengths...)
			padded = append(padded, make([]float64, missing)...)
		}
		strength, strengthCI := statistics.MeanCI(padded, statistics.DefaultZ)

		shareOfVoice := 0.0
		if totalMentions > 0 {
			shareOfVoice = float64(c.mentions) / float64(totalMentions)
		}

		affinity := make(map[string]float64, len(personaIDs))
		for _, id := range personaIDs {
			affinity[id] = statistics.RoundTo(float64(c.personaMentions[id])/float64(n), 4)
		}

		var topics map[string]models.TopicScore
		if len(contexts) > 0 || len(a.contextTotals) > 0 {
			topics = make(map[string]models.TopicScore)
			for _, ctx := range declaredAndObserved(contexts, a.contextTotals) {
				score := 0.0
				if queries := a.contextTotals[ctx]; queries > 0 {
					score = float64(c.contextMentions[ctx]) / float64(queries)
				}
				topics[ctx] = models.TopicScore{
					Score:    statistics.RoundTo(score, 4),
					Mentions: c.contextMentions[ctx],
				}
			}
		}

		out = append(out, models.BrandStatistics{
			Brand:                    name,
			MentionFrequency:         statistics.RoundTo(mentionFreq, 4),
			MentionFrequencyCI:       roundCI(mentionCI, 4),
			AvgRank:                  statistics.RoundTo(avgRank, 2),
			AvgRankCI:                roundCI(rankCI, 2),
			Top3Rate:                 statistics.RoundTo(top3Rate, 4),
			Top3RateCI:               roundCI(top3CI, 4),
			FirstMentionRate:         statistics.RoundTo(float64(c.firstMentions)/float64(n), 4),
			RecommendationRate:       statistics.RoundTo(float64(c.recommendations)/float64(n), 4),
			AvgSentimentScore:        statistics.RoundTo(avgSentiment, 4),
			SentimentCI:              roundCI(sentimentCI, 4),
			RecommendationStrength:   statistics.RoundTo(strength, 2),
			RecommendationStrengthCI: roundCI(strengthCI, 2),
			TotalIterations:          totalIterations,
			TotalMentions:            c.mentions,
			RecommendationCount:      c.recommendations,
			FirstMentionCount:        c.firstMentions,
			ShareOfVoice:             statistics.RoundTo(shareOfVoice, 4),
			PersonaAffinity:          affinity,
			TopicScores:              topics,
		})
	}
	return out
}

// declaredAndObserved lists the declared contexts first, then any context seen
// in the stream but not declared, so declared contexts always appear even with
// zero queries.
func declaredAndObserved(declared []string, observed map[string]int) []string {
	seen := make(map[string]bool, len(declared))
	out := make([]string, 0, len(declared)+len(observed))
	for _, ctx := range declared {
		if !seen[ctx] {
			seen[ctx] = true
			out = append(out, ctx)
		}
	}
	for ctx := range observed {
		if !seen[ctx] {
			seen[ctx] = true
			out = append(out, ctx)
		}
	}
	return out
}

func roundCI(in statistics.Interval, places int) models.CI {
	return models.CI{
		Low:  statistics.RoundTo(in.Lower, places),
		High: statistics.RoundTo(in.Upper, places),
	}
}
