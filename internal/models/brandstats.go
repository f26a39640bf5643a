package models

import (
	"encoding/json"
	"fmt"
)

// CI is a confidence interval serialized as a [low, high] JSON array.
type CI struct {
	Low  float64
	High float64
}

// MarshalJSON encodes the interval as a two-element array.
func (c CI) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Low, c.High})
}

// UnmarshalJSON accepts a two-element array.
func (c *CI) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("confidence interval must be a [low, high] array: %w", err)
	}
	c.Low = pair[0]
	c.High = pair[1]
	return nil
}

// TopicScore is a brand's visibility within one research area: the fraction
// of that area's queries in which the brand was mentioned, plus the raw count.
type TopicScore struct {
	Score    float64 `json:"score"`
	Mentions int     `json:"mentions"`
}

// BrandStatistics is the immutable per-(brand, run, model) output record.
// Proportions use the run's declared iteration count as the denominator, so a
// brand that was never mentioned still carries a valid zero-valued interval.
type BrandStatistics struct {
	Brand string `json:"brand"`

	MentionFrequency   float64 `json:"mention_frequency"`
	MentionFrequencyCI CI      `json:"mention_frequency_ci"`

	AvgRank   float64 `json:"avg_rank"`
	AvgRankCI CI      `json:"avg_rank_ci"`

	Top3Rate   float64 `json:"top3_rate"`
	Top3RateCI CI      `json:"top3_rate_ci"`

	FirstMentionRate   float64 `json:"first_mention_rate"`
	RecommendationRate float64 `json:"recommendation_rate"`

	AvgSentimentScore float64 `json:"avg_sentiment_score"`
	SentimentCI       CI      `json:"sentiment_ci"`

	RecommendationStrength   float64 `json:"recommendation_strength"`
	RecommendationStrengthCI CI      `json:"recommendation_strength_ci"`

	TotalIterations     int     `json:"total_iterations"`
	TotalMentions       int     `json:"total_mentions"`
	RecommendationCount int     `json:"recommendation_count"`
	FirstMentionCount   int     `json:"first_mention_count"`
	ShareOfVoice        float64 `json:"share_of_voice"`

	PersonaAffinity map[string]float64    `json:"persona_affinity"`
	TopicScores     map[string]TopicScore `json:"topic_scores,omitempty"`
}
