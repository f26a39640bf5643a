// Package analysis turns batches of model judgments into per-brand statistics
// and detects significant drift between two completed runs.
package analysis

import (
	"github.com/brandpulse/brandpulse/internal/brands"
	"github.com/brandpulse/brandpulse/internal/models"
)

// brandCounters is the mutable running state for one tracked brand within a
// single run/model batch. Counts only increase; the finalizer reads it once
// and the accumulator is discarded.
type brandCounters struct {
	mentions        int
	recommendations int
	firstMentions   int
	ranks           []float64
	sentiments      []float64
	strengths       []float64
	personaMentions map[string]int
	contextMentions map[string]int
}

func newBrandCounters() *brandCounters {
	return &brandCounters{
		personaMentions: make(map[string]int),
		contextMentions: make(map[string]int),
	}
}

// Accumulator consumes the judgment stream for one run and one model identity.
// It is not safe for concurrent use; build one accumulator per worker and
// combine them with Merge, or run a single accumulation pass after collection.
type Accumulator struct {
	tracked       []string
	counters      map[string]*brandCounters
	contextTotals map[string]int
}

// NewAccumulator creates an empty accumulator over the tracked brand names.
// Brand order matters: canonicalization ties resolve to the first declared name.
func NewAccumulator(tracked []string) *Accumulator {
	counters := make(map[string]*brandCounters, len(tracked))
	for _, name := range tracked {
		counters[name] = newBrandCounters()
	}
	return &Accumulator{
		tracked:       tracked,
		counters:      counters,
		contextTotals: make(map[string]int),
	}
}

// Ingest folds one judgment into the running counters. Labels that resolve to
// no tracked brand are dropped without error; a judgment with no resolvable
// mentions still counts toward its context's query total.
func (a *Accumulator) Ingest(j *models.Judgment) {
	if j.Context != "" {
		a.contextTotals[j.Context]++
	}

	switch j.Mode {
	case models.ModeRecall, models.ModePreference:
		for _, item := range j.Items {
			name, ok := brands.Canonicalize(item.Brand, a.tracked)
			if !ok {
				continue
			}
			a.recordMention(name, j, item.Rank, sentimentSample(item))
		}
	case models.ModeForcedChoice:
		name, ok := brands.Canonicalize(j.ChosenBrand, a.tracked)
		if !ok {
			return
		}
		// A forced choice is an implicit rank-1 mention at maximum strength;
		// confidence stands in for sentiment intensity.
		a.recordMention(name, j, 1, j.Confidence)
	}
}

func (a *Accumulator) recordMention(brand string, j *models.Judgment, rank int, sentiment float64) {
	c := a.counters[brand]
	c.mentions++
	c.ranks = append(c.ranks, float64(rank))
	c.sentiments = append(c.sentiments, sentiment)
	c.strengths = append(c.strengths, strengthForRank(rank))
	if rank <= 3 {
		c.recommendations++
	}
	if rank == 1 {
		c.firstMentions++
	}
	if j.PersonaID != "" {
		c.personaMentions[j.PersonaID]++
	}
	if j.Context != "" {
		c.contextMentions[j.Context]++
	}
}

// Merge folds a partial accumulator built over the same tracked brands into
// this one. All counters are sums and all sample lists concatenations, so
// merging per-worker partials is equivalent to a single sequential pass.
func (a *Accumulator) Merge(other *Accumulator) {
	for ctx, n := range other.contextTotals {
		a.contextTotals[ctx] += n
	}
	for name, oc := range other.counters {
		c, ok := a.counters[name]
		if !ok {
			c = newBrandCounters()
			a.counters[name] = c
		}
		c.mentions += oc.mentions
		c.recommendations += oc.recommendations
		c.firstMentions += oc.firstMentions
		c.ranks = append(c.ranks, oc.ranks...)
		c.sentiments = append(c.sentiments, oc.sentiments...)
		c.strengths = append(c.strengths, oc.strengths...)
		for id, n := range oc.personaMentions {
			c.personaMentions[id] += n
		}
		for ctx, n := range oc.contextMentions {
			c.contextMentions[ctx] += n
		}
	}
}

// TotalMentions sums mentions across all tracked brands.
func (a *Accumulator) TotalMentions() int {
	total := 0
	for _, c := range a.counters {
		total += c.mentions
	}
	return total
}

// strengthForRank maps a list position to a 0-5 recommendation strength.
// Absent brands contribute 0, handled by the finalizer's padding step.
func strengthForRank(rank int) float64 {
	switch rank {
	case 1:
		return 5
	case 2:
		return 4
	case 3:
		return 3
	default:
		return 2
	}
}

// sentimentSample converts a ranked item into a numeric sentiment sample. An
// explicit score from a preference answer wins over the sentiment label.
func sentimentSample(item models.RankedItem) float64 {
	if item.Score != nil {
		return *item.Score
	}
	switch item.Sentiment {
	case models.SentimentPositive:
		return 1.0
	case models.SentimentNegative:
		return -1.0
	default:
		return 0.0
	}
}
