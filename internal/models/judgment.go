package models

// Mode identifies how a question was posed to a model, which also determines
// the shape of the structured payload that comes back.
type Mode string

const (
	// ModeRecall asks for an open-ended ranked list of brands the model
	// would recommend.
	ModeRecall Mode = "recall"
	// ModePreference asks the model to rank a fixed brand list with scores.
	ModePreference Mode = "preference"
	// ModeForcedChoice asks the model to pick exactly one brand.
	ModeForcedChoice Mode = "forced_choice"
)

// Sentiment labels carried on ranked items.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// RankedItem is one brand entry inside a recall or preference judgment.
// Score is only present for preference answers, where the model rates how
// strongly the persona would prefer the brand.
type RankedItem struct {
	Brand     string   `json:"brand"`
	Rank      int      `json:"rank"`
	Sentiment string   `json:"sentiment"`
	Score     *float64 `json:"score,omitempty"`
}

// Judgment is one model response's structured opinion for one query.
// Judgments are immutable once produced; the accumulator that consumes them
// is their sole owner.
type Judgment struct {
	Model     string `json:"model"`
	Mode      Mode   `json:"mode"`
	PersonaID string `json:"persona_id"`
	Context   string `json:"context,omitempty"`
	Iteration int    `json:"iteration"`

	// Items is set for recall/preference judgments.
	Items []RankedItem `json:"items,omitempty"`

	// ChosenBrand and Confidence are set for forced_choice judgments.
	ChosenBrand string  `json:"chosen_brand,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}
