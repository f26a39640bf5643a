package execution

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"

	"github.com/brandpulse/brandpulse/internal/models"
)

// systemPrompt frames every query: the model answers as the persona's advisor,
// in strict JSON.
const systemPrompt = "You are answering consumer research questions. Respond with only a single valid JSON object and no other text."

const recallTemplate = `A consumer is researching %[1]s.

%[2]s

Based on what you know about this person's profile, priorities, and preferences, answer the following question in a way that is most relevant to them.

Question: %[3]s

%[4]s
You MUST respond with ONLY valid JSON in this exact format (no other text):
{
  "items": [
    {"brand": "BrandName", "rank": 1, "sentiment": "positive"},
    {"brand": "AnotherBrand", "rank": 2, "sentiment": "positive"}
  ]
}

Rules:
- List ALL brands you would genuinely recommend for this person, in order of preference (rank 1 = best).
- "sentiment" must be one of: "positive", "neutral", "negative".
- Tailor your recommendations to this person's priorities and characteristics. Include at least 2-3 brands.
- Do NOT include any text outside the JSON object.`

const preferenceTemplate = `A consumer is researching %[1]s.

%[2]s

Based on what you know about this person, evaluate the following brands from their perspective: %[5]s

Question: %[3]s

%[4]s
You MUST respond with ONLY valid JSON in this exact format (no other text):
{
  "items": [
    {"brand": "BrandName", "rank": 1, "score": 0.95, "sentiment": "positive"},
    {"brand": "AnotherBrand", "rank": 2, "score": 0.80, "sentiment": "positive"}
  ]
}

Rules:
- You MUST rank ALL provided brands, no exceptions.
- rank 1 = best. Score is 0.0 to 1.0 (how strongly this person would prefer this brand).
- "sentiment" must be one of: "positive", "neutral", "negative".
- Tailor the ranking to this person's priorities, price sensitivity, and preferences.
- Do NOT include any text outside the JSON object.`

const forcedChoiceTemplate = `A consumer is researching %[1]s.

%[2]s

Based on what you know about this person, choose exactly ONE brand from this list that would be the best fit for them: %[5]s

Question: %[3]s

%[4]s
You MUST respond with ONLY valid JSON in this exact format (no other text):
{
  "chosen_brand": "BrandName",
  "confidence": 0.85
}

Rules:
- You MUST pick exactly one brand from the provided list.
- "confidence" is 0.0 to 1.0 (how confident you are this is the right choice for this person).
- Base your choice on this person's priorities, preferences, and characteristics.
- Do NOT include any text outside the JSON object.`

// thinkingStyles nudge repeated iterations of the same question toward
// genuinely different reasoning paths instead of cached phrasings.
var thinkingStyles = []string{
	"Think step by step about what matters most to you.",
	"Consider your recent experiences and what left the strongest impression.",
	"Think about what your friends or colleagues would say about these brands.",
	"Focus on long-term value and reliability over short-term appeal.",
	"Consider which brands you've seen the most positive buzz about recently.",
	"Think about which brands best align with your personal values and lifestyle.",
	"Focus on innovation and which brands are pushing boundaries.",
	"Consider practical everyday use, asking which brands deliver consistently.",
	"Think about which brands you'd recommend to someone you care about.",
	"Focus on the overall brand experience, not just the core product.",
}

// scenarioContexts add situational framing; the empty first entry keeps a
// no-extra-context baseline in the rotation.
var scenarioContexts = []string{
	"",
	"You're making this decision after doing extensive online research.",
	"A close friend just asked you for a recommendation.",
	"You're comparing options for an important purchase decision.",
	"You recently had a conversation about this topic with colleagues.",
	"You're writing a review and want to be thorough and balanced.",
	"You need to make a quick decision, so go with your gut feeling.",
	"You're advising someone with a tight budget who wants the best value.",
	"You're thinking about which brands have improved the most recently.",
	"You're considering switching from your current choice. What would you pick?",
}

// PromptVariation records what was injected into a non-baseline iteration's
// prompt, so saved runs stay reproducible.
type PromptVariation struct {
	ThinkingStyle   string   `json:"thinking_style"`
	ScenarioContext string   `json:"scenario_context,omitempty"`
	BrandOrder      []string `json:"brand_order,omitempty"`
}

// BuildPrompt renders the prompt for one question iteration. Iteration 1 is
// the unmodified baseline; later iterations get a seeded thinking style and
// scenario, and preference/forced-choice brand lists are reshuffled per
// iteration to reduce position bias. Returns nil variation for the baseline.
func BuildPrompt(study *models.Study, q *models.Question, iteration int) (prompt string, variation *PromptVariation) {
	setup := study.Setup

	langInstruction := ""
	if setup.Language != "" && setup.Language != "English" {
		langInstruction = fmt.Sprintf("Respond in %s.\n", setup.Language)
	}

	personaContext := fmt.Sprintf("About the person asking:\n- Name: %s", q.PersonaID)
	if p := study.PersonaByID(q.PersonaID); p != nil {
		personaContext = p.ProfileText()
	}

	brandOrder := setup.Brands
	if iteration > 1 && (q.Mode == models.ModePreference || q.Mode == models.ModeForcedChoice) {
		brandOrder = shuffledBrands(setup.Brands, int64(iteration)*31+stableHash(q.Text)%10000)
	}
	brandsList := strings.Join(brandOrder, ", ")

	var template string
	switch q.Mode {
	case models.ModePreference:
		template = preferenceTemplate
	case models.ModeForcedChoice:
		template = forcedChoiceTemplate
	default:
		template = recallTemplate
	}

	prompt = fmt.Sprintf(template, setup.Category, personaContext, q.Text, langInstruction, brandsList)

	if iteration > 1 {
		rng := rand.New(rand.NewSource(int64(iteration)*17 + stableHash(q.Text)%10000))
		thinking := thinkingStyles[rng.Intn(len(thinkingStyles))]
		scenario := scenarioContexts[rng.Intn(len(scenarioContexts))]

		prompt += "\n\n" + thinking
		if scenario != "" {
			prompt += " " + scenario
		}

		variation = &PromptVariation{
			ThinkingStyle:   thinking,
			ScenarioContext: scenario,
		}
		if q.Mode == models.ModePreference || q.Mode == models.ModeForcedChoice {
			variation.BrandOrder = brandOrder
		}
	}

	return prompt, variation
}

// SystemPrompt returns the fixed system message used for every query.
func SystemPrompt() string { return systemPrompt }

// stableHash maps text to a seed that survives process restarts, unlike the
// builtin map hash.
func stableHash(text string) int64 {
	sum := md5.Sum([]byte(text))
	h := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	return h
}

func shuffledBrands(brands []string, seed int64) []string {
	out := make([]string, len(brands))
	copy(out, brands)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
