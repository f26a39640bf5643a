// Package ingest validates raw model output and turns it into strongly-typed
// judgments. Models answer with JSON, often wrapped in prose or code fences;
// this package extracts the JSON, checks it against a per-mode schema, and
// decodes it so the accumulator never sees untyped maps.
package ingest

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/brandpulse/brandpulse/internal/models"
)

//go:embed schemas/ranked.schema.json
var rankedSchemaJSON string

//go:embed schemas/forced_choice.schema.json
var forcedChoiceSchemaJSON string

// defaultPrinter formats schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

var (
	rankedSchema       *jsonschema.Schema
	forcedChoiceSchema *jsonschema.Schema
)

func init() {
	rankedSchema = mustCompileSchema(rankedSchemaJSON, "ranked.schema.json")
	forcedChoiceSchema = mustCompileSchema(forcedChoiceSchemaJSON, "forced_choice.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// rankedPayload mirrors the schema for recall and preference answers.
type rankedPayload struct {
	Items []struct {
		Brand     string   `mapstructure:"brand"`
		Rank      int      `mapstructure:"rank"`
		Sentiment string   `mapstructure:"sentiment"`
		Score     *float64 `mapstructure:"score"`
	} `mapstructure:"items"`
	PersonaID string `mapstructure:"persona_id"`
	Context   string `mapstructure:"context"`
}

// forcedChoicePayload mirrors the schema for forced-choice answers.
type forcedChoicePayload struct {
	ChosenBrand string  `mapstructure:"chosen_brand"`
	Confidence  float64 `mapstructure:"confidence"`
	PersonaID   string  `mapstructure:"persona_id"`
	Context     string  `mapstructure:"context"`
}

// ExtractJSON pulls the first JSON object out of a raw model answer, tolerating
// markdown code fences and surrounding prose. Returns false when no object is
// present.
func ExtractJSON(raw string) (string, bool) {
	s := raw
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// Parse validates a raw model answer for the given mode and decodes it into a
// judgment. Model and iteration identity come from the caller; persona and
// context fall back to the question's values when the payload omits them.
func Parse(raw string, mode models.Mode, model, personaID, context string, iteration int) (*models.Judgment, error) {
	text, ok := ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("answer contains no JSON object")
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing answer JSON: %w", err)
	}

	j := &models.Judgment{
		Model:     model,
		Mode:      mode,
		PersonaID: personaID,
		Context:   context,
		Iteration: iteration,
	}

	switch mode {
	case models.ModeRecall, models.ModePreference:
		if err := validate(rankedSchema, doc); err != nil {
			return nil, err
		}
		var payload rankedPayload
		if err := decode(doc, &payload); err != nil {
			return nil, err
		}
		for _, item := range payload.Items {
			j.Items = append(j.Items, models.RankedItem{
				Brand:     item.Brand,
				Rank:      item.Rank,
				Sentiment: item.Sentiment,
				Score:     item.Score,
			})
		}
		applyOverrides(j, payload.PersonaID, payload.Context)
	case models.ModeForcedChoice:
		if err := validate(forcedChoiceSchema, doc); err != nil {
			return nil, err
		}
		var payload forcedChoicePayload
		if err := decode(doc, &payload); err != nil {
			return nil, err
		}
		j.ChosenBrand = payload.ChosenBrand
		j.Confidence = payload.Confidence
		applyOverrides(j, payload.PersonaID, payload.Context)
	default:
		return nil, fmt.Errorf("unknown query mode %q", mode)
	}

	return j, nil
}

func applyOverrides(j *models.Judgment, personaID, context string) {
	if personaID != "" {
		j.PersonaID = personaID
	}
	if context != "" {
		j.Context = context
	}
}

func validate(schema *jsonschema.Schema, doc any) error {
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema: %w", err)
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return fmt.Errorf("answer failed validation: %s", strings.Join(errs, "; "))
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// decode maps the validated document onto a payload struct. Weak typing lets
// json.Number and whole floats land in int fields.
func decode(doc any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("decoding answer payload: %w", err)
	}
	return nil
}
