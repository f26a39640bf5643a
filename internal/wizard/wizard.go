// Package wizard collects a study definition interactively and renders it as
// a study YAML file.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// StudyDraft holds all fields collected during the interactive wizard.
type StudyDraft struct {
	Category      string
	Brands        []string
	MarketContext string
	ResearchAreas []string
	Iterations    int
	Language      string
}

const studyYAMLTemplate = `id: {{ .ID }}
setup:
  category: {{ printf "%q" .Category }}
  brands:
{{- range .Brands }}
    - {{ printf "%q" . }}
{{- end }}
{{- if .MarketContext }}
  market_context: {{ printf "%q" .MarketContext }}
{{- end }}
{{- if .ResearchAreas }}
  research_areas:
{{- range .ResearchAreas }}
    - {{ printf "%q" . }}
{{- end }}
{{- end }}
  iterations: {{ .Iterations }}
  language: {{ printf "%q" .Language }}
personas: []
questions: []
`

// RunStudyWizard runs an interactive huh form to collect study metadata.
// If initialCategory is non-empty, it pre-populates the category field.
func RunStudyWizard(in io.Reader, out io.Writer, initialCategory string) (*StudyDraft, error) {
	var (
		category         = initialCategory
		brandsRaw        string
		marketContext    string
		researchAreasRaw string
		iterationsRaw    = "10"
		language         string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Product category").
				Description("What are consumers researching?").
				Placeholder("wireless headphones").
				Value(&category).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("category is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Tracked brands").
				Description("Comma-separated brand names, most specific first").
				Placeholder("Acme, Globex, Initech").
				Value(&brandsRaw).
				Validate(func(s string) error {
					if len(splitAndTrim(s)) < 2 {
						return fmt.Errorf("track at least two brands")
					}
					return nil
				}),
			huh.NewInput().
				Title("Market context").
				Description("Optional framing for question generation").
				Placeholder("mid-range consumer market in Europe").
				Value(&marketContext),
			huh.NewInput().
				Title("Research areas").
				Description("Comma-separated topics to score brands within").
				Placeholder("pricing, reliability, support").
				Value(&researchAreasRaw),
			huh.NewInput().
				Title("Iterations per question").
				Description("How many times each question is repeated per model").
				Value(&iterationsRaw).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("iterations must be a positive number")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Answer language").
				Options(
					huh.NewOption("English", "English"),
					huh.NewOption("German", "German"),
					huh.NewOption("French", "French"),
					huh.NewOption("Spanish", "Spanish"),
					huh.NewOption("Japanese", "Japanese"),
				).
				Value(&language),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	iterations, _ := strconv.Atoi(strings.TrimSpace(iterationsRaw))

	return &StudyDraft{
		Category:      strings.TrimSpace(category),
		Brands:        splitAndTrim(brandsRaw),
		MarketContext: strings.TrimSpace(marketContext),
		ResearchAreas: splitAndTrim(researchAreasRaw),
		Iterations:    iterations,
		Language:      language,
	}, nil
}

// GenerateStudyYAML renders a study file skeleton from the draft. Personas and
// questions start empty; they are filled in by hand or by the API layer.
func GenerateStudyYAML(draft *StudyDraft, id string) (string, error) {
	tmpl, err := template.New("study").Parse(studyYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	data := struct {
		ID string
		*StudyDraft
	}{ID: id, StudyDraft: draft}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
