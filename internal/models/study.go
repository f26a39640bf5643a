package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Archetype buckets personas into the consumer segments the question
// generator targets.
type Archetype string

const (
	ArchetypeInnovator       Archetype = "innovator"
	ArchetypePragmatist      Archetype = "pragmatist"
	ArchetypeConservative    Archetype = "conservative"
	ArchetypeBudgetConscious Archetype = "budget_conscious"
	ArchetypeQualitySeeker   Archetype = "quality_seeker"
)

// Persona is a synthetic consumer profile that questions are attributed to.
// Trait scores are on a 1–5 scale.
type Persona struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Archetype        Archetype `json:"archetype" yaml:"archetype"`
	Description      string    `json:"description" yaml:"description"`
	AgeRange         string    `json:"age_range" yaml:"age_range"`
	Occupation       string    `json:"occupation" yaml:"occupation"`
	TechSavviness    int       `json:"tech_savviness" yaml:"tech_savviness"`
	PriceSensitivity int       `json:"price_sensitivity" yaml:"price_sensitivity"`
	BrandLoyalty     int       `json:"brand_loyalty" yaml:"brand_loyalty"`
	KeyPriorities    []string  `json:"key_priorities" yaml:"key_priorities"`
}

// ProfileText renders the persona as the context block injected into prompts.
func (p *Persona) ProfileText() string {
	return fmt.Sprintf(
		"About the person asking:\n- Name: %s\n- Age: %s\n- Occupation: %s\n- Profile: %s\n- Tech savviness: %d/5\n- Price sensitivity: %d/5\n- Brand loyalty: %d/5",
		p.Name, p.AgeRange, p.Occupation, p.Description,
		p.TechSavviness, p.PriceSensitivity, p.BrandLoyalty,
	)
}

// Question is one research question attributed to a persona. ResearchArea is
// the optional context/topic tag carried through to topic scoring.
type Question struct {
	ID           string `json:"id" yaml:"id"`
	PersonaID    string `json:"persona_id" yaml:"persona_id"`
	Text         string `json:"text" yaml:"text"`
	Mode         Mode   `json:"mode" yaml:"mode"`
	ResearchArea string `json:"research_area,omitempty" yaml:"research_area,omitempty"`
}

// StudySetup declares what a study measures: the category, the tracked brands
// in priority order, and how many samples to draw.
type StudySetup struct {
	Category      string   `json:"category" yaml:"category"`
	Brands        []string `json:"brands" yaml:"brands"`
	MarketContext string   `json:"market_context" yaml:"market_context"`
	ResearchAreas []string `json:"research_areas,omitempty" yaml:"research_areas,omitempty"`
	Iterations    int      `json:"iterations" yaml:"iterations"`
	Language      string   `json:"language,omitempty" yaml:"language,omitempty"`
}

// Study is a full measurement definition: setup plus the personas and
// questions the collection stage will fan out over.
type Study struct {
	ID        string     `json:"id" yaml:"id"`
	Setup     StudySetup `json:"setup" yaml:"setup"`
	Personas  []Persona  `json:"personas" yaml:"personas"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// PersonaIDs returns persona identifiers in declaration order.
func (s *Study) PersonaIDs() []string {
	ids := make([]string, 0, len(s.Personas))
	for _, p := range s.Personas {
		ids = append(ids, p.ID)
	}
	return ids
}

// PersonaByID returns the persona with the given id, or nil.
func (s *Study) PersonaByID(id string) *Persona {
	for i := range s.Personas {
		if s.Personas[i].ID == id {
			return &s.Personas[i]
		}
	}
	return nil
}

// Validate checks the fields the engine depends on. It does not try to be a
// full schema; the wizard and API layer produce well-formed studies.
func (s *Study) Validate() error {
	if s.Setup.Category == "" {
		return fmt.Errorf("study has no category")
	}
	if len(s.Setup.Brands) == 0 {
		return fmt.Errorf("study %q tracks no brands", s.Setup.Category)
	}
	if s.Setup.Iterations <= 0 {
		return fmt.Errorf("study %q has iterations %d, must be positive", s.Setup.Category, s.Setup.Iterations)
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("study %q has no questions", s.Setup.Category)
	}
	for _, q := range s.Questions {
		if s.PersonaByID(q.PersonaID) == nil {
			return fmt.Errorf("question %q references unknown persona %q", q.ID, q.PersonaID)
		}
		switch q.Mode {
		case ModeRecall, ModePreference, ModeForcedChoice:
		default:
			return fmt.Errorf("question %q has unknown mode %q", q.ID, q.Mode)
		}
	}
	return nil
}

// LoadStudy reads and validates a study YAML file.
func LoadStudy(path string) (*Study, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading study file: %w", err)
	}
	var study Study
	if err := yaml.Unmarshal(data, &study); err != nil {
		return nil, fmt.Errorf("parsing study file %s: %w", path, err)
	}
	if study.Setup.Language == "" {
		study.Setup.Language = "English"
	}
	if err := study.Validate(); err != nil {
		return nil, err
	}
	return &study, nil
}

// RunStatus tracks a run through its lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one complete collection of judgments for a study.
type Run struct {
	ID          string     `json:"run_id"`
	StudyID     string     `json:"study_id"`
	Status      RunStatus  `json:"status"`
	Models      []string   `json:"models"`
	Iterations  int        `json:"iterations"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunArtifact is the serialized result of a completed run for one model:
// everything the compare command needs to detect drift against another run.
type RunArtifact struct {
	RunID           string            `json:"run_id"`
	StudyID         string            `json:"study_id"`
	Category        string            `json:"category"`
	Model           string            `json:"model"`
	TotalIterations int               `json:"total_iterations"`
	Timestamp       time.Time         `json:"timestamp"`
	Statistics      []BrandStatistics `json:"statistics"`
}
