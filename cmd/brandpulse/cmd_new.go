package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brandpulse/brandpulse/internal/projectconfig"
	"github.com/brandpulse/brandpulse/internal/wizard"
)

func newNewCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "new [category]",
		Short: "Create a new study file interactively",
		Long: `Create a new study definition through an interactive wizard.

The wizard collects the product category, tracked brands, market context,
research areas, and collection parameters, then writes a study YAML skeleton
to the configured studies directory. Personas and questions start empty and
are filled in by hand before running the study.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := ""
			if len(args) > 0 {
				category = args[0]
			}
			return newCommandE(cmd, category, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path for the study file (default: <studies dir>/<slug>.yaml)")

	return cmd
}

func newCommandE(cmd *cobra.Command, category, outputPath string) error {
	draft, err := wizard.RunStudyWizard(cmd.InOrStdin(), cmd.OutOrStdout(), category)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	content, err := wizard.GenerateStudyYAML(draft, id)
	if err != nil {
		return fmt.Errorf("failed to generate study file: %w", err)
	}

	if outputPath == "" {
		cfg, err := projectconfig.Load(".")
		if err != nil {
			return err
		}
		outputPath = filepath.Join(cfg.Paths.Studies, slugify(draft.Category)+".yaml")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating studies directory: %w", err)
	}
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("study file %s already exists", outputPath)
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing study file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", outputPath)                                    //nolint:errcheck
	fmt.Fprintln(cmd.OutOrStdout(), "Add personas and questions, then run: brandpulse run", outputPath) //nolint:errcheck
	return nil
}

// slugify turns a category like "Wireless Headphones" into "wireless-headphones".
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "study"
	}
	return slug
}
