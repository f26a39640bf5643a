package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/orchestration"
	"github.com/brandpulse/brandpulse/internal/spinner"
)

// runReporter prints collection progress to the terminal. Events arrive from
// concurrent query workers, so all printing happens under a mutex.
type runReporter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool

	completed int
	failed    int

	model       string
	stopSpinner func()
}

func newRunReporter(out io.Writer, verbose bool) *runReporter {
	return &runReporter{out: out, verbose: verbose}
}

func (r *runReporter) listen(event orchestration.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.EventType {
	case orchestration.EventModelStart:
		r.completed = 0
		r.failed = 0
		r.model = event.Model
		fmt.Fprintf(r.out, "Collecting with %s (%d queries)...\n", event.Model, event.TotalQueries) //nolint:errcheck
		r.spin()
	case orchestration.EventQueryComplete:
		r.completed++
		if r.verbose {
			fmt.Fprintf(r.out, "  [%d/%d] %s iteration %d (%dms)\n", //nolint:errcheck
				r.completed+r.failed, event.TotalQueries, event.QuestionID, event.Iteration, event.DurationMs)
		}
	case orchestration.EventQueryFailed:
		r.failed++
		r.pause()
		fmt.Fprintf(r.out, "  [%d/%d] %s iteration %d FAILED: %s\n", //nolint:errcheck
			r.completed+r.failed, event.TotalQueries, event.QuestionID, event.Iteration, event.Error)
		r.spin()
	case orchestration.EventModelComplete:
		r.pause()
		fmt.Fprintf(r.out, "  %s done: %d succeeded, %d failed\n", //nolint:errcheck
			event.Model, r.completed, r.failed)
	}
}

// spin starts the waiting animation. Verbose mode prints one line per query
// instead, so the spinner would only fight with the output.
func (r *runReporter) spin() {
	if r.verbose || r.stopSpinner != nil {
		return
	}
	r.stopSpinner = spinner.Start(r.out, fmt.Sprintf("querying %s", r.model))
}

func (r *runReporter) pause() {
	if r.stopSpinner != nil {
		r.stopSpinner()
		r.stopSpinner = nil
	}
}

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// printStatsTable renders per-brand statistics as an aligned terminal table.
func printStatsTable(w io.Writer, stats []models.BrandStatistics) {
	const (
		colBrand     = 20
		colMention   = 24
		colRank      = 8
		colTop3      = 8
		colSentiment = 10
		colSoV       = 6
	)
	totalWidth := colBrand + colMention + colRank + colTop3 + colSentiment + colSoV + 10

	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n", //nolint:errcheck
		padRight("Brand", colBrand),
		padRight("Mentions (95% CI)", colMention),
		padRight("Rank", colRank),
		padRight("Top-3", colTop3),
		padRight("Sentiment", colSentiment),
		"SoV")
	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth)) //nolint:errcheck

	for _, bs := range stats {
		mention := fmt.Sprintf("%5.1f%% [%.1f%%, %.1f%%]",
			bs.MentionFrequency*100, bs.MentionFrequencyCI.Low*100, bs.MentionFrequencyCI.High*100)
		rank := "-"
		if bs.AvgRank > 0 {
			rank = fmt.Sprintf("%.2f", bs.AvgRank)
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %.1f%%\n", //nolint:errcheck
			padRight(truncateName(bs.Brand, colBrand), colBrand),
			padRight(mention, colMention),
			padRight(rank, colRank),
			padRight(fmt.Sprintf("%.1f%%", bs.Top3Rate*100), colTop3),
			padRight(fmt.Sprintf("%+.2f", bs.AvgSentimentScore), colSentiment),
			bs.ShareOfVoice*100)
	}
}

// printChangeTable renders metric changes between two runs.
func printChangeTable(w io.Writer, records []models.ChangeRecord) {
	const (
		colBrand  = 20
		colMetric = 22
		colVals   = 18
		colDelta  = 10
		colP      = 10
	)
	totalWidth := colBrand + colMetric + colVals + colDelta + colP + 18

	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n", //nolint:errcheck
		padRight("Brand", colBrand),
		padRight("Metric", colMetric),
		padRight("A → B", colVals),
		padRight("Delta", colDelta),
		padRight("p-value", colP),
		"Verdict")
	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth)) //nolint:errcheck

	for _, record := range records {
		for i, m := range record.Metrics {
			brand := ""
			if i == 0 {
				brand = truncateName(record.Brand, colBrand)
			}
			verdict := string(m.Interpretation)
			if m.Significant {
				verdict += " *"
			}
			fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n", //nolint:errcheck
				padRight(brand, colBrand),
				padRight(m.Label, colMetric),
				padRight(fmt.Sprintf("%5.1f%% → %5.1f%%", m.ValueA*100, m.ValueB*100), colVals),
				padRight(fmt.Sprintf("%+.1fpp", m.DeltaPP), colDelta),
				padRight(fmt.Sprintf("%.4f", m.PValue), colP),
				verdict)
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n", //nolint:errcheck
			padRight("", colBrand),
			padRight("Rec. Strength", colMetric),
			padRight(fmt.Sprintf("%5.2f → %5.2f", record.StrengthA, record.StrengthB), colVals),
			fmt.Sprintf("%+.2f", record.StrengthDelta))
	}
	fmt.Fprintln(w, "\n* statistically significant at p < 0.05") //nolint:errcheck
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
