// Package report turns analyzer results into the terminal and markdown
// renderings. It interprets nothing; the severities arrive final.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diffrisk/pkg/models"
)

// Report combines all analyzer results with PR metadata.
type Report struct {
	Number       int                     `json:"number"`
	Title        string                  `json:"title"`
	Author       string                  `json:"author"`
	FilesChanged int                     `json:"files_changed"`
	Additions    int                     `json:"additions"`
	Deletions    int                     `json:"deletions"`
	Results      []models.AnalysisResult `json:"results"`
	OverallRisk  models.Severity         `json:"overall_risk"`
}

// Build merges analyzer results with ChangeSet metadata. Overall risk is the
// maximum severity across results, Low when there are none.
func Build(results []models.AnalysisResult, cs *models.ChangeSet) Report {
	overall := models.SeverityLow
	for _, r := range results {
		overall = models.MaxSeverity(overall, r.Severity)
	}

	return Report{
		Number:       cs.Number,
		Title:        cs.Title,
		Author:       cs.Author,
		FilesChanged: cs.FilesChanged,
		Additions:    cs.Additions,
		Deletions:    cs.Deletions,
		Results:      results,
		OverallRisk:  overall,
	}
}

// Output prints the report to the terminal, or writes markdown to
// outputPath when it is non-empty.
func Output(r *Report, outputPath string) error {
	if outputPath == "" {
		WriteTerminal(os.Stdout, r)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(Markdown(r)), 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

var (
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

func styledSeverity(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return highStyle.Render(s.String())
	case models.SeverityMedium:
		return mediumStyle.Render(s.String())
	default:
		return lowStyle.Render(s.String())
	}
}

// WriteTerminal renders the report for the terminal with severity coloring.
func WriteTerminal(w io.Writer, r *Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "PR #%d: %q\n", r.Number, r.Title)
	fmt.Fprintf(w, "Author: %s | Files changed: %d | +%d -%d\n", r.Author, r.FilesChanged, r.Additions, r.Deletions)
	fmt.Fprintln(w)

	for _, result := range r.Results {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("═══ %s ═══", result.Analyzer)))
		fmt.Fprintf(w, "Risk Level: %s\n", styledSeverity(result.Severity))
		if len(result.Findings) == 0 {
			fmt.Fprintln(w, "  No findings.")
		} else {
			for _, f := range result.Findings {
				fmt.Fprintf(w, "  • %s%s\n", f.Message, location(f, "%s:%d", "%s"))
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("═══ Overall Risk: %s ═══", styledSeverity(r.OverallRisk))))
	fmt.Fprintln(w)
}

// Markdown renders the report as a markdown document.
func Markdown(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# PR #%d: %q\n\n", r.Number, r.Title)
	fmt.Fprintf(&b, "**Author:** %s | **Files changed:** %d | **+%d -%d**\n\n", r.Author, r.FilesChanged, r.Additions, r.Deletions)

	for _, result := range r.Results {
		fmt.Fprintf(&b, "## %s\n\n", result.Analyzer)
		fmt.Fprintf(&b, "**Risk Level: %s**\n\n", result.Severity)
		if len(result.Findings) == 0 {
			b.WriteString("No findings.\n\n")
		} else {
			for _, f := range result.Findings {
				fmt.Fprintf(&b, "- %s%s\n", f.Message, location(f, "`%s:%d`", "`%s`"))
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "## Overall Risk: %s\n", r.OverallRisk)
	return b.String()
}

// location formats the optional file/line suffix for one finding.
func location(f models.Finding, withLine, fileOnly string) string {
	switch {
	case f.File != "" && f.Line > 0:
		return " (" + fmt.Sprintf(withLine, f.File, f.Line) + ")"
	case f.File != "":
		return " (" + fmt.Sprintf(fileOnly, f.File) + ")"
	default:
		return ""
	}
}
