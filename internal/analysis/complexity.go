package analysis

import (
	"fmt"
	"strings"

	"github.com/diffrisk/pkg/models"
)

// ComplexityAnalyzer evaluates how hard a change is to review: dependency
// growth, raw change size, file spread, new public API surface, and deeply
// nested additions.
type ComplexityAnalyzer struct{}

func NewComplexityAnalyzer() *ComplexityAnalyzer {
	return &ComplexityAnalyzer{}
}

func (a *ComplexityAnalyzer) Name() string {
	return "Complexity Assessment"
}

func (a *ComplexityAnalyzer) Analyze(cs *models.ChangeSet) (models.AnalysisResult, error) {
	var findings []models.Finding
	findings = append(findings, a.checkDependencyCount(cs)...)
	findings = append(findings, a.checkChangeSize(cs)...)
	findings = append(findings, a.checkAPISurface(cs)...)
	findings = append(findings, a.checkNestingDepth(cs)...)

	return models.AnalysisResult{
		Analyzer: a.Name(),
		Severity: combineSeverity(findings),
		Findings: findings,
	}, nil
}

// complexityManifests is narrower than the security analyzer's list; the
// generic line-shape rule below stands in for the per-ecosystem rules.
var complexityManifests = []string{"Cargo.toml", "package.json", "requirements.txt", "go.mod"}

func (a *ComplexityAnalyzer) checkDependencyCount(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	for fi := range cs.Files {
		file := &cs.Files[fi]
		if !isManifest(file.Path, complexityManifests) {
			continue
		}
		depCount := 0
		for _, hunk := range file.Hunks {
			for _, line := range hunk.Lines {
				if !strings.HasPrefix(line, "+") {
					continue
				}
				content := strings.TrimSpace(line[1:])
				if content == "" || strings.HasPrefix(content, "[") || strings.HasPrefix(content, "#") {
					continue
				}
				if strings.Contains(content, "=") || strings.Contains(content, ":") || strings.Contains(content, "/") {
					depCount++
				}
			}
		}
		if depCount >= 3 {
			severity := models.SeverityMedium
			if depCount >= 5 {
				severity = models.SeverityHigh
			}
			findings = append(findings, models.Finding{
				Message:  fmt.Sprintf("%d new dependencies added in %s", depCount, file.Path),
				File:     file.Path,
				Severity: severity,
			})
		}
	}
	return findings
}

// checkChangeSize looks at the PR-level totals: lines touched and files
// changed are scored independently.
func (a *ComplexityAnalyzer) checkChangeSize(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	totalChanged := cs.Additions + cs.Deletions

	switch {
	case totalChanged > 500:
		findings = append(findings, models.Finding{
			Message:  fmt.Sprintf("Very large change: %d lines modified (+%d -%d)", totalChanged, cs.Additions, cs.Deletions),
			Severity: models.SeverityHigh,
		})
	case totalChanged > 200:
		findings = append(findings, models.Finding{
			Message:  fmt.Sprintf("Large change: %d lines modified (+%d -%d)", totalChanged, cs.Additions, cs.Deletions),
			Severity: models.SeverityMedium,
		})
	}

	switch {
	case cs.FilesChanged > 20:
		findings = append(findings, models.Finding{
			Message:  fmt.Sprintf("Very high number of files changed: %d", cs.FilesChanged),
			Severity: models.SeverityHigh,
		})
	case cs.FilesChanged > 10:
		findings = append(findings, models.Finding{
			Message:  fmt.Sprintf("High number of files changed: %d", cs.FilesChanged),
			Severity: models.SeverityMedium,
		})
	}

	return findings
}

// exportedDecl reports whether an added line (leading whitespace stripped)
// declares new public API surface.
func exportedDecl(content string) bool {
	for _, p := range []string{"pub fn ", "pub struct ", "pub enum ", "pub trait ", "pub type "} {
		if strings.HasPrefix(content, p) {
			return true
		}
	}
	// Go exported declarations: func/type followed by an uppercase name,
	// or an exported method on any receiver.
	if name, ok := strings.CutPrefix(content, "type "); ok {
		return startsUpper(name)
	}
	if name, ok := strings.CutPrefix(content, "func "); ok {
		if after, found := strings.CutPrefix(name, "("); found {
			if _, rest, ok := strings.Cut(after, ") "); ok {
				return startsUpper(rest)
			}
			return false
		}
		return startsUpper(name)
	}
	return false
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func (a *ComplexityAnalyzer) checkAPISurface(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	totalPub := 0

	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		trimmed := strings.TrimLeft(content, " \t")
		if exportedDecl(trimmed) {
			totalPub++
			findings = append(findings, models.Finding{
				Message:  fmt.Sprintf("New public API: %s", strings.TrimSpace(content)),
				File:     file.Path,
				Line:     hunk.NewStart + idx,
				Severity: models.SeverityLow,
			})
		}
	})

	if totalPub > 10 {
		findings = append(findings, models.Finding{
			Message:  fmt.Sprintf("%d new public API items introduced, consider if all need to be public", totalPub),
			Severity: models.SeverityMedium,
		})
	}
	return findings
}

// checkNestingDepth estimates nesting from the leading-whitespace run,
// assuming 4-space indentation. Tab-indented input under-counts; known
// limitation.
func (a *ComplexityAnalyzer) checkNestingDepth(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		leading := len(content) - len(strings.TrimLeft(content, " "))
		indentLevel := leading / 4
		if indentLevel > 4 {
			findings = append(findings, models.Finding{
				Message:  fmt.Sprintf("Deeply nested code (indent level %d): consider refactoring", indentLevel),
				File:     file.Path,
				Line:     hunk.NewStart + idx,
				Severity: models.SeverityMedium,
			})
		}
	})
	return findings
}
