package analysis

import (
	"strings"

	"github.com/diffrisk/pkg/models"
)

// lineRule is one data-driven heuristic over a single added line: if Match
// reports true for the line's content (prefix stripped), the rule yields a
// finding with Message at the line's reported position.
type lineRule struct {
	ID       string
	Message  string
	Severity models.Severity
	Match    func(content string) bool
}

// evalRules applies every rule independently to one added line and returns
// the findings it produced.
func evalRules(rules []lineRule, file *models.FileChange, hunk *models.Hunk, idx int, content string) []models.Finding {
	var findings []models.Finding
	for _, r := range rules {
		if r.Match(content) {
			findings = append(findings, models.Finding{
				Message:  r.Message,
				File:     file.Path,
				Line:     hunk.NewStart + idx,
				Severity: r.Severity,
			})
		}
	}
	return findings
}

// evalFirstMatch applies rules in table order and stops at the first match.
func evalFirstMatch(rules []lineRule, file *models.FileChange, hunk *models.Hunk, idx int, content string) []models.Finding {
	for _, r := range rules {
		if r.Match(content) {
			return []models.Finding{{
				Message:  r.Message,
				File:     file.Path,
				Line:     hunk.NewStart + idx,
				Severity: r.Severity,
			}}
		}
	}
	return nil
}

// forEachAddedLine walks every added line across every hunk of every file.
// idx is the line's index within its hunk's raw line slice; the reported
// line number for a finding is hunk.NewStart + idx.
func forEachAddedLine(cs *models.ChangeSet, fn func(file *models.FileChange, hunk *models.Hunk, idx int, content string)) {
	for fi := range cs.Files {
		file := &cs.Files[fi]
		for hi := range file.Hunks {
			hunk := &file.Hunks[hi]
			for idx, line := range hunk.Lines {
				if !strings.HasPrefix(line, "+") {
					continue
				}
				fn(file, hunk, idx, line[1:])
			}
		}
	}
}

// manifestFiles are the dependency manifests the security analyzer
// recognizes. The complexity analyzer uses a slightly narrower list.
var manifestFiles = []string{"Cargo.toml", "package.json", "requirements.txt", "go.mod", "Gemfile"}

func isManifest(path string, manifests []string) bool {
	for _, m := range manifests {
		if strings.HasSuffix(path, m) {
			return true
		}
	}
	return false
}

// containsAnyUpper reports whether the uppercased content contains any of
// the given (already uppercase) keywords.
func containsAnyUpper(content string, keywords ...string) bool {
	upper := strings.ToUpper(content)
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
