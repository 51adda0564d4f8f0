package analysis

import (
	"fmt"
	"strings"

	"github.com/diffrisk/pkg/models"
)

// StyleAnalyzer checks conformance with project conventions: unchecked-result
// usage outside tests, leftover not-implemented and deferred-work markers,
// redundant conversions, naming of new files and types, and (when layers are
// configured) architectural boundary violations.
type StyleAnalyzer struct {
	layers []string
}

// NewStyleAnalyzer creates a style analyzer. layers optionally names the
// architectural layers, ordered outermost first; without them the boundary
// check stays a no-op.
func NewStyleAnalyzer(layers ...string) *StyleAnalyzer {
	return &StyleAnalyzer{layers: layers}
}

func (a *StyleAnalyzer) Name() string {
	return "Style & Architecture Assessment"
}

func (a *StyleAnalyzer) Analyze(cs *models.ChangeSet) (models.AnalysisResult, error) {
	var findings []models.Finding
	findings = append(findings, a.checkUnwrapUsage(cs)...)
	findings = append(findings, a.checkTodoMarkers(cs)...)
	findings = append(findings, a.checkRedundantConversion(cs)...)
	findings = append(findings, a.checkLayerBoundaries(cs)...)
	findings = append(findings, a.checkNamingConventions(cs)...)

	return models.AnalysisResult{
		Analyzer: a.Name(),
		Severity: combineSeverity(findings),
		Findings: findings,
	}, nil
}

func isTestPath(path string) bool {
	return strings.HasPrefix(path, "tests/") ||
		strings.Contains(path, "/tests/") ||
		strings.HasSuffix(path, "_test.rs") ||
		strings.HasSuffix(path, "_test.go")
}

// checkUnwrapUsage flags .unwrap() on added lines outside test files. The
// in-test-section flag is sticky: once a test-section marker shows up in any
// hunk, the rest of that file's hunks are skipped too. Intentional; do not
// reset per hunk.
func (a *StyleAnalyzer) checkUnwrapUsage(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	for fi := range cs.Files {
		file := &cs.Files[fi]
		if isTestPath(file.Path) {
			continue
		}
		inTestSection := false
		for hi := range file.Hunks {
			hunk := &file.Hunks[hi]
			for idx, line := range hunk.Lines {
				raw := line
				if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, " ") {
					raw = line[1:]
				}
				if strings.Contains(raw, "#[cfg(test)]") {
					inTestSection = true
				}
				if !strings.HasPrefix(line, "+") || inTestSection {
					continue
				}
				if strings.Contains(line[1:], ".unwrap()") {
					findings = append(findings, models.Finding{
						Message:  "Use of .unwrap(), prefer the ? operator or .expect() with context",
						File:     file.Path,
						Line:     hunk.NewStart + idx,
						Severity: models.SeverityMedium,
					})
				}
			}
		}
	}
	return findings
}

var todoMarkerRules = []lineRule{
	{ID: "todo-macro", Message: "todo!() macro found, should not ship to production", Severity: models.SeverityMedium,
		Match: func(c string) bool {
			return strings.Contains(c, "todo!()") || strings.Contains(c, `todo!("`)
		}},
	{ID: "unimplemented-macro", Message: "unimplemented!() macro found, should not ship to production", Severity: models.SeverityMedium,
		Match: func(c string) bool {
			return strings.Contains(c, "unimplemented!()") || strings.Contains(c, `unimplemented!("`)
		}},
	{ID: "fixme-comment", Message: "FIXME comment found, indicates a known issue", Severity: models.SeverityLow,
		Match: func(c string) bool {
			t := strings.ToUpper(strings.TrimSpace(c))
			return strings.HasPrefix(t, "// FIXME") || strings.HasPrefix(t, "# FIXME")
		}},
}

func (a *StyleAnalyzer) checkTodoMarkers(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		findings = append(findings, evalRules(todoMarkerRules, file, hunk, idx, content)...)
	})
	return findings
}

var redundantConversionRules = []lineRule{
	{ID: "redundant-clone", Message: "Redundant clone: value is already owned after the conversion", Severity: models.SeverityLow,
		Match: func(c string) bool {
			return strings.Contains(c, ".to_string().clone()") || strings.Contains(c, ".to_owned().clone()")
		}},
}

func (a *StyleAnalyzer) checkRedundantConversion(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		if !strings.HasSuffix(file.Path, ".rs") {
			return
		}
		findings = append(findings, evalRules(redundantConversionRules, file, hunk, idx, content)...)
	})
	return findings
}

// checkLayerBoundaries flags added lines in an inner layer that reference an
// outer layer. Layers come from configuration, ordered outermost first; with
// no layers configured the check is a no-op by design of the contract, not a
// defect.
func (a *StyleAnalyzer) checkLayerBoundaries(cs *models.ChangeSet) []models.Finding {
	if len(a.layers) == 0 {
		return nil
	}
	layerIndex := func(path string) int {
		for i, l := range a.layers {
			if strings.HasPrefix(path, l+"/") || strings.Contains(path, "/"+l+"/") {
				return i
			}
		}
		return -1
	}
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		own := layerIndex(file.Path)
		if own < 0 {
			return
		}
		for i, l := range a.layers {
			if i >= own {
				break
			}
			if strings.Contains(content, l+"/") || strings.Contains(content, "/"+l) {
				findings = append(findings, models.Finding{
					Message:  fmt.Sprintf("Layer boundary violation: %s layer references outer layer %s", a.layers[own], l),
					File:     file.Path,
					Line:     hunk.NewStart + idx,
					Severity: models.SeverityMedium,
				})
				break
			}
		}
	})
	return findings
}

// checkNamingConventions applies only to newly added files: source file base
// names should be lower snake_case (module entry names exempt) and new type
// declarations UpperCamelCase.
func (a *StyleAnalyzer) checkNamingConventions(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	for fi := range cs.Files {
		file := &cs.Files[fi]
		if !file.IsNew {
			continue
		}

		if stem, ok := sourceFileStem(file.Path); ok && !isModuleEntryName(stem) && !isSnakeCase(stem) {
			base := file.Path
			if i := strings.LastIndex(base, "/"); i >= 0 {
				base = base[i+1:]
			}
			findings = append(findings, models.Finding{
				Message:  fmt.Sprintf("File name %q does not follow snake_case convention", base),
				File:     file.Path,
				Severity: models.SeverityLow,
			})
		}

		for hi := range file.Hunks {
			hunk := &file.Hunks[hi]
			for idx, line := range hunk.Lines {
				if !strings.HasPrefix(line, "+") {
					continue
				}
				content := strings.TrimLeft(line[1:], " \t")
				name, ok := typeDeclName(content)
				if ok && name != "" && !isPascalCase(name) {
					findings = append(findings, models.Finding{
						Message:  fmt.Sprintf("Type %q does not follow UpperCamelCase convention", name),
						File:     file.Path,
						Line:     hunk.NewStart + idx,
						Severity: models.SeverityLow,
					})
				}
			}
		}
	}
	return findings
}

// sourceFileStem returns the base name without its source extension, and
// whether the path names a source file subject to the naming check.
func sourceFileStem(path string) (string, bool) {
	base := path
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	for _, ext := range []string{".rs", ".go"} {
		if stem, ok := strings.CutSuffix(base, ext); ok {
			return stem, true
		}
	}
	return "", false
}

func isModuleEntryName(stem string) bool {
	switch stem {
	case "mod", "lib", "main", "doc":
		return true
	}
	return false
}

// typeDeclName extracts the declared name from a type-declaration line
// (struct/enum/trait, with optional pub prefix).
func typeDeclName(content string) (string, bool) {
	for _, keyword := range []string{"struct ", "enum ", "trait "} {
		var rest string
		switch {
		case strings.HasPrefix(content, "pub "+keyword):
			rest = content[len("pub "+keyword):]
		case strings.HasPrefix(content, keyword):
			rest = content[len(keyword):]
		default:
			continue
		}
		end := strings.IndexFunc(rest, func(r rune) bool {
			return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
		})
		if end < 0 {
			end = len(rest)
		}
		return rest[:end], true
	}
	return "", false
}

func isSnakeCase(s string) bool {
	if s == "" || strings.HasPrefix(s, "_") || strings.Contains(s, "__") {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func isPascalCase(s string) bool {
	if s == "" || strings.Contains(s, "_") {
		return false
	}
	if !(s[0] >= 'A' && s[0] <= 'Z') {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
