package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/diffrisk/pkg/models"
)

// SecurityAnalyzer scans added lines for security-relevant patterns: SQL and
// command injection, hardcoded credentials, unsafe code, and new dependencies
// in manifest files.
type SecurityAnalyzer struct {
	secretRules []lineRule
}

var awsAccessKeyRe = regexp.MustCompile(`AKIA[0-9A-Z]{16}`)

// NewSecurityAnalyzer creates a security analyzer with the built-in pattern
// tables. Extra substring patterns (from configuration) are appended after
// the built-ins so table order, and therefore first-match-wins behavior,
// stays stable.
func NewSecurityAnalyzer(extraPatterns ...string) *SecurityAnalyzer {
	rules := []lineRule{
		{ID: "hardcoded-password", Message: "Hardcoded password detected", Severity: models.SeverityHigh,
			Match: func(c string) bool { return matchesAssignment(c, "password") }},
		{ID: "hardcoded-api-key", Message: "Hardcoded API key detected", Severity: models.SeverityHigh,
			Match: func(c string) bool { return matchesAssignment(c, "api_key") }},
		{ID: "hardcoded-secret", Message: "Hardcoded secret detected", Severity: models.SeverityHigh,
			Match: func(c string) bool { return matchesAssignment(c, "secret") }},
		{ID: "hardcoded-token", Message: "Hardcoded token detected", Severity: models.SeverityHigh,
			Match: func(c string) bool { return matchesAssignment(c, "token") }},
		{ID: "aws-access-key", Message: "AWS access key detected", Severity: models.SeverityHigh,
			Match: awsAccessKeyRe.MatchString},
		{ID: "secret-key-marker", Message: "Possible hardcoded secret key", Severity: models.SeverityHigh,
			Match: func(c string) bool { return strings.Contains(c, "secret_key_") }},
		{ID: "secret-value-marker", Message: "Hardcoded secret value", Severity: models.SeverityHigh,
			Match: func(c string) bool { return strings.Contains(c, "hardcoded_secret") }},
	}
	for _, p := range extraPatterns {
		pattern := p
		rules = append(rules, lineRule{
			ID:       "configured-pattern",
			Message:  fmt.Sprintf("Matched configured security pattern %q", pattern),
			Severity: models.SeverityHigh,
			Match:    func(c string) bool { return strings.Contains(c, pattern) },
		})
	}
	return &SecurityAnalyzer{secretRules: rules}
}

func (a *SecurityAnalyzer) Name() string {
	return "Security Risk Assessment"
}

func (a *SecurityAnalyzer) Analyze(cs *models.ChangeSet) (models.AnalysisResult, error) {
	var findings []models.Finding
	findings = append(findings, a.checkSQLInjection(cs)...)
	findings = append(findings, a.checkHardcodedSecrets(cs)...)
	findings = append(findings, a.checkUnsafeCode(cs)...)
	findings = append(findings, a.checkNewDependencies(cs)...)
	findings = append(findings, a.checkCommandInjection(cs)...)

	return models.AnalysisResult{
		Analyzer: a.Name(),
		Severity: combineSeverity(findings),
		Findings: findings,
	}, nil
}

// checkSQLInjection flags string interpolation co-occurring with SQL
// keywords. Files with a .sql suffix are more sensitive: any interpolation
// marker qualifies on its own.
func (a *SecurityAnalyzer) checkSQLInjection(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		isSQLFile := strings.HasSuffix(file.Path, ".sql")
		hasFormatSQL := strings.Contains(content, "format!") &&
			containsAnyUpper(content, "SELECT", "INSERT", "UPDATE", "DELETE")
		hasConcatSQL := (strings.Contains(content, `" +`) || strings.Contains(content, `+ "`)) &&
			containsAnyUpper(content, "SELECT", "WHERE")

		switch {
		case isSQLFile && (strings.Contains(content, "format!") || strings.Contains(content, "${") || strings.Contains(content, "' +")):
			findings = append(findings, models.Finding{
				Message:  "Possible SQL injection: string interpolation in SQL file",
				File:     file.Path,
				Line:     hunk.NewStart + idx,
				Severity: models.SeverityHigh,
			})
		case hasFormatSQL || hasConcatSQL:
			findings = append(findings, models.Finding{
				Message:  "Possible SQL injection: raw SQL query construction with string interpolation",
				File:     file.Path,
				Line:     hunk.NewStart + idx,
				Severity: models.SeverityHigh,
			})
		}
	})
	return findings
}

// checkHardcodedSecrets applies the ordered secret rule table; the first
// matching rule wins per line.
func (a *SecurityAnalyzer) checkHardcodedSecrets(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		findings = append(findings, evalFirstMatch(a.secretRules, file, hunk, idx, content)...)
	})
	return findings
}

// matchesAssignment reports whether content assigns a quoted literal to a
// name containing key, e.g. `password = "hunter2"`.
func matchesAssignment(content, key string) bool {
	idx := strings.Index(content, key)
	if idx < 0 {
		return false
	}
	rest := strings.TrimLeft(content[idx+len(key):], " \t")
	if !strings.HasPrefix(rest, "=") {
		return false
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	return strings.HasPrefix(rest, `"`)
}

var unsafeRules = []lineRule{
	{ID: "unsafe-block", Message: "New unsafe block introduced", Severity: models.SeverityMedium,
		Match: func(c string) bool {
			t := strings.TrimSpace(c)
			return strings.Contains(t, "unsafe {") || strings.Contains(t, "unsafe fn") || strings.Contains(t, "unsafe.Pointer")
		}},
}

func (a *SecurityAnalyzer) checkUnsafeCode(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		findings = append(findings, evalRules(unsafeRules, file, hunk, idx, content)...)
	})
	return findings
}

// checkNewDependencies counts added dependency-shaped lines inside
// recognized manifest files, using a per-ecosystem line-shape rule. Severity
// scales with the count: >=5 High, >=3 Medium, otherwise Low.
func (a *SecurityAnalyzer) checkNewDependencies(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	for fi := range cs.Files {
		file := &cs.Files[fi]
		if !isManifest(file.Path, manifestFiles) {
			continue
		}
		var newDeps []string
		for _, hunk := range file.Hunks {
			for _, line := range hunk.Lines {
				if !strings.HasPrefix(line, "+") {
					continue
				}
				content := strings.TrimSpace(line[1:])
				if content == "" || strings.HasPrefix(content, "[") || strings.HasPrefix(content, "#") {
					continue
				}
				if dependencyShaped(file.Path, content) {
					newDeps = append(newDeps, content)
				}
			}
		}
		if len(newDeps) == 0 {
			continue
		}
		severity := models.SeverityLow
		switch {
		case len(newDeps) >= 5:
			severity = models.SeverityHigh
		case len(newDeps) >= 3:
			severity = models.SeverityMedium
		}
		findings = append(findings, models.Finding{
			Message:  fmt.Sprintf("%d new dependencies added in %s: %s", len(newDeps), file.Path, strings.Join(newDeps, ", ")),
			File:     file.Path,
			Severity: severity,
		})
	}
	return findings
}

// dependencyShaped applies the ecosystem-specific shape rule for one added
// manifest line that has already passed the empty/comment/section filter.
func dependencyShaped(path, content string) bool {
	switch {
	case strings.HasSuffix(path, "Cargo.toml"):
		return strings.Contains(content, "=") &&
			!strings.HasPrefix(content, "version") &&
			!strings.HasPrefix(content, "edition") &&
			!strings.HasPrefix(content, "name") &&
			!strings.HasPrefix(content, "description")
	case strings.HasSuffix(path, "requirements.txt"):
		return true
	case strings.HasSuffix(path, "package.json"):
		return strings.Contains(content, ":") && strings.Contains(content, `"`)
	case strings.HasSuffix(path, "go.mod"):
		return strings.Contains(content, "/")
	default:
		return false
	}
}

var commandInjectionRules = []lineRule{
	{ID: "dynamic-process-exec", Message: "Possible command injection: process invocation with dynamic arguments", Severity: models.SeverityHigh,
		Match: func(c string) bool {
			return strings.Contains(c, "Command::new") && (strings.Contains(c, "format!") || strings.Contains(c, "&"))
		}},
	{ID: "shell-passthrough", Message: "Possible command injection: subprocess with shell=True", Severity: models.SeverityHigh,
		Match: func(c string) bool {
			return strings.Contains(c, "shell=True") || strings.Contains(c, "shell = True")
		}},
	{ID: "dynamic-eval", Message: "Possible code injection: eval/exec usage detected", Severity: models.SeverityHigh,
		Match: func(c string) bool {
			if !strings.Contains(c, "eval(") && !strings.Contains(c, "exec(") {
				return false
			}
			t := strings.TrimSpace(c)
			return !strings.HasPrefix(t, "//") && !strings.HasPrefix(t, "#")
		}},
}

func (a *SecurityAnalyzer) checkCommandInjection(cs *models.ChangeSet) []models.Finding {
	var findings []models.Finding
	forEachAddedLine(cs, func(file *models.FileChange, hunk *models.Hunk, idx int, content string) {
		findings = append(findings, evalRules(commandInjectionRules, file, hunk, idx, content)...)
	})
	return findings
}
