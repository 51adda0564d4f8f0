package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffrisk/pkg/models"
)

func analyzeComplexity(t *testing.T, cs *models.ChangeSet) models.AnalysisResult {
	t.Helper()
	result, err := NewComplexityAnalyzer().Analyze(cs)
	require.NoError(t, err)
	return result
}

func TestComplexityEmptyChangeSetIsLow(t *testing.T) {
	result := analyzeComplexity(t, testChangeSet())
	assert.Equal(t, models.SeverityLow, result.Severity)
	assert.Empty(t, result.Findings)
}

func TestComplexityVeryLargeChangeIsHigh(t *testing.T) {
	cs := testChangeSet()
	cs.Additions = 600
	cs.Deletions = 50

	result := analyzeComplexity(t, cs)
	assert.Equal(t, models.SeverityHigh, result.Severity)
	require.Len(t, result.Findings, 1)
	assert.Contains(t, result.Findings[0].Message, "Very large change: 650 lines")
}

func TestComplexityLargeChangeBoundaries(t *testing.T) {
	// 210 + 10 = 220 > 200 yields exactly one Medium finding; 8 files stays
	// under the files-changed threshold.
	cs := testChangeSet()
	cs.Additions = 210
	cs.Deletions = 10
	cs.FilesChanged = 8

	result := analyzeComplexity(t, cs)
	require.Len(t, result.Findings, 1)
	assert.Contains(t, result.Findings[0].Message, "Large change")
	assert.Equal(t, models.SeverityMedium, result.Severity)
}

func TestComplexityFilesChangedThresholds(t *testing.T) {
	tests := []struct {
		files    int
		want     models.Severity
		findings int
	}{
		{10, models.SeverityLow, 0},
		{15, models.SeverityMedium, 1},
		{25, models.SeverityHigh, 1},
	}
	for _, tt := range tests {
		cs := testChangeSet()
		cs.FilesChanged = tt.files

		result := analyzeComplexity(t, cs)
		assert.Equal(t, tt.want, result.Severity, "files=%d", tt.files)
		assert.Len(t, result.Findings, tt.findings, "files=%d", tt.files)
	}
}

func TestComplexityDependencyCountThresholds(t *testing.T) {
	lines := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		lines = append(lines, fmt.Sprintf(`+dep%d = "1.0"`, i))
	}

	tests := []struct {
		count    int
		want     models.Severity
		findings int
	}{
		{2, models.SeverityLow, 0},
		{3, models.SeverityMedium, 1},
		{5, models.SeverityHigh, 1},
	}
	for _, tt := range tests {
		cs := testChangeSet()
		cs.Files = []models.FileChange{testFileChange("Cargo.toml", lines[:tt.count]...)}

		result := analyzeComplexity(t, cs)
		assert.Equal(t, tt.want, result.Severity, "deps=%d", tt.count)
		assert.Len(t, result.Findings, tt.findings, "deps=%d", tt.count)
	}
}

func TestComplexityGemfileIsNotAManifestHere(t *testing.T) {
	cs := testChangeSet()
	cs.Files = []models.FileChange{testFileChange(
		"Gemfile",
		`+gem "rails", "~> 7.0"`,
		`+gem "pg", "~> 1.5"`,
		`+gem "puma", "~> 6.0"`,
	)}

	result := analyzeComplexity(t, cs)
	assert.Empty(t, result.Findings)
}

func TestComplexityDetectsNewPublicAPI(t *testing.T) {
	cs := testChangeSet()
	cs.Files = []models.FileChange{testFileChange(
		"src/api.rs",
		"+pub fn create_user(name: &str) -> User {",
		"+pub struct User {",
		"+pub enum Role {",
	)}

	result := analyzeComplexity(t, cs)
	apiFindings := 0
	for _, f := range result.Findings {
		if assert.NotEmpty(t, f.Message) && f.Severity == models.SeverityLow {
			apiFindings++
		}
	}
	assert.Equal(t, 3, apiFindings)
}

func TestComplexityDetectsGoExportedDeclarations(t *testing.T) {
	cs := testChangeSet()
	cs.Files = []models.FileChange{testFileChange(
		"server.go",
		"+func NewServer(addr string) *Server {",
		"+type Server struct {",
		"+func (s *Server) Listen(ctx context.Context) error {",
		"+func helper() {",
		"+type option func(*Server)",
	)}

	result := analyzeComplexity(t, cs)
	assert.Len(t, result.Findings, 3, "unexported declarations are not API surface")
}

func TestComplexityManyAPIItemsAddsMediumSummary(t *testing.T) {
	lines := make([]string, 0, 11)
	for i := 0; i < 11; i++ {
		lines = append(lines, fmt.Sprintf("+pub fn handler_%d() {}", i))
	}
	cs := testChangeSet()
	cs.Files = []models.FileChange{testFileChange("src/api.rs", lines...)}

	result := analyzeComplexity(t, cs)
	require.Len(t, result.Findings, 12)
	assert.Equal(t, models.SeverityMedium, result.Severity)
	assert.Contains(t, result.Findings[11].Message, "11 new public API items")
}

func TestComplexityDetectsDeepNesting(t *testing.T) {
	cs := testChangeSet()
	cs.Files = []models.FileChange{testFileChange(
		"src/logic.rs",
		"+                        deeply_nested_call();", // 24 spaces, level 6
	)}

	result := analyzeComplexity(t, cs)
	require.Len(t, result.Findings, 1)
	assert.Contains(t, result.Findings[0].Message, "Deeply nested code (indent level 6)")
	assert.Equal(t, models.SeverityMedium, result.Severity)
}

func TestComplexityNestingIgnoresBlankAndShallowLines(t *testing.T) {
	cs := testChangeSet()
	cs.Files = []models.FileChange{testFileChange(
		"src/logic.rs",
		"+                ok_at_level_four();", // 16 spaces, level 4
		"+                        ",            // deep but blank
	)}

	result := analyzeComplexity(t, cs)
	assert.Empty(t, result.Findings)
}
