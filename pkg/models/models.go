package models

// Severity ranks how risky a finding is. Aggregation across findings and
// analyzers is always "take the maximum".
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

// String renders the severity in the uppercase form used by reports.
func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// Hunk is a contiguous changed region within one file's diff. Start/count
// values are 1-based and come straight from the @@ header. Lines keep their
// +/-/space prefixes.
type Hunk struct {
	OldStart int      `json:"old_start"`
	OldCount int      `json:"old_count"`
	NewStart int      `json:"new_start"`
	NewCount int      `json:"new_count"`
	Lines    []string `json:"lines"`
}

// FileChange is a single file within a parsed diff.
type FileChange struct {
	Path      string `json:"path"`
	IsNew     bool   `json:"is_new"`
	IsDeleted bool   `json:"is_deleted"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Hunks     []Hunk `json:"hunks"`
}

// ChangeSet is the immutable in-memory representation of a pull request:
// metadata plus the parsed per-file diffs. It is built once per run and
// consumed read-only by every analyzer.
type ChangeSet struct {
	Number       int          `json:"number"`
	Title        string       `json:"title"`
	Author       string       `json:"author"`
	FilesChanged int          `json:"files_changed"`
	Additions    int          `json:"additions"`
	Deletions    int          `json:"deletions"`
	Files        []FileChange `json:"files"`
}

// Finding is one heuristic observation from an analyzer.
type Finding struct {
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"` // 1-based; 0 means no line
	Severity Severity `json:"severity"`
}

// AnalysisResult is the output of a single analyzer run.
type AnalysisResult struct {
	Analyzer string    `json:"analyzer"`
	Severity Severity  `json:"severity"`
	Findings []Finding `json:"findings"`
}
