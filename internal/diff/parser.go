package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/diffrisk/pkg/models"
)

// MalformedDiffError reports a diff that could not be parsed. Fragment holds
// the offending header text so the caller can show what broke.
type MalformedDiffError struct {
	Fragment string
	Reason   string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff: %s in %q", e.Reason, e.Fragment)
}

// Parser parses unified diff text into structured per-file change records.
type Parser struct{}

// NewParser creates a new diff parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse walks the diff text in a single forward pass, keeping at most one
// open file and one open hunk, and flushing them on every transition (new
// file header, new hunk header, end of input). File and hunk order in the
// output mirrors the input exactly; downstream line reporting depends on it.
//
// Empty or whitespace-only input yields an empty result, not an error.
// Unrecognized lines (index, mode, binary markers) are skipped.
func (p *Parser) Parse(diffText string) ([]models.FileChange, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}

	var files []models.FileChange
	var curFile *models.FileChange
	var curHunk *models.Hunk

	closeHunk := func() {
		if curFile != nil && curHunk != nil {
			curFile.Hunks = append(curFile.Hunks, *curHunk)
		}
		curHunk = nil
	}
	closeFile := func() {
		closeHunk()
		if curFile != nil {
			files = append(files, *curFile)
		}
		curFile = nil
	}

	for _, line := range strings.Split(diffText, "\n") {
		if rest, ok := strings.CutPrefix(line, "diff --git "); ok {
			closeFile()
			path, err := parseGitHeaderPath(rest, line)
			if err != nil {
				return nil, err
			}
			curFile = &models.FileChange{Path: path}
			continue
		}

		if strings.HasPrefix(line, "@@") {
			closeHunk()
			hunk, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			curHunk = hunk
			continue
		}

		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
			if curFile != nil {
				path := strings.TrimSpace(line[4:])
				if strings.HasPrefix(line, "--- ") && path == "/dev/null" {
					curFile.IsNew = true
				}
				if strings.HasPrefix(line, "+++ ") && path == "/dev/null" {
					curFile.IsDeleted = true
				}
			}
			continue
		}

		if curFile != nil && curHunk != nil {
			switch {
			case strings.HasPrefix(line, "+"):
				curHunk.Lines = append(curHunk.Lines, line)
				if !strings.HasPrefix(line, "+++") {
					curFile.Additions++
				}
			case strings.HasPrefix(line, "-"):
				curHunk.Lines = append(curHunk.Lines, line)
				if !strings.HasPrefix(line, "---") {
					curFile.Deletions++
				}
			case strings.HasPrefix(line, " "):
				curHunk.Lines = append(curHunk.Lines, line)
			}
		}
	}

	closeFile()

	log.Debug().Int("files", len(files)).Msg("parsed diff")
	return files, nil
}

// parseGitHeaderPath extracts the file path from the remainder of a
// "diff --git a/<path> b/<path>" line, preferring the b/ side.
func parseGitHeaderPath(rest, fullLine string) (string, error) {
	parts := strings.Fields(rest)
	if len(parts) < 1 {
		return "", &MalformedDiffError{Fragment: fullLine, Reason: "missing a/ path in file header"}
	}
	if len(parts) < 2 {
		return "", &MalformedDiffError{Fragment: fullLine, Reason: "missing b/ path in file header"}
	}
	aPath := parts[0]
	bPath := parts[1]
	if stripped, ok := strings.CutPrefix(bPath, "b/"); ok {
		return stripped, nil
	}
	if stripped, ok := strings.CutPrefix(aPath, "a/"); ok {
		return stripped, nil
	}
	return bPath, nil
}

// parseHunkHeader parses "@@ -oldStart[,oldCount] +newStart[,newCount] @@".
// A missing count defaults to 1, per the single-line-range convention.
func parseHunkHeader(line string) (*models.Hunk, error) {
	header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "@@"))
	if idx := strings.Index(header, "@@"); idx >= 0 {
		header = header[:idx]
	}
	header = strings.TrimSpace(header)

	parts := strings.Fields(header)
	if len(parts) < 2 {
		return nil, &MalformedDiffError{Fragment: line, Reason: "missing old/new range"}
	}

	oldStart, oldCount, err := parseRange(parts[0], "-", line)
	if err != nil {
		return nil, err
	}
	newStart, newCount, err := parseRange(parts[1], "+", line)
	if err != nil {
		return nil, err
	}

	return &models.Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
	}, nil
}

func parseRange(part, prefix, fullLine string) (int, int, error) {
	r, ok := strings.CutPrefix(part, prefix)
	if !ok {
		return 0, 0, &MalformedDiffError{Fragment: fullLine, Reason: "invalid range prefix"}
	}
	startStr, countStr, found := strings.Cut(r, ",")
	if !found {
		countStr = "1"
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, &MalformedDiffError{Fragment: fullLine, Reason: "invalid range start"}
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, 0, &MalformedDiffError{Fragment: fullLine, Reason: "invalid range count"}
	}
	return start, count, nil
}
