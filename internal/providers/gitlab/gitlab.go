// Package gitlab fetches merge request metadata and diffs from the GitLab
// API.
package gitlab

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/diffrisk/internal/capture"
	"github.com/diffrisk/internal/diff"
	"github.com/diffrisk/internal/retry"
	"github.com/diffrisk/pkg/models"
)

// GitLabProvider fetches merge requests. The official client is kept for
// client construction and future listing operations; the MR and changes
// endpoints go through a small custom HTTP client (see http_client.go)
// because the typed endpoints lag the plural routes.
type GitLabProvider struct {
	client     *gitlab.Client
	httpClient *HTTPClient
	baseURL    string
	parser     *diff.Parser
}

// Config contains connection settings for the GitLab provider.
type Config struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

// New creates a GitLabProvider.
func New(cfg Config) (*GitLabProvider, error) {
	client := gitlab.NewClient(nil, cfg.Token)
	if cfg.URL != "" {
		if err := client.SetBaseURL(fmt.Sprintf("%s/api/v4", cfg.URL)); err != nil {
			return nil, fmt.Errorf("failed to set GitLab API base URL: %w", err)
		}
	}

	return &GitLabProvider{
		client:     client,
		httpClient: NewHTTPClient(cfg.URL, cfg.Token),
		baseURL:    cfg.URL,
		parser:     diff.NewParser(),
	}, nil
}

// FetchChangeSet fetches MR metadata and per-file changes, stitches the
// change entries back into unified-diff text, and parses it into a
// ChangeSet.
func (p *GitLabProvider) FetchChangeSet(ctx context.Context, mrURL string) (*models.ChangeSet, error) {
	projectID, mrIID, err := extractMRInfo(p.baseURL, mrURL)
	if err != nil {
		return nil, err
	}

	var mr *MergeRequest
	err = retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
		var opErr error
		mr, opErr = p.httpClient.GetMergeRequest(ctx, projectID, mrIID)
		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching merge request: %w", err)
	}

	var changes *MergeRequestChanges
	err = retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
		var opErr error
		changes, opErr = p.httpClient.GetMergeRequestChanges(ctx, projectID, mrIID)
		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching merge request changes: %w", err)
	}
	log.Debug().Int("changes", len(changes.Changes)).Msg("received MR changes")

	diffText := stitchUnifiedDiff(changes)
	if capture.Enabled() {
		capture.WriteJSON("gitlab-mr-metadata", mr)
		capture.WriteText("gitlab-mr-diff", diffText)
	}

	files, err := p.parser.Parse(diffText)
	if err != nil {
		return nil, err
	}

	additions, deletions := 0, 0
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
	}

	return &models.ChangeSet{
		Number:       mr.IID,
		Title:        mr.Title,
		Author:       mr.Author.Username,
		FilesChanged: len(files),
		Additions:    additions,
		Deletions:    deletions,
		Files:        files,
	}, nil
}

// stitchUnifiedDiff rebuilds unified-diff text from GitLab's per-file change
// entries so the core parser sees the same format as a raw git diff.
func stitchUnifiedDiff(changes *MergeRequestChanges) string {
	var b strings.Builder
	for _, c := range changes.Changes {
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", c.OldPath, c.NewPath)
		if c.NewFile {
			b.WriteString("--- /dev/null\n")
		} else {
			fmt.Fprintf(&b, "--- a/%s\n", c.OldPath)
		}
		if c.DeletedFile {
			b.WriteString("+++ /dev/null\n")
		} else {
			fmt.Fprintf(&b, "+++ b/%s\n", c.NewPath)
		}
		b.WriteString(c.Diff)
		if !strings.HasSuffix(c.Diff, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// extractMRInfo pulls the project path and MR IID out of a GitLab MR URL,
// e.g. https://gitlab.example.com/group/project/-/merge_requests/42.
func extractMRInfo(baseURL, mrURL string) (string, int, error) {
	parsed, err := url.Parse(mrURL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GitLab MR URL: %s", mrURL)
	}

	path := strings.Trim(parsed.Path, "/")
	projectPath, rest, found := strings.Cut(path, "/-/merge_requests/")
	if !found {
		return "", 0, fmt.Errorf("invalid GitLab MR URL: %s", mrURL)
	}

	iidStr := rest
	if i := strings.Index(iidStr, "/"); i >= 0 {
		iidStr = iidStr[:i]
	}
	iid, err := strconv.Atoi(iidStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid MR IID in URL: %s", mrURL)
	}

	return projectPath, iid, nil
}
