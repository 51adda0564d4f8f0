// Package github fetches pull request metadata and diffs from the GitHub
// REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/diffrisk/internal/capture"
	"github.com/diffrisk/internal/diff"
	"github.com/diffrisk/internal/retry"
	"github.com/diffrisk/pkg/models"
)

const apiBase = "https://api.github.com"

// GitHubProvider fetches pull requests through the REST API. Requests share
// one rate limiter so bursty retries stay inside the API budget.
type GitHubProvider struct {
	token   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	parser  *diff.Parser
}

// New creates a GitHubProvider with the given API token.
func New(token string) *GitHubProvider {
	return &GitHubProvider{
		token:   token,
		baseURL: apiBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		parser:  diff.NewParser(),
	}
}

type pullResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	ChangedFiles int `json:"changed_files"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
}

// FetchChangeSet fetches metadata and raw diff for a GitHub PR URL and
// parses them into a ChangeSet.
func (p *GitHubProvider) FetchChangeSet(ctx context.Context, prURL string) (*models.ChangeSet, error) {
	owner, repo, number, err := parsePRURL(prURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", p.baseURL, owner, repo, number)

	var meta pullResponse
	err = retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
		body, err := p.get(ctx, endpoint, "application/vnd.github.v3+json")
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &meta)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching PR metadata: %w", err)
	}
	log.Debug().Str("title", meta.Title).Int("changed_files", meta.ChangedFiles).Msg("received PR metadata")

	var diffText string
	err = retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
		body, err := p.get(ctx, endpoint, "application/vnd.github.diff")
		if err != nil {
			return err
		}
		diffText = string(body)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching PR diff: %w", err)
	}
	log.Debug().Int("diff_bytes", len(diffText)).Msg("received PR diff")

	if capture.Enabled() {
		capture.WriteJSON("github-pr-metadata", meta)
		capture.WriteText("github-pr-diff", diffText)
	}

	files, err := p.parser.Parse(diffText)
	if err != nil {
		return nil, err
	}

	return &models.ChangeSet{
		Number:       meta.Number,
		Title:        meta.Title,
		Author:       meta.User.Login,
		FilesChanged: meta.ChangedFiles,
		Additions:    meta.Additions,
		Deletions:    meta.Deletions,
		Files:        files,
	}, nil
}

func (p *GitHubProvider) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "diffrisk")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}

// parsePRURL splits https://github.com/{owner}/{repo}/pull/{number}.
func parsePRURL(prURL string) (owner, repo string, number int, err error) {
	parsed, err := url.Parse(prURL)
	if err != nil || parsed.Host != "github.com" {
		return "", "", 0, fmt.Errorf("invalid GitHub PR URL: %s", prURL)
	}

	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	if len(segments) != 4 || segments[2] != "pull" {
		return "", "", 0, fmt.Errorf("invalid GitHub PR URL: %s", prURL)
	}

	number, err = strconv.Atoi(segments[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid GitHub PR URL: %s", prURL)
	}

	return segments[0], segments[1], number, nil
}
