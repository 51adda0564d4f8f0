// Package providers contains the diff-source collaborators. They fetch PR
// metadata and raw diff text from a hosting API and hand the core a fully
// built, immutable ChangeSet; no fetching happens past that boundary.
package providers

import (
	"context"
	"strings"

	"github.com/diffrisk/pkg/models"
)

// Provider fetches a complete ChangeSet for a PR/MR URL.
type Provider interface {
	FetchChangeSet(ctx context.Context, url string) (*models.ChangeSet, error)
}

// IsGitHubPRURL detects GitHub pull request URLs.
func IsGitHubPRURL(url string) bool {
	return strings.HasPrefix(url, "https://github.com/") && strings.Contains(url, "/pull/")
}

// IsGitLabMRURL detects GitLab merge request URLs.
func IsGitLabMRURL(url string) bool {
	return strings.Contains(url, "/-/merge_requests/")
}
