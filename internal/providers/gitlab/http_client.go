package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient is a minimal GitLab API client used for the merge request
// endpoints, addressed by URL-encoded project path with the plural route.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a GitLab HTTP client rooted at baseURL/api/v4.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &HTTPClient{
		baseURL: fmt.Sprintf("%s/api/v4", baseURL),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// MergeRequest is the subset of the MR payload the analyzer needs.
type MergeRequest struct {
	ID     int    `json:"id"`
	IID    int    `json:"iid"`
	Title  string `json:"title"`
	State  string `json:"state"`
	WebURL string `json:"web_url"`
	Author struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"author"`
}

// MergeRequestChange is one changed file with its hunk text.
type MergeRequestChange struct {
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
	Diff        string `json:"diff"`
	NewFile     bool   `json:"new_file"`
	RenamedFile bool   `json:"renamed_file"`
	DeletedFile bool   `json:"deleted_file"`
}

// MergeRequestChanges is the MR changes payload: one entry per changed file.
type MergeRequestChanges struct {
	IID     int                  `json:"iid"`
	Title   string               `json:"title"`
	Changes []MergeRequestChange `json:"changes"`
}

// GetMergeRequest gets a merge request by project path and MR IID.
func (c *HTTPClient) GetMergeRequest(ctx context.Context, projectID string, mrIID int) (*MergeRequest, error) {
	requestURL := fmt.Sprintf("%s/projects/%s/merge_requests/%d",
		c.baseURL, url.PathEscape(projectID), mrIID)

	var mr MergeRequest
	if err := c.getJSON(ctx, requestURL, &mr); err != nil {
		return nil, err
	}
	return &mr, nil
}

// GetMergeRequestChanges gets the per-file changes of a merge request.
func (c *HTTPClient) GetMergeRequestChanges(ctx context.Context, projectID string, mrIID int) (*MergeRequestChanges, error) {
	requestURL := fmt.Sprintf("%s/projects/%s/merge_requests/%d/changes",
		c.baseURL, url.PathEscape(projectID), mrIID)

	var changes MergeRequestChanges
	if err := c.getJSON(ctx, requestURL, &changes); err != nil {
		return nil, err
	}
	return &changes, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("PRIVATE-TOKEN", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
