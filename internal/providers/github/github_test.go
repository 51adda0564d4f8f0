package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePRURL(t *testing.T) {
	owner, repo, number, err := parsePRURL("https://github.com/octocat/hello-world/pull/1347")
	require.NoError(t, err)
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "hello-world", repo)
	assert.Equal(t, 1347, number)

	bad := []string{
		"https://github.com/octocat/hello-world",
		"https://github.com/octocat/hello-world/issues/1347",
		"https://github.com/octocat/hello-world/pull/abc",
		"https://gitlab.com/octocat/hello-world/pull/1347",
		"not a url at all ://",
	}
	for _, u := range bad {
		_, _, _, err := parsePRURL(u)
		assert.Error(t, err, u)
	}
}

const testDiff = `diff --git a/src/auth.rs b/src/auth.rs
--- a/src/auth.rs
+++ b/src/auth.rs
@@ -1,2 +1,3 @@
 fn login() {
+    let password = "hunter2";
 }
`

func TestFetchChangeSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/octocat/hello-world/pulls/1347", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch r.Header.Get("Accept") {
		case "application/vnd.github.v3+json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"number": 1347,
				"title": "Add login",
				"user": {"login": "octocat"},
				"changed_files": 1,
				"additions": 1,
				"deletions": 0
			}`))
		case "application/vnd.github.diff":
			w.Write([]byte(testDiff))
		default:
			t.Errorf("unexpected Accept header: %s", r.Header.Get("Accept"))
		}
	}))
	defer srv.Close()

	p := New("test-token")
	p.baseURL = srv.URL

	cs, err := p.FetchChangeSet(context.Background(), "https://github.com/octocat/hello-world/pull/1347")
	require.NoError(t, err)

	assert.Equal(t, 1347, cs.Number)
	assert.Equal(t, "Add login", cs.Title)
	assert.Equal(t, "octocat", cs.Author)
	assert.Equal(t, 1, cs.FilesChanged)
	assert.Equal(t, 1, cs.Additions)
	require.Len(t, cs.Files, 1)
	assert.Equal(t, "src/auth.rs", cs.Files[0].Path)
}

func TestFetchChangeSetPropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := New("")
	p.baseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	var fetchErr error
	go func() {
		_, fetchErr = p.FetchChangeSet(ctx, "https://github.com/octocat/hello-world/pull/1")
		close(done)
	}()

	// The provider retries with backoff; cancel instead of waiting it out.
	cancel()
	<-done
	assert.Error(t, fetchErr)
}
