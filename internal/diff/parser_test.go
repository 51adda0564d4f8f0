package diff

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffrisk/pkg/models"
)

const sampleDiff = `diff --git a/src/main.rs b/src/main.rs
index abc1234..def5678 100644
--- a/src/main.rs
+++ b/src/main.rs
@@ -1,5 +1,7 @@
 fn main() {
-    println!("old");
+    println!("new");
+    // Added a comment
 }
`

func TestParseSingleFileDiff(t *testing.T) {
	files, err := NewParser().Parse(sampleDiff)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "src/main.rs", files[0].Path)
	assert.Equal(t, 2, files[0].Additions)
	assert.Equal(t, 1, files[0].Deletions)
	require.Len(t, files[0].Hunks, 1)

	hunk := files[0].Hunks[0]
	assert.Equal(t, 1, hunk.OldStart)
	assert.Equal(t, 5, hunk.OldCount)
	assert.Equal(t, 1, hunk.NewStart)
	assert.Equal(t, 7, hunk.NewCount)
	assert.Len(t, hunk.Lines, 5)
}

func TestParseNewFileDiff(t *testing.T) {
	diff := `diff --git a/new_file.txt b/new_file.txt
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/new_file.txt
@@ -0,0 +1,2 @@
+hello
+world
`
	files, err := NewParser().Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].IsNew)
	assert.False(t, files[0].IsDeleted)
	assert.Equal(t, 2, files[0].Additions)
}

func TestParseDeletedFileDiff(t *testing.T) {
	diff := `diff --git a/old_file.txt b/old_file.txt
deleted file mode 100644
index e69de29..0000000
--- a/old_file.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-hello
-world
`
	files, err := NewParser().Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.False(t, files[0].IsNew)
	assert.True(t, files[0].IsDeleted)
	assert.Equal(t, 2, files[0].Deletions)
}

func TestParseEmptyDiff(t *testing.T) {
	for _, input := range []string{"", "   \n\t\n"} {
		files, err := NewParser().Parse(input)
		require.NoError(t, err)
		assert.Empty(t, files)
	}
}

func TestParseDefaultsMissingCountToOne(t *testing.T) {
	diff := `diff --git a/f b/f
--- a/f
+++ b/f
@@ -3 +3 @@
-old line
+new line
`
	files, err := NewParser().Parse(diff)
	require.NoError(t, err)
	require.Len(t, files[0].Hunks, 1)

	hunk := files[0].Hunks[0]
	assert.Equal(t, 3, hunk.OldStart)
	assert.Equal(t, 1, hunk.OldCount)
	assert.Equal(t, 3, hunk.NewStart)
	assert.Equal(t, 1, hunk.NewCount)
}

func TestParseMalformedHunkHeader(t *testing.T) {
	diff := `diff --git a/f b/f
--- a/f
+++ b/f
@@ -x,3 +1,3 @@
+line
`
	files, err := NewParser().Parse(diff)
	assert.Nil(t, files)

	var malformed *MalformedDiffError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Fragment, "@@ -x,3 +1,3 @@")
}

func TestParseMissingPathInFileHeader(t *testing.T) {
	diff := "diff --git a/only_one_path\n"
	_, err := NewParser().Parse(diff)

	var malformed *MalformedDiffError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "b/ path")
}

func TestParsePreservesInputOrder(t *testing.T) {
	diff := `diff --git a/zzz.go b/zzz.go
--- a/zzz.go
+++ b/zzz.go
@@ -1,1 +1,1 @@
+z
@@ -9,1 +9,1 @@
+nine
diff --git a/aaa.go b/aaa.go
--- a/aaa.go
+++ b/aaa.go
@@ -1,1 +1,1 @@
+a
`
	files, err := NewParser().Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "zzz.go", files[0].Path)
	assert.Equal(t, "aaa.go", files[1].Path)
	require.Len(t, files[0].Hunks, 2)
	assert.Equal(t, 1, files[0].Hunks[0].NewStart)
	assert.Equal(t, 9, files[0].Hunks[1].NewStart)
}

func TestParseIsIdempotent(t *testing.T) {
	first, err := NewParser().Parse(sampleDiff)
	require.NoError(t, err)
	second, err := NewParser().Parse(sampleDiff)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated parse differs (-first +second):\n%s", diff)
	}
}

func TestParseCountsMatchPrefixedLines(t *testing.T) {
	files, err := NewParser().Parse(sampleDiff)
	require.NoError(t, err)

	for _, f := range files {
		adds, dels := 0, 0
		for _, h := range f.Hunks {
			for _, line := range h.Lines {
				switch {
				case strings.HasPrefix(line, "+"):
					adds++
				case strings.HasPrefix(line, "-"):
					dels++
				}
			}
		}
		assert.Equal(t, adds, f.Additions, "additions for %s", f.Path)
		assert.Equal(t, dels, f.Deletions, "deletions for %s", f.Path)
	}
}

func TestParseSkipsUnrecognizedLines(t *testing.T) {
	diff := `diff --git a/img.png b/img.png
index 0000000..1111111 100644
Binary files a/img.png and b/img.png differ
diff --git a/f.go b/f.go
old mode 100644
new mode 100755
--- a/f.go
+++ b/f.go
@@ -1,1 +1,1 @@
+x
`
	files, err := NewParser().Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Empty(t, files[0].Hunks)
	assert.Equal(t, 0, files[0].Additions)
	require.Len(t, files[1].Hunks, 1)
}

func TestParseFileWithZeroHunks(t *testing.T) {
	diff := `diff --git a/renamed.go b/renamed.go
similarity index 100%
rename from old.go
rename to renamed.go
`
	files, err := NewParser().Parse(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, models.FileChange{Path: "renamed.go"}, files[0])
}
