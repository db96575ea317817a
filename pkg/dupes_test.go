package treeutils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestFindDuplicatesEmptyTree(t *testing.T) {
	groups, err := FindDuplicates(t.TempDir(), DupOptions{}, nil)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestFindDuplicatesNoDuplicates(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"one.txt":       "first content",
		"two.txt":       "second content",
		"sub/three.txt": "third content",
	})

	groups, err := FindDuplicates(root, DupOptions{}, nil)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestFindDuplicatesSingleGroup(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"root-copy.txt": "replicated payload",
		"a/copy1.txt":   "replicated payload",
		"b/copy2.txt":   "replicated payload",
		"unique.txt":    "on its own",
	})

	groups, err := FindDuplicates(root, DupOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group := groups[0]
	require.Equal(t, sha256Hex("replicated payload"), group.Hash)
	require.Equal(t, []string{"a/copy1.txt", "b/copy2.txt", "root-copy.txt"}, group.Files)
	require.Equal(t, 3, group.Count)
}

func TestFindDuplicatesMultipleGroups(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"x1.txt":     "payload one",
		"x2.txt":     "payload one",
		"sub/y1.txt": "payload two",
		"sub/y2.txt": "payload two",
		"lone.txt":   "not duplicated",
	})

	groups, err := FindDuplicates(root, DupOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Output order is digest-ascending regardless of scan order
	require.Less(t, groups[0].Hash, groups[1].Hash)

	byHash := make(map[string][]string)
	for _, g := range groups {
		byHash[g.Hash] = g.Files
	}
	require.Equal(t, []string{"x1.txt", "x2.txt"}, byHash[sha256Hex("payload one")])
	require.Equal(t, []string{"sub/y1.txt", "sub/y2.txt"}, byHash[sha256Hex("payload two")])
}

func TestFindDuplicatesEmptyFiles(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"blank-a.txt": "",
		"blank-b.txt": "",
	})

	groups, err := FindDuplicates(root, DupOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, sha256Hex(""), groups[0].Hash)
	require.Equal(t, []string{"blank-a.txt", "blank-b.txt"}, groups[0].Files)
}

func TestFindDuplicatesExcludes(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"keep1.txt":        "shared",
		"keep2.txt":        "shared",
		"vendor/skip1.txt": "shared",
		"vendor/skip2.txt": "shared",
	})

	excludes, err := NewExcludeManager([]string{`^vendor/`})
	require.NoError(t, err)

	groups, err := FindDuplicates(root, DupOptions{Excludes: excludes}, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, []string{"keep1.txt", "keep2.txt"}, groups[0].Files)
}

func TestFindDuplicatesSymlinksIgnored(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"orig1.txt": "linked content",
		"orig2.txt": "linked content",
	})
	require.NoError(t, os.Symlink(
		filepath.Join(root, "orig1.txt"),
		filepath.Join(root, "alias.txt"),
	))

	groups, err := FindDuplicates(root, DupOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, []string{"orig1.txt", "orig2.txt"}, groups[0].Files)
}

func TestFindDuplicatesSingleWorker(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"a.txt":     "dup body",
		"b.txt":     "dup body",
		"c/d.txt":   "dup body",
		"other.txt": "something else",
	})

	serial, err := FindDuplicates(root, DupOptions{Workers: 1}, nil)
	require.NoError(t, err)
	parallel, err := FindDuplicates(root, DupOptions{Workers: 8}, nil)
	require.NoError(t, err)

	// Worker count must not affect the result
	require.Equal(t, serial, parallel)
}

func TestFindDuplicatesSHA1(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"p.txt": "algorithm check",
		"q.txt": "algorithm check",
	})

	groups, err := FindDuplicates(root, DupOptions{Algorithm: "sha1"}, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Hash, HashSizeSHA1*2)
}

func TestFindDuplicatesProgress(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"a.txt": "1234",
		"b.txt": "12345678",
		"c.txt": "12",
	})

	// The callback runs on the collector goroutine; record everything and
	// assert only after FindDuplicates has returned.
	var lastFiles, lastBytes int64
	var paths []string
	opts := DupOptions{
		Workers: 1,
		Progress: func(files, bytes int64, path string) {
			lastFiles = files
			lastBytes = bytes
			paths = append(paths, path)
		},
	}

	_, err := FindDuplicates(root, opts, nil)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	require.Equal(t, int64(3), lastFiles)
	require.Equal(t, int64(14), lastBytes)
	for _, p := range paths {
		require.NotEmpty(t, p)
	}
}

func TestFindDuplicatesErrors(t *testing.T) {
	t.Run("MissingRoot", func(t *testing.T) {
		_, err := FindDuplicates("/nonexistent/scan-root", DupOptions{}, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to list directory")
	})

	t.Run("BadAlgorithm", func(t *testing.T) {
		_, err := FindDuplicates(t.TempDir(), DupOptions{Algorithm: "md4"}, nil)
		require.Error(t, err)
	})

	t.Run("ShutdownBeforeScan", func(t *testing.T) {
		root := t.TempDir()
		buildTree(t, root, map[string]string{"f.txt": "content"})

		shutdownChan := make(chan struct{})
		close(shutdownChan)

		_, err := FindDuplicates(root, DupOptions{}, shutdownChan)
		require.Error(t, err)
	})
}
