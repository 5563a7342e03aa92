package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want Category
	}{
		{"site/a.css", StyleOrScript},
		{"site/app.JS", StyleOrScript},
		{"site/b.min.js", Ignored},
		{"site/b.min.css", Ignored},
		{"site/a.bak.css", Ignored},
		{"site/a.bak3.js", Ignored},
		{"img/c.png", Image},
		{"img/c.JPG", Image},
		{"img/c.jpeg", Image},
		{"img/c.min.png", Image},
		{"img/c.bak.png", Ignored},
		{"backups.bak/c.png", Ignored},
		{"doc/readme.txt", Ignored},
		{"doc/archive.css.gz", Ignored},
		{"", Ignored},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got := Classify(tc.path, ".bak")
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, Classify(tc.path, ".bak"), "classification must be stable")
		})
	}
}

func TestClassifyEmptyMarkerDoesNotExcludeEverything(t *testing.T) {
	assert.Equal(t, StyleOrScript, Classify("a.css", ""))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, TextJS, KindOf("x/app.js"))
	assert.Equal(t, TextJS, KindOf("x/APP.JS"))
	assert.Equal(t, TextCSS, KindOf("x/site.Css"))
	assert.Equal(t, TextUnknown, KindOf("x/site.png"))
}

func TestSplitKeepsOrder(t *testing.T) {
	g := Split([]string{"a.css", "b.min.js", "c.png", "d.js", "e.jpg", "f.txt"}, ".bak")
	assert.Equal(t, []string{"a.css", "d.js"}, g.Text)
	assert.Equal(t, []string{"c.png", "e.jpg"}, g.Images)
	assert.Equal(t, []string{"b.min.js", "f.txt"}, g.Ignored)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("fi")
	require.NoError(t, err)
	assert.Equal(t, ModeManifest, m)

	m, err = ParseMode(" FO ")
	require.NoError(t, err)
	assert.Equal(t, ModeFolder, m)

	_, err = ParseMode("XX")
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestListManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "files.txt")
	require.NoError(t, os.WriteFile(manifest, []byte("a.css\r\n\n  b.min.js \nc.png\n"), 0o644))

	listing, err := List(ModeManifest, manifest, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.css", "b.min.js", "c.png"}, listing.Paths)
	assert.Empty(t, listing.Errors)
}

func TestListManifestMissing(t *testing.T) {
	_, err := List(ModeManifest, filepath.Join(t.TempDir(), "nope.txt"), ListOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrManifestRead))
}

// Root-level files are not listed in folder mode. This mirrors the
// historical traversal which only looked inside subdirectories; the
// IncludeRootFiles option opts in to listing them.
func TestListFolderSkipsRootLevelFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.css"))
	writeFile(t, filepath.Join(root, "sub", "inner.css"))

	listing, err := List(ModeFolder, root, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "sub", "inner.css")}, listing.Paths)

	listing, err = List(ModeFolder, root, ListOptions{IncludeRootFiles: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "top.css"),
		filepath.Join(root, "sub", "inner.css"),
	}, listing.Paths)
}

func TestWalkFolderRecursesAllLevels(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "one.js"))
	writeFile(t, filepath.Join(root, "a", "b", "two.js"))
	writeFile(t, filepath.Join(root, "c", "d", "e", "three.png"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	var paths []string
	for _, e := range WalkFolder(root, ListOptions{}) {
		require.NoError(t, e.Err)
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(root, "a", "one.js"),
		filepath.Join(root, "a", "b", "two.js"),
		filepath.Join(root, "c", "d", "e", "three.png"),
	}, paths)
}

func TestWalkFolderListsFilesBeforeSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.css"))
	writeFile(t, filepath.Join(root, "a", "deep", "x.css"))
	writeFile(t, filepath.Join(root, "a", "z.css"))
	writeFile(t, filepath.Join(root, "b.css.d", "y.css"))

	var paths []string
	for _, e := range WalkFolder(root, ListOptions{IncludeRootFiles: true}) {
		require.NoError(t, e.Err)
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(root, "top.css"),
		filepath.Join(root, "a", "z.css"),
		filepath.Join(root, "a", "deep", "x.css"),
		filepath.Join(root, "b.css.d", "y.css"),
	}, paths)
}

func TestWalkFolderContinuesPastUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "a")
	writeFile(t, filepath.Join(locked, "hidden.css"))
	writeFile(t, filepath.Join(root, "b", "visible.css"))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	listing, err := List(ModeFolder, root, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b", "visible.css")}, listing.Paths)
	require.Len(t, listing.Errors, 1)
	assert.Equal(t, locked, listing.Errors[0].Path)
	assert.True(t, errors.Is(listing.Errors[0].Err, ErrListDir))
}

func TestWalkFolderMissingRoot(t *testing.T) {
	entries := WalkFolder(filepath.Join(t.TempDir(), "missing"), ListOptions{})
	require.Len(t, entries, 1)
	assert.True(t, errors.Is(entries[0].Err, ErrListDir))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}
