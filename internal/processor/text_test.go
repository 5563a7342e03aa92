package processor

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squeeze/internal/backup"
	"squeeze/internal/minify"
)

func newText(policy backup.Policy) *TextCompressor {
	return NewTextCompressor(trimMinifier, backup.NewManager(policy), nil)
}

func TestTextCompressMinifiesAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.css")
	write(t, src, []byte("body {\n  color: red;\n}\n"))

	o, err := newText(backup.Policy{Suffix: ".bak"}).Compress(src)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, o.Status)
	assert.Equal(t, filepath.Join(dir, "a.bak1.css"), o.Backup)
	assert.Equal(t, "body{color:red;}", read(t, src))
	assert.Equal(t, "body {\n  color: red;\n}\n", read(t, o.Backup))
	assert.Positive(t, o.BytesSaved())
}

func TestTextCompressSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "done.js")
	write(t, src, []byte("a();b();"))

	o, err := newText(backup.Policy{Suffix: ".bak"}).Compress(src)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, o.Status)
	assert.Empty(t, o.Backup)
	assert.NoFileExists(t, filepath.Join(dir, "done.bak1.js"))
}

func TestTextCompressReadError(t *testing.T) {
	_, err := newText(backup.Policy{Suffix: ".bak"}).Compress(filepath.Join(t.TempDir(), "missing.js"))
	assert.True(t, errors.Is(err, ErrRead))
}

func TestTextCompressMinifyErrorLeavesFileAlone(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.js")
	write(t, src, []byte("SYNTAX error here"))

	o, err := newText(backup.Policy{Suffix: ".bak"}).Compress(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, minify.ErrMinify))
	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, "SYNTAX error here", read(t, src))
	assert.NoFileExists(t, filepath.Join(dir, "bad.bak1.js"))
}

func TestTextCompressBackupFailureLeavesFileAlone(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "a.css")
	write(t, src, []byte("a { color : red }"))
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err := newText(backup.Policy{Suffix: ".bak"}).Compress(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backup.ErrBackup))
	assert.Equal(t, "a { color : red }", read(t, src))
}

func TestTextCompressWriteErrorIsRetriedAndReported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.js")
	write(t, src, []byte("var  a = 1;"))

	c := newText(backup.Policy{Suffix: ".bak"})
	attempts := 0
	c.write = func(string, []byte, fs.FileMode) error {
		attempts++
		return os.ErrPermission
	}

	o, err := c.Compress(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
	assert.Contains(t, err.Error(), o.Backup)
	assert.Equal(t, writeAttempts, attempts)
	assert.FileExists(t, o.Backup)
	assert.Equal(t, "var  a = 1;", read(t, src))
}

func TestTextCompressWriteRecoversOnRetry(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.js")
	write(t, src, []byte("var  a = 1;"))

	c := newText(backup.Policy{Suffix: ".bak"})
	attempts := 0
	c.write = func(path string, data []byte, perm fs.FileMode) error {
		attempts++
		if attempts == 1 {
			return os.ErrPermission
		}
		return writeFileAtomic(path, data, perm)
	}

	o, err := c.Compress(src)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, o.Status)
	assert.Equal(t, "vara=1;", read(t, src))
}

// The source is only replaced once a non-empty backup is on disk.
func TestTextCompressBackupExistsBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "site.css")
	write(t, src, []byte("p { margin: 0 }"))

	c := newText(backup.Policy{Suffix: ".bak", Overwrite: true})
	c.write = func(path string, data []byte, perm fs.FileMode) error {
		info, err := os.Stat(filepath.Join(dir, "site.bak.css"))
		require.NoError(t, err)
		require.Positive(t, info.Size())
		return writeFileAtomic(path, data, perm)
	}

	_, err := c.Compress(src)
	require.NoError(t, err)
}

func TestTextCompressAllKeepsOrderWithJobs(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.css", "b.js", "c.css", "d.js", "e.css"} {
		p := filepath.Join(dir, name)
		write(t, p, []byte("x = 1 ;"))
		paths = append(paths, p)
	}

	outcomes := newText(backup.Policy{Suffix: ".bak"}).CompressAll(context.Background(), paths, 3, nil)
	require.Len(t, outcomes, len(paths))
	for i, o := range outcomes {
		assert.Equal(t, paths[i], o.Path)
		assert.Equal(t, StatusProcessed, o.Status)
	}
}

func TestTextCompressAllStopsBetweenFilesOnCancel(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.css"), filepath.Join(dir, "b.css")}
	for _, p := range paths {
		write(t, p, []byte("a { b : c }"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	outcomes := newText(backup.Policy{Suffix: ".bak"}).CompressAll(ctx, paths, 1, func(Outcome) { cancel() })
	require.Len(t, outcomes, 1)
	assert.Equal(t, "a { b : c }", read(t, paths[1]))
}
