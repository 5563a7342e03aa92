package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"squeeze/internal/assets"
	"squeeze/internal/backup"
	"squeeze/internal/logging"
	"squeeze/internal/minify"
)

// writeAttempts bounds how often a failed write-back is retried once the
// original has been backed up.
const writeAttempts = 2

// TextCompressor minifies style and script files in place.
type TextCompressor struct {
	minifier minify.Minifier
	backups  *backup.Manager
	logger   *slog.Logger

	write func(path string, data []byte, perm fs.FileMode) error
}

func NewTextCompressor(m minify.Minifier, backups *backup.Manager, logger *slog.Logger) *TextCompressor {
	return &TextCompressor{
		minifier: m,
		backups:  backups,
		logger:   logging.Default(logger).With("component", "text"),
		write:    writeFileAtomic,
	}
}

// CompressAll runs Compress over paths in order, jobs at a time. report, when
// non-nil, is called as each file finishes.
func (c *TextCompressor) CompressAll(ctx context.Context, paths []string, jobs int, report func(Outcome)) []Outcome {
	return runGroup(ctx, len(paths), jobs, func(i int) Outcome {
		o, _ := c.Compress(paths[i])
		if report != nil {
			report(o)
		}
		return o
	})
}

// Compress minifies path. The original is backed up before it is
// overwritten; when minification changes nothing the file is skipped and no
// backup is made.
func (c *TextCompressor) Compress(path string) (Outcome, error) {
	o, err := c.compress(path)
	switch {
	case err != nil:
		c.logger.Warn("text asset failed", "path", path, "error", err)
	case o.Status == StatusSkipped:
		c.logger.Debug("text asset skipped", "path", path, "reason", o.Reason)
	default:
		c.logger.Info("text asset minified", "path", path, "before", o.BytesBefore, "after", o.BytesAfter, "backup", o.Backup)
	}
	return o, err
}

func (c *TextCompressor) compress(path string) (Outcome, error) {
	kind := assets.KindOf(path)
	if kind == assets.TextUnknown {
		err := fmt.Errorf("%w: %s is not css or js", ErrUnsupported, path)
		return failed(path, err), err
	}

	info, err := os.Stat(path)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRead, err)
		return failed(path, err), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRead, err)
		return failed(path, err), err
	}

	minified, err := c.minifier.Minify(string(data), kind)
	if err != nil {
		if !errors.Is(err, minify.ErrMinify) {
			err = fmt.Errorf("%w: %w", minify.ErrMinify, err)
		}
		return failed(path, err), err
	}

	o := Outcome{
		Path:        path,
		BytesBefore: int64(len(data)),
		BytesAfter:  int64(len(minified)),
	}
	if minified == string(data) {
		o.Status = StatusSkipped
		o.Reason = "already minified"
		return o, nil
	}

	backupPath, err := c.backups.Ensure(path)
	if err != nil {
		return failed(path, err), err
	}
	o.Backup = backupPath

	for attempt := 1; attempt <= writeAttempts; attempt++ {
		err = c.write(path, []byte(minified), info.Mode().Perm())
		if err == nil {
			break
		}
		c.logger.Warn("write-back failed", "path", path, "attempt", attempt, "error", err)
	}
	if err != nil {
		err = fmt.Errorf("%w: original kept at %s: %w", ErrWrite, backupPath, err)
		o.Status = StatusFailed
		o.Err = err
		return o, err
	}

	o.Status = StatusProcessed
	return o, nil
}
