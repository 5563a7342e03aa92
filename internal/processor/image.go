package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"squeeze/internal/backup"
	"squeeze/internal/codec"
	"squeeze/internal/logging"
	"squeeze/pkg/imgutil"
)

// BackupDirName is the folder inside the output directory that mirrors the
// original images.
const BackupDirName = "backup"

// ImageCompressor recompresses images through an external codec and copies
// the result over the source once the codec has finished.
type ImageCompressor struct {
	runner   codec.Runner
	binaries codec.Binaries
	logger   *slog.Logger

	// Codecs name their output after the source's base name, so jobs that
	// share an output path must not overlap.
	mu      sync.Mutex
	outputs map[string]*sync.Mutex
}

func NewImageCompressor(runner codec.Runner, binaries codec.Binaries, logger *slog.Logger) *ImageCompressor {
	return &ImageCompressor{
		runner:   runner,
		binaries: binaries,
		logger:   logging.Default(logger).With("component", "image"),
		outputs:  map[string]*sync.Mutex{},
	}
}

func (c *ImageCompressor) lockOutput(path string) func() {
	c.mu.Lock()
	m, ok := c.outputs[path]
	if !ok {
		m = &sync.Mutex{}
		c.outputs[path] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// CheckOutputDir fails with ErrOutputDirMissing unless dir is an existing
// directory.
func CheckOutputDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: no output directory configured", ErrOutputDirMissing)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputDirMissing, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrOutputDirMissing, dir)
	}
	return nil
}

// CompressAll runs every job, jobs at a time. Output directories are checked
// first; if any is missing nothing runs and the error is returned.
func (c *ImageCompressor) CompressAll(ctx context.Context, batch []CompressionJob, jobs int, report func(Outcome)) ([]Outcome, error) {
	checked := map[string]bool{}
	for _, job := range batch {
		if checked[job.OutputDir] {
			continue
		}
		if err := CheckOutputDir(job.OutputDir); err != nil {
			c.logger.Error("image batch abandoned", "error", err)
			return nil, err
		}
		checked[job.OutputDir] = true
	}

	return runGroup(ctx, len(batch), jobs, func(i int) Outcome {
		o, _ := c.Compress(ctx, batch[i])
		if report != nil {
			report(o)
		}
		return o
	}), nil
}

// Compress backs up job.Source, runs the codec and, only after a successful
// exit with usable output, replaces the source with the codec's output.
func (c *ImageCompressor) Compress(ctx context.Context, job CompressionJob) (Outcome, error) {
	o, err := c.compress(ctx, job)
	if err != nil {
		c.logger.Warn("image failed", "path", job.Source, "error", err)
	} else {
		c.logger.Info("image recompressed", "path", job.Source, "before", o.BytesBefore, "after", o.BytesAfter, "exif_before", o.ExifBefore, "exif_after", o.ExifAfter)
	}
	return o, err
}

func (c *ImageCompressor) compress(ctx context.Context, job CompressionJob) (Outcome, error) {
	src := job.Source
	kind := imgutil.KindFromPath(src)
	if kind != imgutil.KindPNG && kind != imgutil.KindJPEG {
		err := fmt.Errorf("%w: %s is not png or jpeg", ErrUnsupported, src)
		return failed(src, err), err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRead, err)
		return failed(src, err), err
	}

	out := codec.OutputPath(job.OutputDir, src)
	if samePath(out, src) {
		err := fmt.Errorf("%w: codec output %s would replace the source", ErrOverwrite, out)
		return failed(src, err), err
	}

	defer c.lockOutput(out)()

	backupFile, err := c.backupOriginal(job)
	if err != nil {
		return failed(src, err), err
	}

	o := Outcome{Path: src, Backup: backupFile, BytesBefore: srcInfo.Size()}
	o.ExifBefore = c.exifCount(src)

	// A leftover from an earlier run must not pass as this run's output.
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		err = fmt.Errorf("%w: remove stale %s: %w", ErrOverwrite, out, err)
		return failed(src, err), err
	}

	args, err := codec.Args(job.Tool, kind, job.Quality, src, job.OutputDir)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrProcessLaunch, err)
		return failed(src, err), err
	}
	cmd := codec.Command{
		Binary:  c.binaries.Path(job.Tool),
		Args:    args,
		WorkDir: c.binaries.WorkDir,
	}
	// Cancellation is honored between files; a started codec runs to exit.
	code, err := c.runner.Run(context.WithoutCancel(ctx), cmd)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrProcessLaunch, cmd.Binary, err)
		return failed(src, err), err
	}
	if code != 0 {
		err = fmt.Errorf("%w: %s exited with %d", ErrProcessExit, job.Tool, code)
		return failed(src, err), err
	}

	data, err := readOutput(out, kind)
	if err != nil {
		return failed(src, err), err
	}
	if err := writeFileAtomic(src, data, srcInfo.Mode().Perm()); err != nil {
		err = fmt.Errorf("%w: %w", ErrOverwrite, err)
		return failed(src, err), err
	}

	o.Status = StatusProcessed
	o.BytesAfter = int64(len(data))
	o.ExifAfter = c.exifCount(src)
	return o, nil
}

// backupOriginal copies the source into the mirrored backup tree unless a
// backup is already there, and confirms the backup before returning.
func (c *ImageCompressor) backupOriginal(job CompressionJob) (string, error) {
	backupRoot := filepath.Join(job.OutputDir, BackupDirName)
	dir, file, err := backup.MirrorPath(backupRoot, job.SubRoot, job.Source)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w: %w", backup.ErrBackup, backup.ErrBackupDirCreate, err)
	}

	copied, err := backup.CopyIfAbsent(job.Source, file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", backup.ErrBackup, err)
	}
	if copied {
		if err := backup.Verify(job.Source, file); err != nil {
			return "", fmt.Errorf("%w: %w", backup.ErrBackup, err)
		}
		c.logger.Debug("image backed up", "path", job.Source, "backup", file)
		return file, nil
	}

	info, err := os.Stat(file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", backup.ErrBackup, err)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return "", fmt.Errorf("%w: existing backup %s is empty or not a file", backup.ErrBackup, file)
	}
	return file, nil
}

// readOutput checks the codec result is an image of the expected kind
// before loading it.
func readOutput(out string, want imgutil.Kind) ([]byte, error) {
	got, err := imgutil.SniffFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOverwrite, out, err)
	}
	if got != want {
		return nil, fmt.Errorf("%w: %s holds %s data, want %s", ErrOverwrite, out, got, want)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOverwrite, err)
	}
	return data, nil
}

func (c *ImageCompressor) exifCount(path string) int {
	n, err := imgutil.CountExifTagsFile(path)
	if err != nil {
		c.logger.Debug("exif scan failed", "path", path, "error", err)
		return 0
	}
	return n
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
