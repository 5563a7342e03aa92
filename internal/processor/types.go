package processor

import (
	"errors"
	"fmt"
	"log/slog"

	"squeeze/internal/assets"
	"squeeze/internal/codec"
	"squeeze/internal/config"
	"squeeze/internal/minify"
)

var (
	ErrRead             = errors.New("source unreadable")
	ErrWrite            = errors.New("write-back failed")
	ErrOverwrite        = errors.New("codec output not usable")
	ErrOutputDirMissing = errors.New("output directory missing")
	ErrProcessLaunch    = errors.New("codec failed to launch")
	ErrProcessExit      = errors.New("codec exited non-zero")
	ErrUnsupported      = errors.New("unsupported asset")
)

// Options are the per-run choices made on the command line.
type Options struct {
	Mode             assets.Mode
	InputPath        string
	OutputDir        string // Image codec output directory; falls back to Config.DefaultOutPath.
	SubPath          string // Subtraction root for image backups; defaults to InputPath.
	Quality          int
	Tool             codec.Tool
	Exclude          []string // doublestar patterns; matching paths are skipped.
	Jobs             int      // Files processed concurrently per group; <1 means 1.
	IncludeRootFiles bool
}

// Deps are the collaborators a run needs.
type Deps struct {
	Config   config.Config
	Minifier minify.Minifier
	Runner   codec.Runner
	Binaries codec.Binaries
	Logger   *slog.Logger
}

// CompressionJob fully describes one image codec run.
type CompressionJob struct {
	Source    string
	OutputDir string
	SubRoot   string
	Tool      codec.Tool
	Quality   int
}

type Status int

const (
	StatusProcessed Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome is what happened to one file.
type Outcome struct {
	Path        string
	Status      Status
	Err         error
	Reason      string // Why a file was skipped.
	Backup      string
	BytesBefore int64
	BytesAfter  int64
	ExifBefore  int
	ExifAfter   int
}

func (o Outcome) BytesSaved() int64 {
	if o.Status != StatusProcessed {
		return 0
	}
	return o.BytesBefore - o.BytesAfter
}

// FileError pairs a path with the error it produced.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// RunResult aggregates one invocation.
type RunResult struct {
	Processed  int
	Skipped    int
	Failed     int
	BytesSaved int64

	Outcomes      []Outcome
	Failures      []FileError
	ListingErrors []FileError
	// ImageBatchErr is set when the whole image group was abandoned.
	ImageBatchErr error
}

func (r *RunResult) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusProcessed:
		r.Processed++
		r.BytesSaved += o.BytesSaved()
	case StatusSkipped:
		r.Skipped++
	default:
		r.Failed++
		r.Failures = append(r.Failures, FileError{Path: o.Path, Err: o.Err})
	}
}

// HasErrors reports whether anything went wrong during the run.
func (r RunResult) HasErrors() bool {
	return r.Failed > 0 || len(r.ListingErrors) > 0 || r.ImageBatchErr != nil
}

// ProgressUpdate carries deltas for the progress view.
type ProgressUpdate struct {
	TotalDelta      int
	ProcessedDelta  int
	SkippedDelta    int
	FailedDelta     int
	BytesSavedDelta int64
	Path            string
}

func updateFor(o Outcome) ProgressUpdate {
	u := ProgressUpdate{Path: o.Path, BytesSavedDelta: o.BytesSaved()}
	switch o.Status {
	case StatusProcessed:
		u.ProcessedDelta = 1
	case StatusSkipped:
		u.SkippedDelta = 1
	default:
		u.FailedDelta = 1
	}
	return u
}

func failed(path string, err error) Outcome {
	return Outcome{Path: path, Status: StatusFailed, Err: err}
}
