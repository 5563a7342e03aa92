// Package processor runs the optimization pipelines: text assets are
// minified in place, images are recompressed by an external codec, and in
// both cases a confirmed backup exists before a source file is replaced.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"squeeze/internal/assets"
	"squeeze/internal/backup"
	"squeeze/internal/config"
	"squeeze/internal/logging"
)

// Run lists candidates, classifies them and runs the text and image groups.
// The returned error is reserved for failures that stop the whole run
// (unreadable manifest, bad exclude pattern, cancellation); per-file
// problems and a missing image output directory are reported in RunResult.
// updates, when non-nil, receives progress deltas; Run never closes it.
func Run(ctx context.Context, opts Options, deps Deps, updates chan<- ProgressUpdate) (RunResult, error) {
	logger := logging.Default(deps.Logger).With("component", "run")
	var result RunResult

	plan, err := BuildPlan(opts, deps.Config)
	if err != nil {
		return result, err
	}
	for _, fe := range plan.ListingErrors {
		logger.Warn("directory skipped", "path", fe.Path, "error", fe.Err)
	}
	result.ListingErrors = plan.ListingErrors
	groups := plan.Groups
	result.Skipped += len(plan.Excluded) + len(groups.Ignored)
	logger.Debug("classified",
		"text", len(groups.Text),
		"images", len(groups.Images),
		"ignored", len(groups.Ignored),
		"excluded", len(plan.Excluded),
	)

	if len(groups.Text) == 0 && len(groups.Images) == 0 {
		logger.Info("no files to optimize")
		return result, nil
	}

	send(updates, ProgressUpdate{TotalDelta: len(groups.Text) + len(groups.Images)})
	report := func(o Outcome) { send(updates, updateFor(o)) }

	if len(groups.Text) > 0 {
		manager := backup.NewManager(backup.Policy{
			Suffix:    deps.Config.BackupSuffix,
			Overwrite: deps.Config.BackupOverwrite,
		})
		text := NewTextCompressor(deps.Minifier, manager, deps.Logger)
		for _, o := range text.CompressAll(ctx, groups.Text, opts.Jobs, report) {
			result.add(o)
		}
	}

	if len(groups.Images) > 0 && ctx.Err() == nil {
		batch := imageJobs(groups.Images, opts, deps)
		images := NewImageCompressor(deps.Runner, deps.Binaries, deps.Logger)
		outcomes, err := images.CompressAll(ctx, batch, opts.Jobs, report)
		if err != nil {
			// Counted once as a batch error, not as one failure per image.
			result.ImageBatchErr = err
			result.Failed += len(batch)
			send(updates, ProgressUpdate{FailedDelta: len(batch)})
		}
		for _, o := range outcomes {
			result.add(o)
		}
	}

	logger.Info("run finished",
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"bytes_saved", result.BytesSaved,
	)
	return result, ctx.Err()
}

// Plan is the classified candidate list of a run.
type Plan struct {
	Groups        assets.Groups
	Excluded      []string
	ListingErrors []FileError
}

// BuildPlan lists the candidates for opts, drops excluded paths and splits
// the rest by category. It touches no files.
func BuildPlan(opts Options, cfg config.Config) (Plan, error) {
	var plan Plan

	listing, err := assets.List(opts.Mode, opts.InputPath, assets.ListOptions{IncludeRootFiles: opts.IncludeRootFiles})
	if err != nil {
		return plan, err
	}
	for _, e := range listing.Errors {
		plan.ListingErrors = append(plan.ListingErrors, FileError{Path: e.Path, Err: e.Err})
	}

	paths, excluded, err := filterExcluded(listing.Paths, opts.Exclude)
	if err != nil {
		return plan, err
	}
	plan.Excluded = excluded
	plan.Groups = assets.Split(paths, cfg.BackupSuffix)
	return plan, nil
}

func imageJobs(paths []string, opts Options, deps Deps) []CompressionJob {
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = deps.Config.DefaultOutPath
	}
	subRoot := SubtractionRoot(opts)

	batch := make([]CompressionJob, 0, len(paths))
	for _, p := range paths {
		batch = append(batch, CompressionJob{
			Source:    p,
			OutputDir: outDir,
			SubRoot:   subRoot,
			Tool:      opts.Tool,
			Quality:   opts.Quality,
		})
	}
	return batch
}

// SubtractionRoot is the directory stripped from image paths when mirroring
// them into the backup tree: SubPath when given, otherwise the input path.
// A manifest input contributes its directory.
func SubtractionRoot(opts Options) string {
	if strings.TrimSpace(opts.SubPath) != "" {
		return opts.SubPath
	}
	if info, err := os.Stat(opts.InputPath); err == nil && !info.IsDir() {
		return filepath.Dir(opts.InputPath)
	}
	return opts.InputPath
}

// filterExcluded drops paths matching any doublestar pattern. Patterns
// without a separator match the base name, so "*.map" works anywhere.
func filterExcluded(paths, patterns []string) (kept, excluded []string, err error) {
	if len(patterns) == 0 {
		return paths, nil, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePathPattern(p) {
			return nil, nil, fmt.Errorf("invalid exclude pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	for _, path := range paths {
		if matchesAny(path, patterns) {
			excluded = append(excluded, path)
			continue
		}
		kept = append(kept, path)
	}
	return kept, excluded, nil
}

func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		target := path
		if !strings.ContainsAny(pattern, `/\`) {
			target = filepath.Base(path)
		}
		if ok, _ := doublestar.PathMatch(pattern, target); ok {
			return true
		}
	}
	return false
}

func send(updates chan<- ProgressUpdate, u ProgressUpdate) {
	if updates != nil {
		updates <- u
	}
}
