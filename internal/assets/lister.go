// Package assets finds candidate files and sorts them into pipelines.
package assets

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrManifestRead = errors.New("manifest unreadable")
	ErrListDir      = errors.New("directory unreadable")
	ErrUnknownMode  = errors.New("unknown listing mode")
)

// Mode selects how the input path is interpreted.
type Mode string

const (
	ModeManifest Mode = "FI" // Input is a text file with one path per line.
	ModeFolder   Mode = "FO" // Input is a directory walked recursively.
)

// ParseMode accepts FI/FO in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeManifest:
		return ModeManifest, nil
	case ModeFolder:
		return ModeFolder, nil
	default:
		return "", fmt.Errorf("%w: %q (want FI or FO)", ErrUnknownMode, s)
	}
}

// Entry is one visited path. Err is set for directories that could not be
// read; their siblings are still visited.
type Entry struct {
	Path string
	Err  error
}

// ListOptions tunes folder traversal.
type ListOptions struct {
	// IncludeRootFiles also lists regular files sitting directly in the
	// root directory. Off by default: only files below at least one
	// subdirectory are listed.
	IncludeRootFiles bool
}

// Listing is the materialized candidate list plus per-directory failures.
type Listing struct {
	Paths  []string
	Errors []Entry
}

// List produces the candidate paths for mode. A manifest read failure is
// fatal; folder read failures are collected in Listing.Errors.
func List(mode Mode, input string, opts ListOptions) (Listing, error) {
	switch mode {
	case ModeManifest:
		paths, err := ReadManifest(input)
		if err != nil {
			return Listing{}, err
		}
		return Listing{Paths: paths}, nil
	case ModeFolder:
		var listing Listing
		for _, e := range WalkFolder(input, opts) {
			if e.Err != nil {
				listing.Errors = append(listing.Errors, e)
				continue
			}
			listing.Paths = append(listing.Paths, e.Path)
		}
		return listing, nil
	default:
		return Listing{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// ReadManifest returns the non-blank lines of the manifest, trimmed.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestRead, err)
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestRead, path, err)
	}
	return paths, nil
}

// WalkFolder visits root recursively. Within each directory its files are
// listed before any subdirectory is entered, both in name order. Files
// directly inside root are skipped unless opts.IncludeRootFiles is set. A
// directory that cannot be read yields an Entry with Err set and the walk
// moves on to its siblings.
func WalkFolder(root string, opts ListOptions) []Entry {
	w := walker{opts: opts}
	w.visit(root, true)
	return w.entries
}

type walker struct {
	opts    ListOptions
	entries []Entry
}

func (w *walker) visit(dir string, isRoot bool) {
	items, err := os.ReadDir(dir)
	if err != nil {
		w.entries = append(w.entries, Entry{Path: dir, Err: fmt.Errorf("%w: %w", ErrListDir, err)})
		return
	}

	var subdirs []string
	for _, item := range items {
		path := filepath.Join(dir, item.Name())
		switch {
		case item.IsDir():
			subdirs = append(subdirs, path)
		case !item.Type().IsRegular():
		case isRoot && !w.opts.IncludeRootFiles:
		default:
			w.entries = append(w.entries, Entry{Path: path})
		}
	}
	for _, sub := range subdirs {
		w.visit(sub, false)
	}
}
