package processor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"squeeze/internal/backup"
)

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so readers never see a half-written file.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".squeeze-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return backup.Replace(tmp.Name(), path)
}

// runGroup calls fn for indices 0..n-1 with at most jobs calls in flight.
// ctx is checked before each file is started, never during one; the
// returned slice holds the outcomes of the files that were started, in
// index order.
func runGroup(ctx context.Context, n, jobs int, fn func(i int) Outcome) []Outcome {
	if jobs < 1 {
		jobs = 1
	}
	outcomes := make([]Outcome, n)
	ran := make([]bool, n)

	var g errgroup.Group
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			// The slot is only granted once an earlier file finished.
			if ctx.Err() != nil {
				return nil
			}
			ran[i] = true
			outcomes[i] = fn(i)
			return nil
		})
	}
	_ = g.Wait()

	done := outcomes[:0]
	for i := range outcomes {
		if ran[i] {
			done = append(done, outcomes[i])
		}
	}
	return done
}
