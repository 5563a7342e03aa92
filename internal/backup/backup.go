// Package backup owns backup naming and copying. Nothing else in squeeze
// computes backup paths.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrBackup          = errors.New("backup failed")
	ErrBackupDirCreate = errors.New("backup directory not creatable")
	ErrOutsideRoot     = errors.New("source outside subtraction root")
)

// MaxIndex is the last numbered backup slot. It is reused once every lower
// slot is taken.
const MaxIndex = 999

// Policy controls text backup naming.
type Policy struct {
	Suffix    string
	Overwrite bool
}

// Manager creates sibling backups of text assets.
type Manager struct {
	policy Policy
}

func NewManager(policy Policy) *Manager {
	return &Manager{policy: policy}
}

func (m *Manager) Policy() Policy { return m.policy }

// Path returns the backup location for original. With Overwrite set it is
// always <base><suffix><ext>. Otherwise it is the lowest free
// <base><suffix><k><ext> for k in 1..MaxIndex, and MaxIndex when all are
// taken.
func (m *Manager) Path(original string) (string, error) {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)

	if m.policy.Overwrite {
		return base + m.policy.Suffix + ext, nil
	}

	for k := 1; k < MaxIndex; k++ {
		candidate := m.numbered(base, ext, k)
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: probe %s: %w", ErrBackup, candidate, err)
		}
	}
	return m.numbered(base, ext, MaxIndex), nil
}

func (m *Manager) numbered(base, ext string, k int) string {
	return base + m.policy.Suffix + strconv.Itoa(k) + ext
}

// Ensure copies original to its backup path and confirms the copy before
// returning it. The caller must not touch original when err != nil.
func (m *Manager) Ensure(original string) (string, error) {
	dst, err := m.Path(original)
	if err != nil {
		return "", err
	}
	if err := CopyFile(original, dst); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackup, err)
	}
	if err := Verify(original, dst); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackup, err)
	}
	return dst, nil
}

// Verify checks that backup exists and matches the size of original.
func Verify(original, backup string) error {
	src, err := os.Stat(original)
	if err != nil {
		return err
	}
	dst, err := os.Stat(backup)
	if err != nil {
		return err
	}
	if !dst.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", backup)
	}
	if src.Size() != dst.Size() {
		return fmt.Errorf("%s has %d bytes, want %d", backup, dst.Size(), src.Size())
	}
	return nil
}

// MirrorPath returns where source is backed up inside backupRoot: the
// directory of source relative to subRoot, joined under backupRoot.
func MirrorPath(backupRoot, subRoot, source string) (dir string, file string, err error) {
	absRoot, err := filepath.Abs(subRoot)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrBackup, err)
	}
	absSource, err := filepath.Abs(source)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrBackup, err)
	}
	rel, err := filepath.Rel(absRoot, filepath.Dir(absSource))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w: %s: %w", ErrBackup, ErrOutsideRoot, source, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %w: %s not under %s", ErrBackup, ErrOutsideRoot, source, subRoot)
	}
	dir = filepath.Join(backupRoot, rel)
	return dir, filepath.Join(dir, filepath.Base(source)), nil
}

// CopyIfAbsent copies src to dst unless dst already exists. It reports
// whether a copy was made.
func CopyIfAbsent(src, dst string) (bool, error) {
	if _, err := os.Lstat(dst); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := CopyFile(src, dst); err != nil {
		return false, err
	}
	return true, nil
}

// CopyFile copies src over dst through a temp file in dst's directory, so a
// failed copy never leaves a truncated dst behind. The mode of src is kept.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".squeeze-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
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
	return Replace(tmp.Name(), dst)
}

// Replace renames tmpPath over destPath, removing destPath first on
// platforms where rename does not overwrite.
func Replace(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
