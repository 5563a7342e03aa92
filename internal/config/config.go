// Package config holds the application settings that used to live in an
// ambient app-settings file: backup naming, the default image output path and
// codec binary locations. Values come from the process environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	KeyBackupSuffix    = "BACKUP_SUFFIX"
	KeyBackupOverwrite = "BACKUP_OVERWRITE"
	KeyDefaultOutPath  = "DEFAULT_OUT_PATH"
	KeyCaesiumBinary   = "CAESIUM_BIN"
	KeyMagickBinary    = "MAGICK_BIN"
)

// DefaultBackupSuffix is used when BACKUP_SUFFIX is unset.
const DefaultBackupSuffix = ".bak"

type Config struct {
	BackupSuffix    string // Marker inserted before the extension of text backups.
	BackupOverwrite bool   // Replace a single backup instead of numbering them.
	DefaultOutPath  string // Image output directory when -o is not given.
	CaesiumBinary   string // Empty: caesiumclt next to the working directory.
	MagickBinary    string // Empty: convert next to the working directory.
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{BackupSuffix: DefaultBackupSuffix}
}

// Load reads the given .env files (missing files are ignored, existing
// environment variables win) and then builds a Config from the environment.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a key lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(KeyBackupSuffix); ok {
		cfg.BackupSuffix = strings.TrimSpace(v)
	}
	if v, ok := lookup(KeyBackupOverwrite); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", KeyBackupOverwrite, err)
		}
		cfg.BackupOverwrite = b
	}
	if v, ok := lookup(KeyDefaultOutPath); ok {
		cfg.DefaultOutPath = strings.TrimSpace(v)
	}
	if v, ok := lookup(KeyCaesiumBinary); ok {
		cfg.CaesiumBinary = strings.TrimSpace(v)
	}
	if v, ok := lookup(KeyMagickBinary); ok {
		cfg.MagickBinary = strings.TrimSpace(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that would break classification. An empty
// suffix is a substring of every path, so every file would look like a
// backup.
func (c Config) Validate() error {
	if c.BackupSuffix == "" {
		return fmt.Errorf("%s must not be empty", KeyBackupSuffix)
	}
	if strings.ContainsAny(c.BackupSuffix, `/\`) {
		return fmt.Errorf("%s must not contain path separators: %q", KeyBackupSuffix, c.BackupSuffix)
	}
	return nil
}
