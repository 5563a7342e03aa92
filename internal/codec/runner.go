package codec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"squeeze/internal/logging"
)

// Command is one codec invocation.
type Command struct {
	Binary  string
	Args    []string
	WorkDir string
}

// Runner launches a codec process and waits for it to exit. A non-nil
// error means the process could not be started or waited on; a started
// process that fails reports its exit code with a nil error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (exitCode int, err error)
}

// ExecRunner runs codecs with os/exec. It is safe for concurrent use.
type ExecRunner struct {
	// Stderr, when set, also receives the codec's stderr as it is written.
	Stderr io.Writer
	Logger *slog.Logger
}

func (r *ExecRunner) Run(ctx context.Context, c Command) (int, error) {
	logger := logging.Default(r.Logger).With("component", "codec")

	cmd := exec.CommandContext(ctx, c.Binary, c.Args...)
	cmd.Dir = c.WorkDir

	var stderr bytes.Buffer
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	logger.Debug("exec", "binary", c.Binary, "args", strings.Join(c.Args, " "))
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("codec exited", "binary", c.Binary, "code", exitErr.ExitCode(), "stderr", strings.TrimSpace(stderr.String()))
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
