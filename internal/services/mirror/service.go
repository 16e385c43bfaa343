// Package mirror makes a destination directory's contents exactly match a
// source directory's, including removals.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fgeck/profsync/internal/models"
	"github.com/rs/zerolog"
)

// ExitCodeFailureThreshold is the first robocopy exit code that means
// failure. Codes below it signal success, possibly with warnings such as
// skipped files due to sharing violations.
const ExitCodeFailureThreshold = 8

// Service defines the interface for directory mirroring.
type Service interface {
	Mirror(ctx context.Context, src, dst string) (*models.MirrorResult, error)
}

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// Execute runs a command and returns its combined output.
func (e *DefaultExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// New creates the mirror service for this platform: the external mirroring
// utility on Windows (or when a tool path is configured), a native
// implementation otherwise.
func New(logger zerolog.Logger, tool string, dryRun bool) Service {
	if tool != "" || runtime.GOOS == "windows" {
		if tool == "" {
			tool = "robocopy"
		}
		return NewRobocopy(logger, tool, dryRun, &DefaultExecutor{})
	}
	return NewNative(logger, dryRun)
}

// Robocopy mirrors directories by invoking the external utility.
type Robocopy struct {
	tool     string
	dryRun   bool
	executor CommandExecutor
	logger   zerolog.Logger
}

// NewRobocopy creates a robocopy-backed mirror service. The executor is
// injectable for testing.
func NewRobocopy(logger zerolog.Logger, tool string, dryRun bool, executor CommandExecutor) *Robocopy {
	return &Robocopy{
		tool:     tool,
		dryRun:   dryRun,
		executor: executor,
		logger:   logger,
	}
}

// Mirror makes dst an exact copy of src.
func (s *Robocopy) Mirror(ctx context.Context, src, dst string) (*models.MirrorResult, error) {
	if s.dryRun {
		s.logger.Info().Str("src", src).Str("dst", dst).Msg("would mirror directory")
		return &models.MirrorResult{}, nil
	}

	start := time.Now()
	args := []string{src, dst, "/MIR", "/R:1", "/W:1", "/NJH", "/NJS", "/NP"}

	s.logger.Debug().Str("tool", s.tool).Strs("args", args).Msg("running mirror utility")
	output, err := s.executor.Execute(ctx, s.tool, args...)

	result := &models.MirrorResult{
		Output:   strings.TrimSpace(string(output)),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The utility could not be started at all.
			result.ExitCode = ExitCodeFailureThreshold
			result.Error = fmt.Errorf("running %s: %w", s.tool, err)
			return result, nil
		}
	}

	// Robocopy uses exit codes below the threshold for success-with-warnings
	// (1 simply means files were copied).
	if result.ExitCode >= ExitCodeFailureThreshold {
		result.Error = fmt.Errorf("%s exited with code %d: %s", s.tool, result.ExitCode, result.Output)
	}

	return result, nil
}

// Native mirrors directories with plain filesystem operations. Used where
// the external utility is unavailable.
type Native struct {
	dryRun bool
	logger zerolog.Logger
}

// NewNative creates a pure-Go mirror service.
func NewNative(logger zerolog.Logger, dryRun bool) *Native {
	return &Native{
		dryRun: dryRun,
		logger: logger,
	}
}

// Mirror makes dst an exact copy of src: differing files are overwritten and
// entries present only in dst are removed.
func (s *Native) Mirror(ctx context.Context, src, dst string) (*models.MirrorResult, error) {
	if s.dryRun {
		s.logger.Info().Str("src", src).Str("dst", dst).Msg("would mirror directory")
		return &models.MirrorResult{}, nil
	}

	start := time.Now()
	result := &models.MirrorResult{}

	if err := copyTree(ctx, src, dst); err != nil {
		result.ExitCode = ExitCodeFailureThreshold
		result.Error = err
		result.Duration = time.Since(start)
		return result, nil
	}
	if err := pruneExtras(ctx, src, dst); err != nil {
		result.ExitCode = ExitCodeFailureThreshold
		result.Error = err
	}

	result.Duration = time.Since(start)
	return result, nil
}

func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyOne(path, target)
	})
}

func copyOne(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// pruneExtras removes destination entries that have no counterpart in src.
func pruneExtras(ctx context.Context, src, dst string) error {
	entries, err := os.ReadDir(dst)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())

		srcInfo, err := os.Stat(srcPath)
		if os.IsNotExist(err) || (err == nil && srcInfo.IsDir() != e.IsDir()) {
			if err := os.RemoveAll(dstPath); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if e.IsDir() {
			if err := pruneExtras(ctx, srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}
