// Package copier implements the single-file copy primitive with its
// conflict policy.
package copier

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fgeck/profsync/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for single-file copies.
type Service interface {
	// CopyFile copies src to dst under the given policy, creating parent
	// directories as needed. A missing source is StatusMissing, never an
	// error. The returned error is non-nil only for StatusFailed.
	CopyFile(src, dst string, policy models.ConflictPolicy) (models.ItemStatus, error)
}

// Impl implements the copier Service interface.
type Impl struct {
	logger zerolog.Logger
	dryRun bool
}

// New creates a new copier service.
func New(logger zerolog.Logger, dryRun bool) *Impl {
	return &Impl{
		logger: logger,
		dryRun: dryRun,
	}
}

// CopyFile copies src to dst under the given policy.
func (s *Impl) CopyFile(src, dst string, policy models.ConflictPolicy) (models.ItemStatus, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("src", src).Msg("source missing, skipping")
			return models.StatusMissing, nil
		}
		return models.StatusFailed, fmt.Errorf("stat source: %w", err)
	}

	dstExists := false
	if _, err := os.Stat(dst); err == nil {
		dstExists = true
	} else if !os.IsNotExist(err) {
		// An unstatable destination must not be mistaken for an absent one,
		// or SkipExisting would overwrite it.
		return models.StatusFailed, fmt.Errorf("stat destination: %w", err)
	}

	if dstExists && policy == models.SkipExisting {
		s.logger.Debug().Str("dst", dst).Msg("destination exists, skipping")
		return models.StatusSkipped, nil
	}

	if s.dryRun {
		s.logger.Info().Str("src", src).Str("dst", dst).Msg("would copy")
		return models.StatusCopied, nil
	}

	if dstExists && policy == models.Force {
		if !clearDestination(dst) {
			s.logger.Warn().Str("dst", dst).Msg("could not clear destination, copying anyway")
		}
	}

	if err := s.copyContents(src, dst, srcInfo); err != nil {
		return models.StatusFailed, err
	}
	return models.StatusCopied, nil
}

func (s *Impl) copyContents(src, dst string, srcInfo os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying data: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}

	// Keep the source's modification time so repeated runs stay idempotent.
	_ = os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
	return nil
}

// clearDestination tries to drop a read-only attribute and delete dst. Best
// effort: the result only says whether the delete succeeded, callers copy
// regardless.
func clearDestination(dst string) bool {
	_ = os.Chmod(dst, 0o644)
	return os.Remove(dst) == nil
}
