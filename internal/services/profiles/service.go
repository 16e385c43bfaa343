// Package profiles selects the Firefox profile directory to back up or
// restore into.
package profiles

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

const (
	defaultReleaseSuffix = ".default-release"
	defaultSuffix        = ".default"
)

// Chooser resolves an interactive choice among profile directory names and
// returns the chosen index. Injected so tests supply deterministic answers.
type Chooser func(options []string) (int, error)

// Service defines the interface for profile selection.
type Service interface {
	// SelectForBackup picks the profile to read from. Returns "" when no
	// profile directory exists at all; the caller skips the category.
	SelectForBackup(profilesDir string) (string, error)

	// SelectForRestore picks or creates the profile to write into.
	SelectForRestore(profilesDir string, interactive bool) (string, error)
}

// Impl implements the profiles Service interface.
type Impl struct {
	chooser Chooser
	logger  zerolog.Logger
	dryRun  bool
}

// New creates a new profile selection service.
func New(logger zerolog.Logger, chooser Chooser, dryRun bool) *Impl {
	return &Impl{
		chooser: chooser,
		logger:  logger,
		dryRun:  dryRun,
	}
}

// SelectForBackup picks the profile directory to back up. Preference order:
// a "*.default-release" directory, then "*.default", then the most recently
// modified profile directory.
func (s *Impl) SelectForBackup(profilesDir string) (string, error) {
	names, err := listProfileDirs(profilesDir)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		s.logger.Info().Str("dir", profilesDir).Msg("no Firefox profiles found")
		return "", nil
	}

	if name := pickBySuffix(names, defaultReleaseSuffix); name != "" {
		return filepath.Join(profilesDir, name), nil
	}
	if name := pickBySuffix(names, defaultSuffix); name != "" {
		return filepath.Join(profilesDir, name), nil
	}

	// No default-marked profile; fall back to the most recently used one.
	name, err := mostRecent(profilesDir, names)
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("profile", name).Msg("no default profile, using most recently modified")
	return filepath.Join(profilesDir, name), nil
}

// SelectForRestore picks the profile directory to restore into. Preference
// order: "*.default-release", "*.default", an interactive choice when
// enabled, and finally a freshly created profile directory.
func (s *Impl) SelectForRestore(profilesDir string, interactive bool) (string, error) {
	names, err := listProfileDirs(profilesDir)
	if err != nil {
		return "", err
	}

	if name := pickBySuffix(names, defaultReleaseSuffix); name != "" {
		return filepath.Join(profilesDir, name), nil
	}
	if name := pickBySuffix(names, defaultSuffix); name != "" {
		return filepath.Join(profilesDir, name), nil
	}

	if interactive && len(names) > 0 && s.chooser != nil {
		idx, err := s.chooser(names)
		if err != nil {
			return "", fmt.Errorf("choosing profile: %w", err)
		}
		if idx < 0 || idx >= len(names) {
			return "", fmt.Errorf("profile choice %d out of range", idx)
		}
		return filepath.Join(profilesDir, names[idx]), nil
	}

	return s.createProfile(profilesDir)
}

// createProfile creates a new empty profile directory with a randomized,
// previously unused name.
func (s *Impl) createProfile(profilesDir string) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating profile name: %w", err)
		}
		name := hex.EncodeToString(buf) + defaultReleaseSuffix
		path := filepath.Join(profilesDir, name)

		if _, err := os.Stat(path); err == nil {
			continue // name collision, retry
		}
		if s.dryRun {
			s.logger.Info().Str("profile", name).Msg("would create new Firefox profile directory")
			return path, nil
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", fmt.Errorf("creating profile directory: %w", err)
		}
		s.logger.Info().Str("profile", name).Msg("created new Firefox profile directory")
		return path, nil
	}
	return "", fmt.Errorf("could not find an unused profile name in %s", profilesDir)
}

func listProfileDirs(profilesDir string) ([]string, error) {
	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading profiles directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func pickBySuffix(names []string, suffix string) string {
	for _, name := range names {
		if strings.HasSuffix(name, suffix) {
			return name
		}
	}
	return ""
}

func mostRecent(profilesDir string, names []string) (string, error) {
	best := ""
	for _, name := range names {
		info, err := os.Stat(filepath.Join(profilesDir, name))
		if err != nil {
			continue
		}
		if best == "" {
			best = name
			continue
		}
		bestInfo, err := os.Stat(filepath.Join(profilesDir, best))
		if err != nil || info.ModTime().After(bestInfo.ModTime()) {
			best = name
		}
	}
	if best == "" {
		return "", fmt.Errorf("no readable profile directory in %s", profilesDir)
	}
	return best, nil
}
