// Package procguard detects and terminates running applications that would
// hold locks on the files being restored.
package procguard

import (
	"context"
	"encoding/csv"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fgeck/profsync/internal/models"
	"github.com/rs/zerolog"
)

// watchedNames are the executables that keep profile files locked. Fixed
// list, matching the category registry.
var watchedNames = []string{"chrome", "msedge", "firefox", "outlook"}

// Service defines the interface for process detection and termination.
type Service interface {
	// Running lists watched processes currently running.
	Running(ctx context.Context) ([]models.Process, error)

	// Kill terminates one process. Failures are the caller's to report;
	// they never block remaining work.
	Kill(ctx context.Context, proc models.Process) error
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

// Impl implements the procguard Service interface.
type Impl struct {
	executor CommandExecutor
	logger   zerolog.Logger
	windows  bool
}

// New creates a new process guard service.
func New(logger zerolog.Logger, windows bool) *Impl {
	return &Impl{
		executor: &DefaultExecutor{},
		logger:   logger,
		windows:  windows,
	}
}

// NewWithExecutor creates a new process guard service with a custom executor
// (for testing).
func NewWithExecutor(logger zerolog.Logger, windows bool, executor CommandExecutor) *Impl {
	return &Impl{
		executor: executor,
		logger:   logger,
		windows:  windows,
	}
}

// Running lists watched processes currently running.
func (s *Impl) Running(ctx context.Context) ([]models.Process, error) {
	if s.windows {
		return s.runningWindows(ctx)
	}
	return s.runningUnix(ctx)
}

func (s *Impl) runningWindows(ctx context.Context) ([]models.Process, error) {
	output, err := s.executor.Execute(ctx, "tasklist", "/FO", "CSV", "/NH")
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	return parseTasklist(string(output))
}

func (s *Impl) runningUnix(ctx context.Context) ([]models.Process, error) {
	var procs []models.Process
	for _, name := range watchedNames {
		output, err := s.executor.Execute(ctx, "pgrep", "-x", name)
		if err != nil {
			// pgrep exits 1 when nothing matches.
			continue
		}
		for _, line := range strings.Fields(string(output)) {
			pid, err := strconv.Atoi(line)
			if err != nil {
				continue
			}
			procs = append(procs, models.Process{PID: pid, Name: name})
		}
	}
	return procs, nil
}

// parseTasklist extracts watched processes from tasklist CSV output. Lines
// look like: "chrome.exe","1234","Console","1","120,000 K".
func parseTasklist(output string) ([]models.Process, error) {
	reader := csv.NewReader(strings.NewReader(output))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing process list: %w", err)
	}

	var procs []models.Process
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSuffix(strings.ToLower(record[0]), ".exe")
		if !watched(name) {
			continue
		}
		pid, err := strconv.Atoi(record[1])
		if err != nil {
			continue
		}
		procs = append(procs, models.Process{PID: pid, Name: name})
	}
	return procs, nil
}

func watched(name string) bool {
	for _, w := range watchedNames {
		if name == w {
			return true
		}
	}
	return false
}

// Kill terminates one process.
func (s *Impl) Kill(ctx context.Context, proc models.Process) error {
	s.logger.Info().Str("name", proc.Name).Int("pid", proc.PID).Msg("terminating process")

	var output []byte
	var err error
	if s.windows {
		output, err = s.executor.Execute(ctx, "taskkill", "/PID", strconv.Itoa(proc.PID), "/F")
	} else {
		output, err = s.executor.Execute(ctx, "kill", "-TERM", strconv.Itoa(proc.PID))
	}
	if err != nil {
		return fmt.Errorf("terminating %s (pid %d): %w: %s", proc.Name, proc.PID, err, strings.TrimSpace(string(output)))
	}
	return nil
}
