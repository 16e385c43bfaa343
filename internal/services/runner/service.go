// Package runner orchestrates backup and restore runs across categories.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/fgeck/profsync/internal/models"
	"github.com/fgeck/profsync/internal/services/copier"
	"github.com/fgeck/profsync/internal/services/mirror"
	"github.com/fgeck/profsync/internal/services/procguard"
	"github.com/fgeck/profsync/internal/services/profiles"
	"github.com/rs/zerolog"
)

// ConfirmFunc answers a yes/no question put to the operator. Injected so
// tests can supply deterministic answers.
type ConfirmFunc func(question string) bool

// Service defines the interface for the backup/restore engine.
type Service interface {
	RunBackup(ctx context.Context, categories []models.Category, env models.Env, destRoot string) (*models.RunReport, error)
	RunRestore(ctx context.Context, categories []models.Category, env models.Env, backupRoot string, opts models.RestoreOptions) (*models.RunReport, error)
}

// Impl implements the runner Service interface.
type Impl struct {
	profilesSvc profiles.Service
	copierSvc   copier.Service
	mirrorSvc   mirror.Service
	procSvc     procguard.Service
	confirm     ConfirmFunc
	out         io.Writer
	logger      zerolog.Logger
	dryRun      bool
}

// New creates a new runner service wired with the real sub-services.
func New(logger zerolog.Logger, cfg models.AppConfig, dryRun bool, chooser profiles.Chooser, confirm ConfirmFunc) *Impl {
	return &Impl{
		profilesSvc: profiles.New(logger, chooser, dryRun),
		copierSvc:   copier.New(logger, dryRun),
		mirrorSvc:   mirror.New(logger, cfg.MirrorTool, dryRun),
		procSvc:     procguard.New(logger, runtime.GOOS == "windows"),
		confirm:     confirm,
		out:         os.Stdout,
		logger:      logger,
		dryRun:      dryRun,
	}
}

// NewWithServices creates a new runner service with custom sub-services (for
// testing).
func NewWithServices(
	logger zerolog.Logger,
	profilesSvc profiles.Service,
	copierSvc copier.Service,
	mirrorSvc mirror.Service,
	procSvc procguard.Service,
	confirm ConfirmFunc,
	out io.Writer,
) *Impl {
	return &Impl{
		profilesSvc: profilesSvc,
		copierSvc:   copierSvc,
		mirrorSvc:   mirrorSvc,
		procSvc:     procSvc,
		confirm:     confirm,
		out:         out,
		logger:      logger,
	}
}

// RunBackup copies every existing item of the selected categories into
// destRoot, one subdirectory per category.
func (s *Impl) RunBackup(ctx context.Context, categories []models.Category, env models.Env, destRoot string) (*models.RunReport, error) {
	start := time.Now()
	report := &models.RunReport{Root: destRoot}

	if !s.dryRun {
		if err := os.MkdirAll(destRoot, 0o755); err != nil {
			return nil, fmt.Errorf("creating backup root: %w", err)
		}
	}

	s.logger.Info().Str("dest", destRoot).Int("categories", len(categories)).Msg("starting backup")

	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		root, ok := s.resolveBackupSource(cat, env, report)
		if !ok {
			continue
		}

		for _, item := range cat.Items {
			src := filepath.Join(root, item.Name)
			dst := filepath.Join(destRoot, cat.Name, item.Name)
			s.copyItem(ctx, cat, item, src, dst, models.Overwrite, report)
		}
	}

	report.Duration = time.Since(start)
	s.printSummary("backup", report)
	return report, nil
}

// RunRestore copies items from backupRoot back to the live application
// paths, applying the conflict policy per item.
func (s *Impl) RunRestore(ctx context.Context, categories []models.Category, env models.Env, backupRoot string, opts models.RestoreOptions) (*models.RunReport, error) {
	start := time.Now()
	report := &models.RunReport{Root: backupRoot}

	s.logger.Info().
		Str("source", backupRoot).
		Str("policy", opts.Policy.String()).
		Int("categories", len(categories)).
		Msg("starting restore")

	if !opts.SkipKill {
		s.guardProcesses(ctx, opts)
	}

	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		root, err := s.resolveRestoreDest(cat, env, opts)
		if err != nil {
			s.logger.Error().Err(err).Str("category", cat.Name).Msg("cannot resolve restore destination")
			report.Add(models.ItemResult{Category: cat.Name, Item: "*", Status: models.StatusFailed, Err: err})
			s.printItem(cat.Name, "*", models.StatusFailed, err)
			continue
		}

		for _, item := range cat.Items {
			src := filepath.Join(backupRoot, cat.Name, item.Name)
			dst := filepath.Join(root, item.Name)
			s.copyItem(ctx, cat, item, src, dst, opts.Policy, report)
		}
	}

	report.Duration = time.Since(start)
	s.printSummary("restore", report)
	return report, nil
}

// resolveBackupSource resolves the live source root for one category. A
// missing root (or a profiled category with no profile) is a pure skip:
// every item is reported missing, no error.
func (s *Impl) resolveBackupSource(cat models.Category, env models.Env, report *models.RunReport) (string, bool) {
	root := cat.Root(env)

	if cat.Profiled {
		profile, err := s.profilesSvc.SelectForBackup(root)
		if err != nil {
			s.logger.Error().Err(err).Str("category", cat.Name).Msg("profile selection failed")
			report.Add(models.ItemResult{Category: cat.Name, Item: "*", Status: models.StatusFailed, Err: err})
			s.printItem(cat.Name, "*", models.StatusFailed, err)
			return "", false
		}
		if profile == "" {
			s.markAllMissing(cat, report)
			return "", false
		}
		return profile, true
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		s.logger.Info().Str("category", cat.Name).Str("root", root).Msg("source root missing, skipping category")
		s.markAllMissing(cat, report)
		return "", false
	}
	return root, true
}

func (s *Impl) resolveRestoreDest(cat models.Category, env models.Env, opts models.RestoreOptions) (string, error) {
	root := cat.Root(env)
	if cat.Profiled {
		return s.profilesSvc.SelectForRestore(root, opts.Interactive)
	}
	return root, nil
}

func (s *Impl) markAllMissing(cat models.Category, report *models.RunReport) {
	for _, item := range cat.Items {
		report.Add(models.ItemResult{Category: cat.Name, Item: item.Name, Status: models.StatusMissing})
		s.printItem(cat.Name, item.Name, models.StatusMissing, nil)
	}
}

// copyItem copies or mirrors one item and records the outcome. Failures are
// recorded and never abort the remaining items.
func (s *Impl) copyItem(ctx context.Context, cat models.Category, item models.ItemSpec, src, dst string, policy models.ConflictPolicy, report *models.RunReport) {
	var status models.ItemStatus
	var err error

	switch item.Kind {
	case models.ItemDir:
		status, err = s.mirrorItem(ctx, src, dst, policy)
	default:
		status, err = s.copierSvc.CopyFile(src, dst, policy)
	}

	if err != nil {
		s.logger.Error().Err(err).Str("category", cat.Name).Str("item", item.Name).Msg("item failed")
	}
	report.Add(models.ItemResult{Category: cat.Name, Item: item.Name, Status: status, Err: err})
	s.printItem(cat.Name, item.Name, status, err)
}

// mirrorItem mirrors one directory item. The conflict policy applies here
// too: SkipExisting protects an existing destination directory from being
// mirrored over (a mirror deletes destination-only entries).
func (s *Impl) mirrorItem(ctx context.Context, src, dst string, policy models.ConflictPolicy) (models.ItemStatus, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return models.StatusMissing, nil
	}

	if policy == models.SkipExisting {
		if _, err := os.Stat(dst); err == nil {
			return models.StatusSkipped, nil
		}
	}

	result, err := s.mirrorSvc.Mirror(ctx, src, dst)
	if err != nil {
		return models.StatusFailed, err
	}
	if result.Error != nil {
		return models.StatusFailed, result.Error
	}
	return models.StatusCopied, nil
}

// guardProcesses lists watched processes and, after confirmation, terminates
// them so restored files are not locked. Best effort throughout.
func (s *Impl) guardProcesses(ctx context.Context, opts models.RestoreOptions) {
	procs, err := s.procSvc.Running(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not list running processes")
		return
	}
	if len(procs) == 0 {
		return
	}

	if opts.ShowProcs {
		for _, p := range procs {
			fmt.Fprintf(s.out, "running: %s (pid %d)\n", p.Name, p.PID)
		}
	} else {
		fmt.Fprintf(s.out, "%d running application(s) may lock files during restore\n", len(procs))
	}

	if !opts.ForceKill {
		if s.confirm == nil || !s.confirm(fmt.Sprintf("terminate %d running application(s)?", len(procs))) {
			s.logger.Warn().Msg("leaving processes running, restore may hit locked files")
			return
		}
	}

	for _, p := range procs {
		if err := s.procSvc.Kill(ctx, p); err != nil {
			s.logger.Warn().Err(err).Str("name", p.Name).Int("pid", p.PID).Msg("could not terminate process")
		}
	}
}

var (
	statusOK      = color.New(color.FgGreen).SprintFunc()
	statusSkip    = color.New(color.FgYellow).SprintFunc()
	statusMissing = color.New(color.Faint).SprintFunc()
	statusError   = color.New(color.FgRed).SprintFunc()
)

func (s *Impl) printItem(category, item string, status models.ItemStatus, err error) {
	label := fmt.Sprintf("%s/%s", category, item)
	switch status {
	case models.StatusCopied:
		fmt.Fprintf(s.out, "  %-48s %s\n", label, statusOK("ok"))
	case models.StatusSkipped:
		fmt.Fprintf(s.out, "  %-48s %s\n", label, statusSkip("skip"))
	case models.StatusMissing:
		fmt.Fprintf(s.out, "  %-48s %s\n", label, statusMissing("missing"))
	default:
		fmt.Fprintf(s.out, "  %-48s %s (%v)\n", label, statusError("error"), err)
	}
}

func (s *Impl) printSummary(mode string, report *models.RunReport) {
	fmt.Fprintf(s.out, "\n%s root: %s\n", mode, report.Root)
	fmt.Fprintf(s.out, "%s: %d, %s: %d, %s: %d, %s: %d\n",
		statusOK("copied"), report.Copied,
		statusSkip("skipped"), report.Skipped,
		statusMissing("missing"), report.Missing,
		statusError("errors"), report.Errors,
	)
	if report.Errors > 0 {
		fmt.Fprintf(s.out, "%s\n", statusError(fmt.Sprintf("%d item(s) failed, review the output above", report.Errors)))
	}

	s.logger.Info().
		Str("mode", mode).
		Int("copied", report.Copied).
		Int("skipped", report.Skipped).
		Int("missing", report.Missing).
		Int("errors", report.Errors).
		Dur("duration", report.Duration).
		Msg("run completed")
}
