package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/profsync/internal/config"
	"github.com/fgeck/profsync/internal/models"
	"github.com/fgeck/profsync/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	restoreSelect       categoryFlags
	restoreFrom         string
	restoreForce        bool
	restoreSkipExisting bool
	restoreDryRun       bool
	restoreInteractive  bool
	restoreNoKill       bool
	restoreShowProcs    bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Copy the selected categories from a backup root back to this machine",
	Long: `Copy the selected categories' files from a backup root back to their live
application locations. Without --from, the most recently modified machine
backup under the cloud-synced folder is used.

By default existing files are overwritten; --skip-existing leaves them
untouched and --force clears read-only files first. Running applications
that would lock files are listed and, after confirmation, terminated
(--no-kill disables this, --force skips the confirmation).`,
	RunE: runRestore,
}

func init() {
	restoreSelect.register(restoreCmd)
	restoreCmd.Flags().StringVar(&restoreFrom, "from", "", "backup root to restore from (default: most recent machine backup)")
	restoreCmd.Flags().BoolVarP(&restoreForce, "force", "f", false, "replace obstructed files and terminate processes without confirmation")
	restoreCmd.Flags().BoolVar(&restoreSkipExisting, "skip-existing", false, "never overwrite existing files")
	restoreCmd.Flags().BoolVarP(&restoreDryRun, "dry-run", "n", false, "describe every copy without changing anything")
	restoreCmd.Flags().BoolVarP(&restoreInteractive, "interactive", "i", false, "offer an interactive Firefox profile choice")
	restoreCmd.Flags().BoolVar(&restoreNoKill, "no-kill", false, "leave running applications untouched")
	restoreCmd.Flags().BoolVar(&restoreShowProcs, "show-procs", false, "list every matching running process")
}

func runRestore(cmd *cobra.Command, args []string) error {
	categories := restoreSelect.selected()
	if len(categories) == 0 {
		return cmd.Help()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Resolving the backup root is a setup step: failure aborts before any
	// copying.
	backupRoot := restoreFrom
	if backupRoot == "" {
		if err := config.Validate(cfg); err != nil {
			log.Error().Err(err).Msg("cannot resolve backup root")
			return err
		}
		backupRoot, err = runner.DetectRestoreRoot(cfg.Env)
		if err != nil {
			log.Error().Err(err).Msg("cannot resolve backup root")
			return err
		}
	}

	policy := models.Overwrite
	switch {
	case restoreForce:
		policy = models.Force
	case restoreSkipExisting:
		policy = models.SkipExisting
	}

	log.Info().
		Str("source", backupRoot).
		Str("policy", policy.String()).
		Bool("dry_run", restoreDryRun).
		Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	runnerSvc := runner.New(log.Logger, *cfg, restoreDryRun,
		runner.StdinChooser(os.Stdin, os.Stdout),
		runner.StdinConfirm(os.Stdin, os.Stdout))

	opts := models.RestoreOptions{
		Policy:      policy,
		Interactive: restoreInteractive,
		SkipKill:    restoreNoKill || restoreDryRun,
		ForceKill:   restoreForce,
		ShowProcs:   restoreShowProcs,
	}

	if _, err := runnerSvc.RunRestore(ctx, categories, cfg.Env, backupRoot, opts); err != nil {
		log.Error().Err(err).Msg("restore failed")
		return err
	}
	return nil
}
