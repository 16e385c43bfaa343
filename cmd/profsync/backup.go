package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/profsync/internal/config"
	"github.com/fgeck/profsync/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	backupSelect categoryFlags
	backupDest   string
	backupDryRun bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the selected categories into this machine's backup root",
	Long: `Copy the selected categories' files into the cloud-synced backup root for
this machine (<cloud dir>/MachineBackups/<machine name>, override with
--dest). Existing backup content is overwritten in place; missing live files
are skipped.`,
	RunE: runBackup,
}

func init() {
	backupSelect.register(backupCmd)
	backupCmd.Flags().StringVar(&backupDest, "dest", "", "backup destination root (default: resolved from the cloud dir)")
	backupCmd.Flags().BoolVarP(&backupDryRun, "dry-run", "n", false, "describe every copy without changing anything")
}

func runBackup(cmd *cobra.Command, args []string) error {
	categories := backupSelect.selected()
	if len(categories) == 0 {
		return cmd.Help()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dest := backupDest
	if dest == "" {
		if err := config.Validate(cfg); err != nil {
			log.Error().Err(err).Msg("cannot resolve backup destination")
			return err
		}
		dest = runner.BackupDest(cfg.Env)
	}

	log.Info().
		Str("dest", dest).
		Str("machine", cfg.Env.MachineName).
		Bool("dry_run", backupDryRun).
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

	runnerSvc := runner.New(log.Logger, *cfg, backupDryRun,
		runner.StdinChooser(os.Stdin, os.Stdout),
		runner.StdinConfirm(os.Stdin, os.Stdout))

	if _, err := runnerSvc.RunBackup(ctx, categories, cfg.Env, dest); err != nil {
		log.Error().Err(err).Msg("backup failed")
		return err
	}
	return nil
}
