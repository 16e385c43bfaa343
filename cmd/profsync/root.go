package main

import (
	"os"
	"strings"

	"github.com/fgeck/profsync/internal/config"
	"github.com/fgeck/profsync/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	configFile string
	verbose    bool
	quiet      bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "profsync",
	Short: "Back up and restore per-user application profiles via a cloud-synced folder",
	Long: `profsync copies browser and mail-client profile artifacts between this
machine and a cloud-synced folder, keyed by machine name:
  - Chrome / Edge profile files (bookmarks, preferences, saved logins)
  - Firefox profile files (automatic profile selection)
  - Internet Explorer Favorites (whole-directory mirror)
  - Outlook templates, rules and the autocomplete cache

Backups overwrite in place; restoring applies a configurable conflict policy.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (optional, environment defaults apply)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output logs in JSON format")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func setupLogging() {
	// Set output format
	if jsonOutput {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set log level
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadConfig loads the configuration file when given, the environment
// defaults otherwise.
func loadConfig() (*models.AppConfig, error) {
	parser := config.NewParser()
	if configFile != "" {
		cfg, err := parser.LoadFile(configFile)
		if err != nil {
			log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
			return nil, err
		}
		return cfg, nil
	}
	return parser.LoadDefaults()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
