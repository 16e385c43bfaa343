// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fgeck/profsync/internal/models"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.AppConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a string (useful for testing).
func (p *Parser) LoadReader(content string) (*models.AppConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// LoadDefaults builds a configuration purely from the environment, for runs
// without a config file.
func (p *Parser) LoadDefaults() (*models.AppConfig, error) {
	return p.parse()
}

func (p *Parser) parse() (*models.AppConfig, error) {
	cfg := &models.AppConfig{}

	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	cfg.Env = models.Env{
		CloudDir:       p.expandEnv(p.v.GetString("cloud.dir")),
		MachineName:    p.v.GetString("cloud.machine_name"),
		LocalAppData:   p.expandEnv(p.v.GetString("paths.local_app_data")),
		RoamingAppData: p.expandEnv(p.v.GetString("paths.roaming_app_data")),
		Home:           p.expandEnv(p.v.GetString("paths.home")),
	}
	cfg.MirrorTool = p.expandEnv(p.v.GetString("mirror.tool"))

	// Every path falls back to the host environment.
	if cfg.Env.Home == "" {
		cfg.Env.Home = home
	}
	if cfg.Env.CloudDir == "" {
		cfg.Env.CloudDir = os.Getenv("OneDrive")
	}
	if cfg.Env.LocalAppData == "" {
		if v := os.Getenv("LOCALAPPDATA"); v != "" {
			cfg.Env.LocalAppData = v
		} else {
			cfg.Env.LocalAppData = filepath.Join(cfg.Env.Home, "AppData", "Local")
		}
	}
	if cfg.Env.RoamingAppData == "" {
		if v := os.Getenv("APPDATA"); v != "" {
			cfg.Env.RoamingAppData = v
		} else {
			cfg.Env.RoamingAppData = filepath.Join(cfg.Env.Home, "AppData", "Roaming")
		}
	}
	if cfg.Env.MachineName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			cfg.Env.MachineName = "unknown"
		} else {
			cfg.Env.MachineName = hostname
		}
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate checks that the configuration can support a run that needs the
// cloud-synced root. Commands that never touch the backup root (category
// listing) skip this.
func Validate(cfg *models.AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Env.CloudDir == "" {
		return fmt.Errorf("cloud.dir is required (set it in the config file or the OneDrive environment variable)")
	}
	if cfg.Env.MachineName == "" {
		return fmt.Errorf("cloud.machine_name is required")
	}

	return nil
}
