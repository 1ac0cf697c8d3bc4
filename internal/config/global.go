package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents machine-wide defaults stored in
// ~/.config/refline/config.yml. Repository config always wins over these.
type GlobalConfig struct {
	// WorkspacePath is the default refline repository used when a
	// command runs outside one.
	WorkspacePath string `yaml:"workspace_path,omitempty"`

	// OperatorAddress is the extracting user's own email address, used
	// when the repository config leaves it unset.
	OperatorAddress string `yaml:"operator_address,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "refline"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/refline/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.WorkspacePath != "" {
		cfg.WorkspacePath = ExpandTilde(cfg.WorkspacePath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetGlobalOperatorAddress returns the operator address from global config.
func GetGlobalOperatorAddress() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.OperatorAddress
}

// GetWorkspacePath returns the configured default workspace from global
// config, or empty when unset or the path does not exist.
func GetWorkspacePath() string {
	cfg, _ := LoadGlobalConfig()
	if cfg.WorkspacePath == "" {
		return ""
	}
	if _, err := os.Stat(cfg.WorkspacePath); err != nil {
		return ""
	}
	return cfg.WorkspacePath
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if len(path) > 1 && path[0] == '~' && path[1] == filepath.Separator {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// HelpfulConfigMessage returns setup guidance for when no repository can
// be found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No refline repository found.

Run 'refline init' in your review workspace, or create %s to set a
default workspace:
  mkdir -p %s
  echo 'workspace_path: /path/to/your/workspace' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
