// Package config handles repository configuration for refline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matsen/refline/internal/phase"
)

// Config is the per-repository configuration stored in
// .refline/config.yml. Everything here is a tuning knob; the pipeline
// runs fine on the defaults.
type Config struct {
	// Thresholds are the overdue limits for the phase deriver.
	Thresholds phase.Thresholds `yaml:"thresholds"`

	// RepairWarnDays is how many days a chronology repair may move a
	// date before it is flagged for review.
	RepairWarnDays int `yaml:"repair_warn_days"`

	// OperatorAddress is the extracting user's own email address;
	// self-authored digest mail from it is dropped before
	// classification.
	OperatorAddress string `yaml:"operator_address,omitempty"`

	// DigestMarkers are subject substrings that identify self-authored
	// summary emails.
	DigestMarkers []string `yaml:"digest_markers,omitempty"`
}

const (
	ReflineDir    = ".refline"
	ConfigFile    = "config.yml"
	TimelinesDir  = "timelines"
	DBFile        = "timelines.db"
	defaultDigest = "review digest"
)

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Thresholds:     phase.DefaultThresholds(),
		RepairWarnDays: 90,
		DigestMarkers:  []string{defaultDigest},
	}
}

// ReflinePath returns the path to the .refline directory from a root path.
func ReflinePath(root string) string {
	return filepath.Join(root, ReflineDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ReflineDir, ConfigFile)
}

// TimelinesPath returns the directory holding per-manuscript timeline
// JSON files.
func TimelinesPath(root string) string {
	return filepath.Join(root, ReflineDir, TimelinesDir)
}

// DBPath returns the path to the timelines SQLite mirror.
func DBPath(root string) string {
	return filepath.Join(root, ReflineDir, DBFile)
}

// IsRepository checks if the given path contains a refline repository.
func IsRepository(root string) bool {
	info, err := os.Stat(ReflinePath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a refline
// repository. Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a refline repository (no .refline directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root,
// falling back to defaults for anything unset.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Thresholds.ResponseOverdueDays <= 0 {
		cfg.Thresholds.ResponseOverdueDays = phase.DefaultThresholds().ResponseOverdueDays
	}
	if cfg.Thresholds.ReportOverdueDays <= 0 {
		cfg.Thresholds.ReportOverdueDays = phase.DefaultThresholds().ReportOverdueDays
	}
	if cfg.RepairWarnDays <= 0 {
		cfg.RepairWarnDays = 90
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
