package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Processing modes recognized by the canonicalization engine.
const (
	ModeBackfill = "backfill"
	ModeRolling  = "rolling"
)

// Paths contains directory and database location configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
}

// Canonicalize contains configuration for the canonicalization engine.
type Canonicalize struct {
	// Mode is either "backfill" (never auto-verify) or "rolling".
	Mode string `toml:"mode"`
	// AutoVerifyThreshold gates medium-confidence track auto-verification;
	// values above 0.7 suppress it.
	AutoVerifyThreshold float64 `toml:"auto_verify_threshold"`
	// SystemIdentity is recorded as verified_by for auto-verified entities.
	SystemIdentity      string `toml:"system_identity"`
	ClaimLocks          bool   `toml:"claim_locks"`
	ClaimTimeoutSeconds int    `toml:"claim_timeout_seconds"`
	DetectContexts      bool   `toml:"detect_contexts"`
}

// Matcher contains similarity thresholds for the track matcher.
type Matcher struct {
	TrackHigh      float64 `toml:"track_high"`
	TrackMedium    float64 `toml:"track_medium"`
	ArtistHigh     float64 `toml:"artist_high"`
	ArtistMedium   float64 `toml:"artist_medium"`
	CandidateLimit int     `toml:"candidate_limit"`
}

// Runner contains configuration for batch processing.
type Runner struct {
	BatchSize        int     `toml:"batch_size"`
	RetryMaxAgeHours int     `toml:"retry_max_age_hours"`
	MaxPerSecond     float64 `toml:"max_per_second"`
	// PollIntervalSeconds is how often mixvaultd checks for pending raw mixes.
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
}

// Detector contains configuration for context/venue detection.
type Detector struct {
	KnowledgeBasePath string `toml:"knowledge_base_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	SinkBuffer int    `toml:"sink_buffer"`
}

// Metrics contains configuration for Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for mixvault.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the catalog database file
//   - Canonicalize: processing mode, auto-verification, claim locks
//   - Matcher: fuzzy similarity thresholds and candidate limits
//   - Runner: batch size, retry window, store pacing
//   - Detector: optional knowledge base extension file
//   - Logging: log format, level, and event sink buffer
//   - Metrics: Prometheus textfile location
type Config struct {
	Paths        Paths        `toml:"paths"`
	Canonicalize Canonicalize `toml:"canonicalize"`
	Matcher      Matcher      `toml:"matcher"`
	Runner       Runner       `toml:"runner"`
	Detector     Detector     `toml:"detector"`
	Logging      Logging      `toml:"logging"`
	Metrics      Metrics      `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mixvault/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv populates unset environment variables from an env file when it exists.
func loadDotEnv(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mixvault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Paths.DatabasePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockDir returns the directory holding runner and claim lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

// Rolling reports whether the configured mode allows auto-verification.
func (c *Config) Rolling() bool {
	return c.Canonicalize.Mode == ModeRolling
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
