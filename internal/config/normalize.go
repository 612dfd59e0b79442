package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCanonicalize()
	c.normalizeMatcher()
	c.normalizeRunner()
	if err := c.normalizeDetector(); err != nil {
		return err
	}
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if value, ok := os.LookupEnv(envDatabasePath); ok && strings.TrimSpace(value) != "" {
		c.Paths.DatabasePath = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseFile)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCanonicalize() {
	if value, ok := os.LookupEnv(envMode); ok && strings.TrimSpace(value) != "" {
		c.Canonicalize.Mode = value
	}
	c.Canonicalize.Mode = strings.ToLower(strings.TrimSpace(c.Canonicalize.Mode))
	if c.Canonicalize.Mode == "" {
		c.Canonicalize.Mode = defaultMode
	}
	c.Canonicalize.SystemIdentity = strings.TrimSpace(c.Canonicalize.SystemIdentity)
	if c.Canonicalize.SystemIdentity == "" {
		if value, ok := os.LookupEnv(envSystemIdentity); ok {
			c.Canonicalize.SystemIdentity = strings.TrimSpace(value)
		}
	}
	if c.Canonicalize.ClaimTimeoutSeconds <= 0 {
		c.Canonicalize.ClaimTimeoutSeconds = defaultClaimTimeoutSeconds
	}
}

func (c *Config) normalizeMatcher() {
	if c.Matcher.CandidateLimit <= 0 {
		c.Matcher.CandidateLimit = defaultCandidateLimit
	}
}

func (c *Config) normalizeRunner() {
	if c.Runner.BatchSize <= 0 {
		c.Runner.BatchSize = defaultBatchSize
	}
	if c.Runner.RetryMaxAgeHours <= 0 {
		c.Runner.RetryMaxAgeHours = defaultRetryMaxAgeHours
	}
	if c.Runner.PollIntervalSeconds <= 0 {
		c.Runner.PollIntervalSeconds = defaultPollIntervalSeconds
	}
}

func (c *Config) normalizeDetector() error {
	c.Detector.KnowledgeBasePath = strings.TrimSpace(c.Detector.KnowledgeBasePath)
	if c.Detector.KnowledgeBasePath == "" {
		return nil
	}
	var err error
	if c.Detector.KnowledgeBasePath, err = expandPath(c.Detector.KnowledgeBasePath); err != nil {
		return fmt.Errorf("detector.knowledge_base_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.SinkBuffer <= 0 {
		c.Logging.SinkBuffer = defaultSinkBuffer
	}
}

func (c *Config) normalizeMetrics() error {
	c.Metrics.TextfilePath = strings.TrimSpace(c.Metrics.TextfilePath)
	if c.Metrics.TextfilePath == "" {
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}
