package testsupport

import (
	"path/filepath"
	"testing"

	"mixvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "catalog.db")
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRollingMode switches the config to rolling mode with the given system identity.
func WithRollingMode(identity string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Canonicalize.Mode = config.ModeRolling
		b.cfg.Canonicalize.SystemIdentity = identity
	}
}

// WithAutoVerifyThreshold overrides the medium-confidence auto-verify threshold.
func WithAutoVerifyThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Canonicalize.AutoVerifyThreshold = threshold
	}
}

// WithClaimLocks enables per-identifier claim locks under the test data dir.
func WithClaimLocks() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Canonicalize.ClaimLocks = true
		b.cfg.Canonicalize.ClaimTimeoutSeconds = 1
	}
}

// WithMetricsTextfile points the Prometheus textfile export into the test dir.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, "metrics", "mixvault.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
