package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mixvault/internal/config"
	"mixvault/internal/database"
	"mixvault/internal/logging"
	"mixvault/internal/runner"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// withDB opens the catalog database for the duration of fn.
func (c *commandContext) withDB(fn func(*config.Config, *database.DB) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}

// withRunner builds a runner over the catalog database. The runner's event
// sink is drained and the metrics textfile written before returning.
func (c *commandContext) withRunner(fn func(*runner.Runner) error) error {
	return c.withDB(func(cfg *config.Config, db *database.DB) (err error) {
		logger, err := commandLogger(cfg)
		if err != nil {
			return err
		}
		r, closeFn, err := runner.Build(cfg, db, logger)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, closeFn())
		}()
		return fn(r)
	})
}

// commandLogger logs to stderr and the log file so stdout stays reserved for
// command output.
func commandLogger(cfg *config.Config) (*slog.Logger, error) {
	paths := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		paths = append(paths, filepath.Join(cfg.Paths.LogDir, "mixvault.log"))
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
	})
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
