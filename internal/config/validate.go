package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCanonicalize(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateRunner(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCanonicalize() error {
	switch c.Canonicalize.Mode {
	case ModeBackfill, ModeRolling:
	default:
		return fmt.Errorf("canonicalize.mode must be %q or %q, got %q", ModeBackfill, ModeRolling, c.Canonicalize.Mode)
	}
	if !unitInterval(c.Canonicalize.AutoVerifyThreshold) {
		return errors.New("canonicalize.auto_verify_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateMatcher() error {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"matcher.track_high", c.Matcher.TrackHigh},
		{"matcher.track_medium", c.Matcher.TrackMedium},
		{"matcher.artist_high", c.Matcher.ArtistHigh},
		{"matcher.artist_medium", c.Matcher.ArtistMedium},
	}
	for _, th := range thresholds {
		if !unitInterval(th.value) {
			return fmt.Errorf("%s must be between 0 and 1", th.name)
		}
	}
	if c.Matcher.TrackMedium > c.Matcher.TrackHigh {
		return errors.New("matcher.track_medium must not exceed matcher.track_high")
	}
	if c.Matcher.ArtistMedium > c.Matcher.ArtistHigh {
		return errors.New("matcher.artist_medium must not exceed matcher.artist_high")
	}
	return nil
}

func (c *Config) validateRunner() error {
	if c.Runner.MaxPerSecond < 0 {
		return errors.New("runner.max_per_second must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
}

func unitInterval(value float64) bool {
	return value >= 0 && value <= 1
}
