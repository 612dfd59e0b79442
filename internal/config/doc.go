// Package config loads, normalizes, and validates mixvault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files, and honours
// environment fallbacks such as MIXVAULT_SYSTEM_IDENTITY. The Config type
// centralizes every knob the runner and CLI need: where the catalog database
// lives, how the canonicalization engine verifies what it creates, and the
// matcher thresholds that trade catalog correctness against catalog growth.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical modes, and clear validation errors.
package config
