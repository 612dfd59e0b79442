// Package main provides the mixvault command-line interface.
//
// Commands stage raw mixes (import), drive the canonicalization runner
// (run, retry), inspect queue and catalog state (stats, list, mixes, show,
// events), preview context detection (detect), and manage configuration
// (config init, config validate). Commands open the catalog database
// directly; concurrent runs are serialized by the runner lock file.
package main
