package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixvault/internal/contextdetect"
	"mixvault/internal/runner"
)

type cliEnv struct {
	dir        string
	configPath string
}

func setupCLITestEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\ndatabase_path = %q\n\n[logging]\nformat = \"json\"\nlevel = \"error\"\n",
		filepath.Join(dir, "data"),
		filepath.Join(dir, "logs"),
		filepath.Join(dir, "data", "catalog.db"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cliEnv{dir: dir, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

const sampleRawMixes = `[
  {
    "raw_title": "Martin Garrix live at Tomorrowland 2019",
    "raw_description": "Full set from the main stage",
    "provider": "youtube",
    "external_id": "abc123",
    "raw_artist": "Martin Garrix",
    "channel_name": "Tomorrowland",
    "tracks": [
      {"line_text": "Martin Garrix - Animals", "timestamp_seconds": 0},
      {"line_text": "Daft Punk ft. Romanthony - One More Time", "timestamp_seconds": 210}
    ]
  },
  {
    "raw_title": "Essential Mix",
    "provider": "soundcloud",
    "external_id": "essential-1"
  }
]`

func writeImportFile(t *testing.T, env cliEnv, content string) string {
	t.Helper()
	path := filepath.Join(env.dir, "mixes.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}
	return path
}

func TestCLIImportListAndStats(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeImportFile(t, env, sampleRawMixes)

	out, _, err := runCLI(t, []string{"import", path}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Staged 2 raw mix(es)")

	out, _, err = runCLI(t, []string{"list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listed []rawMixView
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 raw mixes, got %d", len(listed))
	}
	for _, item := range listed {
		if item.Status != "pending" {
			t.Fatalf("expected pending, got %q", item.Status)
		}
	}

	out, _, err = runCLI(t, []string{"list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	requireContains(t, out, "No raw mixes")

	if _, _, err := runCLI(t, []string{"list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status")
	}

	out, _, err = runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Success rate: 0.0%")
}

func TestCLIImportWarnsOnUnknownProvider(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeImportFile(t, env, `{"raw_title": "Some Mix", "provider": "bandcamp", "external_id": "x"}`)

	out, errOut, err := runCLI(t, []string{"import", path}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Staged 1 raw mix(es)")
	requireContains(t, errOut, "unknown provider")
}

func TestCLIImportRejectsEmptyInput(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeImportFile(t, env, "  \n")
	if _, _, err := runCLI(t, []string{"import", path}, env.configPath); err == nil {
		t.Fatal("expected error for empty import file")
	}
}

func TestCLIRunCanonicalizesAndShowsMix(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeImportFile(t, env, sampleRawMixes)
	if _, _, err := runCLI(t, []string{"import", path}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runner.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Processed != 2 || summary.Created != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	out, _, err = runCLI(t, []string{"mixes", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("mixes: %v", err)
	}
	var mixes []mixView
	if err := json.Unmarshal([]byte(out), &mixes); err != nil {
		t.Fatalf("decode mixes: %v\n%s", err, out)
	}
	var garrix *mixView
	for i := range mixes {
		if mixes[i].ExternalIDs["youtube"] == "yt:abc123" {
			garrix = &mixes[i]
		}
	}
	if garrix == nil {
		t.Fatalf("youtube mix not found in %+v", mixes)
	}

	out, _, err = runCLI(t, []string{"show", fmt.Sprint(garrix.ID), "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var view mixView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode show: %v\n%s", err, out)
	}
	if len(view.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %+v", view.Tracks)
	}
	if view.Tracks[1].StartTime == nil || *view.Tracks[1].StartTime != 210 {
		t.Fatalf("expected second track at 210s, got %+v", view.Tracks[1])
	}
	if len(view.DJs) != 1 || view.DJs[0] != "Martin Garrix" {
		t.Fatalf("expected Martin Garrix as DJ, got %v", view.DJs)
	}
	if view.Verified {
		t.Fatal("backfill run must not verify mixes")
	}

	out, _, err = runCLI(t, []string{"show", fmt.Sprint(garrix.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("show text: %v", err)
	}
	requireContains(t, out, "One More Time")
	requireContains(t, out, "3:30")

	out, _, err = runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "No pending raw mixes")

	out, _, err = runCLI(t, []string{"stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats statsView
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if stats.Queue.SuccessRate != 100 || stats.Catalog.Mixes != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	out, _, err = runCLI(t, []string{"events", "--run", summary.RunID, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	var events []map[string]any
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decode events: %v\n%s", err, out)
	}
	if len(events) == 0 {
		t.Fatal("expected ingestion events for the run")
	}
}

func TestCLIRunRejectsUnknownMode(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--mode", "eager"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	requireContains(t, err.Error(), "invalid --mode")
}

func TestCLIRetryWithNothingFailed(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"retry", "--max-age-hours", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	requireContains(t, out, "Reset 0 failed raw mix(es)")
	requireContains(t, out, "No pending raw mixes")
}

func TestCLIShowMissingMix(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"show", "42"}, env.configPath); err == nil {
		t.Fatal("expected error for missing mix")
	}
	if _, _, err := runCLI(t, []string{"show", "abc"}, env.configPath); err == nil {
		t.Fatal("expected error for invalid id")
	}
}

func TestCLIDetect(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{
		"detect",
		"--title", "Martin Garrix live at Tomorrowland 2019",
	}, env.configPath)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var result contextdetect.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode detect: %v\n%s", err, out)
	}
	if len(result.Contexts) == 0 || result.Contexts[0].Name != "Tomorrowland 2019" {
		t.Fatalf("expected Tomorrowland 2019 first, got %+v", result.Contexts)
	}

	out, _, err = runCLI(t, []string{
		"detect", "--table",
		"--title", "Essential Mix",
		"--description", "Recorded live at Printworks London",
	}, env.configPath)
	if err != nil {
		t.Fatalf("detect --table: %v", err)
	}
	requireContains(t, out, "Essential Mix")
	requireContains(t, out, "Venue: Printworks")

	if _, _, err := runCLI(t, []string{"detect"}, env.configPath); err == nil {
		t.Fatal("expected error without input")
	}
}

func TestCLIConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.dir, "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Mode: backfill")
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "0:00", 65: "1:05", 3725: "1:02:05"}
	for seconds, want := range cases {
		if got := formatClock(seconds); got != want {
			t.Fatalf("formatClock(%d) = %q, want %q", seconds, got, want)
		}
	}
}
