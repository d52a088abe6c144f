package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	classSource  = "@Preferences\nclass Prefs {\n    var volume = 5\n}\n"
	structSource = "@Preferences\nstruct S {\n    var x = 1\n}\n"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--color", "off"}, args...)
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionJSON(t *testing.T) {
	res := run(t, "", "version", "--format", "json")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(res.stdout), &payload); err != nil {
		t.Fatalf("invalid json %q: %v", res.stdout, err)
	}
	if payload["version"] == "" || payload["version"] == nil {
		t.Fatalf("version missing: %v", payload)
	}
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	if res := run(t, "", "init", dir); res.code != 0 {
		t.Fatalf("first init: exit %d: %s", res.code, res.stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "prefmacro.toml")); err != nil {
		t.Fatal(err)
	}
	res := run(t, "", "init", dir)
	if res.code != 1 || !strings.Contains(res.stderr, "already exists") {
		t.Fatalf("second init: exit %d stderr %q", res.code, res.stderr)
	}
	if res := run(t, "", "init", "--force", dir); res.code != 0 {
		t.Fatalf("forced init: exit %d: %s", res.code, res.stderr)
	}
}

func TestExpandStdin(t *testing.T) {
	res := run(t, classSource, "expand", "-")
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "extension Prefs: Observation.Observable") {
		t.Fatalf("stdout:\n%s", res.stdout)
	}
	if res.stderr != "" {
		t.Fatalf("unexpected stderr %q", res.stderr)
	}
}

func TestExpandStdinReportsErrors(t *testing.T) {
	res := run(t, structSource, "expand", "-")
	if res.code != 1 {
		t.Fatalf("exit %d", res.code)
	}
	if res.stdout != structSource {
		t.Fatalf("rejected input changed:\n%s", res.stdout)
	}
	if !strings.Contains(res.stderr, "error[EXP3001]") || !strings.Contains(res.stderr, "1 error emitted") {
		t.Fatalf("stderr:\n%s", res.stderr)
	}
}

func TestExpandCheckAndWrite(t *testing.T) {
	path := writeSource(t, "Prefs.swift", classSource)

	res := run(t, "", "expand", "--check", path)
	if res.code != 1 || !strings.Contains(res.stdout, "would expand") {
		t.Fatalf("check: exit %d stdout %q", res.code, res.stdout)
	}

	res = run(t, "", "expand", "--write", "--ui", "off", path)
	if res.code != 0 {
		t.Fatalf("write: exit %d: %s", res.code, res.stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "@PreferencesGenerated private var _volume = 5") {
		t.Fatalf("file not expanded:\n%s", data)
	}

	if res := run(t, "", "expand", "--check", path); res.code != 0 {
		t.Fatalf("expanded file still changes: %q", res.stdout)
	}
}

func TestExpandWriteAndCheckExclusive(t *testing.T) {
	path := writeSource(t, "Prefs.swift", classSource)
	res := run(t, "", "expand", "--write", "--check", path)
	if res.code != 1 || !strings.Contains(res.stderr, "none of the others can be") {
		t.Fatalf("exit %d stderr %q", res.code, res.stderr)
	}
}

func TestExpandWithCacheDir(t *testing.T) {
	path := writeSource(t, "Prefs.swift", classSource)
	cacheDir := t.TempDir()
	first := run(t, "", "expand", "--cache-dir", cacheDir, path)
	if first.code != 0 {
		t.Fatalf("exit %d: %s", first.code, first.stderr)
	}
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("cache directory is empty")
	}
	second := run(t, "", "expand", "--cache-dir", cacheDir, path)
	if second.stdout != first.stdout {
		t.Fatalf("cached output differs:\n%s\nvs\n%s", second.stdout, first.stdout)
	}
}

func TestDiagFormats(t *testing.T) {
	path := writeSource(t, "S.swift", structSource)

	res := run(t, "", "diag", "--format", "short", path)
	if res.code != 1 || !strings.Contains(res.stdout, "error EXP3001") {
		t.Fatalf("short: exit %d stdout %q", res.code, res.stdout)
	}

	res = run(t, "", "diag", "--format", "json", "--suggest", path)
	var payload map[string]any
	if err := json.Unmarshal([]byte(res.stdout), &payload); err != nil {
		t.Fatalf("json: %v\n%s", err, res.stdout)
	}
	if !strings.Contains(res.stdout, "Change declaration to a class") {
		t.Fatalf("json lacks fix:\n%s", res.stdout)
	}

	res = run(t, "", "diag", "--format", "sarif", path)
	if !strings.Contains(res.stdout, `"version": "2.1.0"`) || !strings.Contains(res.stdout, `"ruleId": "EXP3001"`) {
		t.Fatalf("sarif:\n%s", res.stdout)
	}

	res = run(t, "", "diag", "--format", "yaml", path)
	if res.code != 1 || !strings.Contains(res.stderr, "unknown format") {
		t.Fatalf("yaml: exit %d stderr %q", res.code, res.stderr)
	}
}

func TestDiagCleanFile(t *testing.T) {
	path := writeSource(t, "Prefs.swift", classSource)
	res := run(t, "", "diag", path)
	if res.code != 0 || res.stdout != "" {
		t.Fatalf("exit %d stdout %q", res.code, res.stdout)
	}
}

func TestFixAppliesClassConversion(t *testing.T) {
	path := writeSource(t, "S.swift", structSource)

	dry := run(t, "", "fix", "--dry-run", path)
	if dry.code != 0 || !strings.Contains(dry.stdout, "Applied 1 fix(es):") {
		t.Fatalf("dry run: exit %d stdout %q stderr %q", dry.code, dry.stdout, dry.stderr)
	}
	if data, _ := os.ReadFile(path); string(data) != structSource {
		t.Fatalf("dry run touched the file:\n%s", data)
	}

	res := run(t, "", "fix", path)
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "class S") {
		t.Fatalf("fix not applied:\n%s", data)
	}

	again := run(t, "", "fix", path)
	if !strings.Contains(again.stdout, "No applicable fixes found.") {
		t.Fatalf("second run: %q", again.stdout)
	}
}

func TestTokenizeAndParse(t *testing.T) {
	path := writeSource(t, "Prefs.swift", classSource)

	res := run(t, "", "tokenize", "--format", "json", path)
	if res.code != 0 {
		t.Fatalf("tokenize: exit %d: %s", res.code, res.stderr)
	}
	var tokens []map[string]any
	if err := json.Unmarshal([]byte(res.stdout), &tokens); err != nil {
		t.Fatalf("tokenize json: %v", err)
	}
	if len(tokens) == 0 {
		t.Fatal("no tokens")
	}

	res = run(t, "", "parse", path)
	if res.code != 0 || !strings.Contains(res.stdout, "TypeDecl: class Prefs") {
		t.Fatalf("parse: exit %d stdout %q", res.code, res.stdout)
	}
}

func TestTimingsGoToStderr(t *testing.T) {
	path := writeSource(t, "Prefs.swift", classSource)
	res := run(t, "", "--timings", "parse", path)
	if res.code != 0 || !strings.Contains(res.stderr, "timings:") {
		t.Fatalf("exit %d stderr %q", res.code, res.stderr)
	}
}

func TestInvalidColor(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"--color", "rainbow", "version"}, nil, &stdout, &stderr)
	if code != 1 || !strings.Contains(stderr.String(), "invalid --color value") {
		t.Fatalf("exit %d stderr %q", code, stderr.String())
	}
}

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	var buf bytes.Buffer
	if shouldUseTUI(uiModeAuto, &buf, 3) {
		t.Error("auto mode enabled the view for a buffer")
	}
	if !shouldUseTUI(uiModeOn, &buf, 1) {
		t.Error("on mode ignored")
	}
}

func TestRingTraceDumpedOnFailure(t *testing.T) {
	res := run(t, structSource, "--trace-level", "detail", "--trace-mode", "ring", "expand", "-")
	if res.code != 1 {
		t.Fatalf("exit %d", res.code)
	}
	if !strings.Contains(res.stderr, "trace: last events before failure:") {
		t.Fatalf("stderr:\n%s", res.stderr)
	}
}

func TestMemProfileFlag(t *testing.T) {
	path := writeSource(t, "Prefs.swift", classSource)
	profile := filepath.Join(t.TempDir(), "mem.pprof")
	if res := run(t, "", "--memprofile", profile, "parse", path); res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if info, err := os.Stat(profile); err != nil || info.Size() == 0 {
		t.Fatalf("heap profile missing: %v", err)
	}
}
