package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"prefmacro/internal/config"
	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

func TestUnknownConfigKeysAreReported(t *testing.T) {
	dir := t.TempDir()
	toml := "[expansion]\nplaceholder = \"<#value#>\"\nbogus_key = 1\n"
	cfgPath := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(cfgPath, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "A.swift"), []byte("var a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Expand.Placeholder != "<#value#>" {
		t.Fatalf("placeholder = %q", cfg.Expand.Placeholder)
	}

	res, err := Expand(context.Background(), []string{dir}, Options{Config: &cfg})
	if err != nil {
		t.Fatal(err)
	}
	items := res.Project.Items()
	if len(items) != 1 || items[0].Code != diag.ProjConfigUnknown || items[0].Severity != diag.SevWarning {
		t.Fatalf("project diagnostics = %+v", items)
	}
	if got := res.FileSet.Slice(items[0].Primary); got != "bogus_key" {
		t.Fatalf("span covers %q", got)
	}
	if res.HasErrors() {
		t.Fatal("unknown keys are warnings")
	}
	if len(res.Diagnostics()) != 1 {
		t.Fatalf("diagnostics = %d", len(res.Diagnostics()))
	}

	strict, err := Expand(context.Background(), []string{dir}, Options{Config: &cfg, WarningsAsErrors: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strict.HasErrors() {
		t.Fatal("warnings-as-errors must apply to configuration diagnostics")
	}
}

func TestKeySpan(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(config.FileName, []byte("# bogus here\n[x]\nnot_bogus = 1\n  bogus= 2\n")))
	tests := []struct {
		key  string
		want string
	}{
		{"x.bogus", "bogus"},
		{"x.not_bogus", "not_bogus"},
		{"x.missing", ""},
	}
	for _, tt := range tests {
		sp := keySpan(file, tt.key)
		if got := fs.Slice(sp); got != tt.want {
			t.Errorf("keySpan(%q) covers %q, want %q", tt.key, got, tt.want)
		}
	}
}
