package rpmconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.BatchSize)
	}
	if cfg.TmpPrefix != "rpmcore" {
		t.Errorf("TmpPrefix = %q, want %q", cfg.TmpPrefix, "rpmcore")
	}
	if cfg.NoConflicts || cfg.NoFileConflicts || cfg.OldPackage || cfg.ExactArch {
		t.Error("Default() should leave conflict/old-package protections enabled and exact-arch matching off")
	}
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rpmcore.toml")
	contents := `
no_conflicts = true
batch_size = 25
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.NoConflicts {
		t.Error("NoConflicts should be true from file")
	}
	if cfg.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want 25", cfg.BatchSize)
	}
	if cfg.TmpPrefix != "rpmcore" {
		t.Errorf("TmpPrefix = %q, want default %q preserved", cfg.TmpPrefix, "rpmcore")
	}
	if cfg.NoFileConflicts {
		t.Error("NoFileConflicts should remain default false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load of a missing file should return an error")
	}
}
