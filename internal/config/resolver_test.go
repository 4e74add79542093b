package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfig_Precedence_ConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `db_path: ~/.canon/from-config.db
compounds_path: ~/.canon/compounds.yaml
detect:
  window: 150
  auto_merge: true
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CANON_DB", "~/from-env.db")
	t.Setenv("CANON_DETECT_WINDOW", "200")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: cfgPath,
		CLIDBPath:  "~/from-cli.db",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI {
		t.Fatalf("expected DB path source cli, got %s", resolved.DBPath.Source)
	}
	if resolved.DetectWindow.Source != SourceEnv {
		t.Fatalf("expected window source env, got %s", resolved.DetectWindow.Source)
	}
	if w, err := resolved.WindowValue(); err != nil || w != 200 {
		t.Fatalf("window = %d err = %v, want 200", w, err)
	}
	if resolved.CompoundsPath.Source != SourceConfig {
		t.Fatalf("expected compounds from config, got %s", resolved.CompoundsPath.Source)
	}
	if merge, err := resolved.AutoMergeValue(); err != nil || !merge {
		t.Fatalf("auto-merge = %v err = %v, want true", merge, err)
	}
}

func TestResolveConfig_MissingFileIsNotError(t *testing.T) {
	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "no-such.yaml"),
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.DBPath.Value != "" {
		t.Fatalf("unexpected db path %q", resolved.DBPath.Value)
	}
}

func TestResolveConfig_TildeExpansion(t *testing.T) {
	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "no-such.yaml"),
		CLIDBPath:  "~/canon.db",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	home, _ := os.UserHomeDir()
	if resolved.DBPath.Value != filepath.Join(home, "canon.db") {
		t.Fatalf("expected expanded home path, got %q", resolved.DBPath.Value)
	}
}

func TestWindowValue_Invalid(t *testing.T) {
	resolved := ResolvedConfig{
		DetectWindow: ResolvedValue{Value: "many", Source: SourceEnv, From: "CANON_DETECT_WINDOW"},
	}
	if _, err := resolved.WindowValue(); err == nil {
		t.Fatal("expected error for non-numeric window")
	}
}

func TestAutoMergeValue_Invalid(t *testing.T) {
	resolved := ResolvedConfig{
		AutoMerge: ResolvedValue{Value: "maybe", Source: SourceCLI, From: "--auto-merge"},
	}
	if _, err := resolved.AutoMergeValue(); err == nil {
		t.Fatal("expected error for non-boolean auto-merge")
	}
}
