// Package config resolves runtime settings from three layers: the yaml
// config file, CANON_* environment variables, and CLI flags, in rising
// precedence. Every resolved value carries its source so `canon config`
// style output can show where a setting came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-flag layer into resolution.
type ResolveOptions struct {
	ConfigPath   string
	CLIDBPath    string
	CLICompounds string
	CLISeeds     string
	CLIDir       string
	CLIWindow    string
	CLIAutoMerge string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath        ResolvedValue `json:"db_path"`
	CompoundsPath ResolvedValue `json:"compounds_path"`
	SeedsPath     ResolvedValue `json:"alias_seeds_path"`
	RankingsDir   ResolvedValue `json:"rankings_dir"`

	DetectWindow ResolvedValue `json:"detect_window"`
	AutoMerge    ResolvedValue `json:"auto_merge"`
}

type fileConfig struct {
	DBPath         string `yaml:"db_path"`
	CompoundsPath  string `yaml:"compounds_path"`
	AliasSeedsPath string `yaml:"alias_seeds_path"`
	RankingsDir    string `yaml:"rankings_dir"`
	Detect         struct {
		Window    *int  `yaml:"window"`
		AutoMerge *bool `yaml:"auto_merge"`
	} `yaml:"detect"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".canon", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.CompoundsPath, cfg.CompoundsPath, SourceConfig, path)
		apply(&out.SeedsPath, cfg.AliasSeedsPath, SourceConfig, path)
		apply(&out.RankingsDir, cfg.RankingsDir, SourceConfig, path)
		if cfg.Detect.Window != nil {
			apply(&out.DetectWindow, strconv.Itoa(*cfg.Detect.Window), SourceConfig, path)
		}
		if cfg.Detect.AutoMerge != nil {
			apply(&out.AutoMerge, strconv.FormatBool(*cfg.Detect.AutoMerge), SourceConfig, path)
		}
	}

	applyEnv(&out.DBPath, "CANON_DB")
	applyEnv(&out.DBPath, "CANON_DB_PATH")
	applyEnv(&out.CompoundsPath, "CANON_COMPOUNDS")
	applyEnv(&out.SeedsPath, "CANON_ALIAS_SEEDS")
	applyEnv(&out.RankingsDir, "CANON_RANKINGS_DIR")
	applyEnv(&out.DetectWindow, "CANON_DETECT_WINDOW")
	applyEnv(&out.AutoMerge, "CANON_AUTO_MERGE")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.CompoundsPath, opts.CLICompounds, SourceCLI, "--compounds")
	apply(&out.SeedsPath, opts.CLISeeds, SourceCLI, "--seeds")
	apply(&out.RankingsDir, opts.CLIDir, SourceCLI, "--dir")
	apply(&out.DetectWindow, opts.CLIWindow, SourceCLI, "--window")
	apply(&out.AutoMerge, opts.CLIAutoMerge, SourceCLI, "--auto-merge")

	for _, v := range []*ResolvedValue{&out.DBPath, &out.CompoundsPath, &out.SeedsPath, &out.RankingsDir} {
		if v.Value != "" {
			v.Value = expandUserPath(v.Value)
		}
	}

	return out, nil
}

// WindowValue parses the detection window; 0 means "library default".
func (r ResolvedConfig) WindowValue() (int, error) {
	v := strings.TrimSpace(r.DetectWindow.Value)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid detect window %q (from %s)", v, r.DetectWindow.From)
	}
	return n, nil
}

// AutoMergeValue parses the auto-merge toggle; unset means false.
func (r ResolvedConfig) AutoMergeValue() (bool, error) {
	v := strings.TrimSpace(r.AutoMerge.Value)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid auto-merge value %q (from %s)", v, r.AutoMerge.From)
	}
	return b, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
