package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the condatui configuration
type Config struct {
	// Root prefix of the conda installation (the base environment)
	RootPrefix string `yaml:"root_prefix"`
	// Directories that hold named environments
	EnvsDirs []string `yaml:"envs_dirs"`
	// Package cache directories, searched for cached channel repodata
	PkgsDirs []string `yaml:"pkgs_dirs"`
	// Registry of environments created outside the envs directories
	EnvironmentsFile string `yaml:"environments_file"`
	// Merge pip-installed packages into the package listing
	PipInterop bool `yaml:"pip_interop"`
	// Flag packages with a newer version in the cached repodata
	CheckUpdates bool `yaml:"check_updates"`
	// Log destination; the terminal belongs to the UI
	LogFile string `yaml:"log_file"`
	// logrus level name (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
	// Alternative logo asset (optional)
	LogoPath string `yaml:"logo_path,omitempty"`
}

// condarc holds the subset of conda's own configuration we honor
type condarc struct {
	EnvsDirs []string `yaml:"envs_dirs"`
	PkgsDirs []string `yaml:"pkgs_dirs"`
}

// rootCandidates are common install locations, relative to the home directory
// unless absolute
var rootCandidates = []string{
	"miniforge3",
	"mambaforge",
	"miniconda3",
	"anaconda3",
	"micromamba",
	"/opt/conda",
	"/opt/miniconda3",
	"/opt/anaconda3",
}

// DefaultConfig returns the default configuration, discovered from the host
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	root := detectRootPrefix(homeDir)
	rc := readCondarc(homeDir, root)

	cfg := &Config{
		RootPrefix:       root,
		EnvironmentsFile: filepath.Join(homeDir, ".conda", "environments.txt"),
		PipInterop:       true,
		CheckUpdates:     true,
		LogFile:          "condatui.log",
		LogLevel:         "info",
	}

	cfg.EnvsDirs = append(cfg.EnvsDirs, rc.EnvsDirs...)
	cfg.PkgsDirs = append(cfg.PkgsDirs, rc.PkgsDirs...)
	if root != "" {
		cfg.EnvsDirs = append(cfg.EnvsDirs, filepath.Join(root, "envs"))
		cfg.PkgsDirs = append(cfg.PkgsDirs, filepath.Join(root, "pkgs"))
	}
	cfg.EnvsDirs = append(cfg.EnvsDirs, filepath.Join(homeDir, ".conda", "envs"))
	cfg.PkgsDirs = append(cfg.PkgsDirs, filepath.Join(homeDir, ".conda", "pkgs"))

	cfg.expandPaths(homeDir)
	return cfg
}

// DefaultPath returns the location of the configuration file
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "condatui", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "condatui", "config.yaml"), nil
}

// Load loads the configuration from path, layered over the defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	cfg.expandPaths(homeDir)

	return cfg, nil
}

// Save saves the configuration to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// RepodataCacheDirs returns the directories holding cached channel repodata
func (c *Config) RepodataCacheDirs() []string {
	dirs := make([]string, 0, len(c.PkgsDirs))
	for _, dir := range c.PkgsDirs {
		dirs = append(dirs, filepath.Join(dir, "cache"))
	}
	return dirs
}

func (c *Config) expandPaths(homeDir string) {
	c.RootPrefix = expandUser(c.RootPrefix, homeDir)
	c.EnvironmentsFile = expandUser(c.EnvironmentsFile, homeDir)
	c.LogFile = expandUser(c.LogFile, homeDir)
	c.LogoPath = expandUser(c.LogoPath, homeDir)
	c.EnvsDirs = dedupe(c.EnvsDirs, homeDir)
	c.PkgsDirs = dedupe(c.PkgsDirs, homeDir)
}

// detectRootPrefix finds the base environment of the conda installation
func detectRootPrefix(homeDir string) string {
	for _, env := range []string{"CONDA_ROOT", "MAMBA_ROOT_PREFIX"} {
		if dir := os.Getenv(env); dir != "" {
			return expandUser(dir, homeDir)
		}
	}

	// CONDA_EXE is <root>/bin/conda, <root>/condabin/conda or <root>\Scripts\conda.exe
	if exe := os.Getenv("CONDA_EXE"); exe != "" {
		return filepath.Dir(filepath.Dir(exe))
	}

	for _, candidate := range rootCandidates {
		dir := candidate
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(homeDir, dir)
		}
		if isDir(filepath.Join(dir, "conda-meta")) {
			return dir
		}
	}

	return ""
}

// readCondarc merges envs_dirs and pkgs_dirs from the condarc files conda
// itself reads; unreadable files are ignored
func readCondarc(homeDir, root string) condarc {
	paths := []string{}
	if root != "" {
		paths = append(paths, filepath.Join(root, ".condarc"))
	}
	paths = append(paths,
		filepath.Join(homeDir, ".config", "conda", ".condarc"),
		filepath.Join(homeDir, ".conda", ".condarc"),
		filepath.Join(homeDir, ".condarc"),
	)
	if env := os.Getenv("CONDARC"); env != "" {
		paths = append(paths, env)
	}

	var merged condarc
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var rc condarc
		if err := yaml.Unmarshal(data, &rc); err != nil {
			continue
		}
		merged.EnvsDirs = append(merged.EnvsDirs, rc.EnvsDirs...)
		merged.PkgsDirs = append(merged.PkgsDirs, rc.PkgsDirs...)
	}

	return merged
}

// expandUser expands a leading ~ to the home directory
func expandUser(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

func dedupe(paths []string, homeDir string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(expandUser(p, homeDir))
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
