package environment

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dikkadev/condatui/pkg/config"
	"github.com/sirupsen/logrus"
)

// BaseName is the name conda gives the root prefix
const BaseName = "base"

// Lister enumerates known environments
type Lister interface {
	List() []Environment
}

// Catalog discovers the environments known to a conda installation: the root
// prefix, every prefix registered in environments.txt and every prefix found
// in the envs directories.
type Catalog struct {
	RootPrefix       string
	EnvsDirs         []string
	EnvironmentsFile string
}

// NewCatalog creates a catalog from the configuration
func NewCatalog(cfg *config.Config) *Catalog {
	return &Catalog{
		RootPrefix:       cfg.RootPrefix,
		EnvsDirs:         cfg.EnvsDirs,
		EnvironmentsFile: cfg.EnvironmentsFile,
	}
}

// List returns the discovered environments, the root prefix first and the rest
// ordered by path. It never fails: a missing registry or envs directory simply
// contributes nothing.
func (c *Catalog) List() []Environment {
	seen := make(map[string]bool)
	var prefixes []string

	add := func(prefix, source string) {
		prefix = filepath.Clean(prefix)
		if seen[prefix] {
			return
		}
		if !IsPrefix(prefix) {
			logrus.WithFields(logrus.Fields{"prefix": prefix, "source": source}).Debug("Skipping non-environment directory")
			return
		}
		seen[prefix] = true
		prefixes = append(prefixes, prefix)
	}

	for _, prefix := range c.registered() {
		add(prefix, "registry")
	}
	for _, dir := range c.EnvsDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logrus.WithField("path", dir).Debugf("Envs directory unreadable: %v", err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				add(filepath.Join(dir, entry.Name()), "envs_dirs")
			}
		}
	}
	sort.Strings(prefixes)

	envs := make([]Environment, 0, len(prefixes)+1)
	if c.RootPrefix != "" && IsPrefix(c.RootPrefix) {
		root := filepath.Clean(c.RootPrefix)
		envs = append(envs, Environment{Name: BaseName, Path: root})
	}
	for _, prefix := range prefixes {
		if c.RootPrefix != "" && prefix == filepath.Clean(c.RootPrefix) {
			continue
		}
		envs = append(envs, Environment{Name: c.nameOf(prefix), Path: prefix})
	}

	logrus.WithField("count", len(envs)).Debug("Discovered environments")
	return envs
}

// registered reads the environments.txt registry, one prefix per line
func (c *Catalog) registered() []string {
	if c.EnvironmentsFile == "" {
		return nil
	}

	f, err := os.Open(c.EnvironmentsFile)
	if err != nil {
		logrus.WithField("path", c.EnvironmentsFile).Debugf("Environment registry unreadable: %v", err)
		return nil
	}
	defer f.Close()

	var prefixes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefixes = append(prefixes, line)
	}
	if err := scanner.Err(); err != nil {
		logrus.WithField("path", c.EnvironmentsFile).Warnf("Failed to read environment registry: %v", err)
	}

	return prefixes
}

// nameOf names prefixes that live directly inside an envs directory
func (c *Catalog) nameOf(prefix string) string {
	parent := filepath.Dir(prefix)
	for _, dir := range c.EnvsDirs {
		if filepath.Clean(dir) == parent {
			return filepath.Base(prefix)
		}
	}
	return ""
}

// IsPrefix reports whether dir looks like a conda environment
func IsPrefix(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "conda-meta"))
	return err == nil && info.IsDir()
}
