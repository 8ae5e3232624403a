package environment

import (
	"os"
	"path/filepath"
	"strings"
)

// RootLabel is the label of the synthetic root of the environment tree
const RootLabel = "envs"

// Environment is an installed conda prefix. The zero value (no Path) is the
// synthetic root used for tree navigation; it never has packages.
//
// Environment is comparable and used as a cache key by value.
type Environment struct {
	Name string // display name, empty when the prefix is not a named environment
	Path string // absolute prefix path
}

// Root returns the placeholder environment that heads the tree
func Root() Environment {
	return Environment{}
}

// IsRoot reports whether the environment is the path-less placeholder
func (e Environment) IsRoot() bool {
	return e.Path == ""
}

// RPath returns the path with the home directory abbreviated to ~
func (e Environment) RPath() string {
	if e.Path == "" {
		return ""
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return e.Path
	}
	return abbreviateHome(e.Path, homeDir)
}

// Label returns the display label: the name, or the pretty path for unnamed prefixes
func (e Environment) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.RPath()
}

func abbreviateHome(path, homeDir string) string {
	homeDir = filepath.Clean(homeDir)
	if path == homeDir {
		return "~"
	}
	if strings.HasPrefix(path, homeDir+string(filepath.Separator)) {
		return "~" + path[len(homeDir):]
	}
	return path
}
