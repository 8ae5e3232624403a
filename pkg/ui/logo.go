package ui

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

//go:embed assets/ascii-logo-80.txt
var assets embed.FS

const defaultLogo = "assets/ascii-logo-80.txt"

// logoFiller wraps every logo line so terminals keep the leading padding
const logoFiller = "\u200b"

// LogoLoader reads the logo once and serves the cached text afterwards
type LogoLoader struct {
	fsys fs.FS
	name string

	once sync.Once
	logo string
	err  error
}

// NewLogoLoader creates a loader for name inside fsys
func NewLogoLoader(fsys fs.FS, name string) *LogoLoader {
	return &LogoLoader{fsys: fsys, name: name}
}

// DefaultLogoLoader loads the logo bundled with the binary
func DefaultLogoLoader() *LogoLoader {
	return NewLogoLoader(assets, defaultLogo)
}

// FileLogoLoader loads the logo from a file on disk
func FileLogoLoader(path string) *LogoLoader {
	return NewLogoLoader(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Load returns the padded logo. Only the first call touches the filesystem;
// errors are cached as well.
func (l *LogoLoader) Load() (string, error) {
	l.once.Do(func() {
		data, err := fs.ReadFile(l.fsys, l.name)
		if err != nil {
			l.err = fmt.Errorf("failed to read logo %s: %w", l.name, err)
			return
		}
		l.logo = padLogo(string(data))
		logrus.Debugf("Loaded logo %s", l.name)
	})
	return l.logo, l.err
}

// padLogo pads every line to the widest one and wraps it in the filler
func padLogo(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(raw, "\n"), "\n")

	width := 0
	for _, line := range lines {
		width = max(width, runewidth.StringWidth(line))
	}

	for i, line := range lines {
		pad := strings.Repeat(" ", width-runewidth.StringWidth(line))
		lines[i] = logoFiller + line + pad + logoFiller
	}
	return strings.Join(lines, "\n")
}
