package ui

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFS counts every file opened through it
type countingFS struct {
	fsys  fstest.MapFS
	opens int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens++
	return c.fsys.Open(name)
}

func TestPadLogo(t *testing.T) {
	got := padLogo("ab\nabcd\r\n\na\n")
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)

	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, logoFiller), "line %q", line)
		assert.True(t, strings.HasSuffix(line, logoFiller), "line %q", line)
		assert.Equal(t, 4, runewidth.StringWidth(line), "line %q", line)
	}
	assert.Equal(t, logoFiller+"ab  "+logoFiller, lines[0])
	assert.Equal(t, logoFiller+"    "+logoFiller, lines[2])
}

func TestLogoLoaderCaches(t *testing.T) {
	fsys := &countingFS{fsys: fstest.MapFS{
		"logo.txt": {Data: []byte(" /\\\n/__\\\n")},
	}}
	loader := NewLogoLoader(fsys, "logo.txt")

	first, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, fsys.opens)

	second, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fsys.opens, "second load is served from the cache")
}

func TestLogoLoaderMissing(t *testing.T) {
	fsys := &countingFS{fsys: fstest.MapFS{}}
	loader := NewLogoLoader(fsys, "missing.txt")

	_, err := loader.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = loader.Load()
	require.Error(t, err)
	assert.Equal(t, 1, fsys.opens)
}

func TestDefaultLogo(t *testing.T) {
	logo, err := DefaultLogoLoader().Load()
	require.NoError(t, err)

	lines := strings.Split(logo, "\n")
	require.NotEmpty(t, lines)
	width := runewidth.StringWidth(lines[0])
	for _, line := range lines {
		assert.Equal(t, width, runewidth.StringWidth(line))
	}
}

func TestFileLogoLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom\n"), 0644))

	logo, err := FileLogoLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, logoFiller+"custom"+logoFiller, logo)
}
