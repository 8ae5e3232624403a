package packages

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dikkadev/condatui/pkg/storage"
	"github.com/sirupsen/logrus"
)

const (
	// UpdateGlyph marks a package with a newer version available
	UpdateGlyph = "↑"
	// CurrentGlyph marks an up to date package
	CurrentGlyph = "✔"
)

var (
	updateStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DB6015"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#43b049"))

	statusIcons = sync.OnceValue(func() [2]string {
		return [2]string{
			currentStyle.Render(CurrentGlyph),
			updateStyle.Render(UpdateGlyph),
		}
	})
)

// StatusIcon returns the styled glyph for the update state
func StatusIcon(updateAvailable bool) string {
	icons := statusIcons()
	if updateAvailable {
		return icons[1]
	}
	return icons[0]
}

// Package is the view-model of an installed package record
type Package struct {
	record          *storage.Record
	updateAvailable bool

	descriptionOnce sync.Once
	description     string
}

// New wraps a record
func New(record *storage.Record) *Package {
	return &Package{record: record}
}

// Record returns the wrapped record
func (p *Package) Record() *storage.Record { return p.record }

func (p *Package) Name() string    { return p.record.Name }
func (p *Package) Version() string { return p.record.Version }
func (p *Package) Build() string   { return p.record.Build }
func (p *Package) Channel() string { return p.record.ChannelName() }
func (p *Package) Subdir() string  { return p.record.Subdir }
func (p *Package) Size() int64     { return p.record.Size }
func (p *Package) License() string { return p.record.License }

// UpdateAvailable reports whether a newer version is known
func (p *Package) UpdateAvailable() bool {
	return p.updateAvailable
}

// SetUpdateAvailable overrides the update flag
func (p *Package) SetUpdateAvailable(v bool) {
	p.updateAvailable = v
}

// Status returns the update glyph followed by the version
func (p *Package) Status() string {
	return StatusIcon(p.updateAvailable) + " " + p.record.Version
}

// Description returns the package summary from info/about.json in the
// extracted package directory. It is read at most once and is empty when
// the file is missing or unreadable.
func (p *Package) Description() string {
	p.descriptionOnce.Do(func() {
		p.description = p.loadDescription()
	})
	return p.description
}

type about struct {
	Summary string `json:"summary"`
}

func (p *Package) loadDescription() string {
	if p.record.ExtractedPackageDir == "" {
		return p.record.Summary
	}

	path := filepath.Join(p.record.ExtractedPackageDir, "info", "about.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithField("path", path).Debugf("Failed to read package description: %v", err)
		}
		return p.record.Summary
	}

	var info about
	if err := json.Unmarshal(data, &info); err != nil {
		logrus.WithField("path", path).Debugf("Failed to decode package description: %v", err)
		return p.record.Summary
	}

	return info.Summary
}
