package update

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dikkadev/condatui/pkg/packages"
	"github.com/dikkadev/condatui/pkg/platform"
	"github.com/dikkadev/condatui/pkg/storage"
	"github.com/sirupsen/logrus"
)

// repodata is the subset of a cached channel index we need
type repodata struct {
	URL  string `json:"_url"`
	Info struct {
		Subdir string `json:"subdir"`
	} `json:"info"`
	Packages      map[string]repodataEntry `json:"packages"`
	PackagesConda map[string]repodataEntry `json:"packages.conda"`
}

type repodataEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Subdir  string `json:"subdir"`
}

// repodataInfo is the sidecar newer conda versions write next to the cache file
type repodataInfo struct {
	URL string `json:"url"`
}

type indexKey struct {
	channel string
	name    string
}

// RepodataIndex answers update checks from the channel repodata conda keeps
// in <pkgs_dir>/cache. It never touches the network, so its answers are only
// as fresh as the last conda command that refreshed the cache.
type RepodataIndex struct {
	dirs     []string
	platform platform.Platform

	mu     sync.Mutex
	loaded bool
	latest map[indexKey]Version
}

// NewRepodataIndex creates an index over the given cache directories. The
// files are read on the first check that runs to completion.
func NewRepodataIndex(dirs []string, p platform.Platform) *RepodataIndex {
	return &RepodataIndex{dirs: dirs, platform: p}
}

// CheckForUpdate implements packages.UpdateChecker
func (r *RepodataIndex) CheckForUpdate(ctx context.Context, pkg *packages.Package) bool {
	if pkg.Record().IsPip() {
		return false
	}

	latest, ok := r.Latest(ctx, pkg.Channel(), pkg.Name())
	if !ok {
		return false
	}
	return latest.IsNewerThan(ParseVersion(pkg.Version()))
}

// Latest returns the newest version of name known for channel
func (r *RepodataIndex) Latest(ctx context.Context, channel, name string) (Version, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		r.loaded = r.load(ctx)
	}
	v, ok := r.latest[indexKey{channel: channel, name: name}]
	return v, ok
}

// load rebuilds the index and reports whether every cache file was scanned.
// A cancelled scan leaves the index to be rebuilt by the next check.
func (r *RepodataIndex) load(ctx context.Context) bool {
	r.latest = make(map[indexKey]Version)

	for _, dir := range r.dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			continue
		}

		for _, file := range files {
			if ctx.Err() != nil {
				logrus.Debug("Repodata scan cancelled")
				return false
			}
			if strings.HasSuffix(file, ".info.json") || strings.HasSuffix(file, ".state.json") {
				continue
			}
			r.loadFile(file)
		}
	}

	logrus.WithField("entries", len(r.latest)).Debug("Built repodata index")
	return true
}

func (r *RepodataIndex) loadFile(file string) {
	log := logrus.WithField("path", file)

	data, err := os.ReadFile(file)
	if err != nil {
		log.Debugf("Skipping repodata cache: %v", err)
		return
	}

	var rd repodata
	if err := json.Unmarshal(data, &rd); err != nil {
		log.Debugf("Skipping repodata cache: %v", err)
		return
	}

	url := rd.URL
	if url == "" {
		url = readInfoURL(strings.TrimSuffix(file, ".json") + ".info.json")
	}
	if url == "" {
		log.Debug("Skipping repodata cache without channel url")
		return
	}
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, "/repodata.json")

	subdir := rd.Info.Subdir
	if subdir == "" {
		subdir = path.Base(url)
	}
	if !r.platform.Accepts(subdir) {
		return
	}

	channel := (&storage.Record{Channel: url, Subdir: subdir}).ChannelName()
	for _, entries := range []map[string]repodataEntry{rd.Packages, rd.PackagesConda} {
		for _, entry := range entries {
			if entry.Name == "" || entry.Version == "" {
				continue
			}
			key := indexKey{channel: channel, name: entry.Name}
			v := ParseVersion(entry.Version)
			if cur, ok := r.latest[key]; !ok || v.IsNewerThan(cur) {
				r.latest[key] = v
			}
		}
	}
}

func readInfoURL(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		return ""
	}
	var info repodataInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ""
	}
	return info.URL
}
