package storage

import (
	"context"
	"net/url"
	"strings"
)

// PyPIChannel is the channel reported for packages installed by pip
const PyPIChannel = "pypi"

// Record represents an installed package, as stored in a prefix's conda-meta
// directory. Fields not needed for browsing are not decoded.
type Record struct {
	Name                string   `json:"name"`
	Version             string   `json:"version"`
	Build               string   `json:"build"`
	BuildNumber         int      `json:"build_number"`
	Channel             string   `json:"channel"`
	Subdir              string   `json:"subdir"`
	Fn                  string   `json:"fn"`
	URL                 string   `json:"url"`
	MD5                 string   `json:"md5"`
	SHA256              string   `json:"sha256"`
	Size                int64    `json:"size"`
	License             string   `json:"license"`
	Timestamp           int64    `json:"timestamp"`
	Depends             []string `json:"depends"`
	ExtractedPackageDir string   `json:"extracted_package_dir"`
	RequestedSpec       string   `json:"requested_spec"`

	// Summary is only known up front for pip-installed packages
	Summary string `json:"-"`
}

// Store defines the interface for reading an environment's installed packages
type Store interface {
	// Records returns every installed package record
	Records(ctx context.Context) ([]*Record, error)
}

// Opener opens the metadata store of the environment rooted at prefix
type Opener func(prefix string) (Store, error)

// IsPip reports whether the record was contributed by pip interop
func (r *Record) IsPip() bool {
	return r.Channel == PyPIChannel
}

// ChannelName returns the short channel name (conda-forge, pkgs/main, pypi)
// from the channel URL stored in the record
func (r *Record) ChannelName() string {
	channel := r.Channel
	if channel == "" {
		channel = strings.TrimSuffix(r.URL, "/"+r.Fn)
	}
	if channel == "" || r.IsPip() {
		return channel
	}

	path := channel
	if strings.Contains(channel, "://") {
		u, err := url.Parse(channel)
		if err != nil {
			return channel
		}
		path = u.Path
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	// token-authenticated channels look like /t/<token>/<name>
	if len(segments) > 2 && segments[0] == "t" {
		segments = segments[2:]
	}
	if n := len(segments); n > 1 && (segments[n-1] == r.Subdir || segments[n-1] == "noarch") {
		segments = segments[:n-1]
	}

	return strings.Join(segments, "/")
}
