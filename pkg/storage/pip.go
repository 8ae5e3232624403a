package storage

import (
	"bytes"
	"context"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const pipBuild = "pypi_0"

// pipRecords returns records for python distributions installed by something
// other than conda. Distributions whose name matches a conda record, or whose
// INSTALLER is conda, are left out.
func pipRecords(ctx context.Context, prefix string, conda []*Record) ([]*Record, error) {
	known := make(map[string]bool, len(conda))
	for _, rec := range conda {
		known[normalizeName(rec.Name)] = true
	}

	var records []*Record
	for _, site := range sitePackagesDirs(prefix) {
		entries, err := os.ReadDir(site)
		if err != nil {
			logrus.WithField("path", site).Debugf("site-packages unreadable: %v", err)
			continue
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			rec := readDistribution(filepath.Join(site, entry.Name()), entry.IsDir())
			if rec == nil {
				continue
			}
			key := normalizeName(rec.Name)
			if known[key] {
				continue
			}
			known[key] = true
			records = append(records, rec)
		}
	}

	return records, nil
}

// sitePackagesDirs lists the site-packages directories of a prefix
func sitePackagesDirs(prefix string) []string {
	dirs, _ := filepath.Glob(filepath.Join(prefix, "lib", "python*", "site-packages"))
	win := filepath.Join(prefix, "Lib", "site-packages")
	if info, err := os.Stat(win); err == nil && info.IsDir() {
		dirs = append(dirs, win)
	}
	return dirs
}

// readDistribution reads a .dist-info directory or an .egg-info file/directory.
// It returns nil for anything else.
func readDistribution(path string, isDir bool) *Record {
	var metadata string
	switch {
	case isDir && strings.HasSuffix(path, ".dist-info"):
		metadata = filepath.Join(path, "METADATA")
	case isDir && strings.HasSuffix(path, ".egg-info"):
		metadata = filepath.Join(path, "PKG-INFO")
	case !isDir && strings.HasSuffix(path, ".egg-info"):
		metadata = path
	default:
		return nil
	}

	if isDir {
		if installer, err := os.ReadFile(filepath.Join(path, "INSTALLER")); err == nil {
			if strings.TrimSpace(string(installer)) == "conda" {
				return nil
			}
		}
	}

	data, err := os.ReadFile(metadata)
	if err != nil {
		logrus.WithField("path", metadata).Debugf("Skipping distribution: %v", err)
		return nil
	}

	return parseMetadata(data)
}

// parseMetadata decodes the RFC 822 style header block of a core metadata file
func parseMetadata(data []byte) *Record {
	// Some writers omit the blank line ending the headers
	if !bytes.Contains(data, []byte("\n\n")) {
		data = append(append([]byte{}, data...), '\n', '\n')
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	name := strings.TrimSpace(msg.Header.Get("Name"))
	if name == "" {
		return nil
	}

	return &Record{
		Name:    name,
		Version: strings.TrimSpace(msg.Header.Get("Version")),
		Build:   pipBuild,
		Channel: PyPIChannel,
		Subdir:  PyPIChannel,
		License: strings.TrimSpace(msg.Header.Get("License")),
		Summary: strings.TrimSpace(msg.Header.Get("Summary")),
	}
}

// normalizeName applies PEP 503 style normalization so that conda and pip
// spellings of a name compare equal
func normalizeName(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer("_", "-", ".", "-").Replace(name)
}
