package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func names(records []*Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Name)
	}
	sort.Strings(out)
	return out
}

func TestOpenErrors(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "file-meta", "conda-meta"), "")

	tests := []struct {
		name   string
		prefix string
	}{
		{"missing prefix", filepath.Join(tmpDir, "missing")},
		{"no conda-meta", tmpDir},
		{"conda-meta is a file", filepath.Join(tmpDir, "file-meta")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.prefix, Options{})
			if err == nil {
				t.Fatal("Open() succeeded, want error")
			}
			if !errors.Is(err, ErrUnreadableEnvironment) {
				t.Errorf("Open() error = %v, want ErrUnreadableEnvironment", err)
			}
			var prefixErr *PrefixError
			if !errors.As(err, &prefixErr) || prefixErr.Prefix != tt.prefix {
				t.Errorf("Open() error = %#v, want *PrefixError for %s", err, tt.prefix)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	prefix := t.TempDir()
	meta := filepath.Join(prefix, "conda-meta")
	writeFile(t, filepath.Join(meta, "numpy-1.26.4-py312h1_0.json"), `{
		"name": "numpy",
		"version": "1.26.4",
		"build": "py312h1_0",
		"build_number": 0,
		"channel": "https://conda.anaconda.org/conda-forge/linux-64",
		"subdir": "linux-64",
		"fn": "numpy-1.26.4-py312h1_0.conda",
		"size": 7000000,
		"license": "BSD-3-Clause",
		"depends": ["python >=3.12"],
		"extracted_package_dir": "/opt/conda/pkgs/numpy-1.26.4-py312h1_0",
		"files": ["lib/python3.12/site-packages/numpy/__init__.py"]
	}`)
	writeFile(t, filepath.Join(meta, "python-3.12.1-h0_0.json"), `{"name": "python", "version": "3.12.1", "build": "h0_0"}`)
	writeFile(t, filepath.Join(meta, "history"), "==> 2024-01-01 <==\n")
	writeFile(t, filepath.Join(meta, "broken.json"), `{"name": `)
	writeFile(t, filepath.Join(meta, "nameless.json"), `{"version": "1.0"}`)

	store, err := Open(prefix, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if store.Prefix() != prefix {
		t.Errorf("Prefix() = %s, want %s", store.Prefix(), prefix)
	}

	records, err := store.Records(context.Background())
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}

	if got := names(records); len(got) != 2 || got[0] != "numpy" || got[1] != "python" {
		t.Fatalf("Records() names = %v, want [numpy python]", got)
	}

	for _, rec := range records {
		if rec.Name != "numpy" {
			continue
		}
		if rec.Version != "1.26.4" || rec.Build != "py312h1_0" || rec.Size != 7000000 {
			t.Errorf("numpy record decoded wrong: %+v", rec)
		}
		if rec.ExtractedPackageDir != "/opt/conda/pkgs/numpy-1.26.4-py312h1_0" {
			t.Errorf("ExtractedPackageDir = %s", rec.ExtractedPackageDir)
		}
		if rec.ChannelName() != "conda-forge" {
			t.Errorf("ChannelName() = %s, want conda-forge", rec.ChannelName())
		}
	}
}

func TestRecordsCancelled(t *testing.T) {
	prefix := t.TempDir()
	writeFile(t, filepath.Join(prefix, "conda-meta", "a-1-0.json"), `{"name": "a"}`)

	store, err := Open(prefix, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Records(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Records() error = %v, want context.Canceled", err)
	}
}

func TestRecordsPrefixRemoved(t *testing.T) {
	prefix := t.TempDir()
	writeFile(t, filepath.Join(prefix, "conda-meta", "a-1-0.json"), `{"name": "a"}`)

	store, err := Open(prefix, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := os.RemoveAll(filepath.Join(prefix, "conda-meta")); err != nil {
		t.Fatalf("Failed to remove conda-meta: %v", err)
	}

	if _, err := store.Records(context.Background()); !errors.Is(err, ErrUnreadableEnvironment) {
		t.Errorf("Records() error = %v, want ErrUnreadableEnvironment", err)
	}
}

func TestPipInterop(t *testing.T) {
	prefix := t.TempDir()
	writeFile(t, filepath.Join(prefix, "conda-meta", "requests-2.31.0-pyhd8ed1ab_0.json"),
		`{"name": "requests", "version": "2.31.0", "channel": "https://conda.anaconda.org/conda-forge/noarch", "subdir": "noarch"}`)

	site := filepath.Join(prefix, "lib", "python3.12", "site-packages")
	// pip-installed wheel
	writeFile(t, filepath.Join(site, "rich_click-1.7.3.dist-info", "METADATA"),
		"Metadata-Version: 2.1\nName: rich-click\nVersion: 1.7.3\nSummary: Format click help output nicely with rich.\nLicense: MIT\n\nLong description\n")
	writeFile(t, filepath.Join(site, "rich_click-1.7.3.dist-info", "INSTALLER"), "pip\n")
	// dist-info that belongs to the conda package
	writeFile(t, filepath.Join(site, "requests-2.31.0.dist-info", "METADATA"), "Name: requests\nVersion: 2.31.0\n\n")
	// conda-installed distribution without a matching record name
	writeFile(t, filepath.Join(site, "PyYAML-6.0.dist-info", "METADATA"), "Name: PyYAML\nVersion: 6.0\n\n")
	writeFile(t, filepath.Join(site, "PyYAML-6.0.dist-info", "INSTALLER"), "conda\n")
	// legacy egg-info file without a trailing blank line
	writeFile(t, filepath.Join(site, "six-1.16.0-py3.12.egg-info"), "Metadata-Version: 1.0\nName: six\nVersion: 1.16.0")
	// noise
	writeFile(t, filepath.Join(site, "numpy", "__init__.py"), "")
	writeFile(t, filepath.Join(site, "broken.dist-info", "RECORD"), "")

	t.Run("disabled", func(t *testing.T) {
		store, err := Open(prefix, Options{PipInterop: false})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		records, err := store.Records(context.Background())
		if err != nil {
			t.Fatalf("Records() error = %v", err)
		}
		if got := names(records); len(got) != 1 || got[0] != "requests" {
			t.Errorf("Records() names = %v, want [requests]", got)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		store, err := NewOpener(Options{PipInterop: true})(prefix)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		records, err := store.Records(context.Background())
		if err != nil {
			t.Fatalf("Records() error = %v", err)
		}

		got := names(records)
		want := []string{"requests", "rich-click", "six"}
		if len(got) != len(want) {
			t.Fatalf("Records() names = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Records() names = %v, want %v", got, want)
			}
		}

		for _, rec := range records {
			switch rec.Name {
			case "rich-click":
				if !rec.IsPip() || rec.Build != "pypi_0" || rec.Version != "1.7.3" {
					t.Errorf("pip record decoded wrong: %+v", rec)
				}
				if rec.Summary != "Format click help output nicely with rich." || rec.License != "MIT" {
					t.Errorf("pip metadata decoded wrong: %+v", rec)
				}
				if rec.ChannelName() != "pypi" {
					t.Errorf("ChannelName() = %s, want pypi", rec.ChannelName())
				}
			case "requests":
				if rec.IsPip() {
					t.Error("conda record reported as pip")
				}
			}
		}
	})
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name:   "conda-forge url",
			record: Record{Channel: "https://conda.anaconda.org/conda-forge/linux-64", Subdir: "linux-64"},
			want:   "conda-forge",
		},
		{
			name:   "noarch url",
			record: Record{Channel: "https://conda.anaconda.org/conda-forge/noarch", Subdir: "noarch"},
			want:   "conda-forge",
		},
		{
			name:   "defaults",
			record: Record{Channel: "https://repo.anaconda.com/pkgs/main/osx-arm64", Subdir: "osx-arm64"},
			want:   "pkgs/main",
		},
		{
			name:   "token",
			record: Record{Channel: "https://conda.anaconda.org/t/secret-token/private/linux-64", Subdir: "linux-64"},
			want:   "private",
		},
		{
			name:   "short name",
			record: Record{Channel: "bioconda"},
			want:   "bioconda",
		},
		{
			name:   "from url",
			record: Record{URL: "https://conda.anaconda.org/conda-forge/linux-64/zlib-1.3-h0.conda", Fn: "zlib-1.3-h0.conda", Subdir: "linux-64"},
			want:   "conda-forge",
		},
		{
			name:   "pypi",
			record: Record{Channel: PyPIChannel},
			want:   "pypi",
		},
		{
			name:   "unknown",
			record: Record{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.ChannelName(); got != tt.want {
				t.Errorf("ChannelName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PyYAML", "pyyaml"},
		{"rich_click", "rich-click"},
		{"zope.interface", "zope-interface"},
		{"typing-extensions", "typing-extensions"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalizeName(tt.in); got != tt.want {
				t.Errorf("normalizeName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
