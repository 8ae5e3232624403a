package platform

import (
	"testing"
)

func TestPlatformString(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		want     string
	}{
		{
			name:     "linux-amd64",
			platform: Platform{OS: "linux", Arch: "amd64"},
			want:     "linux-amd64",
		},
		{
			name:     "darwin-arm64",
			platform: Platform{OS: "darwin", Arch: "arm64"},
			want:     "darwin-arm64",
		},
		{
			name:     "windows-386",
			platform: Platform{OS: "windows", Arch: "386"},
			want:     "windows-386",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.platform.String(); got != tt.want {
				t.Errorf("Platform.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubdir(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		want     string
	}{
		{"linux amd64", Platform{OS: "linux", Arch: "amd64"}, "linux-64"},
		{"linux arm64", Platform{OS: "linux", Arch: "arm64"}, "linux-aarch64"},
		{"linux ppc64le", Platform{OS: "linux", Arch: "ppc64le"}, "linux-ppc64le"},
		{"linux 386", Platform{OS: "linux", Arch: "386"}, "linux-32"},
		{"linux arm", Platform{OS: "linux", Arch: "arm"}, "linux-armv7l"},
		{"darwin amd64", Platform{OS: "darwin", Arch: "amd64"}, "osx-64"},
		{"darwin arm64", Platform{OS: "darwin", Arch: "arm64"}, "osx-arm64"},
		{"windows amd64", Platform{OS: "windows", Arch: "amd64"}, "win-64"},
		{"windows 386", Platform{OS: "windows", Arch: "386"}, "win-32"},
		{"windows arm64", Platform{OS: "windows", Arch: "arm64"}, "win-arm64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.platform.Subdir(); got != tt.want {
				t.Errorf("Platform.Subdir() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccepts(t *testing.T) {
	p := Platform{OS: "linux", Arch: "amd64"}

	tests := []struct {
		subdir string
		want   bool
	}{
		{"linux-64", true},
		{"noarch", true},
		{"osx-64", false},
		{"linux-aarch64", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.subdir, func(t *testing.T) {
			if got := p.Accepts(tt.subdir); got != tt.want {
				t.Errorf("Accepts(%q) = %v, want %v", tt.subdir, got, tt.want)
			}
		})
	}
}

func TestCurrentIsNormalized(t *testing.T) {
	p := Current()
	if p.OS == "" || p.Arch == "" {
		t.Fatalf("Current() = %+v, want both fields set", p)
	}
	if got := normalizeArch(p.Arch); got != p.Arch {
		t.Errorf("Current().Arch = %v is not normalized (%v)", p.Arch, got)
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name string
		arch string
		want string
	}{
		{"amd64 as is", "amd64", "amd64"},
		{"x86_64 to amd64", "x86_64", "amd64"},
		{"386 as is", "386", "386"},
		{"x86 to 386", "x86", "386"},
		{"arm64 as is", "arm64", "arm64"},
		{"aarch64 to arm64", "aarch64", "arm64"},
		{"arm as is", "arm", "arm"},
		{"unknown as is", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeArch(tt.arch); got != tt.want {
				t.Errorf("normalizeArch() = %v, want %v", got, tt.want)
			}
		})
	}
}
