package platform

import (
	"fmt"
	"runtime"
)

// NoArch is the subdir conda uses for platform independent packages
const NoArch = "noarch"

// Platform represents a target platform
type Platform struct {
	OS   string
	Arch string
}

// Current returns the current platform
func Current() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: normalizeArch(runtime.GOARCH),
	}
}

// String returns a string representation of the platform
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// Subdir returns the conda channel subdirectory for the platform
// (e.g., linux-64, osx-arm64, win-64)
func (p Platform) Subdir() string {
	return fmt.Sprintf("%s-%s", condaOS(p.OS), condaArch(p.OS, p.Arch))
}

// Accepts reports whether packages built for subdir can be installed on the platform
func (p Platform) Accepts(subdir string) bool {
	return subdir == NoArch || subdir == p.Subdir()
}

// condaOS maps Go operating system names to conda's
func condaOS(goos string) string {
	switch goos {
	case "darwin":
		return "osx"
	case "windows":
		return "win"
	default:
		return goos
	}
}

// condaArch maps Go architecture names to conda's
func condaArch(goos, arch string) string {
	switch arch {
	case "amd64":
		return "64"
	case "386":
		return "32"
	case "arm64":
		// conda only calls it arm64 on macOS and Windows
		if goos == "linux" {
			return "aarch64"
		}
		return "arm64"
	case "arm":
		return "armv7l"
	default:
		return arch
	}
}

// normalizeArch normalizes architecture names
func normalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "x86":
		return "386"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}
