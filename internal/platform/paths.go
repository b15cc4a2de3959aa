package platform

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/agentx-labs/atm/internal/branding"
)

// SystemConfigDir returns the directory holding system-wide configuration:
// /etc/atm on Unix, C:/ProgramData/atm on Windows.
func SystemConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(programData(), branding.DirName())
	}
	return filepath.Join("/etc", branding.DirName())
}

// RegistryFile returns the default registry file path.
func RegistryFile() string {
	return filepath.Join(SystemConfigDir(), branding.RegistryFile())
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(SystemConfigDir(), branding.ConfigFile())
}

// InstallRoot returns the directory under which installed working copies
// live, one subdirectory per package: /opt/atm on Unix,
// C:/Program Files/ATM on Windows.
func InstallRoot() string {
	if runtime.GOOS == "windows" {
		pf := os.Getenv("ProgramFiles")
		if pf == "" {
			pf = `C:\Program Files`
		}
		return filepath.Join(pf, branding.InstallDirName())
	}
	return filepath.Join("/opt", branding.DirName())
}

// StagingRoot returns the tool-specific subfolder of the temp directory
// that holds staging areas.
func StagingRoot() string {
	return filepath.Join(os.TempDir(), branding.DirName())
}

func programData() string {
	if v := os.Getenv("ProgramData"); v != "" {
		return v
	}
	return `C:\ProgramData`
}
