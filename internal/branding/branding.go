// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork can rename the tool, its environment
// prefix and its on-disk file names without touching code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName        string `yaml:"cli_name"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	DirName        string `yaml:"dir_name"`
	InstallDirName string `yaml:"install_dir_name"`
	EnvPrefix      string `yaml:"env_prefix"`
	ManifestFile   string `yaml:"manifest_file"`
	RegistryFile   string `yaml:"registry_file"`
	ConfigFile     string `yaml:"config_file"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:        "atm",
			DisplayName:    "ATM",
			Description:    "Agent tooling manager",
			DirName:        "atm",
			InstallDirName: "ATM",
			EnvPrefix:      "ATM",
			ManifestFile:   "atm.toml",
			RegistryFile:   "packages.toml",
			ConfigFile:     "config.yaml",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "atm").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// DirName returns the per-tool directory name used under system config,
// temp and state roots (e.g., "/etc/atm").
func DirName() string { load(); return defaults.DirName }

// InstallDirName returns the directory name used under Program Files on Windows.
func InstallDirName() string { load(); return defaults.InstallDirName }

// EnvPrefix returns the environment variable prefix (e.g., "ATM").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ManifestFile returns the manifest file name expected at a package root.
func ManifestFile() string { load(); return defaults.ManifestFile }

// RegistryFile returns the registry file name.
func RegistryFile() string { load(); return defaults.RegistryFile }

// ConfigFile returns the config file name.
func ConfigFile() string { load(); return defaults.ConfigFile }

// Label returns a container label key namespaced by the CLI name,
// e.g. Label("package") → "atm.package".
func Label(key string) string {
	load()
	return defaults.CLIName + "." + key
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("LOG_LEVEL") → "ATM_LOG_LEVEL".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
