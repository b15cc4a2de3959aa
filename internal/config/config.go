package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentx-labs/atm/internal/branding"
	"github.com/agentx-labs/atm/internal/platform"
)

const fileType = "yaml"

// Recognized keys.
const (
	KeyRegistryFile = "registry_file"
	KeyInstallRoot  = "install_root"
	KeyStagingRoot  = "staging_root"
	KeyLogLevel     = "log_level"
	KeyDockerHost   = "docker.host"
	KeyParallelism  = "parallelism"
)

// ErrUnknownKey is returned by Get and Set for keys outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Settings is the resolved configuration.
type Settings struct {
	RegistryFile string `mapstructure:"registry_file"`
	InstallRoot  string `mapstructure:"install_root"`
	StagingRoot  string `mapstructure:"staging_root"`
	LogLevel     string `mapstructure:"log_level"`
	Docker       struct {
		Host string `mapstructure:"host"`
	} `mapstructure:"docker"`
	Parallelism int `mapstructure:"parallelism"`
}

var (
	v    = newViper()
	file = platform.ConfigFile()
)

func defaults() map[string]any {
	return map[string]any{
		KeyRegistryFile: platform.RegistryFile(),
		KeyInstallRoot:  platform.InstallRoot(),
		KeyStagingRoot:  platform.StagingRoot(),
		KeyLogLevel:     "info",
		KeyDockerHost:   "",
		KeyParallelism:  4,
	}
}

// Keys returns the recognized keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults()))
	for k := range defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newViper() *viper.Viper {
	nv := viper.New()
	nv.SetConfigType(fileType)
	nv.SetEnvPrefix(branding.EnvPrefix())
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	for k, val := range defaults() {
		nv.SetDefault(k, val)
	}
	return nv
}

// FilePath returns the config file in use.
func FilePath() string { return file }

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error.
func Load(path string) error {
	if path != "" {
		file = path
	}
	v = newViper()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", file, err)
	}
	return nil
}

// Current returns the resolved settings.
func Current() (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &s, nil
}

// Get returns a resolved config value by key.
func Get(key string) (string, error) {
	if !known(key) {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return v.GetString(key), nil
}

// Set writes a key to the config file and applies it to the current
// settings. Only keys already in the file and key itself are written.
func Set(key, value string) error {
	if !known(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	var typed any = value
	if key == KeyParallelism {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		typed = n
	}

	if err := os.MkdirAll(filepath.Dir(file), platform.DirPermNormal); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	fv := viper.New()
	fv.SetConfigType(fileType)
	fv.SetConfigFile(file)
	if err := fv.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file %s: %w", file, err)
		}
	}
	fv.Set(key, typed)

	if err := fv.WriteConfigAs(file); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	v.Set(key, typed)
	return nil
}

func known(key string) bool {
	_, ok := defaults()[key]
	return ok
}
