package manifest

import "fmt"

// Protocol is the wire protocol a deployed package speaks.
type Protocol string

// ProtocolMCP is the Model Context Protocol.
const ProtocolMCP Protocol = "MCP"

// ValidProtocols contains all valid protocol values.
var ValidProtocols = []Protocol{ProtocolMCP}

// EndpointConfig describes how a deployed package is reached.
type EndpointConfig struct {
	Path     string   `toml:"path" json:"path"`
	Protocol Protocol `toml:"protocol" json:"protocol"`
}

// BackendKind is the discriminator of a BackendConfig.
type BackendKind string

// Backend kinds.
const (
	KindLocal  BackendKind = "Local"
	KindDocker BackendKind = "Docker"
)

// Defaults for Docker backends.
const (
	DefaultDockerfile = "./Dockerfile"
	DefaultMaxReplica = 1
)

// BackendConfig is the closed set of backend configurations: LocalConfig or
// DockerConfig. Consumers match it with a type switch.
type BackendConfig interface {
	Kind() BackendKind
	isBackendConfig()
}

// LocalConfig selects a backend that needs no managed runtime.
type LocalConfig struct{}

// Kind implements BackendConfig.
func (LocalConfig) Kind() BackendKind { return KindLocal }

func (LocalConfig) isBackendConfig() {}

// DockerConfig selects a containerized backend.
type DockerConfig struct {
	// Dockerfile is relative to the package root.
	Dockerfile string
	// Scoped isolates the package's containers on their own network.
	Scoped bool
	// MaxReplica caps the number of concurrent instances; at least 1.
	MaxReplica int
}

// Kind implements BackendConfig.
func (DockerConfig) Kind() BackendKind { return KindDocker }

func (DockerConfig) isBackendConfig() {}

// DefaultDockerConfig returns a DockerConfig with documented defaults.
func DefaultDockerConfig() DockerConfig {
	return DockerConfig{
		Dockerfile: DefaultDockerfile,
		Scoped:     false,
		MaxReplica: DefaultMaxReplica,
	}
}

// DefaultBackend is used when a manifest omits the backend table.
func DefaultBackend() BackendConfig { return DefaultDockerConfig() }

// PackageConfig is the deployable part of a manifest.
type PackageConfig struct {
	Backend  BackendConfig
	Endpoint EndpointConfig
}

// Manifest is a parsed atm.toml.
type Manifest struct {
	// Requires is an optional semver constraint on the tool version.
	Requires string
	Config   PackageConfig
}

// BackendTable is the TOML form of a BackendConfig. Omitted Docker fields
// take their defaults on decode.
type BackendTable struct {
	Type       BackendKind `toml:"type"`
	Dockerfile *string     `toml:"dockerfile,omitempty"`
	Scoped     *bool       `toml:"scoped,omitempty"`
	MaxReplica *int        `toml:"max_replica,omitempty"`
}

// ConfigTable is the TOML form of a PackageConfig.
type ConfigTable struct {
	Backend  *BackendTable  `toml:"backend,omitempty"`
	Endpoint EndpointConfig `toml:"endpoint"`
}

// fileTable is the TOML form of a manifest file.
type fileTable struct {
	ATM      string         `toml:"atm,omitempty"`
	Backend  *BackendTable  `toml:"backend"`
	Endpoint EndpointConfig `toml:"endpoint"`
}

// NewBackendTable converts cfg to its TOML form with every field explicit.
func NewBackendTable(cfg BackendConfig) *BackendTable {
	switch c := cfg.(type) {
	case LocalConfig:
		return &BackendTable{Type: KindLocal}
	case DockerConfig:
		dockerfile, scoped, replicas := c.Dockerfile, c.Scoped, c.MaxReplica
		return &BackendTable{
			Type:       KindDocker,
			Dockerfile: &dockerfile,
			Scoped:     &scoped,
			MaxReplica: &replicas,
		}
	default:
		return nil
	}
}

// BackendConfig converts the table to a BackendConfig, applying defaults.
// A nil table yields DefaultBackend.
func (t *BackendTable) BackendConfig() (BackendConfig, error) {
	if t == nil {
		return DefaultBackend(), nil
	}

	switch t.Type {
	case KindLocal:
		return LocalConfig{}, nil
	case KindDocker:
		c := DefaultDockerConfig()
		if t.Dockerfile != nil {
			c.Dockerfile = *t.Dockerfile
		}
		if t.Scoped != nil {
			c.Scoped = *t.Scoped
		}
		if t.MaxReplica != nil {
			c.MaxReplica = *t.MaxReplica
		}
		if c.MaxReplica < 1 {
			return nil, fmt.Errorf("max_replica must be at least 1, got %d", c.MaxReplica)
		}
		if c.Dockerfile == "" {
			return nil, fmt.Errorf("dockerfile must not be empty")
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", t.Type)
	}
}

// Table converts c to its TOML form.
func (c PackageConfig) Table() ConfigTable {
	return ConfigTable{
		Backend:  NewBackendTable(c.Backend),
		Endpoint: c.Endpoint,
	}
}

// PackageConfig converts the table to a PackageConfig.
func (t ConfigTable) PackageConfig() (PackageConfig, error) {
	backend, err := t.Backend.BackendConfig()
	if err != nil {
		return PackageConfig{}, err
	}
	if err := t.Endpoint.validate(); err != nil {
		return PackageConfig{}, err
	}
	return PackageConfig{Backend: backend, Endpoint: t.Endpoint}, nil
}

func (e EndpointConfig) validate() error {
	for _, p := range ValidProtocols {
		if e.Protocol == p {
			return nil
		}
	}
	return fmt.Errorf("unknown endpoint protocol %q", e.Protocol)
}
