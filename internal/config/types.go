// Package config provides configuration loading and validation for
// reactorlb using Viper. Configuration is loaded from an optional YAML
// file with automatic environment variable binding.
//
// Environment variables use the REACTORLB_ prefix and underscore-separated
// keys:
//   - REACTORLB_SERVER_CLIENT_PORT -> server.client_port
//   - REACTORLB_SERVER_BACKEND_PORT -> server.backend_port
//   - REACTORLB_SERVER_WORKERS -> server.workers
//   - REACTORLB_LOGGING_LEVEL -> logging.level
package config

import "strconv"

// WorkersMode specifies how worker count is determined.
type WorkersMode int

const (
	// WorkersAuto automatically determines worker count based on available CPUs.
	WorkersAuto WorkersMode = iota
	// WorkersFixed uses a specific worker count.
	WorkersFixed
)

// WorkerSetting represents the workers configuration.
type WorkerSetting struct {
	Mode  WorkersMode
	Value int
}

// String returns the string representation of the worker setting.
func (w WorkerSetting) String() string {
	if w.Mode == WorkersAuto {
		return "auto"
	}
	return strconv.Itoa(w.Value)
}

// ServerConfig contains the reactor's listener and worker settings.
type ServerConfig struct {
	ClientPort    int           `yaml:"client_port"     mapstructure:"client_port"     validate:"gte=0,lte=65535"`
	BackendPort   int           `yaml:"backend_port"    mapstructure:"backend_port"    validate:"gte=0,lte=65535"`
	Workers       WorkerSetting `yaml:"-"               mapstructure:"-"`
	WorkersRaw    string        `yaml:"workers"         mapstructure:"workers"`
	ChunkCapacity int           `yaml:"chunk_capacity"  mapstructure:"chunk_capacity"  validate:"gt=0"`
	AcceptBurst   int           `yaml:"accept_burst"    mapstructure:"accept_burst"    validate:"gt=0"`
	UDPBurst      int           `yaml:"udp_burst"       mapstructure:"udp_burst"       validate:"gt=0"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             validate:"oneof=DEBUG INFO WARN ERROR"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"`
}

// APIConfig contains the read-only admin/diagnostics API settings.
//
// Note: APIKey is intentionally treated as a secret and should not be
// returned by API endpoints.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"    validate:"required_if=Enabled true,omitempty,gte=0,lte=65535"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"  mapstructure:"server"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	API     APIConfig     `yaml:"api"     mapstructure:"api"`
}
