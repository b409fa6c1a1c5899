// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all contacts configuration.
type Config struct {
	Store  Store  `yaml:"store"`
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
}

// Store selects the backend and its location.
type Store struct {
	Backend string `yaml:"backend"` // "json" | "sqlite" | "memory"
	Path    string `yaml:"path"`
}

// Server holds HTTP listener settings.
type Server struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	AllowedOrigins string `yaml:"allowed_origins"` // comma-separated, "*" for any
}

// Log holds logging settings.
type Log struct {
	Dir     string `yaml:"dir"` // empty disables log files
	Verbose bool   `yaml:"verbose"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store: Store{
			Backend: "json",
			Path:    "contacts.json",
		},
		Server: Server{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: "*",
		},
	}
}

// Addr returns the host:port the server listens on.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (s Server) Origins() []string {
	var res []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			res = append(res, o)
		}
	}
	return res
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "json", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path cannot be empty for backend %q", c.Store.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("config: store.backend must be \"json\", \"sqlite\" or \"memory\", got %q", c.Store.Backend)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if len(c.Server.Origins()) == 0 {
		return errors.New("config: server.allowed_origins cannot be empty")
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: CONTACTS_BACKEND, CONTACTS_FILE, HOST, PORT,
// ALLOWED_ORIGINS, CONTACTS_LOG_DIR, CONTACTS_VERBOSE.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CONTACTS_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("CONTACTS_FILE"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = v
	}
	if v := os.Getenv("CONTACTS_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("CONTACTS_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid CONTACTS_VERBOSE %q: %w", v, err)
		}
		c.Log.Verbose = b
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Store  *rawStore  `yaml:"store"`
	Server *rawServer `yaml:"server"`
	Log    *rawLog    `yaml:"log"`
}

type rawStore struct {
	Backend *string `yaml:"backend"`
	Path    *string `yaml:"path"`
}

type rawServer struct {
	Host           *string `yaml:"host"`
	Port           *int    `yaml:"port"`
	AllowedOrigins *string `yaml:"allowed_origins"`
}

type rawLog struct {
	Dir     *string `yaml:"dir"`
	Verbose *bool   `yaml:"verbose"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if s := layer.Store; s != nil {
		if s.Backend != nil {
			c.Store.Backend = *s.Backend
		}
		if s.Path != nil {
			c.Store.Path = *s.Path
		}
	}
	if s := layer.Server; s != nil {
		if s.Host != nil {
			c.Server.Host = *s.Host
		}
		if s.Port != nil {
			c.Server.Port = *s.Port
		}
		if s.AllowedOrigins != nil {
			c.Server.AllowedOrigins = *s.AllowedOrigins
		}
	}
	if l := layer.Log; l != nil {
		if l.Dir != nil {
			c.Log.Dir = *l.Dir
		}
		if l.Verbose != nil {
			c.Log.Verbose = *l.Verbose
		}
	}
}
