// Package config loads the named connection strings a Connector resolves.
// Entries keep their source order and the first entry is the default.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvConfigFile names a JSON file holding the connection strings.
	EnvConfigFile = "DBCONNECT_CONFIG"

	// EnvConnectionString supplies a single connection string when no file is configured.
	EnvConnectionString = "DBCONNECT_CONNECTION_STRING"

	// EnvProvider selects the provider for EnvConnectionString.
	EnvProvider = "DBCONNECT_PROVIDER"

	// DefaultEntryName is the name given to the entry built from EnvConnectionString.
	DefaultEntryName = "DefaultConnection"

	// DefaultProvider is used when an entry does not name a provider.
	DefaultProvider = "postgres"
)

var (
	// ErrConnectionStringNotFound is returned when a requested name is not configured.
	ErrConnectionStringNotFound = errors.New("connection string not found")

	// ErrNoConnectionStrings is returned when resolving against an empty configuration.
	ErrNoConnectionStrings = errors.New("no connection strings configured")

	// ErrNotConfigured is returned by LoadFromEnv when neither variable is set.
	ErrNotConfigured = errors.New("no configuration source: set " + EnvConfigFile + " or " + EnvConnectionString)
)

// ConnectionString is one named entry of the configuration.
type ConnectionString struct {
	Name             string `json:"name"`
	ConnectionString string `json:"connectionString"`
	ProviderName     string `json:"providerName,omitempty"`
}

// Provider returns the entry's provider, falling back to DefaultProvider.
func (c ConnectionString) Provider() string {
	if p := strings.TrimSpace(c.ProviderName); p != "" {
		return p
	}
	return DefaultProvider
}

// Config is the ordered set of connection strings.
type Config struct {
	ConnectionStrings []ConnectionString `json:"connectionStrings"`
}

// New builds a validated Config from entries in source order.
func New(entries ...ConnectionString) (*Config, error) {
	cfg := &Config{ConnectionStrings: append([]ConnectionString(nil), entries...)}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a JSON configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a Config from DBCONNECT_CONFIG or, failing that,
// DBCONNECT_CONNECTION_STRING and DBCONNECT_PROVIDER.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return Load(path)
	}
	if dsn := os.Getenv(EnvConnectionString); dsn != "" {
		return New(ConnectionString{
			Name:             DefaultEntryName,
			ConnectionString: dsn,
			ProviderName:     os.Getenv(EnvProvider),
		})
	}
	return nil, ErrNotConfigured
}

// Validate checks that every entry is named, unique and non-empty.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.ConnectionStrings))
	for i, entry := range c.ConnectionStrings {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("connection string %d: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("connection string %q: duplicate name", name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(entry.ConnectionString) == "" {
			return fmt.Errorf("connection string %q: connectionString is required", name)
		}
	}
	return nil
}

// Default returns the first configured entry.
func (c *Config) Default() (ConnectionString, error) {
	if c == nil || len(c.ConnectionStrings) == 0 {
		return ConnectionString{}, ErrNoConnectionStrings
	}
	return c.ConnectionStrings[0], nil
}

// Resolve returns the entry called name. An empty name selects the default.
func (c *Config) Resolve(name string) (ConnectionString, error) {
	if name == "" {
		return c.Default()
	}
	if c != nil {
		for _, entry := range c.ConnectionStrings {
			if entry.Name == name {
				return entry, nil
			}
		}
	}
	return ConnectionString{}, fmt.Errorf("%w: %q", ErrConnectionStringNotFound, name)
}

// Names lists the configured entry names in source order.
func (c *Config) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.ConnectionStrings))
	for _, entry := range c.ConnectionStrings {
		names = append(names, entry.Name)
	}
	return names
}
