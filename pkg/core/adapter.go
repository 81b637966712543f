package core

import (
	"fmt"
	"strings"
)

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// String describes the target without credentials. Used in logs and errors.
func (c AdapterConfig) String() string {
	switch {
	case c.Host != "" && c.Port != 0:
		return fmt.Sprintf("%s://%s:%d/%s", c.Type, c.Host, c.Port, c.Database)
	case c.Host != "":
		return fmt.Sprintf("%s://%s/%s", c.Type, c.Host, c.Database)
	case c.Path != "":
		return fmt.Sprintf("%s:%s", c.Type, c.Path)
	default:
		return c.Type
	}
}

// TargetConfig holds database target configuration as written in querydeck.yaml.
type TargetConfig struct {
	Type string `koanf:"type"` // mysql, postgres, sqlite, duckdb

	// File-based databases (DuckDB, SQLite) use Database as the file path.
	Database string `koanf:"database"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Additional driver-specific options (e.g. sslmode)
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g. DuckDB extensions)
	Params map[string]any `koanf:"params"`
}

// IsFileBased reports whether the target stores data in a local file.
func (t *TargetConfig) IsFileBased() bool {
	switch strings.ToLower(t.Type) {
	case "sqlite", "duckdb":
		return true
	}
	return false
}

// ToAdapterConfig converts the target into an AdapterConfig.
func (t *TargetConfig) ToAdapterConfig() AdapterConfig {
	cfg := AdapterConfig{
		Type:     strings.ToLower(t.Type),
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
	if t.IsFileBased() {
		cfg.Path = t.Database
	}
	return cfg
}
