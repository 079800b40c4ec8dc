package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/goccy/go-yaml"
)

const (
	DefaultEndpoint   = "http://localhost:8040"
	DefaultAddr       = ":8040"
	DefaultPageLength = 10

	BackendMemory  = "memory"
	BackendFileSys = "filesys"
	BackendSQLite  = "sqlite"
)

// Config is the serializable configuration shared by the docdb client, server
// and command line tool.
type Config struct {
	Client       ClientConfig   `yaml:"client,omitempty" json:"client,omitempty"`
	Server       ServerConfig   `yaml:"server,omitempty" json:"server,omitempty"`
	Logging      LoggingConfig  `yaml:"logging,omitempty" json:"logging,omitempty"`
	QueryOptions []QueryOptions `yaml:"query_options,omitempty" json:"query_options,omitempty"`
}

type ClientConfig struct {
	Endpoint   string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	MaxRetries int    `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	// BaseWait and Timeout are Go duration strings such as "250ms"
	BaseWait           string `yaml:"base_wait,omitempty" json:"base_wait,omitempty"`
	Timeout            string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	PageLength         int64  `yaml:"page_length,omitempty" json:"page_length,omitempty"`
	View               string `yaml:"view,omitempty" json:"view,omitempty"`
	MetadataExtraction string `yaml:"metadata_extraction,omitempty" json:"metadata_extraction,omitempty"`
}

type ServerConfig struct {
	Addr                 string        `yaml:"addr,omitempty" json:"addr,omitempty"`
	Storage              StorageConfig `yaml:"storage,omitempty" json:"storage,omitempty"`
	TransactionTimeLimit string        `yaml:"transaction_time_limit,omitempty" json:"transaction_time_limit,omitempty"`
	MaxPageLength        int64         `yaml:"max_page_length,omitempty" json:"max_page_length,omitempty"`
}

type StorageConfig struct {
	// Backend is one of memory, filesys or sqlite
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"`
	// Path is the root directory (filesys) or database file (sqlite)
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
	JSON  bool   `yaml:"json,omitempty" json:"json,omitempty"`
}

// QueryOptions is a named set of lexicons served by /v1/values
type QueryOptions struct {
	Name              string `yaml:"name" json:"name"`
	wire.QueryOptions `yaml:",inline"`
}

// Default returns a configuration with every default filled in
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint:   DefaultEndpoint,
			MaxRetries: 3,
			BaseWait:   "250ms",
			Timeout:    "30s",
			PageLength: DefaultPageLength,
			View:       string(wire.ViewDefault),
		},
		Server: ServerConfig{
			Addr:                 DefaultAddr,
			Storage:              StorageConfig{Backend: BackendMemory},
			TransactionTimeLimit: "5m",
			MaxPageLength:        1000,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks values that cannot be checked by the parsers
func (c *Config) Validate() error {
	for name, d := range map[string]string{
		"client.base_wait":              c.Client.BaseWait,
		"client.timeout":                c.Client.Timeout,
		"server.transaction_time_limit": c.Server.TransactionTimeLimit,
	} {
		if _, err := parseDuration(d); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.Client.View != "" {
		if _, err := wire.ParseView(c.Client.View); err != nil {
			return fmt.Errorf("invalid client.view: %w", err)
		}
	}
	switch c.Server.Storage.Backend {
	case "", BackendMemory:
	case BackendFileSys, BackendSQLite:
		if c.Server.Storage.Path == "" {
			return fmt.Errorf("storage backend %q requires a path", c.Server.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Server.Storage.Backend)
	}
	seen := map[string]bool{}
	for _, opts := range c.QueryOptions {
		if opts.Name == "" {
			return fmt.Errorf("query options name is required")
		}
		if seen[opts.Name] {
			return fmt.Errorf("duplicate query options %q", opts.Name)
		}
		seen[opts.Name] = true
		if err := opts.Validate(); err != nil {
			return fmt.Errorf("query options %q: %w", opts.Name, err)
		}
	}
	return nil
}

// FindQueryOptions returns the named query options, or nil
func (c *Config) FindQueryOptions(name string) *QueryOptions {
	for i := range c.QueryOptions {
		if c.QueryOptions[i].Name == name {
			return &c.QueryOptions[i]
		}
	}
	return nil
}

func (c *ClientConfig) BaseWaitDuration() time.Duration {
	d, _ := parseDuration(c.BaseWait)
	return d
}

func (c *ClientConfig) TimeoutDuration() time.Duration {
	d, _ := parseDuration(c.Timeout)
	return d
}

func (c *ServerConfig) TransactionTimeLimitDuration() time.Duration {
	d, _ := parseDuration(c.TransactionTimeLimit)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// Save writes a Config to a file. The file extension is used to determine
// the configuration format:
// - .json -> JSON
// - .yml or .yaml -> YAML
func (c *Config) Save(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	case ".yml", ".yaml":
		data, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	default:
		return fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// Write a Config to a writer in YAML format
func (c *Config) Write(w io.Writer) error {
	return yaml.NewEncoder(w).Encode(c)
}
