// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"vdiff/internal/diff"
)

type Config struct {
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`

	// Empty path keeps sessions in memory.
	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	Diff struct {
		ContextLines int  `json:"context_lines"`
		ExpandStep   int  `json:"expand_step"`
		MaxLines     int  `json:"max_lines"` // per document, 0 for no limit
		Normalize    bool `json:"normalize"`
	} `json:"diff"`

	Sessions struct {
		CacheSize         int `json:"cache_size"`
		CompressThreshold int `json:"compress_threshold"` // bytes
	} `json:"sessions"`

	Environment string `json:"environment"` // development, production
	LogLevel    string `json:"log_level"`   // debug, info, warn, error
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.Server.Host = "127.0.0.1"
	c.Server.Port = 8080
	c.Diff.ContextLines = diff.DefaultContextLines
	c.Diff.ExpandStep = diff.DefaultExpandStep
	c.Diff.MaxLines = diff.DefaultMaxLines
	c.Sessions.CacheSize = 128
	c.Sessions.CompressThreshold = 1024
	c.Environment = "development"
	c.LogLevel = "info"
	return &c
}

// Path returns the config file for the environment named by VDIFF_ENV.
func Path() string {
	env := os.Getenv("VDIFF_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Diff.ContextLines < 0 {
		return fmt.Errorf("diff.context_lines must not be negative")
	}
	if c.Diff.MaxLines < 0 {
		return fmt.Errorf("diff.max_lines must not be negative")
	}
	if c.Diff.ExpandStep <= 0 {
		return fmt.Errorf("diff.expand_step must be positive")
	}
	if c.Sessions.CacheSize <= 0 {
		return fmt.Errorf("sessions.cache_size must be positive")
	}
	return nil
}
