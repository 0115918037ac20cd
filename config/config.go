/*
Package config loads the settings shared by the server and the CLI.

SOURCES (later wins):
  1. Built-in defaults
  2. Optional YAML file
  3. LCC_* environment variables
  4. Command-line flags, applied by each binary

ENVIRONMENT:
  LCC_PORT          HTTP port
  LCC_DB            SQLite database path (":memory:" for in-memory)
  LCC_DATASET       Dataset YAML file
  LCC_LOG_LEVEL     zerolog level name
  LCC_LOG_FORMAT    console or json
  LCC_CORS_ORIGINS  Comma separated list of allowed origins

EXAMPLE FILE:
  server:
    port: 8080
    db: lcc.db
  logging:
    level: debug
    format: json
  defaults:
    realDiscountRate: 0.03
    inflationRate: 0.023
  dataset:
    path: datasets/2023.yaml
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warp/lcc-engine/legacy"
	"github.com/warp/lcc-engine/logging"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port        int      `yaml:"port"`
	DB          string   `yaml:"db"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

type Dataset struct {
	Path string `yaml:"path"`
}

type Config struct {
	Server   Server          `yaml:"server"`
	Logging  logging.Config  `yaml:"logging"`
	Defaults legacy.Defaults `yaml:"defaults"`
	Dataset  Dataset         `yaml:"dataset"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Port:        8080,
			DB:          "lcc.db",
			CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Logging:  logging.Config{Level: "info", Format: logging.FormatConsole},
		Defaults: legacy.DefaultDefaults(),
	}
}

// Load returns the defaults overlaid with the YAML file at path, when path
// is not empty, and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LCC_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LCC_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("LCC_DB"); ok {
		c.Server.DB = v
	}
	if v, ok := lookup("LCC_DATASET"); ok {
		c.Dataset.Path = v
	}
	if v, ok := lookup("LCC_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup("LCC_LOG_FORMAT"); ok {
		c.Logging.Format = logging.Format(v)
	}
	if v, ok := lookup("LCC_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
