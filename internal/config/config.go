// Package config loads the optional startup configuration file: resource
// limits, default environment bindings, and trace settings.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the decoded shape of a wzsh configuration file.
type Config struct {
	// MemLimit bounds the number of slots any single compiled frame may
	// use, enforced by the compiler; zero means unbounded.
	MemLimit uint `yaml:"mem_limit"`
	// Timeout bounds how long Machine.Run may execute before it is
	// cancelled; zero means unbounded.
	Timeout time.Duration `yaml:"timeout"`
	// Trace enables per-operation tracing to stderr.
	Trace bool `yaml:"trace"`
	// Env seeds additional environment variables beyond the inherited
	// process environment.
	Env map[string]string `yaml:"env"`
}

// Load reads and decodes the YAML configuration file at path. Unknown keys
// are rejected so a typo in a config file fails loudly instead of silently
// doing nothing.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
