// Package config loads the settings of the vsfs-journal command from the
// environment and the optional YAML geometry file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/mit-pdos/vsfs-journal/super"
)

const envVarPrefix = "VSFS"

type Config struct {
	Image  string `envconfig:"IMAGE"  default:"vsfs.img"`
	Layout string `envconfig:"LAYOUT"` // YAML geometry; empty means super.DefaultLayout
	Debug  uint64 `envconfig:"DEBUG"  default:"0"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}

func (c *Config) LoadLayout() (super.Layout, error) {
	if c.Layout == "" {
		return super.DefaultLayout(), nil
	}
	return LoadLayout(c.Layout)
}

// LoadLayout reads a geometry from the YAML file at path. Fields the file
// leaves out keep their default values; unknown fields are an error.
func LoadLayout(path string) (super.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return super.Layout{}, fmt.Errorf("reading layout file: %w", err)
	}
	defer f.Close()

	l := super.DefaultLayout()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
		return super.Layout{}, fmt.Errorf("unmarshaling layout file %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return super.Layout{}, fmt.Errorf("layout file %s: %w", path, err)
	}
	return l, nil
}
