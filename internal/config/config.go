// Package config holds the settings used to build JFS images.
package config

import (
	"os"

	"github.com/creasty/defaults"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ImageConfiguration defines the geometry of a new image.
type ImageConfiguration struct {
	// BlockSize is the number of bytes per data block.
	BlockSize uint32 `default:"128" yaml:"block_size"`
	// BlocksCount is the number of data blocks in the image.
	BlocksCount uint32 `default:"20" yaml:"blocks_count"`
	// Label is stored as name of the root directory.
	Label string `yaml:"label"`
}

// ImportConfiguration controls how a host directory tree is copied into an image.
type ImportConfiguration struct {
	// PreserveCase keeps names as they are. By default they get lowercased.
	PreserveCase bool `default:"false" yaml:"preserve_case"`
	// SkipSpecial silently skips everything which is neither a regular file
	// nor a directory. If false such nodes abort the import.
	SkipSpecial bool `default:"true" yaml:"skip_special"`
}

type Configuration struct {
	Debug bool `default:"false" yaml:"debug"`

	Image  ImageConfiguration  `yaml:"image"`
	Import ImportConfiguration `yaml:"import"`
}

// New returns a configuration with all defaults applied.
func New() (*Configuration, error) {
	c := &Configuration{}
	if err := defaults.Set(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadConfiguration reads the YAML file at path from fs on top of the defaults.
// Environment variables inside the file are expanded.
func ReadConfiguration(fs afero.Fs, path string) (*Configuration, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	c, err := New()
	if err != nil {
		return nil, err
	}

	b = []byte(os.ExpandEnv(string(b)))
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}
