package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported config file format")

// DecodeFile decodes the file at path into v, choosing the codec from the
// extension: .toml, .yaml or .yml.
func DecodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Decode(filepath.Ext(path), data, v)
}

// Decode decodes data in the format named by ext.
func Decode(ext string, data []byte, v interface{}) error {
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}
