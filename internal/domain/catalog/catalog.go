// Package catalog loads the static tables of known switch kinds and device
// model families.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"air-purifier-bridge/internal/domain/model"
	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

//go:embed catalog.yaml
var builtin []byte

type Catalog struct {
	Switches []model.ControlPointDescriptor `yaml:"switches"`
	Families []model.Family                 `yaml:"families"`
	Models   map[string]string              `yaml:"models"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(builtin))
}

func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Switches))
	for _, d := range c.Switches {
		if d.Kind == "" {
			return fmt.Errorf("%w: switch without kind", ErrInvalidCatalog)
		}
		if seen[d.Kind] {
			return fmt.Errorf("%w: duplicate switch kind %q", ErrInvalidCatalog, d.Kind)
		}
		if d.Label == "" {
			return fmt.Errorf("%w: switch %q has no label", ErrInvalidCatalog, d.Kind)
		}
		if d.On == nil || d.Off == nil {
			return fmt.Errorf("%w: switch %q needs both on and off values", ErrInvalidCatalog, d.Kind)
		}
		seen[d.Kind] = true
	}
	return nil
}
