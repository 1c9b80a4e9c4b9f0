// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"slices"
)

// Catalog maps each declared version to its Model. It is immutable once built.
type Catalog struct {
	versions []Version
	models   map[Version]Model
}

// NewCatalog builds a catalog from models in declaration order. Two models
// sharing a version are rejected with a DuplicateVersionError.
func NewCatalog(models ...Model) (*Catalog, error) {
	c := &Catalog{models: make(map[Version]Model, len(models))}
	for _, m := range models {
		if m == nil {
			return nil, errors.New("catalog: nil model")
		}
		v := m.Version()
		if v == "" {
			return nil, errors.New("catalog: model with empty version")
		}
		if _, exists := c.models[v]; exists {
			return nil, &DuplicateVersionError{Version: v}
		}
		c.models[v] = m
		c.versions = append(c.versions, v)
	}
	if len(c.versions) == 0 {
		return nil, errors.New("catalog: at least one model is required")
	}
	return c, nil
}

// MustNewCatalog is NewCatalog for static declarations; it panics on error.
func MustNewCatalog(models ...Model) *Catalog {
	c, err := NewCatalog(models...)
	if err != nil {
		panic(err)
	}
	return c
}

// SchemaFor returns the model for v, or an UnknownVersionError.
func (c *Catalog) SchemaFor(v Version) (Model, error) {
	m, ok := c.models[v]
	if !ok {
		return nil, &UnknownVersionError{Version: v}
	}
	return m, nil
}

// Has reports whether v is declared.
func (c *Catalog) Has(v Version) bool {
	_, ok := c.models[v]
	return ok
}

// Versions returns every declared version in declaration order.
func (c *Catalog) Versions() []Version {
	return slices.Clone(c.versions)
}

// Len returns the number of declared versions.
func (c *Catalog) Len() int { return len(c.versions) }
