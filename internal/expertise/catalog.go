// Package expertise holds the review checklist, the expert's answer form and the review
// status machine.
package expertise

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Criterion struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
}

type Section struct {
	Key      string      `yaml:"key" json:"key"`
	Title    string      `yaml:"title" json:"title"`
	Criteria []Criterion `yaml:"criteria" json:"criteria"`
}

// Catalog is the fixed checklist in display order.
type Catalog struct {
	Sections []Section `yaml:"sections" json:"sections"`

	keys  []string
	index map[string]Criterion
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse criteria catalog: %w", err)
	}
	c.index = map[string]Criterion{}
	for _, s := range c.Sections {
		if s.Key == "" || len(s.Criteria) == 0 {
			return nil, fmt.Errorf("criteria catalog: section %q is empty", s.Key)
		}
		for _, cr := range s.Criteria {
			if cr.Key == "" {
				return nil, fmt.Errorf("criteria catalog: section %q has a criterion without key", s.Key)
			}
			if _, dup := c.index[cr.Key]; dup {
				return nil, fmt.Errorf("criteria catalog: duplicate criterion %q", cr.Key)
			}
			c.index[cr.Key] = cr
			c.keys = append(c.keys, cr.Key)
		}
	}
	return &c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the embedded checklist. It panics if the embedded file is broken.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Keys lists criterion keys in display order.
func (c *Catalog) Keys() []string { return append([]string(nil), c.keys...) }

func (c *Catalog) Len() int { return len(c.keys) }

func (c *Catalog) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

func (c *Catalog) Criterion(key string) (Criterion, bool) {
	cr, ok := c.index[key]
	return cr, ok
}
