// Package tariff holds the electricity tariff schedule offered in the mapping form.
// It is a read-only lookup table; bills are not computed here.
package tariff

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"chillerdash/domain/core"

	"gopkg.in/yaml.v3"
)

//go:embed rp4.yaml
var rp4YAML []byte

// Catalog is the full tariff schedule, grouped by customer category.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
}

// Category is a customer class such as Residential or Business.
type Category struct {
	Name   string  `yaml:"name" json:"name"`
	Groups []Group `yaml:"groups" json:"groups"`
}

// Group is a tariff group within a category.
type Group struct {
	Name    string   `yaml:"name" json:"name"`
	Tariffs []Tariff `yaml:"tariffs" json:"tariffs"`
}

// Tariff is a single named rate schedule.
type Tariff struct {
	Name    string             `yaml:"name" json:"name"`
	Voltage string             `yaml:"voltage,omitempty" json:"voltage,omitempty"`
	Type    string             `yaml:"type,omitempty" json:"type,omitempty"`
	Rates   map[string]float64 `yaml:"rates" json:"rates"`
	Rules   Rules              `yaml:"rules" json:"rules"`
}

// Rules describes how the rates of a tariff are charged.
type Rules struct {
	Tiered           bool   `yaml:"tiered" json:"tiered"`
	ChargeCapacityBy string `yaml:"charge_capacity_by,omitempty" json:"charge_capacity_by,omitempty"`
	ChargeNetworkBy  string `yaml:"charge_network_by,omitempty" json:"charge_network_by,omitempty"`
	HasPeakSplit     bool   `yaml:"has_peak_split" json:"has_peak_split"`
	AFAApplicable    bool   `yaml:"afa_applicable" json:"afa_applicable"`
}

// Rate is one named rate, used for ordered display.
type Rate struct {
	Name  string
	Value float64
}

// SortedRates returns the rates ordered by name.
func (t Tariff) SortedRates() []Rate {
	rates := make([]Rate, 0, len(t.Rates))
	for name, v := range t.Rates {
		rates = append(rates, Rate{Name: name, Value: v})
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Name < rates[j].Name })
	return rates
}

// Entry is a tariff together with where it sits in the catalog.
type Entry struct {
	Category string `json:"category"`
	Group    string `json:"group"`
	Tariff   Tariff `json:"tariff"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse tariff catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("tariff catalog has no categories")
	}
	return &c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded RP4 schedule.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(rp4YAML)
	})
	return defaultCatalog, defaultErr
}

// CategoryNames returns the category names in catalog order.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// Groups returns the groups of a category, matched case-insensitively.
func (c *Catalog) Groups(category string) ([]Group, error) {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, category) {
			return cat.Groups, nil
		}
	}
	return nil, core.NewNotFoundError("tariff category", category)
}

// All flattens the catalog in order, skipping empty groups.
func (c *Catalog) All() []Entry {
	var entries []Entry
	for _, cat := range c.Categories {
		for _, g := range cat.Groups {
			for _, t := range g.Tariffs {
				entries = append(entries, Entry{Category: cat.Name, Group: g.Name, Tariff: t})
			}
		}
	}
	return entries
}

// Find looks a tariff up by name, case-insensitively.
func (c *Catalog) Find(name string) (Entry, error) {
	name = strings.TrimSpace(name)
	for _, e := range c.All() {
		if strings.EqualFold(e.Tariff.Name, name) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", core.ErrTariffNotFound, name)
}
