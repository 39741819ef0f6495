package catalog

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/chw3k5/mypysql/internal/ir"
)

// Kind distinguishes how an attribute is stored at its location.
type Kind string

const (
	// KindFact is an attribute type stored as rows of a narrow fact table,
	// selected by pinning the table's type column.
	KindFact Kind = "fact"

	// KindColumn is a physical column read directly.
	KindColumn Kind = "column"
)

// Entry is the resolved location of one attribute name.
type Entry struct {
	Attribute string   `json:"attribute" yaml:"attribute"`
	Location  Location `json:"location" yaml:"location"`
	Kind      Kind     `json:"kind" yaml:"kind"`

	// Inferred is true when the entry came from the name heuristic rather
	// than an explicit registry.
	Inferred bool `json:"inferred,omitempty" yaml:"inferred,omitempty"`
}

// Registries are the attribute enumerations exposed by the schema.
type Registries struct {
	StringParams    []string
	FloatParams     []string
	FloatColumns    []string
	StringColumns   []string
	SpectrumColumns []string
}

// Source loads Registries from a backend.
type Source interface {
	Registries(ctx context.Context, schema Schema) (Registries, error)
}

// Catalog maps attribute names to storage locations.
// It is immutable after construction and safe for concurrent reads.
type Catalog struct {
	schema  Schema
	entries map[string]Entry
}

// New builds a catalog from explicit registries.
//
// When a name appears in more than one registry the first wins, in this
// order: string facts, float facts, float columns, string columns, spectrum
// columns. Join keys and row ids are never registered.
func New(schema Schema, reg Registries) *Catalog {
	c := &Catalog{schema: schema, entries: make(map[string]Entry)}

	c.register(reg.StringParams, LocationString, KindFact)
	c.register(reg.FloatParams, LocationFloat, KindFact)
	c.register(reg.FloatColumns, LocationFloat, KindColumn)
	c.register(reg.StringColumns, LocationString, KindColumn)
	c.register(reg.SpectrumColumns, LocationSpectrum, KindColumn)

	return c
}

// Load enumerates the registries from src and builds a catalog.
func Load(ctx context.Context, src Source, schema Schema) (*Catalog, error) {
	reg, err := src.Registries(ctx, schema)
	if err != nil {
		return nil, ir.NewBackendError("load parameter catalog", err)
	}
	return New(schema, reg), nil
}

func (c *Catalog) register(names []string, loc Location, kind Kind) {
	layout := c.schema.Layout(loc)
	for _, raw := range names {
		name := NormalizeName(raw)
		if name == "" {
			continue
		}
		if kind == KindColumn && layout.IsInternal(name) {
			continue
		}
		if _, exists := c.entries[name]; exists {
			continue
		}
		c.entries[name] = Entry{Attribute: name, Location: loc, Kind: kind}
	}
}

// Schema returns the physical schema the catalog was built for.
func (c *Catalog) Schema() Schema {
	return c.schema
}

// Locate resolves an attribute name.
//
// Explicit registry membership always wins. Only when the name is absent
// from every registry is it matched by substring: "str" routes to string
// facts, then "float" to float facts, then "spectrum" to a spectra column.
// A name matching nothing fails with UNKNOWN_ATTRIBUTE.
func (c *Catalog) Locate(attribute string) (Entry, error) {
	name := NormalizeName(attribute)
	if e, ok := c.entries[name]; ok {
		return e, nil
	}

	lower := strings.ToLower(name)
	switch {
	case name == "":
	case strings.Contains(lower, "str"):
		return Entry{Attribute: name, Location: LocationString, Kind: KindFact, Inferred: true}, nil
	case strings.Contains(lower, "float"):
		return Entry{Attribute: name, Location: LocationFloat, Kind: KindFact, Inferred: true}, nil
	case strings.Contains(lower, "spectrum"):
		return Entry{Attribute: name, Location: LocationSpectrum, Kind: KindColumn, Inferred: true}, nil
	}
	return Entry{}, ir.NewUnknownAttribute(name)
}

// Entries returns every registered entry, ordered by location and then name.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	order := map[Location]int{}
	for i, loc := range Locations {
		order[loc] = i
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return order[out[i].Location] < order[out[j].Location]
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind // fact before column
		}
		return out[i].Attribute < out[j].Attribute
	})
	return out
}

// Len returns the number of registered attributes.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// NormalizeName trims surrounding whitespace and applies NFC normalization
// so that visually identical names resolve to the same entry.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
