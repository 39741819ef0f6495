package catalog

import "slices"

// Location is the storage location an attribute resolves to.
type Location string

const (
	LocationFloat    Location = "object-float-facts"
	LocationString   Location = "object-string-facts"
	LocationSpectrum Location = "spectrum-facts"
)

// Locations lists every location in planning order.
var Locations = []Location{LocationFloat, LocationString, LocationSpectrum}

// Schema names the physical tables the engine reads.
type Schema struct {
	Bridge          string `json:"bridge"`
	FloatFacts      string `json:"float_facts"`
	StringFacts     string `json:"string_facts"`
	Spectra         string `json:"spectra"`
	FloatCatalog    string `json:"float_catalog"`
	StringCatalog   string `json:"string_catalog"`
	SpectrumCatalog string `json:"spectrum_catalog"`
}

// DefaultSchema returns the table names of the standard fact schema.
func DefaultSchema() Schema {
	return Schema{
		Bridge:          "handles",
		FloatFacts:      "object_params_float",
		StringFacts:     "object_params_str",
		Spectra:         "spectra",
		FloatCatalog:    "available_float_params",
		StringCatalog:   "available_str_params",
		SpectrumCatalog: "available_spectrum_params",
	}
}

// Bridge column names. The bridge maps each entity to each of its spectra
// and carries the entity's display names.
const (
	ColSpectrumHandle = "spectrum_handle"
	ColEntityHandle   = "spexodisks_handle"
	ColPopName        = "pop_name"
	ColSimbadName     = "preferred_simbad_name"
)

// BridgeColumns are the plain identifier columns of every query, in output order.
var BridgeColumns = []string{ColSpectrumHandle, ColEntityHandle, ColPopName, ColSimbadName}

// Layout describes how one storage location maps onto physical columns.
//
// An empty column name means the location has no such column and NULL is
// selected in its place. Type is empty for spectra, whose attributes are
// columns rather than rows.
type Layout struct {
	Table   string
	Key     string
	Type    string
	Value   string
	ErrLow  string
	ErrHigh string
	Ref     string
	Units   string

	// Internal lists columns that are never attributes (join keys, row ids).
	Internal []string
}

// Layout returns the physical layout of loc.
func (s Schema) Layout(loc Location) Layout {
	switch loc {
	case LocationFloat:
		return Layout{
			Table:    s.FloatFacts,
			Key:      ColEntityHandle,
			Type:     "float_param_type",
			Value:    "float_value",
			ErrLow:   "float_error_low",
			ErrHigh:  "float_error_high",
			Ref:      "float_ref",
			Units:    "float_units",
			Internal: []string{"float_index_params", ColEntityHandle},
		}
	case LocationString:
		return Layout{
			Table:    s.StringFacts,
			Key:      ColEntityHandle,
			Type:     "str_param_type",
			Value:    "str_value",
			ErrLow:   "str_error",
			ErrHigh:  "str_error",
			Ref:      "str_ref",
			Units:    "str_units",
			Internal: []string{"str_index_params", ColEntityHandle},
		}
	default:
		return Layout{
			Table:    s.Spectra,
			Key:      ColSpectrumHandle,
			Ref:      "spectrum_reference",
			Internal: []string{ColSpectrumHandle, ColEntityHandle},
		}
	}
}

// IsInternal reports whether column is a join key or row id of the layout.
func (l Layout) IsInternal(column string) bool {
	return slices.Contains(l.Internal, column)
}
