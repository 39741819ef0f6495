package ir

import (
	"encoding/json"
	"strings"
)

// Shape identifies the query shape selected by the first field of a query string.
type Shape string

const (
	// ShapeAttributeList is a query with N output attributes ("table").
	ShapeAttributeList Shape = "table"

	// ShapeTwoAxis is a query with exactly two output attributes, x then y ("plot").
	ShapeTwoAxis Shape = "plot"
)

// Logic is the logical prefix joining a condition to the previous one.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Condition is one caller-supplied filter clause.
//
// OpenParens and CloseParens carry the caller's nesting verbatim; rendering
// emits exactly that many "(" and ")".
type Condition struct {
	Logic       Logic  `json:"logic"`
	OpenParens  int    `json:"open_parens"`
	Attribute   string `json:"attribute"`
	Comparator  string `json:"comparator"`
	Literal     Value  `json:"literal"`
	CloseParens int    `json:"close_parens"`

	// TableAlias qualifies Attribute when set.
	TableAlias string `json:"table_alias,omitempty"`
}

// String renders the condition as query text:
//
//	<logic> ((alias.attribute <comparator> <literal>)
func (c Condition) String() string {
	var b strings.Builder
	b.WriteString(string(c.Logic))
	b.WriteByte(' ')
	c.writeBody(&b)
	return b.String()
}

func (c Condition) writeBody(b *strings.Builder) {
	b.WriteString(strings.Repeat("(", c.OpenParens))
	if c.TableAlias != "" {
		b.WriteString(c.TableAlias)
		b.WriteByte('.')
	}
	b.WriteString(c.Attribute)
	b.WriteByte(' ')
	b.WriteString(c.Comparator)
	b.WriteByte(' ')
	b.WriteString(SQLLiteral(c.Literal))
	b.WriteString(strings.Repeat(")", c.CloseParens))
}

// RenderConditions renders conditions in order, separated by spaces, with the
// leading logic prefix of the first condition suppressed.
func RenderConditions(conds []Condition) string {
	var b strings.Builder
	for i, c := range conds {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(string(c.Logic))
			b.WriteByte(' ')
		}
		c.writeBody(&b)
	}
	return b.String()
}

// ParsedQuery is the tagged union produced by the query parser.
// Only AttributeListQuery and TwoAxisQuery implement it.
type ParsedQuery interface {
	Shape() Shape
	Attributes() []string
	Conditions() []Condition
}

// AttributeListQuery requests N attributes in caller order.
type AttributeListQuery struct {
	Attrs []string    `json:"attributes"`
	Conds []Condition `json:"conditions"`
}

func (q AttributeListQuery) Shape() Shape            { return ShapeAttributeList }
func (q AttributeListQuery) Attributes() []string    { return q.Attrs }
func (q AttributeListQuery) Conditions() []Condition { return q.Conds }

// TwoAxisQuery requests an x and a y attribute.
type TwoAxisQuery struct {
	X     string      `json:"x"`
	Y     string      `json:"y"`
	Conds []Condition `json:"conditions"`
}

func (q TwoAxisQuery) Shape() Shape            { return ShapeTwoAxis }
func (q TwoAxisQuery) Attributes() []string    { return []string{q.X, q.Y} }
func (q TwoAxisQuery) Conditions() []Condition { return q.Conds }

// AttributeBundle is one resolved attribute occurrence on one entity.
type AttributeBundle struct {
	Value     Value `json:"value" yaml:"value"`
	Attribute Value `json:"param" yaml:"param"`
	ErrLow    Value `json:"err_low" yaml:"err_low"`
	ErrHigh   Value `json:"err_high" yaml:"err_high"`
	Ref       Value `json:"ref" yaml:"ref"`
	Units     Value `json:"units" yaml:"units"`
}

// Key identifies a bundle by all of its fields.
func (b AttributeBundle) Key() string {
	return strings.Join([]string{
		Key(b.Value), Key(b.Attribute), Key(b.ErrLow), Key(b.ErrHigh), Key(b.Ref), Key(b.Units),
	}, "\x00")
}

// MarshalJSON renders the bundle as an object keyed value, param, err_low, err_high, ref, units.
func (b AttributeBundle) MarshalJSON() ([]byte, error) {
	fields := []struct {
		name string
		v    Value
	}{
		{"value", b.Value}, {"param", b.Attribute}, {"err_low", b.ErrLow},
		{"err_high", b.ErrHigh}, {"ref", b.Ref}, {"units", b.Units},
	}
	out := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		raw, err := MarshalValue(f.v)
		if err != nil {
			return nil, err
		}
		out[f.name] = raw
	}
	return json.Marshal(out)
}

// ColumnKind distinguishes identifier columns from attribute clusters.
type ColumnKind string

const (
	ColumnPlain     ColumnKind = "plain"
	ColumnAttribute ColumnKind = "attribute"
)

// ColumnValues is one output column of a Record.
// Plain columns fill Scalars, attribute columns fill Bundles.
type ColumnValues struct {
	Name    string            `json:"name" yaml:"name"`
	Kind    ColumnKind        `json:"kind" yaml:"kind"`
	Scalars []Value           `json:"scalars,omitempty" yaml:"scalars,omitempty"`
	Bundles []AttributeBundle `json:"bundles,omitempty" yaml:"bundles,omitempty"`
}

// Record is the folded output for one distinct primary key.
type Record struct {
	Key     Value          `json:"key" yaml:"key"`
	Columns []ColumnValues `json:"columns" yaml:"columns"`
}

// Column returns the named column, or nil.
func (r Record) Column(name string) *ColumnValues {
	for i := range r.Columns {
		if r.Columns[i].Name == name {
			return &r.Columns[i]
		}
	}
	return nil
}

// MarshalJSON renders the record as the tuple (key, column1Values, column2Values, ...).
func (r Record) MarshalJSON() ([]byte, error) {
	tuple := make([]any, 0, len(r.Columns)+1)
	key, err := MarshalValue(r.Key)
	if err != nil {
		return nil, err
	}
	tuple = append(tuple, json.RawMessage(key))
	for _, col := range r.Columns {
		if col.Kind == ColumnAttribute {
			bundles := col.Bundles
			if bundles == nil {
				bundles = []AttributeBundle{}
			}
			tuple = append(tuple, bundles)
			continue
		}
		scalars := make([]json.RawMessage, 0, len(col.Scalars))
		for _, s := range col.Scalars {
			raw, err := MarshalValue(s)
			if err != nil {
				return nil, err
			}
			scalars = append(scalars, raw)
		}
		tuple = append(tuple, scalars)
	}
	return json.Marshal(tuple)
}

// comparators is the allow-list of condition comparators, in canonical form.
var comparators = map[string]bool{
	"=": true, "==": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "NOT LIKE": true, "GLOB": true,
	"IS": true, "IS NOT": true,
}

// NormalizeComparator upper-cases word comparators and collapses inner
// whitespace, so " not   like " becomes "NOT LIKE".
func NormalizeComparator(op string) string {
	return strings.ToUpper(strings.Join(strings.Fields(op), " "))
}

// IsComparator reports whether op, in canonical form, is an allowed comparator.
func IsComparator(op string) bool {
	return comparators[op]
}

// Header suffixes of the six columns of an attribute cluster, in select order.
const (
	SuffixParam     = "_param"
	SuffixValue     = "_value"
	SuffixErrorLow  = "_errorlow"
	SuffixErrorHigh = "_errorhigh"
	SuffixRef       = "_ref"
	SuffixUnits     = "_units"
)

// ClusterSuffixes lists the cluster suffixes in select order.
var ClusterSuffixes = []string{SuffixParam, SuffixValue, SuffixErrorLow, SuffixErrorHigh, SuffixRef, SuffixUnits}

// ClusterHeader returns the six header labels for an attribute cluster.
func ClusterHeader(label string) []string {
	out := make([]string, len(ClusterSuffixes))
	for i, s := range ClusterSuffixes {
		out[i] = label + s
	}
	return out
}
