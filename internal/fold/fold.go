// Package fold regroups flat joined rows into one record per primary key.
package fold

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chw3k5/mypysql/internal/ir"
)

// column describes one output column of a record: a plain column backed by
// one header position, or an attribute cluster backed by up to six.
type column struct {
	name string
	kind ir.ColumnKind

	plain int // header index of a plain column

	// header indexes of the cluster fields, -1 when absent
	param, value, errLow, errHigh, ref, units int
}

// layout is the column structure detected from a header.
type layout struct {
	key     int
	columns []column
}

// detect splits header into plain columns and attribute clusters.
// A label ending in one of the cluster suffixes belongs to the cluster named
// by the rest of the label. Plain columns come first in header order, then
// clusters in order of first appearance.
func detect(header []string, key string) (*layout, error) {
	l := &layout{key: -1}
	var plain []column
	var clusters []*column
	byName := map[string]*column{}

	for i, label := range header {
		if label == key {
			l.key = i
		}
		name, suffix, ok := splitCluster(label)
		if !ok {
			plain = append(plain, column{name: label, kind: ir.ColumnPlain, plain: i})
			continue
		}
		c, exists := byName[name]
		if !exists {
			c = &column{name: name, kind: ir.ColumnAttribute, param: -1, value: -1, errLow: -1, errHigh: -1, ref: -1, units: -1}
			byName[name] = c
			clusters = append(clusters, c)
		}
		switch suffix {
		case ir.SuffixParam:
			c.param = i
		case ir.SuffixValue:
			c.value = i
		case ir.SuffixErrorLow:
			c.errLow = i
		case ir.SuffixErrorHigh:
			c.errHigh = i
		case ir.SuffixRef:
			c.ref = i
		case ir.SuffixUnits:
			c.units = i
		}
	}

	if l.key < 0 {
		return nil, fmt.Errorf("fold: key column %q not in header", key)
	}
	for _, c := range clusters {
		if c.value < 0 {
			return nil, fmt.Errorf("fold: attribute cluster %q has no value column", c.name)
		}
	}

	l.columns = plain
	for _, c := range clusters {
		l.columns = append(l.columns, *c)
	}
	return l, nil
}

func splitCluster(label string) (name, suffix string, ok bool) {
	for _, s := range ir.ClusterSuffixes {
		if strings.HasSuffix(label, s) && len(label) > len(s) {
			return strings.TrimSuffix(label, s), s, true
		}
	}
	return "", "", false
}

// accumulator holds the per-column sets of one primary key.
type accumulator struct {
	key     ir.Value
	scalars []map[string]ir.Value
	bundles []map[string]ir.AttributeBundle
}

// Fold regroups rows into one Record per distinct primary key.
//
// Every raw value is coerced (integer, then float, then text) before it is
// placed in a set, so duplicates introduced by join fan-out collapse even
// when the same number arrives in different representations. Rows with a
// NULL key, NULL plain values and clusters with a NULL value are skipped.
//
// Records are sorted by key. Plain columns are sorted by value; attribute
// bundles are sorted by value with the remaining fields as tie-break.
func Fold(header []string, key string, rows [][]any) ([]ir.Record, error) {
	l, err := detect(header, key)
	if err != nil {
		return nil, err
	}

	accs := map[string]*accumulator{}
	for r, row := range rows {
		if len(row) != len(header) {
			return nil, ir.NewBackendError("fold",
				fmt.Errorf("row %d has %d values, header has %d columns", r, len(row), len(header)))
		}

		k := ir.Coerce(row[l.key])
		if ir.IsNull(k) {
			continue
		}
		acc, ok := accs[ir.Key(k)]
		if !ok {
			acc = newAccumulator(k, len(l.columns))
			accs[ir.Key(k)] = acc
		}

		for i, c := range l.columns {
			if c.kind == ir.ColumnPlain {
				v := ir.Coerce(row[c.plain])
				if !ir.IsNull(v) {
					acc.scalars[i][ir.Key(v)] = v
				}
				continue
			}
			b := ir.AttributeBundle{
				Value:     ir.Coerce(row[c.value]),
				Attribute: field(row, c.param),
				ErrLow:    field(row, c.errLow),
				ErrHigh:   field(row, c.errHigh),
				Ref:       field(row, c.ref),
				Units:     field(row, c.units),
			}
			if ir.IsNull(b.Value) {
				continue
			}
			acc.bundles[i][b.Key()] = b
		}
	}

	records := make([]ir.Record, 0, len(accs))
	for _, acc := range accs {
		records = append(records, acc.record(l))
	}
	sort.Slice(records, func(i, j int) bool {
		return less(records[i].Key, records[j].Key)
	})
	return records, nil
}

func newAccumulator(key ir.Value, n int) *accumulator {
	acc := &accumulator{
		key:     key,
		scalars: make([]map[string]ir.Value, n),
		bundles: make([]map[string]ir.AttributeBundle, n),
	}
	for i := 0; i < n; i++ {
		acc.scalars[i] = map[string]ir.Value{}
		acc.bundles[i] = map[string]ir.AttributeBundle{}
	}
	return acc
}

func field(row []any, idx int) ir.Value {
	if idx < 0 {
		return ir.Null{}
	}
	return ir.Coerce(row[idx])
}

func (acc *accumulator) record(l *layout) ir.Record {
	rec := ir.Record{Key: acc.key, Columns: make([]ir.ColumnValues, len(l.columns))}
	for i, c := range l.columns {
		cv := ir.ColumnValues{Name: c.name, Kind: c.kind}
		if c.kind == ir.ColumnPlain {
			cv.Scalars = make([]ir.Value, 0, len(acc.scalars[i]))
			for _, v := range acc.scalars[i] {
				cv.Scalars = append(cv.Scalars, v)
			}
			sort.Slice(cv.Scalars, func(a, b int) bool { return less(cv.Scalars[a], cv.Scalars[b]) })
		} else {
			cv.Bundles = make([]ir.AttributeBundle, 0, len(acc.bundles[i]))
			for _, b := range acc.bundles[i] {
				cv.Bundles = append(cv.Bundles, b)
			}
			sort.Slice(cv.Bundles, func(a, b int) bool {
				x, y := cv.Bundles[a], cv.Bundles[b]
				if c := ir.Compare(x.Value, y.Value); c != 0 {
					return c < 0
				}
				return x.Key() < y.Key()
			})
		}
		rec.Columns[i] = cv
	}
	return rec
}

// less orders values by Compare, breaking ties between equal numbers of
// different variants by their set key.
func less(a, b ir.Value) bool {
	if c := ir.Compare(a, b); c != 0 {
		return c < 0
	}
	return ir.Key(a) < ir.Key(b)
}
