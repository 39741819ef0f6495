package parser

import (
	"strconv"
	"strings"

	"github.com/chw3k5/mypysql/internal/catalog"
	"github.com/chw3k5/mypysql/internal/ir"
)

// Shape markers accepted as the first field of a query string.
const (
	MarkerTable  = "table"
	MarkerPlot   = "plot"
	MarkerXYPlot = "xy_plot"
)

// ParseQuery parses a comma-separated query string.
//
//	table,<n>,<attr_1>,...,<attr_n>[,<condition>...]
//	plot[,2],<x>,<y>[,<condition>...]
//	xy_plot[,2],<x>,<y>[,<condition>...]
//
// Fields after the attributes are raw conditions; fields that are empty or
// whitespace only are skipped. Conditions use "|" internally, so they never
// contain the outer comma.
func ParseQuery(query string) (ir.ParsedQuery, error) {
	fields := strings.Split(query, ",")
	marker := strings.ToLower(strings.TrimSpace(fields[0]))
	rest := fields[1:]

	switch marker {
	case MarkerTable:
		return parseAttributeList(rest)
	case MarkerPlot, MarkerXYPlot:
		return parseTwoAxis(rest)
	default:
		return nil, ir.NewUnsupportedQueryType(marker)
	}
}

func parseAttributeList(fields []string) (ir.ParsedQuery, error) {
	if len(fields) == 0 {
		return nil, ir.NewInvalidQueryShape("table query needs an attribute count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, ir.NewInvalidQueryShape("attribute count %q is not an integer", strings.TrimSpace(fields[0]))
	}
	fields = fields[1:]
	if n < 0 {
		return nil, ir.NewInvalidQueryShape("attribute count %d is negative", n)
	}
	if n > len(fields) {
		return nil, ir.NewInvalidQueryShape("attribute count %d exceeds the %d fields supplied", n, len(fields))
	}

	attrs, err := attributes(fields[:n])
	if err != nil {
		return nil, err
	}
	conds, err := conditions(fields[n:])
	if err != nil {
		return nil, err
	}
	return ir.AttributeListQuery{Attrs: attrs, Conds: conds}, nil
}

func parseTwoAxis(fields []string) (ir.ParsedQuery, error) {
	// An optional count field is tolerated for symmetry with table queries.
	if len(fields) > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(fields[0])); err == nil {
			if n != 2 {
				return nil, ir.NewInvalidQueryShape("two-axis query takes exactly 2 attributes, got count %d", n)
			}
			fields = fields[1:]
		}
	}
	if len(fields) < 2 {
		return nil, ir.NewInvalidQueryShape("two-axis query needs x and y attributes, got %d fields", len(fields))
	}

	axes, err := attributes(fields[:2])
	if err != nil {
		return nil, err
	}
	conds, err := conditions(fields[2:])
	if err != nil {
		return nil, err
	}
	return ir.TwoAxisQuery{X: axes[0], Y: axes[1], Conds: conds}, nil
}

func attributes(fields []string) ([]string, error) {
	attrs := make([]string, len(fields))
	for i, f := range fields {
		attrs[i] = catalog.NormalizeName(f)
		if attrs[i] == "" {
			return nil, ir.NewInvalidQueryShape("attribute %d is empty", i+1)
		}
	}
	return attrs, nil
}

func conditions(fields []string) ([]ir.Condition, error) {
	raw := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			continue
		}
		raw = append(raw, f)
	}
	return ParseConditions(raw)
}
