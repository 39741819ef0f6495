package planner

import (
	"fmt"
	"sort"

	"github.com/chw3k5/mypysql/internal/catalog"
	"github.com/chw3k5/mypysql/internal/ir"
	"github.com/chw3k5/mypysql/internal/queryir"
)

const (
	bridgeAlias = "h"
	stageAlias  = "s"
)

// Builder translates parsed queries into plans against one catalog.
// A Builder is stateless apart from its catalog and safe for concurrent use.
type Builder struct {
	catalog *catalog.Catalog
}

// NewBuilder creates a Builder.
func NewBuilder(c *catalog.Catalog) *Builder {
	return &Builder{catalog: c}
}

// occurrence is one requested output attribute.
type occurrence struct {
	index int // position in the caller's attribute list
	entry catalog.Entry
	num   int // alias number, assigned in sorted order
	label string
}

func (o *occurrence) alias() string {
	return fmt.Sprintf("a%d", o.num)
}

// Build plans q.
//
// Requested attributes are grouped by location (float facts, string facts,
// spectra) and sorted by name within each group; aliases a1..aN are handed
// out in that order, one per occurrence, so a repeated attribute gets its
// own join. Output clusters follow the caller's order.
//
// When every condition targets a requested fact attribute the plan has one
// stage. Otherwise the first stage is materialized and a second stage joins
// each remaining condition target to it and applies the whole chain.
func (b *Builder) Build(q ir.ParsedQuery) (*Plan, error) {
	if q == nil {
		return nil, ir.NewInvalidQueryShape("no query")
	}
	if q.Shape() == ir.ShapeTwoAxis && len(q.Attributes()) != 2 {
		return nil, ir.NewInvalidQueryShape("two-axis query needs exactly 2 attributes, got %d", len(q.Attributes()))
	}

	occs, err := b.resolve(q.Attributes())
	if err != nil {
		return nil, err
	}
	conds := q.Conditions()
	condEntries := make([]catalog.Entry, len(conds))
	for i, c := range conds {
		e, err := b.locate(c.Attribute)
		if err != nil {
			return nil, err
		}
		condEntries[i] = e
	}

	schema := b.catalog.Schema()
	plan := &Plan{Shape: q.Shape(), Key: catalog.ColEntityHandle}
	for _, o := range occs {
		if o.entry.Location == catalog.LocationSpectrum {
			plan.Key = catalog.ColSpectrumHandle
		}
	}

	joinKind := queryir.JoinLeft
	if q.Shape() == ir.ShapeTwoAxis {
		joinKind = queryir.JoinInner
	}

	stage1 := &queryir.Select{
		From:    queryir.Table{Name: schema.Bridge, Alias: bridgeAlias},
		OrderBy: []queryir.Expr{queryir.Col(bridgeAlias, plan.Key)},
	}
	for _, col := range catalog.BridgeColumns {
		stage1.Columns = append(stage1.Columns, queryir.Output{Expr: queryir.Col(bridgeAlias, col), Name: col})
		plan.Header = append(plan.Header, col)
	}

	callerOrder := make([]*occurrence, len(occs))
	for _, o := range occs {
		callerOrder[o.index] = o
	}
	for _, o := range callerOrder {
		stage1.Columns = append(stage1.Columns, clusterOutputs(schema, o)...)
		plan.Header = append(plan.Header, ir.ClusterHeader(o.label)...)
		plan.Labels = append(plan.Labels, o.label)
	}
	for _, o := range occs {
		stage1.Joins = append(stage1.Joins, outputJoin(schema, joinKind, o))
	}

	// First occurrence of each requested attribute.
	requested := map[string]*occurrence{}
	for _, o := range callerOrder {
		if _, ok := requested[o.entry.Attribute]; !ok {
			requested[o.entry.Attribute] = o
		}
		plan.Attributes = append(plan.Attributes, o.entry.Attribute)
	}
	sort.Strings(plan.Attributes)

	singleStage := true
	for _, e := range condEntries {
		if inPlace(e, requested) == nil {
			singleStage = false
			break
		}
	}

	if singleStage {
		if len(conds) > 0 {
			links := make([]queryir.Link, len(conds))
			for i, c := range conds {
				o := inPlace(condEntries[i], requested)
				links[i] = link(c, valueColumn(schema, o.alias(), o.entry))
			}
			stage1.Where = queryir.Chain{Links: links}
		}
		plan.Stage1 = stage1
	} else {
		plan.Stage1 = stage1
		plan.Stage2 = b.secondStage(schema, plan.Key, stage1, len(occs), requested, conds, condEntries)
	}

	fp, err := plan.fingerprint()
	if err != nil {
		return nil, err
	}
	plan.Fingerprint = fp
	return plan, nil
}

// resolve locates every requested attribute and assigns aliases and labels.
func (b *Builder) resolve(attrs []string) ([]*occurrence, error) {
	occs := make([]*occurrence, len(attrs))
	seen := map[string]int{}
	for i, a := range attrs {
		e, err := b.locate(a)
		if err != nil {
			return nil, err
		}
		seen[e.Attribute]++
		label := e.Attribute
		if n := seen[e.Attribute]; n > 1 {
			label = fmt.Sprintf("%s[%d]", e.Attribute, n)
		}
		occs[i] = &occurrence{index: i, entry: e, label: label}
	}

	sort.SliceStable(occs, func(i, j int) bool {
		li, lj := locationRank(occs[i].entry.Location), locationRank(occs[j].entry.Location)
		if li != lj {
			return li < lj
		}
		if occs[i].entry.Attribute != occs[j].entry.Attribute {
			return occs[i].entry.Attribute < occs[j].entry.Attribute
		}
		return occs[i].index < occs[j].index
	})
	for i, o := range occs {
		o.num = i + 1
	}
	return occs, nil
}

// locate resolves an attribute and checks that column attributes can be
// rendered as identifiers.
func (b *Builder) locate(attr string) (catalog.Entry, error) {
	e, err := b.catalog.Locate(attr)
	if err != nil {
		return catalog.Entry{}, err
	}
	if e.Kind == catalog.KindColumn && !queryir.IsIdentifier(e.Attribute) {
		return catalog.Entry{}, ir.NewUnknownAttribute(e.Attribute)
	}
	return e, nil
}

func locationRank(loc catalog.Location) int {
	for i, l := range catalog.Locations {
		if l == loc {
			return i
		}
	}
	return len(catalog.Locations)
}

// clusterOutputs selects the six cluster columns of an occurrence.
func clusterOutputs(schema catalog.Schema, o *occurrence) []queryir.Output {
	layout := schema.Layout(o.entry.Location)
	alias := o.alias()
	n := o.num

	var param queryir.Expr
	if o.entry.Kind == catalog.KindFact {
		param = queryir.Col(alias, layout.Type)
	} else {
		param = queryir.Literal{Value: ir.Text(o.entry.Attribute)}
	}

	return []queryir.Output{
		{Expr: param, Name: fmt.Sprintf("param_%d", n)},
		{Expr: valueColumn(schema, alias, o.entry), Name: ValueColumn(n)},
		{Expr: columnOrNull(alias, layout.ErrLow), Name: fmt.Sprintf("error_low_%d", n)},
		{Expr: columnOrNull(alias, layout.ErrHigh), Name: fmt.Sprintf("error_high_%d", n)},
		{Expr: columnOrNull(alias, layout.Ref), Name: fmt.Sprintf("ref_%d", n)},
		{Expr: columnOrNull(alias, layout.Units), Name: fmt.Sprintf("units_%d", n)},
	}
}

// ValueColumn is the output name of the value column of cluster n.
func ValueColumn(n int) string {
	return fmt.Sprintf("value_%d", n)
}

// valueColumn is the column holding an attribute's value under alias.
func valueColumn(schema catalog.Schema, alias string, e catalog.Entry) queryir.Column {
	if e.Kind == catalog.KindFact {
		return queryir.Col(alias, schema.Layout(e.Location).Value)
	}
	return queryir.Col(alias, e.Attribute)
}

func columnOrNull(alias, column string) queryir.Expr {
	if column == "" {
		return queryir.Null{}
	}
	return queryir.Col(alias, column)
}

// outputJoin joins the fact table of an occurrence to the bridge, pinning
// the attribute type for fact attributes.
func outputJoin(schema catalog.Schema, kind queryir.JoinKind, o *occurrence) queryir.Join {
	return factJoin(schema, kind, o.alias(), bridgeAlias, o.entry)
}

func factJoin(schema catalog.Schema, kind queryir.JoinKind, alias, base string, e catalog.Entry) queryir.Join {
	layout := schema.Layout(e.Location)
	var on queryir.Predicate = queryir.Eq(queryir.Col(alias, layout.Key), queryir.Col(base, layout.Key))
	if e.Kind == catalog.KindFact {
		on = queryir.And{Predicates: []queryir.Predicate{
			on,
			queryir.Eq(queryir.Col(alias, layout.Type), queryir.Literal{Value: ir.Text(e.Attribute)}),
		}}
	}
	return queryir.Join{
		Kind:   kind,
		Source: queryir.Table{Name: layout.Table, Alias: alias},
		On:     on,
	}
}

// link converts a parsed condition into a chain link against left.
func link(c ir.Condition, left queryir.Expr) queryir.Link {
	return queryir.Link{
		Logic:       c.Logic,
		OpenParens:  c.OpenParens,
		Left:        left,
		Op:          c.Comparator,
		Right:       queryir.Literal{Value: c.Literal},
		CloseParens: c.CloseParens,
	}
}

// inPlace returns the requested occurrence a condition on e can filter
// directly, or nil. Only fact attributes qualify: their join is pinned to one
// attribute type. Column attributes are always filtered through the shared
// per-location condition join so that conditions on sibling columns, such as
// float_param_type and float_value, test the same fact row.
func inPlace(e catalog.Entry, requested map[string]*occurrence) *occurrence {
	if e.Kind != catalog.KindFact {
		return nil
	}
	return requested[e.Attribute]
}

// conditionTarget identifies a condition-only join: one per (location,
// attribute) for fact attributes, one per location for column attributes.
type conditionTarget struct {
	location  catalog.Location
	attribute string // empty for column attributes
}

func targetOf(e catalog.Entry) conditionTarget {
	if e.Kind == catalog.KindFact {
		return conditionTarget{location: e.Location, attribute: e.Attribute}
	}
	return conditionTarget{location: e.Location}
}

// secondStage reads the staged first stage, joins each condition-only
// target and applies the full chain in the caller's order.
func (b *Builder) secondStage(
	schema catalog.Schema,
	key string,
	stage1 *queryir.Select,
	aliasCount int,
	requested map[string]*occurrence,
	conds []ir.Condition,
	condEntries []catalog.Entry,
) *queryir.Select {
	stage2 := &queryir.Select{
		Distinct: true,
		From:     queryir.Staged{Alias: stageAlias},
		OrderBy:  []queryir.Expr{queryir.Col(stageAlias, key)},
	}
	for _, name := range stage1.OutputNames() {
		stage2.Columns = append(stage2.Columns, queryir.Output{Expr: queryir.Col(stageAlias, name), Name: name})
	}

	var targets []conditionTarget
	seen := map[conditionTarget]bool{}
	for _, e := range condEntries {
		if inPlace(e, requested) != nil {
			continue
		}
		t := targetOf(e)
		if !seen[t] {
			seen[t] = true
			targets = append(targets, t)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		ri, rj := locationRank(targets[i].location), locationRank(targets[j].location)
		if ri != rj {
			return ri < rj
		}
		return targets[i].attribute < targets[j].attribute
	})

	aliases := map[conditionTarget]string{}
	for i, t := range targets {
		alias := fmt.Sprintf("a%d", aliasCount+i+1)
		aliases[t] = alias
		entry := catalog.Entry{Location: t.location, Attribute: t.attribute, Kind: catalog.KindColumn}
		if t.attribute != "" {
			entry.Kind = catalog.KindFact
		}
		stage2.Joins = append(stage2.Joins, factJoin(schema, queryir.JoinLeft, alias, stageAlias, entry))
	}

	links := make([]queryir.Link, len(conds))
	for i, c := range conds {
		e := condEntries[i]
		if o := inPlace(e, requested); o != nil {
			links[i] = link(c, queryir.Col(stageAlias, ValueColumn(o.num)))
			continue
		}
		links[i] = link(c, valueColumn(schema, aliases[targetOf(e)], e))
	}
	stage2.Where = queryir.Chain{Links: links}
	return stage2
}
