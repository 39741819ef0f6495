package parser

import (
	"strings"

	"github.com/chw3k5/mypysql/internal/catalog"
	"github.com/chw3k5/mypysql/internal/ir"
)

// conditionFields is the number of pipe-separated fields in a raw condition:
// logic prefix, open parens, attribute, comparator, literal, close parens.
const conditionFields = 6

// ParseConditions parses raw condition strings in order.
//
// Each raw string must split on "|" into exactly six fields. The logic prefix
// is trimmed and upper-cased; an empty prefix means AND. Parenthesis counts
// are the number of "(" and ")" characters in their fields, ignoring anything
// else. Attribute, comparator and literal are trimmed; the literal is
// resolved to its Value variant once, here.
//
// The chain as a whole must balance: no condition may close a parenthesis
// that was not opened, and every opened parenthesis must be closed.
func ParseConditions(raw []string) ([]ir.Condition, error) {
	conds := make([]ir.Condition, 0, len(raw))
	depth := 0
	for i, r := range raw {
		c, err := parseCondition(i+1, r)
		if err != nil {
			return nil, err
		}
		depth += c.OpenParens - c.CloseParens
		if depth < 0 {
			return nil, ir.NewMalformedCondition("condition %d closes a parenthesis that was never opened", i+1)
		}
		conds = append(conds, c)
	}
	if depth != 0 {
		return nil, ir.NewMalformedCondition("%d parenthesis left open at end of conditions", depth)
	}
	return conds, nil
}

func parseCondition(pos int, raw string) (ir.Condition, error) {
	fields := strings.Split(raw, "|")
	if len(fields) != conditionFields {
		return ir.Condition{}, ir.NewMalformedCondition(
			"condition %d %q has %d fields, want %d", pos, raw, len(fields), conditionFields)
	}

	logic := ir.Logic(strings.ToUpper(strings.TrimSpace(fields[0])))
	switch logic {
	case "":
		logic = ir.LogicAnd
	case ir.LogicAnd, ir.LogicOr:
	default:
		return ir.Condition{}, ir.NewMalformedCondition("condition %d has unknown logic prefix %q", pos, fields[0])
	}

	attribute := catalog.NormalizeName(fields[2])
	if attribute == "" {
		return ir.Condition{}, ir.NewMalformedCondition("condition %d has an empty attribute", pos)
	}

	comparator := ir.NormalizeComparator(fields[3])
	if !ir.IsComparator(comparator) {
		return ir.Condition{}, ir.NewMalformedCondition("condition %d has unsupported comparator %q", pos, strings.TrimSpace(fields[3]))
	}

	return ir.Condition{
		Logic:       logic,
		OpenParens:  strings.Count(fields[1], "("),
		Attribute:   attribute,
		Comparator:  comparator,
		Literal:     ir.ParseLiteral(strings.TrimSpace(fields[4])),
		CloseParens: strings.Count(fields[5], ")"),
	}, nil
}
