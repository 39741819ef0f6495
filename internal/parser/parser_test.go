package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chw3k5/mypysql/internal/ir"
)

func TestParseConditions_Fields(t *testing.T) {
	conds, err := ParseConditions([]string{
		" and |(( | teff | > | 4000 | ",
		"AND| |teff|<|5000| ) ",
		"or| x | sptype | not  like | G% |)",
	})
	require.NoError(t, err)
	require.Len(t, conds, 3)

	assert.Equal(t, ir.Condition{
		Logic: ir.LogicAnd, OpenParens: 2, Attribute: "teff", Comparator: ">", Literal: ir.Int(4000),
	}, conds[0])
	assert.Equal(t, ir.Condition{
		Logic: ir.LogicAnd, Attribute: "teff", Comparator: "<", Literal: ir.Int(5000), CloseParens: 1,
	}, conds[1])
	assert.Equal(t, ir.Condition{
		Logic: ir.LogicOr, Attribute: "sptype", Comparator: "NOT LIKE", Literal: ir.Text("G%"), CloseParens: 1,
	}, conds[2])
}

func TestParseConditions_EmptyPrefixMeansAnd(t *testing.T) {
	conds, err := ParseConditions([]string{"|(|teff|>|4000|)"})
	require.NoError(t, err)
	assert.Equal(t, ir.LogicAnd, conds[0].Logic)
}

func TestParseConditions_Literals(t *testing.T) {
	conds, err := ParseConditions([]string{
		"and||teff|=|4000|",
		"and||sptype|=|teff|",
		"and||sptype|=|4000abc|",
		"and||dist|IS|null|",
	})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(4000), conds[0].Literal)
	assert.Equal(t, ir.Text("teff"), conds[1].Literal)
	assert.Equal(t, ir.Text("4000abc"), conds[2].Literal)
	assert.Equal(t, ir.Null{}, conds[3].Literal)
}

func TestParseConditions_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
	}{
		{"too few fields", []string{"and|(|teff|>|4000"}},
		{"too many fields", []string{"and|(|teff|>|4000|)|extra"}},
		{"bad prefix", []string{"xor||teff|>|4000|"}},
		{"empty attribute", []string{"and|| |>|4000|"}},
		{"bad comparator", []string{"and||teff|>>|4000|"}},
		{"injection comparator", []string{"and||teff|= 1; DROP TABLE stars; --|4000|"}},
		{"unclosed", []string{"and|((|teff|>|4000|)"}},
		{"closed first", []string{"and||teff|>|4000|)", "and|(|dist|<|10|"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConditions(tt.raw)
			require.Error(t, err)
			assert.True(t, ir.IsMalformedCondition(err), err.Error())
		})
	}
}

func TestParseQuery_Table(t *testing.T) {
	q, err := ParseQuery("table,2,teff,dist,and|(|teff|>|4000|,and||teff|<|5000|)")
	require.NoError(t, err)

	list, ok := q.(ir.AttributeListQuery)
	require.True(t, ok)
	assert.Equal(t, ir.ShapeAttributeList, list.Shape())
	assert.Equal(t, []string{"teff", "dist"}, list.Attributes())
	require.Len(t, list.Conditions(), 2)
	assert.Equal(t, 1, list.Conditions()[0].OpenParens)
	assert.Equal(t, 1, list.Conditions()[1].CloseParens)
}

func TestParseQuery_TableTrimsAndSkipsBlankConditions(t *testing.T) {
	q, err := ParseQuery(" TABLE , 1 , teff ,  , ")
	require.NoError(t, err)
	assert.Equal(t, []string{"teff"}, q.Attributes())
	assert.Empty(t, q.Conditions())
}

func TestParseQuery_TableZeroAttributes(t *testing.T) {
	q, err := ParseQuery("table,0,and||teff|>|4000|")
	require.NoError(t, err)
	assert.Empty(t, q.Attributes())
	assert.Len(t, q.Conditions(), 1)
}

func TestParseQuery_TwoAxis(t *testing.T) {
	for _, input := range []string{
		"plot,teff,mass,and||dist|<|100|",
		"xy_plot,teff,mass,and||dist|<|100|",
		"plot,2,teff,mass,and||dist|<|100|",
	} {
		t.Run(input, func(t *testing.T) {
			q, err := ParseQuery(input)
			require.NoError(t, err)

			xy, ok := q.(ir.TwoAxisQuery)
			require.True(t, ok)
			assert.Equal(t, "teff", xy.X)
			assert.Equal(t, "mass", xy.Y)
			assert.Equal(t, ir.ShapeTwoAxis, xy.Shape())
			require.Len(t, xy.Conds, 1)
			assert.Equal(t, "dist", xy.Conds[0].Attribute)
		})
	}
}

func TestParseQuery_Errors(t *testing.T) {
	tests := []struct {
		input string
		is    func(error) bool
	}{
		{"histogram,1,teff", ir.IsUnsupportedQueryType},
		{"", ir.IsUnsupportedQueryType},
		{"table", ir.IsInvalidQueryShape},
		{"table,two,teff,dist", ir.IsInvalidQueryShape},
		{"table,-1", ir.IsInvalidQueryShape},
		{"table,3,teff,dist", ir.IsInvalidQueryShape},
		{"table,2,teff, ", ir.IsInvalidQueryShape},
		{"plot,teff", ir.IsInvalidQueryShape},
		{"plot,3,teff,mass,dist", ir.IsInvalidQueryShape},
		{"plot,teff,mass,and|teff|>|4000", ir.IsMalformedCondition},
		{"table,1,teff,and|(|teff|>|4000|", ir.IsMalformedCondition},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseQuery(tt.input)
			require.Error(t, err)
			assert.True(t, tt.is(err), err.Error())
		})
	}
}
