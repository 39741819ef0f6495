package ir

import (
	"encoding/json"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Text("teff")
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"4000", Int(4000)},
		{"-12", Int(-12)},
		{"4000.5", Float(4000.5)},
		{"1e3", Float(1000)},
		{"teff", Text("teff")},
		{"4000abc", Text("4000abc")},
		{"NULL", Null{}},
		{"null", Null{}},
		{"True", Bool(true)},
		{"false", Bool(false)},
		{"NaN", Text("NaN")},
		{"Inf", Text("Inf")},
		{"", Text("")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLiteral(tt.in))
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"int64", int64(7), Int(7)},
		{"int", 7, Int(7)},
		{"float", 7.25, Float(7.25)},
		{"bool", true, Bool(true)},
		{"numeric string", "4000", Int(4000)},
		{"padded numeric string", " 4000 ", Int(4000)},
		{"float string", "0.1", Float(0.1)},
		{"bytes", []byte("12"), Int(12)},
		{"text", "HD 163296", Text("HD 163296")},
		{"already value", Text("x"), Text("x")},
		{"infinite float", math.Inf(-1), Text("-Inf")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.in))
		})
	}
}

func TestSQLLiteralQuotingPolicy(t *testing.T) {
	assert.Equal(t, "4000", SQLLiteral(ParseLiteral("4000")))
	assert.Equal(t, "'teff'", SQLLiteral(ParseLiteral("teff")))
	assert.Equal(t, "'4000abc'", SQLLiteral(ParseLiteral("4000abc")))
	assert.Equal(t, "4000.5", SQLLiteral(ParseLiteral("4000.5")))
	assert.Equal(t, "NULL", SQLLiteral(ParseLiteral("null")))
	assert.Equal(t, "TRUE", SQLLiteral(ParseLiteral("true")))
	assert.Equal(t, "'O''Brien'", SQLLiteral(Text("O'Brien")))
}

func TestParam(t *testing.T) {
	assert.Nil(t, Param(Null{}))
	assert.Nil(t, Param(nil))
	assert.Equal(t, int64(3), Param(Int(3)))
	assert.Equal(t, 2.5, Param(Float(2.5)))
	assert.Equal(t, "a", Param(Text("a")))
	assert.Equal(t, true, Param(Bool(true)))
}

func TestCompareOrdersVariants(t *testing.T) {
	values := []Value{Text("b"), Int(3), Null{}, Float(2.5), Bool(true), Text("a"), Bool(false)}
	sort.SliceStable(values, func(i, j int) bool { return Compare(values[i], values[j]) < 0 })

	assert.Equal(t, []Value{Null{}, Bool(false), Bool(true), Float(2.5), Int(3), Text("a"), Text("b")}, values)
}

func TestCompareNumbersNumerically(t *testing.T) {
	assert.Equal(t, 0, Compare(Int(4000), Float(4000)))
	assert.Equal(t, -1, Compare(Int(9), Float(10.5)))
	assert.Equal(t, 1, Compare(Int(math.MaxInt64), Int(math.MaxInt64-1)))
}

func TestKeyMatchesCompare(t *testing.T) {
	assert.Equal(t, Key(Int(4000)), Key(Float(4000)))
	assert.NotEqual(t, Key(Float(4000.5)), Key(Int(4000)))
	assert.NotEqual(t, Key(Text("4000")), Key(Int(4000)))
	assert.Equal(t, Key(Null{}), Key(nil))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(Null{}))
	assert.Equal(t, "4000", Format(Int(4000)))
	assert.Equal(t, "0.25", Format(Float(0.25)))
	assert.Equal(t, "HD 163296", Format(Text("HD 163296")))
}

func TestMarshalValue(t *testing.T) {
	for _, tt := range []struct {
		v    Value
		want string
	}{
		{Null{}, "null"},
		{Int(4), "4"},
		{Float(4.5), "4.5"},
		{Text("x"), `"x"`},
		{Bool(false), "false"},
	} {
		got, err := MarshalValue(tt.v)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}

	raw, err := json.Marshal(Null{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}
