package indices

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/errs"
)

func testSchema(t *testing.T) *dataset.Schema {
	t.Helper()
	s, err := dataset.RealSchema("a", "b", "c", "z")
	require.NoError(t, err)

	return s
}

func TestParseFlat(t *testing.T) {
	ix, err := Parse("1, 2, #a*#b, 4")
	require.NoError(t, err)

	require.Len(t, ix.X, 4)
	require.True(t, ix.X[0].IsConstant())
	require.Equal(t, 0, ix.X[1].Position())
	require.Equal(t, 1, ix.X[2].Position())
	require.Equal(t, KindExpr, ix.X[3].Kind())
	require.Equal(t, []string{"a", "b"}, ix.X[3].Expr().Fields())

	require.Len(t, ix.Z, 2)
	require.True(t, ix.Z[0].IsConstant())
	require.Equal(t, 3, ix.Response().Position())
	require.Len(t, ix.Groups, 4)
	require.Equal(t, "1, 2, #a*#b, 4", ix.String())
}

func TestParseGrouped(t *testing.T) {
	ix, err := Parse(" {1, 2}, {#a^2} ,{4, 3} ")
	require.NoError(t, err)

	require.Len(t, ix.X, 3)
	require.Equal(t, 0, ix.X[1].Position())
	require.Equal(t, "#a^2", ix.X[2].String())
	require.Equal(t, 3, ix.Response().Position())

	require.Len(t, ix.Groups, 3)
	require.Len(t, ix.Groups[0], 2)
	require.Equal(t, 1, ix.Groups[0][1].Position())
	require.Equal(t, 2, ix.Groups[2][1].Position())
}

func TestParseCommaInsideCall(t *testing.T) {
	ix, err := Parse("(#a + #b), log(#c), 4")
	require.NoError(t, err)
	require.Len(t, ix.Regressors(), 2)
}

func TestParseResponseOnly(t *testing.T) {
	ix, err := Parse("3")
	require.NoError(t, err)
	require.Len(t, ix.X, 1)
	require.Equal(t, 2, ix.Response().Position())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		spec string
		pos  int
	}{
		{"", 0},
		{"   ", 0},
		{"0, 1", 0},
		{"1, , 2", 2},
		{"1, #a +, 2", 7},
		{"1, 2.5, 3", 3},
		{"1, (#a, 2", 9},
		{"1, #a), 2", 5},
		{"{1, 2", 5},
		{"{1}, 2", 5},
		{"{1} {2}", 4},
		{"{1, {2}}", 4},
		{"{}, {1}", 1},
		{"1, foo(#a), 2", 3},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := Parse(tt.spec)
			require.ErrorIs(t, err, errs.ErrParse)

			var pe *errs.ParseError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, tt.pos, pe.Pos)
			require.Equal(t, tt.spec, pe.Input)
		})
	}
}

func TestBind(t *testing.T) {
	s := testSchema(t)

	require.NoError(t, MustParse("1, #a*#c, 4").Bind(s))
	require.ErrorIs(t, MustParse("1, 5").Bind(s), errs.ErrParse)
	require.ErrorIs(t, MustParse("#nope, 4").Bind(s), errs.ErrParse)
	require.ErrorIs(t, MustParse("1, #nope").Bind(s), errs.ErrParse)
}

func TestValue(t *testing.T) {
	s := testSchema(t)
	p, err := dataset.ProfileOf(s, 2, 3, math.NaN(), 7)
	require.NoError(t, err)

	ix := MustParse("1, #a*#b, #c + 1, 4")

	v, ok := ix.X[0].Value(p)
	require.True(t, ok)
	require.Equal(t, 1.0, v)

	v, ok = ix.X[1].Value(p)
	require.True(t, ok)
	require.Equal(t, 2.0, v)

	v, ok = ix.X[2].Value(p)
	require.True(t, ok)
	require.Equal(t, 6.0, v)

	_, ok = ix.X[3].Value(p)
	require.False(t, ok)

	v, ok = ix.Response().Value(p)
	require.True(t, ok)
	require.Equal(t, 7.0, v)
}

func TestDefault(t *testing.T) {
	s := testSchema(t)
	ix, err := Default(s)
	require.NoError(t, err)
	require.Equal(t, "1, 2, 3, 4", ix.String())
	require.Equal(t, []string{"1", "a", "b", "c"}, ix.Labels(s))

	empty, err := dataset.NewSchema()
	require.NoError(t, err)
	_, err = Default(empty)
	require.ErrorIs(t, err, errs.ErrInsufficientData)
}

func TestSelect(t *testing.T) {
	ix := MustParse("1, 2, 3, 4")
	sub := ix.Select([]int{1, 3})
	require.Equal(t, "1, 3, 4", sub.String())
	require.Len(t, sub.Groups, 3)
}
