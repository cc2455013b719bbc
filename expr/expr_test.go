package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/expr"
	"github.com/mrold/sphinxgo/schema"
)

func buildSchema(t *testing.T) schema.Schema {
	t.Helper()
	var sch schema.Schema
	require.NoError(t, sch.AddAttr("price", schema.AttrInt32))
	require.NoError(t, sch.AddAttr("qty", schema.AttrInt32))
	require.NoError(t, sch.Finalize())
	return sch
}

func TestArithmeticAndAttrRef(t *testing.T) {
	sch := buildSchema(t)
	p, err := expr.Compile("price * qty + 1", sch)
	require.NoError(t, err)

	priceAttr, _ := sch.AttrByName("price")
	qtyAttr, _ := sch.AttrByName("qty")
	row := make(binio.PackedRow, sch.RowWords)
	row.Set(priceAttr.Loc, 3)
	row.Set(qtyAttr.Loc, 4)

	assert.Equal(t, float64(13), p.Eval(row, 0, 0))
}

func TestMagicIdAndWeight(t *testing.T) {
	sch := buildSchema(t)
	p, err := expr.Compile("@id + @weight", sch)
	require.NoError(t, err)
	assert.Equal(t, float64(42+7), p.Eval(nil, 42, 7))
}

func TestFunctionsAndPrecedence(t *testing.T) {
	sch := buildSchema(t)

	p, err := expr.Compile("if(1 > 0, 10, 20)", sch)
	require.NoError(t, err)
	assert.Equal(t, float64(10), p.Eval(nil, 0, 0))

	p, err = expr.Compile("madd(2, 3, 4)", sch)
	require.NoError(t, err)
	assert.Equal(t, float64(10), p.Eval(nil, 0, 0))

	p, err = expr.Compile("in(5, 1, 5, 9)", sch)
	require.NoError(t, err)
	assert.Equal(t, float64(1), p.Eval(nil, 0, 0))

	p, err = expr.Compile("interval(15, 10, 20, 30)", sch)
	require.NoError(t, err)
	assert.Equal(t, float64(1), p.Eval(nil, 0, 0))
}

func TestGeodist(t *testing.T) {
	sch := buildSchema(t)
	p, err := expr.Compile("geodist(0, 0, 0, 0)", sch)
	require.NoError(t, err)
	assert.Equal(t, float64(0), p.Eval(nil, 0, 0))
}

func TestUnknownAttributeErrors(t *testing.T) {
	sch := buildSchema(t)
	_, err := expr.Compile("bogus + 1", sch)
	assert.Error(t, err)
}
