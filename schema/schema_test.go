package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/binio"
)

func buildTestSchema(t *testing.T) Schema {
	var s Schema
	require.NoError(t, s.AddField("title"))
	require.NoError(t, s.AddField("body"))
	require.NoError(t, s.AddAttr("views", AttrInt32))
	require.NoError(t, s.AddAttr("created", AttrTimestamp))
	require.NoError(t, s.AddAttr("price", AttrFloat32))
	require.NoError(t, s.AddAttr("tags", AttrMva))
	require.NoError(t, s.Finalize())
	return s
}

func TestSchemaFieldMask(t *testing.T) {
	s := buildTestSchema(t)

	mask, err := s.FieldMask([]string{"title"}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mask)

	mask, err = s.FieldMask([]string{"title", "body"}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0b11, mask)

	_, err = s.FieldMask([]string{"nope"}, false)
	assert.Error(t, err)

	mask, err = s.FieldMask([]string{"nope"}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, mask)
}

func TestSchemaDuplicateName(t *testing.T) {
	var s Schema
	require.NoError(t, s.AddField("title"))
	assert.Error(t, s.AddField("Title"))
	assert.Error(t, s.AddAttr("title", AttrInt32))
}

func TestSchemaRowRoundTrip(t *testing.T) {
	s := buildTestSchema(t)
	row := make(binio.PackedRow, s.RowWords)

	views, _ := s.AttrByName("views")
	created, _ := s.AttrByName("created")
	price, _ := s.AttrByName("price")

	row.Set(views.Loc, 42)
	row.Set(created.Loc, 1700000000)
	row.SetFloat32(price.Loc, 9.99)

	assert.EqualValues(t, 42, row.Get(views.Loc))
	assert.EqualValues(t, 1700000000, row.Get(created.Loc))
	assert.InDelta(t, 9.99, row.GetFloat32(price.Loc), 1e-5)
}

func TestMinimizeCommon(t *testing.T) {
	var a, b Schema
	require.NoError(t, a.AddField("title"))
	require.NoError(t, a.AddField("body"))
	require.NoError(t, a.AddAttr("views", AttrInt32))
	require.NoError(t, a.Finalize())

	require.NoError(t, b.AddField("title"))
	require.NoError(t, b.AddAttr("views", AttrInt32))
	require.NoError(t, b.AddAttr("price", AttrFloat32))
	require.NoError(t, b.Finalize())

	common, err := MinimizeCommon(a, b)
	require.NoError(t, err)
	assert.Len(t, common.Fields, 1)
	assert.Len(t, common.Attrs, 1)
}

func TestMatchLess(t *testing.T) {
	hi := Match{DocID: 5, Weight: 10, Tag: 1}
	lo := Match{DocID: 1, Weight: 5, Tag: 0}
	assert.True(t, Less(hi, lo))

	sameWeight1 := Match{DocID: 1, Weight: 10, Tag: 1}
	sameWeight2 := Match{DocID: 2, Weight: 10, Tag: 0}
	assert.True(t, Less(sameWeight1, sameWeight2))

	sameDoc1 := Match{DocID: 1, Weight: 10, Tag: 0}
	sameDoc2 := Match{DocID: 1, Weight: 10, Tag: 1}
	assert.True(t, Less(sameDoc1, sameDoc2))
}
