package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/schema"
)

func buildTestSchema(t *testing.T) schema.Schema {
	var s schema.Schema
	require.NoError(t, s.AddField("title"))
	require.NoError(t, s.AddField("body"))
	require.NoError(t, s.Finalize())
	return s
}

func plainDict() dict.Dict {
	return dict.NewCRC([]string{"the"}, nil, dict.Settings{MinWordLen: 1})
}

func TestJuxtapositionAndAmpersandIsomorphic(t *testing.T) {
	sch := buildTestSchema(t)
	a, _, err := Parse("x y", sch)
	require.NoError(t, err)
	b, _, err := Parse("x & y", sch)
	require.NoError(t, err)

	assert.Equal(t, QAnd, a.Op)
	assert.Equal(t, QAnd, b.Op)
	assert.Len(t, a.Children, 2)
	assert.Len(t, b.Children, 2)
}

func TestFieldMaskSpec(t *testing.T) {
	sch := buildTestSchema(t)
	node, _, err := Parse("@title hello", sch)
	require.NoError(t, err)
	applyFieldMask(node, node.FieldMask) // no-op, already set by parser
	mask, err := sch.FieldMask([]string{"title"}, false)
	require.NoError(t, err)
	assert.Equal(t, mask, node.FieldMask)
	assert.True(t, node.IsPlain)
	assert.Equal(t, "hello", node.Words[0].Word)
}

func TestFieldListSpec(t *testing.T) {
	sch := buildTestSchema(t)
	node, _, err := Parse("@(title,body) hello", sch)
	require.NoError(t, err)
	assert.Equal(t, sch.AllFieldsMask(), node.FieldMask)
}

func TestPhraseVsProximity(t *testing.T) {
	sch := buildTestSchema(t)
	phrase, _, err := Parse(`"a b"`, sch)
	require.NoError(t, err)
	assert.True(t, phrase.IsPhrase)
	assert.Len(t, phrase.Words, 2)

	prox, _, err := Parse(`"a b"~2`, sch)
	require.NoError(t, err)
	assert.False(t, prox.IsPhrase)
	assert.EqualValues(t, 2, prox.MaxDistance)
}

func TestQuorum(t *testing.T) {
	sch := buildTestSchema(t)
	node, _, err := Parse(`"a b c"/2`, sch)
	require.NoError(t, err)
	assert.True(t, node.IsQuorum)
	assert.EqualValues(t, 2, node.QuorumN)
}

func TestNotFixupProducesAndNot(t *testing.T) {
	sch := buildTestSchema(t)
	node, _, err := Parse("quick -lazy", sch)
	require.NoError(t, err)
	processed, err := Process(node, plainDict())
	require.NoError(t, err)
	assert.Equal(t, QAndNot, processed.Op)
	assert.True(t, processed.Children[0].IsPlain)
	assert.Equal(t, "quick", processed.Children[0].Words[0].Word)
	assert.True(t, processed.Children[1].IsPlain)
	assert.Equal(t, "lazy", processed.Children[1].Words[0].Word)
}

func TestNotUnderOrIsError(t *testing.T) {
	sch := buildTestSchema(t)
	node, _, err := Parse("quick | -lazy", sch)
	require.NoError(t, err)
	_, err = Process(node, plainDict())
	assert.Error(t, err)
}

func TestStopwordSweepDropsNode(t *testing.T) {
	sch := buildTestSchema(t)
	node, _, err := Parse("the", sch)
	require.NoError(t, err)
	processed, err := Process(node, plainDict())
	require.NoError(t, err)
	assert.Nil(t, processed)
}

func TestUnknownFieldErrorsUnlessRelaxed(t *testing.T) {
	sch := buildTestSchema(t)
	_, _, err := Parse("@nosuchfield hello", sch)
	assert.Error(t, err)

	node, relaxed, err := Parse("@nosuchfield hello @@relaxed", sch)
	require.NoError(t, err)
	assert.True(t, relaxed)
	assert.EqualValues(t, 0, node.FieldMask)
}
