package indexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/indexer"
)

func TestMultiSourceReadsEachSourceInOrder(t *testing.T) {
	a := &indexer.SliceSource{Docs: []indexer.Doc{{ID: 1}, {ID: 2}}, KillList: []uint64{9}}
	b := &indexer.SliceSource{Docs: []indexer.Doc{{ID: 3}}, KillList: []uint64{10, 11}}

	m := indexer.NewMultiSource(a, b)
	require.NoError(t, m.Connect())

	var ids []uint64
	for {
		d, ok, err := m.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	kills, err := m.Kills()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{9, 10, 11}, kills)
}
