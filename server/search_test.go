package server_test

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/index"
	"github.com/mrold/sphinxgo/indexer"
	"github.com/mrold/sphinxgo/schema"
	"github.com/mrold/sphinxgo/segfmt"
	"github.com/mrold/sphinxgo/server"
	"github.com/mrold/sphinxgo/tokenizer"
	"github.com/mrold/sphinxgo/wire"
)

func buildIndex(t *testing.T, name string, docs []indexer.Doc) (*index.Reader, dict.Dict) {
	return buildIndexWithKills(t, name, docs, nil)
}

func buildIndexWithKills(t *testing.T, name string, docs []indexer.Doc, kills []uint64) (*index.Reader, dict.Dict) {
	t.Helper()
	var sch schema.Schema
	require.NoError(t, sch.AddField("text"))
	require.NoError(t, sch.Finalize())

	d := dict.NewCRC([]string{"the"}, nil, dict.Settings{MinWordLen: 1})
	dir := t.TempDir()
	prefix := filepath.Join(dir, name)
	p := indexer.New(indexer.Config{
		Schema: sch, Tokenizer: tokenizer.NewSimple(1), Dict: d,
		Docinfo: segfmt.DocinfoExtern, TempDir: dir,
	})
	require.NoError(t, p.BuildIndex(prefix, &indexer.SliceSource{Docs: docs, KillList: kills}))

	r, err := index.Open(prefix)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, d
}

func resultIDs(res wire.SearchResult) []uint64 {
	ids := make([]uint64, len(res.Matches))
	for i, m := range res.Matches {
		ids[i] = m.DocID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestExecuteLocalSearchSingleIndex(t *testing.T) {
	r, d := buildIndex(t, "one", []indexer.Doc{
		{ID: 1, Fields: []string{"the quick brown fox"}},
		{ID: 2, Fields: []string{"the lazy dog"}},
		{ID: 3, Fields: []string{"quick dog"}},
	})

	ctx := server.NewServerCtx(nil)
	_, err := ctx.AddIndex("one", r, d)
	require.NoError(t, err)

	res, err := server.ExecuteLocalSearch(ctx, wire.SearchQuery{
		Indexes: "one", Query: "quick", MaxMatches: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, res.Status)
	assert.ElementsMatch(t, []uint64{1, 3}, resultIDs(res))
}

func TestExecuteLocalSearchUnknownIndex(t *testing.T) {
	ctx := server.NewServerCtx(nil)
	res, err := server.ExecuteLocalSearch(ctx, wire.SearchQuery{Indexes: "missing", Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusError, res.Status)
}

func TestExecuteLocalSearchMultiShardKilllistSuppression(t *testing.T) {
	// shardA carries docid 1, which shardB's killlist (listed after A)
	// names as killed; shardA's own index has no idea doc 1 is dead.
	rA, dA := buildIndex(t, "shardA", []indexer.Doc{
		{ID: 1, Fields: []string{"quick fox"}},
	})
	rB, dB := buildIndexWithKills(t, "shardB", []indexer.Doc{
		{ID: 2, Fields: []string{"quick cat"}},
	}, []uint64{1})

	ctx := server.NewServerCtx(nil)
	_, err := ctx.AddIndex("shardA", rA, dA)
	require.NoError(t, err)
	_, err = ctx.AddIndex("shardB", rB, dB)
	require.NoError(t, err)

	res, err := server.ExecuteLocalSearch(ctx, wire.SearchQuery{
		Indexes: "shardA,shardB", Query: "quick", MaxMatches: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, wire.StatusOK, res.Status)
	assert.Equal(t, []uint64{2}, resultIDs(res))
}
