package scorer_test

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/index"
	"github.com/mrold/sphinxgo/indexer"
	"github.com/mrold/sphinxgo/query"
	"github.com/mrold/sphinxgo/schema"
	"github.com/mrold/sphinxgo/scorer"
	"github.com/mrold/sphinxgo/segfmt"
	"github.com/mrold/sphinxgo/tokenizer"
)

func buildSampleIndex(t *testing.T) *index.Reader {
	t.Helper()
	var sch schema.Schema
	require.NoError(t, sch.AddField("text"))
	require.NoError(t, sch.Finalize())

	src := &indexer.SliceSource{Docs: []indexer.Doc{
		{ID: 1, Fields: []string{"the quick brown fox"}},
		{ID: 2, Fields: []string{"the lazy dog"}},
		{ID: 3, Fields: []string{"quick dog"}},
	}}

	dir := t.TempDir()
	prefix := filepath.Join(dir, "sample")

	p := indexer.New(indexer.Config{
		Schema:    sch,
		Tokenizer: tokenizer.NewSimple(1),
		Dict:      dict.NewCRC([]string{"the"}, nil, dict.Settings{MinWordLen: 1}),
		Docinfo:   segfmt.DocinfoExtern,
		TempDir:   dir,
	})
	require.NoError(t, p.BuildIndex(prefix, src))

	r, err := index.Open(prefix)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func docIDs(matches []schema.Match) []uint64 {
	ids := make([]uint64, len(matches))
	for i, m := range matches {
		ids[i] = m.DocID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestBuildAndSearchQuick(t *testing.T) {
	r := buildSampleIndex(t)
	d := dict.NewCRC([]string{"the"}, nil, dict.Settings{MinWordLen: 1})

	node, _, err := query.Parse("quick", r.Schema)
	require.NoError(t, err)
	node, err = query.Process(node, d)
	require.NoError(t, err)

	matches, err := scorer.Search(r, d, node, scorer.RankProximityBm25, nil, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 3}, docIDs(matches))
}

func TestBuildAndSearchAnd(t *testing.T) {
	r := buildSampleIndex(t)
	d := dict.NewCRC([]string{"the"}, nil, dict.Settings{MinWordLen: 1})

	node, _, err := query.Parse("quick dog", r.Schema)
	require.NoError(t, err)
	node, err = query.Process(node, d)
	require.NoError(t, err)

	matches, err := scorer.Search(r, d, node, scorer.RankNone, nil, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{3}, docIDs(matches))
}

func TestBuildAndSearchOr(t *testing.T) {
	r := buildSampleIndex(t)
	d := dict.NewCRC([]string{"the"}, nil, dict.Settings{MinWordLen: 1})

	node, _, err := query.Parse("quick | lazy", r.Schema)
	require.NoError(t, err)
	node, err = query.Process(node, d)
	require.NoError(t, err)

	matches, err := scorer.Search(r, d, node, scorer.RankNone, nil, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2, 3}, docIDs(matches))
}

func TestPhraseVsProximityEndToEnd(t *testing.T) {
	var sch schema.Schema
	require.NoError(t, sch.AddField("text"))
	require.NoError(t, sch.Finalize())

	src := &indexer.SliceSource{Docs: []indexer.Doc{
		{ID: 1, Fields: []string{"a b c d"}},
		{ID: 2, Fields: []string{"a c b d"}},
	}}
	dir := t.TempDir()
	prefix := filepath.Join(dir, "sample")
	d := dict.NewCRC(nil, nil, dict.Settings{MinWordLen: 1})
	p := indexer.New(indexer.Config{
		Schema: sch, Tokenizer: tokenizer.NewSimple(1), Dict: d,
		Docinfo: segfmt.DocinfoExtern, TempDir: dir,
	})
	require.NoError(t, p.BuildIndex(prefix, src))
	r, err := index.Open(prefix)
	require.NoError(t, err)
	defer r.Close()

	phrase, _, err := query.Parse(`"a b"`, sch)
	require.NoError(t, err)
	phrase, err = query.Process(phrase, d)
	require.NoError(t, err)
	m1, err := scorer.Search(r, d, phrase, scorer.RankNone, nil, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1}, docIDs(m1))

	prox, _, err := query.Parse(`"a b"~2`, sch)
	require.NoError(t, err)
	prox, err = query.Process(prox, d)
	require.NoError(t, err)
	m2, err := scorer.Search(r, d, prox, scorer.RankNone, nil, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2}, docIDs(m2))
}
