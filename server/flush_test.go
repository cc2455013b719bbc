package server_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/index"
	"github.com/mrold/sphinxgo/indexer"
	"github.com/mrold/sphinxgo/schema"
	"github.com/mrold/sphinxgo/segfmt"
	"github.com/mrold/sphinxgo/server"
	"github.com/mrold/sphinxgo/tokenizer"
)

func TestRunAttrFlusherPersistsDirtyIndex(t *testing.T) {
	var sch schema.Schema
	require.NoError(t, sch.AddField("text"))
	require.NoError(t, sch.AddAttr("price", schema.AttrInt32))
	require.NoError(t, sch.Finalize())

	d := dict.NewCRC([]string{"the"}, nil, dict.Settings{MinWordLen: 1})
	dir := t.TempDir()
	prefix := filepath.Join(dir, "flushme")
	p := indexer.New(indexer.Config{
		Schema: sch, Tokenizer: tokenizer.NewSimple(1), Dict: d,
		Docinfo: segfmt.DocinfoExtern, TempDir: dir,
	})
	require.NoError(t, p.BuildIndex(prefix, &indexer.SliceSource{
		Docs: []indexer.Doc{{ID: 1, Fields: []string{"quick fox"}}},
	}))

	r, err := index.Open(prefix)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	ctx := server.NewServerCtx(nil)
	_, err = ctx.AddIndex("flushme", r, d)
	require.NoError(t, err)

	attr, ok := sch.AttrByName("price")
	require.True(t, ok)
	require.NoError(t, r.UpdateAttr(1, attr.Loc, 7))
	assert.Greater(t, r.UpdateTag(), r.FlushTag())

	runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	server.RunAttrFlusher(runCtx, ctx, 5*time.Millisecond)

	assert.Equal(t, r.UpdateTag(), r.FlushTag())
}
