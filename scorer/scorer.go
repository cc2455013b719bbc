package scorer

import (
	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/index"
	"github.com/mrold/sphinxgo/query"
	"github.com/mrold/sphinxgo/schema"
)

// Search is the scorer's entry point (§4.G): it evaluates node against r,
// applies filters, scores the survivors under mode, and returns them as
// schema.Matches tagged tag (the originating shard, used by merge).
func Search(r *index.Reader, d dict.Dict, node *query.QNode, mode RankMode, filters []Filter, tag int32) ([]schema.Match, error) {
	query.ApplyDefaultFieldMask(node, r.Schema.AllFieldsMask())

	results := evalNode(r, d, node)
	stats := QueryStats{TotalDocs: r.Header.TotalDocuments, MatchedDocs: uint64(len(results))}

	matches := make([]schema.Match, 0, len(results))
	for docID, res := range results {
		if !passesFilters(r, r.Schema, docID, filters) {
			continue
		}
		row, _ := r.RowOf(docID)
		matches = append(matches, schema.Match{
			DocID:  docID,
			Weight: Weight(mode, res, stats),
			Row:    append(binio.PackedRow(nil), row...),
			Tag:    tag,
		})
	}
	return matches, nil
}
