package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/mrold/sphinxgo/query"
	"github.com/mrold/sphinxgo/schema"
	"github.com/mrold/sphinxgo/scorer"
	"github.com/mrold/sphinxgo/sortqueue"
	"github.com/mrold/sphinxgo/wire"
)

// shardMatches is one local index's raw scorer output, tagged by its
// position in the query's index list (used for dupe-resolution and for
// the killlist cross-shard suppression rule below).
type shardMatches struct {
	name     string
	tag      int32
	sch      schema.Schema
	matches  []schema.Match
	killlist []uint64
}

// ExecuteLocalSearch runs one SearchQuery against every local index
// named in q.Indexes (comma-separated, §6.2), in listed order, and
// returns the merged, sorted result.
//
// Killlist semantics (§8 scenario 4): a later-listed shard's killlist
// suppresses matches from an earlier-listed shard — each index's own
// postings are already filtered against its own killlist inside scorer
// (index.Reader.IsKilled), but a doc that's alive in shard A and killed
// in shard B (listed after A) must still disappear from A's contribution
// once B's killlist is known.
func ExecuteLocalSearch(ctx *ServerCtx, q wire.SearchQuery) (wire.SearchResult, error) {
	names := splitIndexList(q.Indexes)
	if len(names) == 0 {
		return wire.SearchResult{}, fmt.Errorf("server: empty index list")
	}

	shards := make([]shardMatches, 0, len(names))
	for i, name := range names {
		h, ok := ctx.Index(name)
		if !ok {
			return errorResult(fmt.Errorf("server: unknown index %q", name)), nil
		}
		r := h.Current()
		n, _, err := query.Parse(q.Query, r.Schema)
		if err != nil {
			return errorResult(err), nil
		}
		n, err = query.Process(n, h.Dict)
		if err != nil {
			return errorResult(err), nil
		}
		dumpQueryTree(ctx.Log, name, n)

		filters := convertFilters(q.Filters)
		matches, err := scorer.Search(r, h.Dict, n, scorer.RankMode(q.Ranker), filters, int32(i))
		if err != nil {
			return errorResult(err), nil
		}
		shards = append(shards, shardMatches{
			name: name, tag: int32(i), sch: r.Schema,
			matches: matches, killlist: r.Killlist(),
		})
	}

	suppressEarlierShards(shards)

	mergedSchema, err := MinimizeAndMergeSchema(schemasOf(shards))
	if err != nil {
		return errorResult(err), nil
	}

	limit := int(q.MaxMatches)
	if limit == 0 {
		limit = 20
	}
	sq := sortqueue.NewTopN(limit)
	total := 0
	for _, s := range shards {
		for _, m := range s.matches {
			total++
			sq.Push(m)
		}
	}

	out := sq.Flatten(0)
	res := wire.SearchResult{
		Status:     wire.StatusOK,
		Fields:     fieldNames(mergedSchema),
		AttrNames:  attrNames(mergedSchema),
		AttrTypes:  attrTypes(mergedSchema),
		Matches:    toResultMatches(out, mergedSchema),
		Total:      uint32(len(out)),
		TotalFound: uint32(total),
	}
	return res, nil
}

// suppressEarlierShards drops any match from an earlier shard whose
// docid appears in a later shard's killlist, mutating each shard's
// matches slice in place.
func suppressEarlierShards(shards []shardMatches) {
	for i := range shards {
		var laterKilled map[uint64]bool
		for j := i + 1; j < len(shards); j++ {
			for _, id := range shards[j].killlist {
				if laterKilled == nil {
					laterKilled = map[uint64]bool{}
				}
				laterKilled[id] = true
			}
		}
		if len(laterKilled) == 0 {
			continue
		}
		kept := shards[i].matches[:0]
		for _, m := range shards[i].matches {
			if !laterKilled[m.DocID] {
				kept = append(kept, m)
			}
		}
		shards[i].matches = kept
	}
}

func splitIndexList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func schemasOf(shards []shardMatches) []schema.Schema {
	out := make([]schema.Schema, len(shards))
	for i, s := range shards {
		out[i] = s.sch
	}
	return out
}

// convertFilters resolves wire.Filter clauses to the scorer's Filter type.
func convertFilters(fs []wire.Filter) []scorer.Filter {
	out := make([]scorer.Filter, 0, len(fs))
	for _, f := range fs {
		sf := scorer.Filter{Attr: f.Name, Exclude: f.Exclude}
		switch f.Kind {
		case wire.FilterValues:
			sf.Kind = scorer.FilterValues
			sf.Values = f.Values
		case wire.FilterRange:
			sf.Kind = scorer.FilterRange
			sf.Min, sf.Max = f.Min, f.Max
		case wire.FilterFloatRange:
			sf.Kind = scorer.FilterFloatRange
			sf.FMin, sf.FMax = f.FMin, f.FMax
		default:
			continue
		}
		out = append(out, sf)
	}
	return out
}

// dumpQueryTree pretty-prints a processed query tree when debug logging is
// enabled, the hand-written-parser analogue of the teacher's own
// pp.Println(root) AST dump in its SQL parser.
func dumpQueryTree(log *slog.Logger, index string, n *query.QNode) {
	if log == nil || !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	log.Debug("parsed query tree", "index", index)
	pp.Println(n)
}

func errorResult(err error) wire.SearchResult {
	return wire.SearchResult{Status: wire.StatusError, Error: err.Error()}
}

func fieldNames(sch schema.Schema) []string {
	out := make([]string, len(sch.Fields))
	for i, f := range sch.Fields {
		out[i] = f.Name
	}
	return out
}

func attrNames(sch schema.Schema) []string {
	out := make([]string, len(sch.Attrs))
	for i, a := range sch.Attrs {
		out[i] = a.Name
	}
	return out
}

func attrTypes(sch schema.Schema) []uint32 {
	out := make([]uint32, len(sch.Attrs))
	for i, a := range sch.Attrs {
		out[i] = uint32(a.Type)
	}
	return out
}

func toResultMatches(matches []schema.Match, sch schema.Schema) []wire.ResultMatch {
	out := make([]wire.ResultMatch, len(matches))
	for i, m := range matches {
		attrs := make([]uint64, len(sch.Attrs))
		for j, a := range sch.Attrs {
			attrs[j] = m.Row.Get(a.Loc)
		}
		out[i] = wire.ResultMatch{DocID: m.DocID, Weight: m.Weight, Attrs: attrs}
	}
	return out
}
