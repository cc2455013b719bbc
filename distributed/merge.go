package distributed

import (
	"sort"

	"github.com/mrold/sphinxgo/wire"
)

// Shard is one already-computed contributing result plus the tag/weight
// bookkeeping MergeResults needs, the exported counterpart of shardResult
// for callers (the server package's distributed-index search path) that
// assemble shards from pieces other than FanOut itself.
type Shard struct {
	Tag    int32
	Weight uint32
	Result wire.SearchResult
}

// MergeResults merges a caller-assembled slice of Shards the same way
// FanOut merges its own shardResults.
func MergeResults(shards []Shard) (wire.SearchResult, string) {
	internal := make([]shardResult, len(shards))
	for i, s := range shards {
		internal[i] = shardResult{tag: s.Tag, weight: s.Weight, res: s.Result}
	}
	return Merge(internal)
}

// Merge implements §4.K's post-processing step: minimize every live
// shard's reported schema to the common subset, remap each match's
// attribute values onto that common layout, then resolve docid
// duplicates — by default keeping the first-by-tag occurrence, or
// summing weighted Weight across dupes when any contributing shard
// carries a nonzero per-index weight — and finally merge word stats if
// every shard's keyword list matches position-by-position. Returns the
// merged result plus a non-empty warning string on a word-stat mismatch
// (results are still returned, per §4.K: "a warning is appended but
// results are kept").
func Merge(shards []shardResult) (wire.SearchResult, string) {
	if len(shards) == 0 {
		return wire.SearchResult{Status: wire.StatusOK}, ""
	}

	commonNames, commonTypes := commonSchema(shards)
	weighted := anyWeighted(shards)

	type bucket struct {
		match    wire.ResultMatch
		tag      int32
		weighted float64
	}
	byDoc := map[uint64]*bucket{}
	order := make([]uint64, 0)

	sort.Slice(shards, func(i, j int) bool { return shards[i].tag < shards[j].tag })

	var total, totalFound uint32
	for _, s := range shards {
		total += s.res.Total
		totalFound += s.res.TotalFound
		idxOf := make(map[string]int, len(s.res.AttrNames))
		for i, n := range s.res.AttrNames {
			idxOf[n] = i
		}
		eff := s.weight
		if eff == 0 {
			eff = 1
		}
		for _, m := range s.res.Matches {
			remapped := remapAttrs(m, idxOf, commonNames)
			b, exists := byDoc[m.DocID]
			if !exists {
				byDoc[m.DocID] = &bucket{match: remapped, tag: s.tag, weighted: float64(m.Weight) * float64(eff)}
				order = append(order, m.DocID)
				continue
			}
			if weighted {
				b.weighted += float64(m.Weight) * float64(eff)
			}
			// non-weighted duplicates keep the first-by-tag occurrence untouched
		}
	}

	matches := make([]wire.ResultMatch, 0, len(order))
	for _, docID := range order {
		b := byDoc[docID]
		if weighted {
			b.match.Weight = int32(b.weighted)
		}
		matches = append(matches, b.match)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Weight != matches[j].Weight {
			return matches[i].Weight > matches[j].Weight
		}
		return matches[i].DocID < matches[j].DocID
	})

	words, warn := mergeWordStats(shards)

	res := wire.SearchResult{
		Status:     wire.StatusOK,
		Fields:     shards[0].res.Fields,
		AttrNames:  commonNames,
		AttrTypes:  commonTypes,
		Matches:    matches,
		Total:      total,
		TotalFound: totalFound,
		Words:      words,
	}
	return res, warn
}

// commonSchema intersects every shard's (AttrNames, AttrTypes) pairs in
// the order they first appear, the "minimize schema to the common
// subset" step.
func commonSchema(shards []shardResult) ([]string, []uint32) {
	typeOf := map[string]uint32{}
	count := map[string]int{}
	order := []string{}
	for _, s := range shards {
		seen := map[string]bool{}
		for i, n := range s.res.AttrNames {
			if seen[n] {
				continue
			}
			seen[n] = true
			if _, ok := typeOf[n]; !ok {
				typeOf[n] = s.res.AttrTypes[i]
				order = append(order, n)
			}
			count[n]++
		}
	}
	names := make([]string, 0, len(order))
	types := make([]uint32, 0, len(order))
	for _, n := range order {
		if count[n] == len(shards) {
			names = append(names, n)
			types = append(types, typeOf[n])
		}
	}
	return names, types
}

func remapAttrs(m wire.ResultMatch, idxOf map[string]int, commonNames []string) wire.ResultMatch {
	attrs := make([]uint64, len(commonNames))
	for i, n := range commonNames {
		if srcIdx, ok := idxOf[n]; ok && srcIdx < len(m.Attrs) {
			attrs[i] = m.Attrs[srcIdx]
		}
	}
	return wire.ResultMatch{DocID: m.DocID, Weight: m.Weight, Attrs: attrs}
}

func anyWeighted(shards []shardResult) bool {
	for _, s := range shards {
		if s.weight != 0 {
			return true
		}
	}
	return false
}

// mergeWordStats sums per-word Docs/Hits across shards when every
// shard's Words list matches position-by-position (same length, same
// Word names in the same order); otherwise it returns the first shard's
// stats unmerged plus a warning.
func mergeWordStats(shards []shardResult) ([]wire.WordStat, string) {
	if len(shards) == 0 {
		return nil, ""
	}
	first := shards[0].res.Words
	for _, s := range shards[1:] {
		if !sameWords(first, s.res.Words) {
			return first, "word stats mismatched across shards, kept first shard's counts"
		}
	}
	merged := make([]wire.WordStat, len(first))
	copy(merged, first)
	for _, s := range shards[1:] {
		for i, w := range s.res.Words {
			merged[i].Docs += w.Docs
			merged[i].Hits += w.Hits
		}
	}
	return merged, ""
}

func sameWords(a, b []wire.WordStat) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Word != b[i].Word {
			return false
		}
	}
	return true
}
