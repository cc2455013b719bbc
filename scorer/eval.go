package scorer

import (
	"sort"

	"github.com/mrold/sphinxgo/dict"
	"github.com/mrold/sphinxgo/index"
	"github.com/mrold/sphinxgo/query"
)

// docResult is what evaluating any QNode records per matching document:
// enough signal for every ranking mode in §4.G without re-walking postings.
type docResult struct {
	FieldMask      uint32
	HitCount       uint64
	KeywordMatches int
}

// evalNode walks node per §4.G: Plain leaves hit the posting lists directly,
// Op nodes combine their children's doc sets by the obvious set operation.
func evalNode(r *index.Reader, d dict.Dict, node *query.QNode) map[uint64]*docResult {
	if node == nil {
		return nil
	}
	if node.IsPlain {
		return evalPlain(r, d, node)
	}
	switch node.Op {
	case query.QAnd:
		return evalAnd(r, d, node)
	case query.QOr:
		return evalOr(r, d, node)
	case query.QAndNot:
		return evalAndNot(r, d, node)
	case query.QBefore:
		return evalBefore(r, d, node)
	case query.QNot:
		// Only reachable if notFixup's contract was bypassed; treat as
		// "nothing matches" rather than panic.
		return map[uint64]*docResult{}
	default:
		return map[uint64]*docResult{}
	}
}

func evalPlain(r *index.Reader, d dict.Dict, node *query.QNode) map[uint64]*docResult {
	out := map[uint64]*docResult{}
	if !node.IsPhrase && !node.IsQuorum && len(node.Words) <= 1 {
		word := ""
		if len(node.Words) == 1 {
			word = node.Words[0].Word
		}
		docs := loadWordDocs(r, d, word, node.FieldMask)
		for id, info := range docs {
			out[id] = &docResult{FieldMask: info.fieldMask, HitCount: info.hitCount, KeywordMatches: 1}
		}
		return out
	}

	wordDocs := make([]map[uint64]docInfo, len(node.Words))
	for i, kw := range node.Words {
		wordDocs[i] = loadWordDocs(r, d, kw.Word, node.FieldMask)
	}
	if len(wordDocs) == 0 {
		return out
	}

	if node.IsQuorum {
		counts := map[uint64]int{}
		fmasks := map[uint64]uint32{}
		hitsum := map[uint64]uint64{}
		for _, wd := range wordDocs {
			for id, info := range wd {
				counts[id]++
				fmasks[id] |= info.fieldMask
				hitsum[id] += info.hitCount
			}
		}
		for id, c := range counts {
			if uint32(c) >= node.QuorumN {
				out[id] = &docResult{FieldMask: fmasks[id], HitCount: hitsum[id], KeywordMatches: c}
			}
		}
		return out
	}

	// Phrase / proximity: every keyword must appear in the doc.
	common := map[uint64]bool{}
	for id := range wordDocs[0] {
		common[id] = true
	}
	for _, wd := range wordDocs[1:] {
		for id := range common {
			if _, ok := wd[id]; !ok {
				delete(common, id)
			}
		}
	}

	span := int(node.MaxDistance) + len(node.Words) - 1
	if node.IsPhrase {
		span = len(node.Words) - 1 // exact consecutive order
	}

	for id := range common {
		matched, fmask, hits := matchWindow(wordDocs, id, span, node.IsPhrase)
		if matched {
			out[id] = &docResult{FieldMask: fmask, HitCount: hits, KeywordMatches: len(node.Words)}
		}
	}
	return out
}

// matchWindow checks, for one doc, whether there's a field in which all
// k keywords occur within span positions of each other (exact consecutive
// order when exact=true, "phrase"; any order within the window otherwise,
// "proximity N" per §4.G).
func matchWindow(wordDocs []map[uint64]docInfo, docID uint64, span int, exact bool) (bool, uint32, uint64) {
	// Fields present in every keyword's hit set for this doc.
	commonFields := map[uint8]bool{}
	first := true
	for _, wd := range wordDocs {
		info := wd[docID]
		fields := map[uint8]bool{}
		for f := range info.hitsByField {
			fields[f] = true
		}
		if first {
			for f := range fields {
				commonFields[f] = true
			}
			first = false
			continue
		}
		for f := range commonFields {
			if !fields[f] {
				delete(commonFields, f)
			}
		}
	}

	var fmask uint32
	var totalHits uint64
	matched := false
	for f := range commonFields {
		positions := make([][]uint32, len(wordDocs))
		for i, wd := range wordDocs {
			positions[i] = wd[docID].hitsByField[f]
		}
		if exact {
			if phraseExact(positions) {
				matched = true
				fmask |= 1 << uint(f)
			}
		} else if windowCovers(positions, span) {
			matched = true
			fmask |= 1 << uint(f)
		}
	}
	if matched {
		for _, wd := range wordDocs {
			totalHits += wd[docID].hitCount
		}
	}
	return matched, fmask, totalHits
}

// phraseExact reports whether there's a start position p such that
// positions[i] contains p+i for every keyword i, i.e. the keywords occur
// consecutively in query order.
func phraseExact(positions [][]uint32) bool {
	if len(positions) == 0 || len(positions[0]) == 0 {
		return false
	}
	for _, p := range positions[0] {
		ok := true
		for i := 1; i < len(positions); i++ {
			if !contains(positions[i], p+uint32(i)) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func contains(s []uint32, v uint32) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return i < len(s) && s[i] == v
}

// windowCovers reports whether some window of span+1 consecutive positions
// contains at least one occurrence of every keyword.
func windowCovers(positions [][]uint32, span int) bool {
	type posTag struct {
		pos uint32
		kw  int
	}
	var all []posTag
	for kw, ps := range positions {
		for _, p := range ps {
			all = append(all, posTag{pos: p, kw: kw})
		}
	}
	if len(all) == 0 {
		return false
	}
	sort.Slice(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	counts := make([]int, len(positions))
	distinct := 0
	left := 0
	for right := 0; right < len(all); right++ {
		if counts[all[right].kw] == 0 {
			distinct++
		}
		counts[all[right].kw]++
		for distinct == len(positions) && int(all[right].pos-all[left].pos) > span {
			counts[all[left].kw]--
			if counts[all[left].kw] == 0 {
				distinct--
			}
			left++
		}
		if distinct == len(positions) {
			return true
		}
	}
	return false
}

func evalAnd(r *index.Reader, d dict.Dict, node *query.QNode) map[uint64]*docResult {
	var acc map[uint64]*docResult
	for i, c := range node.Children {
		cur := evalNode(r, d, c)
		if i == 0 {
			acc = cur
			continue
		}
		for id, res := range acc {
			other, ok := cur[id]
			if !ok {
				delete(acc, id)
				continue
			}
			res.FieldMask |= other.FieldMask
			res.HitCount += other.HitCount
			res.KeywordMatches += other.KeywordMatches
		}
	}
	if acc == nil {
		acc = map[uint64]*docResult{}
	}
	return acc
}

func evalOr(r *index.Reader, d dict.Dict, node *query.QNode) map[uint64]*docResult {
	acc := map[uint64]*docResult{}
	for _, c := range node.Children {
		cur := evalNode(r, d, c)
		for id, res := range cur {
			if existing, ok := acc[id]; ok {
				existing.FieldMask |= res.FieldMask
				existing.HitCount += res.HitCount
				existing.KeywordMatches += res.KeywordMatches
			} else {
				cp := *res
				acc[id] = &cp
			}
		}
	}
	return acc
}

func evalAndNot(r *index.Reader, d dict.Dict, node *query.QNode) map[uint64]*docResult {
	pos := evalNode(r, d, node.Children[0])
	neg := evalNode(r, d, node.Children[1])
	for id := range neg {
		delete(pos, id)
	}
	return pos
}

// evalBefore implements `A << B` as a binary op over two subtrees: both
// sides must match the document. The relative order of their hit
// positions is not checked, so the matched set equals an AND of A and B.
func evalBefore(r *index.Reader, d dict.Dict, node *query.QNode) map[uint64]*docResult {
	left := evalNode(r, d, node.Children[0])
	right := evalNode(r, d, node.Children[1])
	out := map[uint64]*docResult{}
	for id, l := range left {
		rr, ok := right[id]
		if !ok {
			continue
		}
		out[id] = &docResult{
			FieldMask:      l.FieldMask | rr.FieldMask,
			HitCount:       l.HitCount + rr.HitCount,
			KeywordMatches: l.KeywordMatches + rr.KeywordMatches,
		}
	}
	return out
}
