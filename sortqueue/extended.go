package sortqueue

import (
	"math/rand"

	"github.com/mrold/sphinxgo/binio"
	"github.com/mrold/sphinxgo/schema"
)

// SortDir is the direction one Extended sort clause runs in.
type SortDir int

const (
	Asc SortDir = iota
	Desc
)

// SortKey is one `attr ASC|DESC` clause from an Extended sort-by list
// (§4.H), including the magic attribute names `@id`, `@weight`,
// `@relevance`, `@random`.
type SortKey struct {
	Attr string
	Dir  SortDir
	Loc  binio.Locator // zero for the magic names, which don't read the row
}

const (
	magicID        = "@id"
	magicWeight    = "@weight"
	magicRelevance = "@relevance"
	magicRandom    = "@random"
)

// sortValue extracts the comparison value for one SortKey from a match.
// @random draws a fresh value per call (via r), matching "random order
// per query" rather than a value stable across the queue's lifetime.
func sortValue(key SortKey, m schema.Match, r *rand.Rand) uint64 {
	switch key.Attr {
	case magicID:
		return m.DocID
	case magicWeight, magicRelevance:
		return uint64(uint32(m.Weight))
	case magicRandom:
		return r.Uint64()
	default:
		return m.Row.Get(key.Loc)
	}
}

// Extended is the Extended sort queue (§4.H): sort-by is a comma-separated
// list of `attr ASC|DESC` clauses, compared left to right until one
// clause breaks the tie.
type Extended struct {
	*BoundedQueue
}

// NewExtended builds an Extended queue ranking by keys in order, breaking
// any remaining tie by docid ascending (matching TopN's own tie-break).
func NewExtended(limit int, keys []SortKey, rng *rand.Rand) *Extended {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	less := func(a, b schema.Match) bool {
		for _, k := range keys {
			va, vb := sortValue(k, a, rng), sortValue(k, b, rng)
			if va == vb {
				continue
			}
			if k.Dir == Asc {
				return va < vb
			}
			return va > vb
		}
		return a.DocID < b.DocID
	}
	return &Extended{BoundedQueue: NewBoundedQueue(limit, less)}
}
