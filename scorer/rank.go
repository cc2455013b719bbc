package scorer

import "math"

// RankMode is one of the seven deterministic ranking modes §4.G names.
type RankMode int

const (
	RankProximityBm25 RankMode = iota // default
	RankBm25
	RankNone
	RankWordcount
	RankProximity
	RankMatchAny
	RankFieldMask
)

// bm25K1, bm25B are the constants §4.G specifies, confirmed against
// original_source/coreseek-3.2.14/csft-3.2.14/src/sphinxsearch.cpp's
// BM25 weighting function (the Open Question in §9 resolved).
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// QueryStats is the small amount of collection-level information BM25
// needs (§4.G: "collection statistics from .sph").
type QueryStats struct {
	TotalDocs   uint64
	MatchedDocs uint64
}

// bm25 computes the BM25 term weight for one document's aggregate term
// frequency. Per-document field byte length isn't retained by this
// segment format (only the aggregate total_bytes in the header, §6.1), so
// the usual document-length normalization term `b*docLen/avgDocLen`
// collapses to `b`.
func bm25(tf float64, stats QueryStats) float64 {
	if stats.MatchedDocs == 0 {
		return 0
	}
	idf := math.Log(1 + (float64(stats.TotalDocs)-float64(stats.MatchedDocs)+0.5)/(float64(stats.MatchedDocs)+0.5))
	norm := tf + bm25K1*(1-bm25B+bm25B)
	if norm == 0 {
		return 0
	}
	return idf * (tf * (bm25K1 + 1) / norm)
}

// Weight computes a document's weight under mode, per the table in §4.G.
func Weight(mode RankMode, res *docResult, stats QueryStats) int32 {
	switch mode {
	case RankNone:
		return 1
	case RankWordcount:
		return int32(res.HitCount)
	case RankMatchAny:
		return int32(res.KeywordMatches)
	case RankFieldMask:
		return int32(res.FieldMask)
	case RankBm25:
		return int32(bm25(float64(res.HitCount), stats) * 1000)
	case RankProximity:
		return int32(res.KeywordMatches) * 10
	default: // RankProximityBm25
		return int32(res.KeywordMatches)*10 + int32(bm25(float64(res.HitCount), stats)*1000)
	}
}
