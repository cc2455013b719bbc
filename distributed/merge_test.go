package distributed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrold/sphinxgo/wire"
)

func TestMergeDedupeKeepsFirstByTag(t *testing.T) {
	shards := []shardResult{
		{tag: 0, res: wire.SearchResult{
			AttrNames: []string{"price"}, AttrTypes: []uint32{0},
			Matches: []wire.ResultMatch{{DocID: 1, Weight: 5, Attrs: []uint64{10}}},
		}},
		{tag: 1, res: wire.SearchResult{
			AttrNames: []string{"price"}, AttrTypes: []uint32{0},
			Matches: []wire.ResultMatch{{DocID: 1, Weight: 9, Attrs: []uint64{20}}},
		}},
	}
	merged, warn := Merge(shards)
	assert.Empty(t, warn)
	assert.Len(t, merged.Matches, 1)
	assert.Equal(t, int32(5), merged.Matches[0].Weight) // tag 0's value wins, not overwritten
	assert.Equal(t, uint64(10), merged.Matches[0].Attrs[0])
}

func TestMergeWeightedSumsDuplicateWeights(t *testing.T) {
	shards := []shardResult{
		{tag: 0, weight: 2, res: wire.SearchResult{
			Matches: []wire.ResultMatch{{DocID: 1, Weight: 3}},
		}},
		{tag: 1, weight: 3, res: wire.SearchResult{
			Matches: []wire.ResultMatch{{DocID: 1, Weight: 4}},
		}},
	}
	merged, _ := Merge(shards)
	assert.Len(t, merged.Matches, 1)
	assert.Equal(t, int32(3*2+4*3), merged.Matches[0].Weight)
}

func TestMergeSchemaIntersection(t *testing.T) {
	shards := []shardResult{
		{tag: 0, res: wire.SearchResult{AttrNames: []string{"price", "tags"}, AttrTypes: []uint32{0, 1}}},
		{tag: 1, res: wire.SearchResult{AttrNames: []string{"price"}, AttrTypes: []uint32{0}}},
	}
	merged, _ := Merge(shards)
	assert.Equal(t, []string{"price"}, merged.AttrNames)
}

func TestMergeWordStatsMismatchWarns(t *testing.T) {
	shards := []shardResult{
		{tag: 0, res: wire.SearchResult{Words: []wire.WordStat{{Word: "quick", Docs: 1, Hits: 1}}}},
		{tag: 1, res: wire.SearchResult{Words: []wire.WordStat{{Word: "slow", Docs: 1, Hits: 1}}}},
	}
	_, warn := Merge(shards)
	assert.NotEmpty(t, warn)
}

func TestMergeWordStatsMatchSums(t *testing.T) {
	shards := []shardResult{
		{tag: 0, res: wire.SearchResult{Words: []wire.WordStat{{Word: "quick", Docs: 1, Hits: 2}}}},
		{tag: 1, res: wire.SearchResult{Words: []wire.WordStat{{Word: "quick", Docs: 3, Hits: 4}}}},
	}
	merged, warn := Merge(shards)
	assert.Empty(t, warn)
	assert.Equal(t, uint32(4), merged.Words[0].Docs)
	assert.Equal(t, uint32(6), merged.Words[0].Hits)
}
