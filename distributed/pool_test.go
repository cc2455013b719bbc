package distributed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrold/sphinxgo/wire"
)

func TestFanOutLocalOnlyMerges(t *testing.T) {
	local := LocalSearcher(func(name string, q wire.SearchQuery) (wire.SearchResult, error) {
		switch name {
		case "a":
			return wire.SearchResult{Status: wire.StatusOK, Matches: []wire.ResultMatch{{DocID: 1, Weight: 5}}, Total: 1}, nil
		case "b":
			return wire.SearchResult{Status: wire.StatusOK, Matches: []wire.ResultMatch{{DocID: 2, Weight: 3}}, Total: 1}, nil
		default:
			return wire.SearchResult{Status: wire.StatusError, Error: "unknown"}, nil
		}
	})

	res, errs := FanOut(context.Background(), nil, []string{"a", "b"}, local, wire.SearchQuery{Query: "q"}, nil)
	assert.Empty(t, errs)
	assert.Len(t, res.Matches, 2)
}

func TestFanOutCollectsPerShardErrors(t *testing.T) {
	local := LocalSearcher(func(name string, q wire.SearchQuery) (wire.SearchResult, error) {
		return wire.SearchResult{Status: wire.StatusError, Error: "boom"}, nil
	})
	_, errs := FanOut(context.Background(), nil, []string{"a"}, local, wire.SearchQuery{Query: "q"}, nil)
	assert.Len(t, errs, 1)
}
