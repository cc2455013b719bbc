package server

import (
	"context"
	"strings"
	"time"

	"github.com/mrold/sphinxgo/distributed"
	"github.com/mrold/sphinxgo/wire"
)

// ExecuteSearch is dispatchSearch's entry point: it runs q against every
// index named in q.Indexes, routing each name through ExecuteLocalSearch
// or, for a name registered as a distributed index (§4.K), through
// distributed.FanOut, then merges every contributing piece with
// distributed.MergeResults so a query spanning local and distributed index names
// together still comes back as one ranked result.
func ExecuteSearch(ctx *ServerCtx, q wire.SearchQuery) (wire.SearchResult, error) {
	names := splitIndexList(q.Indexes)
	if len(names) == 0 {
		return wire.SearchResult{}, errEmptyIndexList
	}

	var localNames []string
	var distNames []string
	for _, name := range names {
		h, ok := ctx.Index(name)
		if !ok {
			return errorResult(errUnknownIndex(name)), nil
		}
		if h.distrib != nil {
			distNames = append(distNames, name)
		} else {
			localNames = append(localNames, name)
		}
	}

	if len(distNames) == 0 {
		return ExecuteLocalSearch(ctx, q)
	}

	type piece struct {
		res wire.SearchResult
		err error
	}
	pieces := make([]piece, 0, 1+len(distNames))

	if len(localNames) > 0 {
		lq := q
		lq.Indexes = strings.Join(localNames, ",")
		res, err := ExecuteLocalSearch(ctx, lq)
		pieces = append(pieces, piece{res: res, err: err})
	}

	localSearcher := distributed.LocalSearcher(func(indexName string, sub wire.SearchQuery) (wire.SearchResult, error) {
		return ExecuteLocalSearch(ctx, sub)
	})

	for _, name := range distNames {
		h, _ := ctx.Index(name)
		cfg := h.distrib
		agents := make([]distributed.Agent, len(cfg.Agents))
		weights := make(map[string]uint32, len(cfg.Agents))
		for i, a := range cfg.Agents {
			agents[i] = distributed.Agent{
				Net: a.Net, Addr: a.Addr, Index: a.Index, Blackhole: a.Blackhole, Weight: a.Weight,
				RetryCount:     cfg.RetryCount,
				RetryDelay:     time.Duration(cfg.RetryDelayMs) * time.Millisecond,
				ConnectTimeout: time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond,
				QueryTimeout:   time.Duration(cfg.QueryTimeoutMs) * time.Millisecond,
			}
			if a.Weight != 0 {
				weights[a.Index] = a.Weight
			}
		}
		dq := q
		dq.Indexes = name
		res, errs := distributed.FanOut(context.Background(), agents, cfg.LocalIdx, localSearcher, dq, weights)
		var err error
		if len(errs) > 0 && res.Status != wire.StatusOK && res.Status != wire.StatusWarning {
			err = errs[0]
		}
		pieces = append(pieces, piece{res: res, err: err})
	}

	shards := make([]distributed.Shard, 0, len(pieces))
	for i, p := range pieces {
		if p.err != nil {
			return errorResult(p.err), nil
		}
		shards = append(shards, distributed.Shard{Tag: int32(i), Result: p.res})
	}

	merged, warn := distributed.MergeResults(shards)
	if warn != "" {
		if merged.Warning != "" {
			merged.Warning += "; " + warn
		} else {
			merged.Warning = warn
		}
		merged.Status = wire.StatusWarning
	}
	return merged, nil
}

func errUnknownIndex(name string) error {
	return &unknownIndexError{name: name}
}

type unknownIndexError struct{ name string }

func (e *unknownIndexError) Error() string { return "server: unknown index \"" + e.name + "\"" }

var errEmptyIndexList = &emptyIndexListError{}

type emptyIndexListError struct{}

func (*emptyIndexListError) Error() string { return "server: empty index list" }
