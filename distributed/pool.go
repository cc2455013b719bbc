package distributed

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mrold/sphinxgo/wire"
)

// LocalSearcher runs one sub-query against a single locally served index,
// the callback a distributed index's local index list is resolved
// through (kept free of a direct dependency on the server package to
// avoid an import cycle — server is the one importing distributed, not
// the other way around).
type LocalSearcher func(indexName string, q wire.SearchQuery) (wire.SearchResult, error)

// shardResult is one contributing shard's result plus the tag/weight
// bookkeeping the merge step needs.
type shardResult struct {
	tag    int32
	weight uint32 // per-index weight, 0 meaning "unweighted"
	res    wire.SearchResult
	err    error
}

// FanOut runs q against every remote agent and every local index
// concurrently (the teacher's errgroup fan-out/wait pattern, generalized
// from *sql.DB calls to network + local-search calls), then merges the
// surviving results per §4.K. indexWeights maps an index/agent name to
// its per-index result weight; a zero or absent weight means "don't sum,
// keep first-by-tag" for that source.
func FanOut(ctx context.Context, agents []Agent, localIndexes []string, local LocalSearcher, q wire.SearchQuery, indexWeights map[string]uint32) (wire.SearchResult, []error) {
	total := len(agents) + len(localIndexes)
	shards := make([]shardResult, total)

	eg, egCtx := errgroup.WithContext(ctx)
	for i, a := range agents {
		i, a := i, a
		eg.Go(func() error {
			ar := a.Query(egCtx, q)
			shards[i] = shardResult{tag: int32(i), weight: indexWeights[a.Index], res: ar.Result, err: ar.Err}
			return nil
		})
	}
	for j, name := range localIndexes {
		j, name := j, name
		idx := len(agents) + j
		eg.Go(func() error {
			lq := q
			lq.Indexes = name
			res, err := local(name, lq)
			shards[idx] = shardResult{tag: int32(idx), weight: indexWeights[name], res: res, err: err}
			return nil
		})
	}
	_ = eg.Wait() // per-shard errors are carried in shardResult.err, never aborting the whole fan-out

	var errs []error
	live := make([]shardResult, 0, total)
	for i, s := range shards {
		switch {
		case s.err != nil:
			errs = append(errs, s.err)
		case s.res.Status == wire.StatusError:
			errs = append(errs, errFromResult(i, s.res))
		case blackholeTag(agents, i):
			// blackhole agents' replies are discarded, not merged in.
		default:
			live = append(live, s)
		}
	}

	merged, warn := Merge(live)
	if warn != "" {
		if merged.Warning != "" {
			merged.Warning += "; " + warn
		} else {
			merged.Warning = warn
		}
		merged.Status = wire.StatusWarning
	}
	return merged, errs
}

func blackholeTag(agents []Agent, tag int) bool {
	return tag < len(agents) && agents[tag].Blackhole
}

func errFromResult(tag int, res wire.SearchResult) error {
	return &shardError{tag: tag, msg: res.Error}
}

type shardError struct {
	tag int
	msg string
}

func (e *shardError) Error() string { return e.msg }
