// Package concurrency provides ordered, bounded-parallelism fan-out used by
// the indexer's MultiSource (per-source Connect and Kills, §4.D). Adapted from the teacher's database.ConcurrentMapFuncWithError,
// generalized beyond DDL application.
package concurrency

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/mrold/sphinxgo/util"
)

type orderedOutput struct {
	order  int
	output any
}

// MapFuncWithError runs f over inputs with at most `concurrency` in flight
// (0 disables concurrency, negative means unlimited) and returns outputs in
// input order. Nothing is cancelled on error: every call still runs, then
// the first error is returned and all outputs are discarded, matching
// errgroup.Wait semantics.
func MapFuncWithError[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	ch := make(chan orderedOutput, len(inputs))

	for i := range inputs {
		order := i
		in := inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			ch <- orderedOutput{order, out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	close(ch)

	tmp := make([]orderedOutput, 0, len(inputs))
	for t := range ch {
		tmp = append(tmp, t)
	}
	slices.SortFunc(tmp, func(a, b orderedOutput) int {
		return cmp.Compare(a.order, b.order)
	})

	return util.TransformSlice(tmp, func(t orderedOutput) Tout {
		return t.output.(Tout)
	}), nil
}
