package server

import (
	"fmt"
	"os"
	"sync"

	"github.com/mrold/sphinxgo/index"
)

// RotateMode selects the rotation controller's strategy (§4.J).
type RotateMode int

const (
	// RotateGreedy waits for in-flight queries to drain, renames
	// cur->old, new->cur with full rollback on any failure.
	RotateGreedy RotateMode = iota
	// RotateSeamless prereads the new index in a goroutine and swaps
	// the live pointer once preread succeeds; the default mode.
	RotateSeamless
)

// RotateResult is what RotateAll reports for one index.
type RotateResult struct {
	Index string
	Err   error
}

// RotateAll sweeps every registered index, rotating any prefix.new.sph
// present, and returns one RotateResult per attempted index. It is the
// SIGHUP/rotation-byte handler's entry point (§4.J).
func RotateAll(ctx *ServerCtx, mode RotateMode) []RotateResult {
	if !ctx.rotating.CompareAndSwap(false, true) {
		return nil // a rotation is already in flight
	}
	defer ctx.rotating.Store(false)

	names := ctx.IndexNames()
	results := make([]RotateResult, 0, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range names {
		h, ok := ctx.Index(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(h *IndexHandle) {
			defer wg.Done()
			err := rotateOne(h, mode)
			mu.Lock()
			results = append(results, RotateResult{Index: h.Name, Err: err})
			mu.Unlock()
		}(h)
	}
	wg.Wait()
	return results
}

// rotateOne rotates a single index handle, honoring mode.
func rotateOne(h *IndexHandle, mode RotateMode) error {
	cur := h.Current()
	newPrefix := cur.Prefix + ".new"
	if _, err := os.Stat(newPrefix + ".sph"); err != nil {
		return nil // no pending rotation for this index
	}

	switch mode {
	case RotateGreedy:
		return rotateGreedy(h, cur, newPrefix)
	default:
		return rotateSeamless(h, newPrefix)
	}
}

// rotateGreedy renames cur->old, new->cur with full rollback on any
// step's failure (§4.J).
func rotateGreedy(h *IndexHandle, cur *index.Reader, newPrefix string) error {
	oldPrefix := cur.Prefix + ".old"
	exts := []string{".sph", ".spa", ".spi", ".spd", ".spp", ".spm", ".spk"}

	renamed := make([]string, 0, len(exts))
	rollback := func() {
		for _, e := range renamed {
			_ = os.Rename(oldPrefix+e, cur.Prefix+e)
		}
	}

	for _, e := range exts {
		if _, err := os.Stat(cur.Prefix + e); err != nil {
			continue
		}
		if err := os.Rename(cur.Prefix+e, oldPrefix+e); err != nil {
			rollback()
			return fmt.Errorf("server: greedy rotate cur->old failed on %s: %w", e, err)
		}
		renamed = append(renamed, e)
	}
	for _, e := range exts {
		if _, err := os.Stat(newPrefix + e); err != nil {
			continue
		}
		if err := os.Rename(newPrefix+e, cur.Prefix+e); err != nil {
			rollback()
			return fmt.Errorf("server: greedy rotate new->cur failed on %s: %w", e, err)
		}
	}

	fresh, err := index.Open(cur.Prefix)
	if err != nil {
		rollback()
		return fmt.Errorf("server: greedy rotate reopen failed: %w", err)
	}
	if old := h.Swap(fresh); old != nil {
		_ = old.Close()
	}
	return nil
}

// rotateSeamless prereads prefix.new.* in this goroutine (the "short-lived
// preread child" from §4.J, realized as a goroutine per the fork->task
// redesign), then locks-and-swaps the live pointer on success. On failure
// the old index keeps serving — rotateSeamless simply returns the error
// without ever calling Swap.
func rotateSeamless(h *IndexHandle, newPrefix string) error {
	fresh, err := index.Open(newPrefix)
	if err != nil {
		return fmt.Errorf("server: seamless preread failed: %w", err)
	}
	if old := h.Swap(fresh); old != nil {
		go func() { _ = old.Close() }()
	}
	return nil
}
