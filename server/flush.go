package server

import (
	"context"
	"time"
)

// RunAttrFlusher implements §3/§6.5's periodic attribute flusher: every
// period, sweep every registered index and persist its .spa mapping if
// UpdateTag has advanced past FlushTag since the last sweep. Runs until
// ctx is cancelled, the goroutine the searchd main loop spawns alongside
// Serve.
func RunAttrFlusher(ctx context.Context, sctx *ServerCtx, period time.Duration) {
	if period <= 0 {
		return
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flushDirtyIndexes(sctx)
		}
	}
}

func flushDirtyIndexes(sctx *ServerCtx) {
	for _, name := range sctx.IndexNames() {
		h, ok := sctx.Index(name)
		if !ok {
			continue
		}
		r := h.Current()
		if r == nil {
			continue
		}
		if r.UpdateTag() <= r.FlushTag() {
			continue
		}
		if err := r.SaveAttributes(); err != nil {
			sctx.Log.Error("attribute flush failed", "index", name, "error", err)
		}
	}
}
