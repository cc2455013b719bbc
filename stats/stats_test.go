package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrold/sphinxgo/stats"
)

func TestCountersIncrementAndSnapshot(t *testing.T) {
	c := stats.New()
	c.IncrCommand(stats.CmdSearch)
	c.IncrCommand(stats.CmdSearch)
	c.IncrCommand(stats.CmdUpdate)
	c.AddQueryTime(5 * time.Millisecond)
	c.AddIO(100, 50)

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.CommandCounts["search"])
	assert.Equal(t, uint64(1), snap.CommandCounts["update"])
	assert.Equal(t, 5*time.Millisecond, snap.QueryTimeTotal)
	assert.Equal(t, uint64(100), snap.BytesRead)
	assert.Equal(t, uint64(50), snap.BytesWritten)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
}
