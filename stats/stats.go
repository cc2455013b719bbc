// Package stats implements §16 (AMBIENT): the process-wide counters a
// real deployment keeps in SysV shared memory so multiple worker
// processes can update them; this goroutine-based redesign has exactly
// one process, so a sync.Mutex-guarded struct serves the same role (§5:
// "a process-shared mutex guards the statistics counters").
package stats

import (
	"sync"
	"time"
)

// Counters is the data the Status command and `searchd --status` report.
type Counters struct {
	mu sync.Mutex

	startedAt time.Time

	commandSearch     uint64
	commandExcerpt    uint64
	commandUpdate     uint64
	commandKeywords   uint64
	commandPersist    uint64
	commandStatus     uint64
	commandQuery      uint64

	queryTimeTotal time.Duration
	cpuTimeTotal   time.Duration

	bytesRead    uint64
	bytesWritten uint64
}

// New returns a Counters with Uptime starting from now.
func New() *Counters {
	return &Counters{startedAt: time.Now()}
}

// Command identifies which per-command counter IncrCommand bumps.
type Command int

const (
	CmdSearch Command = iota
	CmdExcerpt
	CmdUpdate
	CmdKeywords
	CmdPersist
	CmdStatus
	CmdQuery
)

// IncrCommand bumps the counter for one dispatched command.
func (c *Counters) IncrCommand(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch cmd {
	case CmdSearch:
		c.commandSearch++
	case CmdExcerpt:
		c.commandExcerpt++
	case CmdUpdate:
		c.commandUpdate++
	case CmdKeywords:
		c.commandKeywords++
	case CmdPersist:
		c.commandPersist++
	case CmdStatus:
		c.commandStatus++
	case CmdQuery:
		c.commandQuery++
	}
}

// AddQueryTime accumulates one query's wall-clock duration.
func (c *Counters) AddQueryTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryTimeTotal += d
}

// AddCPUTime accumulates one query's CPU time, reported separately from
// wall-clock since a query can block on I/O without burning CPU.
func (c *Counters) AddCPUTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cpuTimeTotal += d
}

// AddIO accumulates bytes read/written, used by the mmap readers and
// wire codecs.
func (c *Counters) AddIO(read, written uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytesRead += read
	c.bytesWritten += written
}

// Snapshot is an immutable copy of Counters for rendering a Status
// response without holding the lock while formatting.
type Snapshot struct {
	UptimeSeconds  int64
	CommandCounts  map[string]uint64
	QueryTimeTotal time.Duration
	CPUTimeTotal   time.Duration
	BytesRead      uint64
	BytesWritten   uint64
}

// Snapshot copies the current counter values out under lock.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		UptimeSeconds: int64(time.Since(c.startedAt).Seconds()),
		CommandCounts: map[string]uint64{
			"search":   c.commandSearch,
			"excerpt":  c.commandExcerpt,
			"update":   c.commandUpdate,
			"keywords": c.commandKeywords,
			"persist":  c.commandPersist,
			"status":   c.commandStatus,
			"query":    c.commandQuery,
		},
		QueryTimeTotal: c.queryTimeTotal,
		CPUTimeTotal:   c.cpuTimeTotal,
		BytesRead:      c.bytesRead,
		BytesWritten:   c.bytesWritten,
	}
}
