package server

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// WritePidFile writes the running process's pid as text to path,
// truncating any previous contents (§6.5: "A pid_file holds the head
// pid as text").
func WritePidFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

// RemovePidFile removes path, called on clean shutdown.
func RemovePidFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// QueryLogger appends one line per query to an append-only file,
// reopened on SIGUSR1 like searchd.log (§6.5: "a query_log (one line per
// query) are append-only; on SIGUSR1 they are reopened").
type QueryLogger struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewQueryLogger opens path in append mode. A nil *QueryLogger (path=="")
// disables query logging; every method is a no-op on a nil receiver.
func NewQueryLogger(path string) (*QueryLogger, error) {
	if path == "" {
		return nil, nil
	}
	ql := &QueryLogger{path: path}
	if err := ql.Reopen(); err != nil {
		return nil, err
	}
	return ql, nil
}

// Reopen closes the current file handle (if any) and opens path fresh in
// append mode, the log-rotate hook §6.5 describes.
func (q *QueryLogger) Reopen() error {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	f, err := os.OpenFile(q.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	old := q.f
	q.f = f
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// LogQuery appends one query-log line: timestamp, elapsed, index list,
// the raw query text, and the match count.
func (q *QueryLogger) LogQuery(indexes, query string, elapsed time.Duration, matched int) {
	if q == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.f == nil {
		return
	}
	line := fmt.Sprintf("[%s] %.3f sec [%d matches] %s \"%s\"\n",
		time.Now().Format(time.RFC3339), elapsed.Seconds(), matched, indexes, query)
	_, _ = q.f.WriteString(line)
}

// Close closes the underlying file handle.
func (q *QueryLogger) Close() error {
	if q == nil || q.f == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.f.Close()
}
