//go:build unix

package index

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock is an advisory exclusive flock on a ".lock" file held for the
// lifetime of an open index (§4.E, §5 "Locking discipline").
type Lock struct {
	f *os.File
}

// TryLock acquires the lock or returns an error immediately (non-blocking)
// so Open can report "index locked" instead of hanging. cmd/indexer does
// not take this lock before writing an index.
func TryLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("index: lock file %s is held by another process: %w", path, err)
	}
	return &Lock{f: f}, nil
}

func (l *Lock) Unlock() error {
	if l.f == nil {
		return nil
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}
