//go:build !unix

package index

import (
	"fmt"
	"os"
)

// Lock on non-unix platforms degrades to an exclusive-create sentinel
// file; it isn't released automatically if the process is killed, which
// is the standard caveat of this fallback path.
type Lock struct {
	path string
}

func TryLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("index: lock file %s is held by another process: %w", path, err)
	}
	f.Close()
	return &Lock{path: path}, nil
}

func (l *Lock) Unlock() error {
	return os.Remove(l.path)
}
