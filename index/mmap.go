package index

// mappedFile is the common handle returned by the unix/non-unix mmap
// shims; path is only populated by the non-unix fallback, which needs it
// to flush writes back since it never shares a real mapping.
type mappedFile struct {
	data []byte
	path string
}
