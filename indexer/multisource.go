package indexer

import (
	"github.com/mrold/sphinxgo/concurrency"
)

// MultiSource concatenates several DocumentSources into one, the shape
// §4.D's "one or more sources feed a single index" data flow needs once a
// config block lists more than one `source` line. Connect and Kills fan out
// across every underlying source concurrently (concurrency.MapFuncWithError,
// generalized from the teacher's per-table DDL fan-out to per-source
// ingestion); Next reads them out strictly in order since the sort/merge
// phases downstream expect one docid stream, not an interleaved one.
type MultiSource struct {
	sources []DocumentSource
	cur     int
}

func NewMultiSource(sources ...DocumentSource) *MultiSource {
	return &MultiSource{sources: sources}
}

// Connect opens every underlying source with bounded concurrency (at most
// 4 in flight, mirroring a typical SQL connection-pool ceiling); the first
// failing source aborts the whole build per §4.D's "per-source failure
// aborts only this index's build" — one level up, since here that "index"
// is composed of all these sources together.
func (m *MultiSource) Connect() error {
	_, err := concurrency.MapFuncWithError(m.sources, 4, func(s DocumentSource) (struct{}, error) {
		return struct{}{}, s.Connect()
	})
	return err
}

func (m *MultiSource) Next() (Doc, bool, error) {
	for m.cur < len(m.sources) {
		d, ok, err := m.sources[m.cur].Next()
		if err != nil {
			return Doc{}, false, err
		}
		if ok {
			return d, true, nil
		}
		m.cur++
	}
	return Doc{}, false, nil
}

// Kills concatenates every source's killlist, collected with the same
// bounded fan-out Connect uses.
func (m *MultiSource) Kills() ([]uint64, error) {
	perSource, err := concurrency.MapFuncWithError(m.sources, 4, func(s DocumentSource) ([]uint64, error) {
		return s.Kills()
	})
	if err != nil {
		return nil, err
	}
	var all []uint64
	for _, ids := range perSource {
		all = append(all, ids...)
	}
	return all, nil
}
