package indexer

// Phase is one of the five strictly sequential phases §4.D names.
type Phase int

const (
	PhaseCollectDocs Phase = iota
	PhaseSortHits
	PhaseCollectMva
	PhaseSortMva
	PhaseMerge
)

func (p Phase) String() string {
	switch p {
	case PhaseCollectDocs:
		return "collect docs"
	case PhaseSortHits:
		return "sort hits"
	case PhaseCollectMva:
		return "collect mva"
	case PhaseSortMva:
		return "sort mva"
	case PhaseMerge:
		return "merge"
	default:
		return "unknown"
	}
}

// PhaseStats is the running counters a progress callback can report; not
// every field is meaningful in every phase.
type PhaseStats struct {
	Docs    int
	Hits    int
	Bytes   int64
	Current int
	Total   int
}

// ProgressFunc is fired at each phase boundary (§4.D).
type ProgressFunc func(phase Phase, stats PhaseStats)
