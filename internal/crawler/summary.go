package crawler

import (
	"github.com/Iyapetai69/Otakudesuscrap/internal/ledger"
	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// Counts aggregates item outcomes.
type Counts struct {
	Fetched int
	Skipped int
	Failed  int
}

// Summary reports per-kind outcome counts for one crawl run.
type Summary struct {
	Kinds map[types.Kind]Counts
}

// NewSummary returns an empty summary.
func NewSummary() Summary {
	return Summary{Kinds: make(map[types.Kind]Counts)}
}

func (s *Summary) add(kind types.Kind, status string) {
	c := s.Kinds[kind]
	switch status {
	case ledger.OutcomeFetched:
		c.Fetched++
	case ledger.OutcomeSkipped:
		c.Skipped++
	case ledger.OutcomeFailed:
		c.Failed++
	}
	s.Kinds[kind] = c
}

// Counts returns the counters recorded for one kind.
func (s Summary) Counts(kind types.Kind) Counts {
	return s.Kinds[kind]
}

// Total sums the counters across all kinds.
func (s Summary) Total() Counts {
	var total Counts
	for _, c := range s.Kinds {
		total.Fetched += c.Fetched
		total.Skipped += c.Skipped
		total.Failed += c.Failed
	}
	return total
}

func (s Summary) clone() Summary {
	out := NewSummary()
	for kind, c := range s.Kinds {
		out.Kinds[kind] = c
	}
	return out
}
