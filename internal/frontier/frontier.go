// Package frontier tracks the crawl's discovered work. Items are deduplicated
// by (kind, id) at insertion time: an id discovered from several source pages
// is queued exactly once, and the queue size stays bounded by the number of
// distinct ids the crawl has seen.
package frontier

import (
	"sync"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// NumStages is the number of dependency-ordered crawl stages: listing pages,
// anime detail pages, episode detail pages.
const NumStages = 3

// Frontier holds the visited ledger and the per-stage FIFO queues. All
// methods are safe for concurrent use; no lock is ever held across I/O.
type Frontier struct {
	mu      sync.Mutex
	visited map[string]struct{}
	pending [NumStages][]types.WorkItem
	done    int
}

// New creates an empty frontier.
func New() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Seed inserts the initial work items. Identical to Discover; the distinct
// name keeps call sites readable.
func (f *Frontier) Seed(items ...types.WorkItem) int {
	return f.Discover(items...)
}

// Discover inserts items whose (kind, id) has not been seen before and marks
// them visited immediately. Marking on insertion rather than on completion is
// what guarantees at-most-one enqueue even when two workers discover the same
// id concurrently; the trade-off is that a permanently failed item is not
// re-queued within the run (the next run retries it, since no record was
// persisted). Returns the number of items accepted.
func (f *Frontier) Discover(items ...types.WorkItem) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	accepted := 0
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		key := item.Key()
		if _, seen := f.visited[key]; seen {
			continue
		}
		f.visited[key] = struct{}{}
		stage := item.Kind.Stage()
		f.pending[stage] = append(f.pending[stage], item)
		accepted++
	}
	return accepted
}

// Claim marks an item visited without queueing it and reports whether it was
// unseen. Used for work processed inline, like sequential pagination probes.
func (f *Frontier) Claim(item types.WorkItem) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := item.Key()
	if _, seen := f.visited[key]; seen {
		return false
	}
	f.visited[key] = struct{}{}
	return true
}

// NextBatch removes and returns up to n items from the stage's queue in
// insertion order. An empty result means the stage's queue is drained as of
// this call.
func (f *Frontier) NextBatch(stage, n int) []types.WorkItem {
	if stage < 0 || stage >= NumStages || n <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	queue := f.pending[stage]
	if len(queue) == 0 {
		return nil
	}
	if n > len(queue) {
		n = len(queue)
	}
	batch := make([]types.WorkItem, n)
	copy(batch, queue[:n])
	f.pending[stage] = queue[n:]
	return batch
}

// MarkDone records completion of an item, successful or not.
func (f *Frontier) MarkDone(types.WorkItem) {
	f.mu.Lock()
	f.done++
	f.mu.Unlock()
}

// Pending reports the queue length of one stage.
func (f *Frontier) Pending(stage int) int {
	if stage < 0 || stage >= NumStages {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending[stage])
}

// Visited reports how many distinct (kind, id) pairs the frontier has seen.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Done reports how many items have been marked done.
func (f *Frontier) Done() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
