package frontier

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

func TestDiscoverDeduplicates(t *testing.T) {
	f := New()

	item := types.WorkItem{Kind: types.KindAnime, ID: "one-piece"}
	if got := f.Discover(item); got != 1 {
		t.Fatalf("first discover accepted %d, want 1", got)
	}
	if got := f.Discover(item); got != 0 {
		t.Fatalf("duplicate discover accepted %d, want 0", got)
	}

	// Same id under a different kind is distinct work.
	if got := f.Discover(types.WorkItem{Kind: types.KindEpisode, ID: "one-piece"}); got != 1 {
		t.Fatalf("distinct kind accepted %d, want 1", got)
	}

	if f.Pending(1) != 1 || f.Pending(2) != 1 {
		t.Errorf("unexpected queue sizes: stage1=%d stage2=%d", f.Pending(1), f.Pending(2))
	}
}

func TestNextBatchFIFO(t *testing.T) {
	f := New()
	for i := 0; i < 5; i++ {
		f.Discover(types.WorkItem{Kind: types.KindAnime, ID: fmt.Sprintf("slug-%d", i)})
	}

	batch := f.NextBatch(1, 3)
	if len(batch) != 3 {
		t.Fatalf("expected 3 items, got %d", len(batch))
	}
	for i, item := range batch {
		if want := fmt.Sprintf("slug-%d", i); item.ID != want {
			t.Errorf("batch[%d] = %s, want %s", i, item.ID, want)
		}
	}

	rest := f.NextBatch(1, 10)
	if len(rest) != 2 {
		t.Fatalf("expected 2 remaining items, got %d", len(rest))
	}
	if f.NextBatch(1, 1) != nil {
		t.Error("drained queue should return nil")
	}
}

func TestStageBuckets(t *testing.T) {
	f := New()
	f.Seed(
		types.WorkItem{Kind: types.KindHome, ID: "home"},
		types.WorkItem{Kind: types.KindOngoing, ID: "p1"},
		types.WorkItem{Kind: types.KindGenres, ID: "genrelist"},
		types.WorkItem{Kind: types.KindSchedule, ID: "jadwal"},
	)
	f.Discover(types.WorkItem{Kind: types.KindAnime, ID: "a"})
	f.Discover(types.WorkItem{Kind: types.KindEpisode, ID: "e"})

	if got := f.Pending(0); got != 4 {
		t.Errorf("stage 0 pending = %d, want 4", got)
	}
	if got := f.Pending(1); got != 1 {
		t.Errorf("stage 1 pending = %d, want 1", got)
	}
	if got := f.Pending(2); got != 1 {
		t.Errorf("stage 2 pending = %d, want 1", got)
	}
	if got := f.Visited(); got != 6 {
		t.Errorf("visited = %d, want 6", got)
	}
}

func TestConcurrentDiscoverSingleEnqueue(t *testing.T) {
	f := New()
	const workers = 16

	var wg sync.WaitGroup
	accepted := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				accepted[w] += f.Discover(types.WorkItem{Kind: types.KindEpisode, ID: fmt.Sprintf("ep-%d", i)})
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range accepted {
		total += n
	}
	if total != 100 {
		t.Errorf("total accepted = %d, want 100", total)
	}
	if got := f.Pending(2); got != 100 {
		t.Errorf("pending = %d, want 100", got)
	}
}

func TestClaim(t *testing.T) {
	f := New()
	item := types.WorkItem{Kind: types.KindOngoing, ID: "p1"}
	if !f.Claim(item) {
		t.Fatal("first claim should succeed")
	}
	if f.Claim(item) {
		t.Error("second claim should report already seen")
	}
	if f.Pending(0) != 0 {
		t.Error("claimed items must not be queued")
	}
	if got := f.Discover(item); got != 0 {
		t.Error("claimed items must not be re-discoverable")
	}
}

func TestDiscoverSkipsEmptyIDs(t *testing.T) {
	f := New()
	if got := f.Discover(types.WorkItem{Kind: types.KindAnime, ID: ""}); got != 0 {
		t.Errorf("empty id accepted %d, want 0", got)
	}
}
