package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

func TestLedgerRecordsOutcomes(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	runID, err := l.StartRun(ctx)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}

	item := types.WorkItem{Kind: types.KindAnime, ID: "one-piece"}
	if err := l.RecordItem(ctx, runID, item, OutcomeFetched, 2, ""); err != nil {
		t.Fatalf("record: %v", err)
	}
	failedItem := types.WorkItem{Kind: types.KindEpisode, ID: "op-1"}
	if err := l.RecordItem(ctx, runID, failedItem, OutcomeFailed, 3, "giving up after 3 attempts"); err != nil {
		t.Fatalf("record: %v", err)
	}

	outcome, attempts, err := l.ItemOutcome(ctx, runID, item)
	if err != nil {
		t.Fatalf("item outcome: %v", err)
	}
	if outcome != OutcomeFetched || attempts != 2 {
		t.Errorf("got (%s, %d), want (fetched, 2)", outcome, attempts)
	}

	if err := l.FinishRun(ctx, runID, 1, 0, 1); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	fetched, skipped, failed, err := l.RunCounts(ctx, runID)
	if err != nil {
		t.Fatalf("run counts: %v", err)
	}
	if fetched != 1 || skipped != 0 || failed != 1 {
		t.Errorf("got counts (%d, %d, %d), want (1, 0, 1)", fetched, skipped, failed)
	}
}

func TestLedgerUnknownItem(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	runID, err := l.StartRun(context.Background())
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	_, _, err = l.ItemOutcome(context.Background(), runID, types.WorkItem{Kind: types.KindAnime, ID: "missing"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestNilLedgerIsNoop(t *testing.T) {
	var l *Ledger
	ctx := context.Background()

	if _, err := l.StartRun(ctx); err != nil {
		t.Errorf("nil StartRun: %v", err)
	}
	if err := l.RecordItem(ctx, 1, types.WorkItem{Kind: types.KindHome, ID: "home"}, OutcomeSkipped, 0, ""); err != nil {
		t.Errorf("nil RecordItem: %v", err)
	}
	if err := l.FinishRun(ctx, 1, 0, 0, 0); err != nil {
		t.Errorf("nil FinishRun: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
