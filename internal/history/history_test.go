package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/TrashHobbit/modelkit/internal/publish"
)

func sampleReport(runID string, started time.Time) publish.Report {
	return publish.Report{
		RunID:    runID,
		Repo:     "owner/model",
		Started:  started,
		Finished: started.Add(3 * time.Second),
		Results: []publish.ItemResult{
			{
				Item:  publish.Item{Kind: publish.KindFile, RepoPath: "README.md"},
				State: publish.StateUploaded,
				Files: 1,
			},
			{
				Item:  publish.Item{Kind: publish.KindFile, RepoPath: "saved_model/saved_model.pb"},
				State: publish.StateMissing,
			},
			{
				Item:  publish.Item{Kind: publish.KindDirectory, RepoPath: "saved_model/variables"},
				State: publish.StateFailed,
				Err:   errors.New("connection reset"),
				Files: 2,
			},
		},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	ctx := context.Background()
	journal, err := Open(filepath.Join(t.TempDir(), "history", "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer journal.Close()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := journal.Record(ctx, sampleReport("run-1", started)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := journal.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || run.Repo != "owner/model" {
		t.Fatalf("run = %+v", run)
	}
	if run.Uploaded != 1 || run.Missing != 1 || run.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d", run.Uploaded, run.Missing, run.Failed)
	}
	if !run.Started.Equal(started) {
		t.Fatalf("started = %v, want %v", run.Started, started)
	}

	items, err := journal.Items(ctx, "run-1")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].RepoPath != "README.md" || items[0].State != "uploaded" {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[2].State != "failed" || items[2].Detail != "connection reset" {
		t.Fatalf("failed item = %+v", items[2])
	}
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	journal, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer journal.Close()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		if err := journal.Record(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	runs, err := journal.Runs(ctx, 2)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestOpenReopensExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	journal, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := journal.Record(ctx, sampleReport("run-1", time.Now())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs after reopen, want 1", len(runs))
	}
}

func TestItemsUnknownRunEmpty(t *testing.T) {
	journal, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer journal.Close()

	items, err := journal.Items(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}
