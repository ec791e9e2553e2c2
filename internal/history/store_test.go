package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/verify"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func resultAt(t *testing.T, started time.Time, id string, findings []finding.Finding) *verify.Result {
	t.Helper()
	return &verify.Result{
		RunID:           id,
		Root:            "/mnt/usb",
		StartedAt:       started,
		FinishedAt:      started.Add(2 * time.Second),
		TotalAudioFiles: 42,
		TotalFolders:    7,
		RootFolders:     3,
		MaxDepth:        2,
		Findings:        findings,
	}
}

func TestRecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	res := resultAt(t, started, "run-1", []finding.Finding{
		{Path: "a.mp3", Category: finding.CategoryBitrate, Severity: finding.SeverityError, Message: "bad"},
		{Path: "b.mp3", Category: finding.CategoryEncoding, Severity: finding.SeverityWarning, Message: "vbr"},
	})
	if err := store.Record(ctx, res, "/tmp/defects.csv"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	run, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Root != "/mnt/usb" || run.TotalAudioFiles != 42 {
		t.Fatalf("run = %+v", run)
	}
	if run.ErrorCount != 1 || run.WarningCount != 1 || run.Passed {
		t.Fatalf("counts = %d/%d passed=%v, want 1/1 false", run.ErrorCount, run.WarningCount, run.Passed)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("StartedAt = %v, want %v", run.StartedAt, started)
	}
	if run.ExportPath != "/tmp/defects.csv" {
		t.Fatalf("ExportPath = %q", run.ExportPath)
	}
}

func TestGetMissing(t *testing.T) {
	store := openStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res := resultAt(t, base.Add(time.Duration(i)*time.Hour), fmt.Sprintf("run-%d", i), nil)
		if err := store.Record(ctx, res, ""); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Fatalf("order = %s, %s; want run-2, run-1", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].ExportPath != "" {
		t.Fatalf("ExportPath = %q, want empty", runs[0].ExportPath)
	}
	if !runs[0].Passed {
		t.Fatal("run without findings should be recorded as passed")
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		res := resultAt(t, base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("run-%d", i), nil)
		if err := store.Record(ctx, res, ""); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	removed, err := store.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "run-4" {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	res := resultAt(t, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), "run-1", nil)
	if err := store.Record(ctx, res, ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(ctx, "run-1"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}
