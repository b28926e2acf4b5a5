package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/ecosim/internal/agent"
	"github.com/san-kum/ecosim/internal/config"
)

func runInto(t *testing.T, st *Store, cfg *config.Config) string {
	t.Helper()

	run, err := st.Create(cfg, "test")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	c, err := agent.NewCoordinator(cfg.RunConfig(slog.New(slog.NewTextHandler(io.Discard, nil))), run)
	if err != nil {
		t.Fatalf("coordinator failed: %v", err)
	}
	summary, runErr := c.Run(context.Background())
	if runErr != nil {
		t.Fatalf("run failed: %v", runErr)
	}
	if err := run.Finish(summary, nil); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	return run.ID()
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Seed = 42
	runID := runInto(t, st, cfg)

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Records != 72 {
		t.Errorf("expected 72 records, got %d", meta.Records)
	}
	if meta.Final == nil || meta.Final.Year != 2028 || meta.Final.Month != 11 {
		t.Errorf("unexpected final record: %+v", meta.Final)
	}
	if meta.Config == nil || meta.Config.EndYear != 2029 {
		t.Errorf("config not stored: %+v", meta.Config)
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	if len(records) != 72 {
		t.Errorf("expected 72 records, got %d", len(records))
	}
}

func TestStoreCompressedRecords(t *testing.T) {
	st := New(t.TempDir())

	cfg := config.DefaultConfig()
	cfg.EndYear = cfg.StartYear + 2
	cfg.Output.Compress = true
	runID := runInto(t, st, cfg)

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.RecordFile != "records.csv.zst" {
		t.Errorf("expected compressed record file, got %s", meta.RecordFile)
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	if len(records) != 24 {
		t.Errorf("expected 24 records, got %d", len(records))
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg := config.DefaultConfig()
	cfg.EndYear = cfg.StartYear + 1
	runInto(t, st, cfg)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreKeepsFailedRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	run, err := st.Create(config.DefaultConfig(), "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := run.Finish(nil, errors.New("disk full")); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, run.ID())
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "records.csv")); os.IsNotExist(err) {
		t.Error("records.csv not created")
	}

	meta, err := st.Load(run.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Error != "disk full" {
		t.Errorf("expected error in metadata, got %q", meta.Error)
	}
	if meta.Records != 0 {
		t.Errorf("expected 0 records, got %d", meta.Records)
	}
}
