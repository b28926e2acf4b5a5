package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/ecosim/internal/agent"
	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/sink"
	"github.com/san-kum/ecosim/internal/world"
)

const (
	metadataFile = "metadata.json"
	recordsFile  = "records.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string         `json:"id"`
	Preset     string         `json:"preset,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Seed       int64          `json:"seed"`
	StartYear  int            `json:"start_year"`
	EndYear    int            `json:"end_year"`
	StartMonth int            `json:"start_month"`
	Barrier    string         `json:"barrier"`
	Records    int            `json:"records"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
	Final      *world.Record  `json:"final,omitempty"`
	RecordFile string         `json:"record_file"`
	Error      string         `json:"error,omitempty"`
	Config     *config.Config `json:"config"`
}

// Run is an open run directory. It is the sink for the run's records.
type Run struct {
	dir  string
	meta RunMetadata
	csv  *sink.CSV
}

// Create opens a new run directory for cfg.
func (s *Store) Create(cfg *config.Config, preset string) (*Run, error) {
	now := time.Now()
	runID := fmt.Sprintf("run_%d", now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	name := recordsFile
	if cfg.Output.Compress {
		name += sink.ZstdExt
	}
	csvSink, err := sink.CreateCSV(filepath.Join(runDir, name))
	if err != nil {
		return nil, err
	}

	return &Run{
		dir: runDir,
		csv: csvSink,
		meta: RunMetadata{
			ID:         runID,
			Preset:     preset,
			Timestamp:  now,
			Seed:       cfg.Seed,
			StartYear:  cfg.StartYear,
			EndYear:    cfg.EndYear,
			StartMonth: cfg.StartMonth,
			Barrier:    cfg.Barrier,
			RecordFile: name,
			Config:     cfg,
		},
	}, nil
}

func (r *Run) ID() string { return r.meta.ID }

func (r *Run) Write(rec world.Record) error {
	if err := r.csv.Write(rec); err != nil {
		return err
	}
	r.meta.Records++
	last := rec
	r.meta.Final = &last
	return nil
}

// Finish closes the record file and writes metadata. runErr, if any, is kept
// in the metadata so failed runs still list.
func (r *Run) Finish(summary *agent.Summary, runErr error) error {
	closeErr := r.csv.Close()

	if summary != nil {
		r.meta.Elapsed = summary.Elapsed
	}
	if runErr != nil {
		r.meta.Error = runErr.Error()
	}

	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return errors.Join(closeErr, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Join(closeErr, enc.Encode(r.meta))
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadRecords(runID string) ([]world.Record, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	return sink.ReadCSV(filepath.Join(s.baseDir, runID, meta.RecordFile))
}
