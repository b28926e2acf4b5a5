package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/san-kum/ecosim/internal/world"
)

// SQLite appends records to a "records" table, one run per run id.
type SQLite struct {
	db    *sql.DB
	runID string
	ins   *sql.Stmt
}

func OpenSQLite(path, runID string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sink: empty db path")
	}
	if runID == "" {
		return nil, fmt.Errorf("sink: empty run id")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	ins, err := db.Prepare(`INSERT INTO records
		(run_id, year, month, temperature, precipitation, rabbits, foxes, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, runID: runID, ins: ins}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS records (
			run_id        TEXT    NOT NULL,
			year          INTEGER NOT NULL,
			month         INTEGER NOT NULL,
			temperature   REAL    NOT NULL,
			precipitation REAL    NOT NULL,
			rabbits       INTEGER NOT NULL,
			foxes         INTEGER NOT NULL,
			height        REAL    NOT NULL,
			PRIMARY KEY (run_id, year, month)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("sink: init sqlite: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Write(rec world.Record) error {
	_, err := s.ins.Exec(s.runID, rec.Year, rec.Month, rec.Temperature, rec.Precipitation, rec.Rabbits, rec.Foxes, rec.Height)
	return err
}

// Records returns the rows of runID ordered by simulated time.
func (s *SQLite) Records(ctx context.Context, runID string) ([]world.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year, month, temperature, precipitation, rabbits, foxes, height
		FROM records WHERE run_id = ? ORDER BY year, month`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []world.Record
	for rows.Next() {
		var r world.Record
		if err := rows.Scan(&r.Year, &r.Month, &r.Temperature, &r.Precipitation, &r.Rabbits, &r.Foxes, &r.Height); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	_ = s.ins.Close()
	return s.db.Close()
}
