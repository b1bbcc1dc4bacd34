package storage

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	baseStore
}

var sqliteDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			source TEXT NOT NULL,
			threshold REAL NOT NULL,
			total INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			anomalies INTEGER NOT NULL,
			report_path TEXT NOT NULL,
			graph_path TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS anomalies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			reading_index INTEGER NOT NULL,
			value REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anomalies_run ON anomalies(run_id)`,
	},
	insertRun: `INSERT INTO runs (started_at, finished_at, source, threshold, total, skipped, anomalies, report_path, graph_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	insertAnom: `INSERT INTO anomalies (run_id, reading_index, value) VALUES (?, ?, ?)`,
	listRuns: `SELECT started_at, finished_at, source, threshold, total, skipped, anomalies, report_path, graph_path
		FROM runs ORDER BY id DESC LIMIT ?`,
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:sensorguard.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db, d: sqliteDialect}}, nil
}
