package storage

import (
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresStore struct {
	baseStore
}

var postgresDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL,
			threshold DOUBLE PRECISION NOT NULL,
			total INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			anomalies INTEGER NOT NULL,
			report_path TEXT NOT NULL,
			graph_path TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS anomalies (
			id BIGSERIAL PRIMARY KEY,
			run_id BIGINT NOT NULL REFERENCES runs(id),
			reading_index INTEGER NOT NULL,
			value DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anomalies_run ON anomalies(run_id)`,
	},
	insertRun: `INSERT INTO runs (started_at, finished_at, source, threshold, total, skipped, anomalies, report_path, graph_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
	insertAnom: `INSERT INTO anomalies (run_id, reading_index, value) VALUES ($1, $2, $3)`,
	listRuns: `SELECT started_at, finished_at, source, threshold, total, skipped, anomalies, report_path, graph_path
		FROM runs ORDER BY id DESC LIMIT $1`,
	returningRun: true,
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/sensorguard?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db, d: postgresDialect}}, nil
}
