package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensorguard/internal/config"
	"sensorguard/internal/model"
)

// Store keeps a history of analysis runs and their anomalies.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveRun(ctx context.Context, summary model.RunSummary, result model.AnomalyResult) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

// dialect holds the statements that differ between drivers.
type dialect struct {
	schema       []string
	insertRun    string
	insertAnom   string
	listRuns     string
	returningRun bool
}

type baseStore struct {
	db *sql.DB
	d  dialect
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *baseStore) Init(ctx context.Context) error {
	if b.db == nil {
		return nil
	}
	for _, stmt := range b.d.schema {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *baseStore) SaveRun(ctx context.Context, summary model.RunSummary, result model.AnomalyResult) (int64, error) {
	if b.db == nil {
		return 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	args := []any{
		summary.StartedAt.UTC(),
		summary.FinishedAt.UTC(),
		summary.Source,
		summary.Threshold,
		summary.Total,
		summary.Skipped,
		summary.Anomalies,
		summary.ReportPath,
		summary.GraphPath,
	}
	var runID int64
	if b.d.returningRun {
		err = tx.QueryRowContext(ctx, b.d.insertRun, args...).Scan(&runID)
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, b.d.insertRun, args...)
		if err == nil {
			runID, err = res.LastInsertId()
		}
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert run: %w", err)
	}
	if len(result.Anomalies) > 0 {
		stmt, err := tx.PrepareContext(ctx, b.d.insertAnom)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		defer stmt.Close()
		for _, a := range result.Anomalies {
			if _, err := stmt.ExecContext(ctx, runID, a.Index, a.Value); err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("insert anomaly: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func (b *baseStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if b.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := b.db.QueryContext(ctx, b.d.listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RunSummary
	for rows.Next() {
		var s model.RunSummary
		var started, finished timeValue
		if err := rows.Scan(&started, &finished, &s.Source, &s.Threshold, &s.Total, &s.Skipped, &s.Anomalies, &s.ReportPath, &s.GraphPath); err != nil {
			return nil, err
		}
		s.StartedAt = started.Time
		s.FinishedAt = finished.Time
		out = append(out, s)
	}
	return out, rows.Err()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

// timeValue scans timestamps that come back either as time.Time or as text,
// depending on the driver.
type timeValue struct {
	Time time.Time
}

func (t *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			t.Time = ts.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp format: %q", s)
}
