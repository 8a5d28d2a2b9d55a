package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/relaylabs/switchboard/internal/model"

	_ "modernc.org/sqlite"
)

const createRequestsTable = `
CREATE TABLE IF NOT EXISTS requests (
    id          TEXT PRIMARY KEY,
    key         TEXT NOT NULL,
    status      TEXT NOT NULL,
    payload     BLOB,
    response    BLOB,
    duration_ms INTEGER,
    created_at  DATETIME NOT NULL,
    finished_at DATETIME
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createRequestsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create requests table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRequest inserts a new request record.
func (s *SQLiteStore) CreateRequest(ctx context.Context, rec *model.RequestRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (
			id, key, status, payload, response, duration_ms, created_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Key, rec.Status, rec.Payload, rec.Response,
		rec.DurationMS, rec.CreatedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetRequest returns the request record with the given id.
func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*model.RequestRecord, error) {
	rec := &model.RequestRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, key, status, payload, response, duration_ms, created_at, finished_at
		FROM requests WHERE id = ?`, id,
	).Scan(
		&rec.ID, &rec.Key, &rec.Status, &rec.Payload, &rec.Response,
		&rec.DurationMS, &rec.CreatedAt, &rec.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return rec, nil
}

// ListRequests returns a paginated list of records ordered by created_at DESC,
// along with the total count of all records.
func (s *SQLiteStore) ListRequests(ctx context.Context, limit, offset int) ([]*model.RequestRecord, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM requests").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, key, status, payload, response, duration_ms, created_at, finished_at
		FROM requests ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var records []*model.RequestRecord
	for rows.Next() {
		rec := &model.RequestRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Key, &rec.Status, &rec.Payload, &rec.Response,
			&rec.DurationMS, &rec.CreatedAt, &rec.FinishedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan request: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate requests: %w", err)
	}

	return records, total, nil
}

// FinishRequest writes the terminal outcome (status, response, duration,
// finished_at) for a pending record. It validates the status transition
// against the current stored status and returns ErrInvalidTransition when the
// record has already reached a terminal state.
func (s *SQLiteStore) FinishRequest(ctx context.Context, rec *model.RequestRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT status FROM requests WHERE id = ?", rec.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read current status: %w", err)
	}

	if !model.ValidTransition(current, rec.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, rec.Status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, response = ?, duration_ms = ?, finished_at = ?
		WHERE id = ?`,
		rec.Status, rec.Response, rec.DurationMS, rec.FinishedAt, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("finish request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRequestStats returns aggregate counts and the average wait duration of
// completed requests.
func (s *SQLiteStore) GetRequestStats(ctx context.Context) (*RequestStats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	stats := &RequestStats{CountByStatus: make(map[string]int)}

	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM requests").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT status, COUNT(*) FROM requests GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.CountByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	var avg sql.NullFloat64
	err = tx.QueryRowContext(ctx,
		"SELECT AVG(duration_ms) FROM requests WHERE status = ?", model.StatusCompleted,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average duration: %w", err)
	}
	if avg.Valid {
		stats.AvgDurationMS = avg.Float64
	}

	return stats, nil
}
