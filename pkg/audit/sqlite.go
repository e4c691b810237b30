package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	audit_id            TEXT PRIMARY KEY,
	request_id          TEXT NOT NULL,
	tenant_id           TEXT NOT NULL DEFAULT '',
	constitutional_hash TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	outcome             TEXT NOT NULL,
	compliant           INTEGER NOT NULL,
	score               REAL NOT NULL,
	breakdown           TEXT,
	strategy            TEXT NOT NULL DEFAULT '',
	degraded            INTEGER NOT NULL,
	cached              INTEGER NOT NULL,
	latency_ms          INTEGER NOT NULL,
	created_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_records(created_at);
CREATE INDEX IF NOT EXISTS idx_audit_request ON audit_records(request_id);
CREATE INDEX IF NOT EXISTS idx_audit_tenant ON audit_records(tenant_id);
`

// SQLiteStore is a durable Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. WAL mode keeps appends from blocking concurrent queries.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent appends.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply audit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes one record.
func (s *SQLiteStore) Append(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_records (
			audit_id, request_id, tenant_id, constitutional_hash,
			category, outcome, compliant, score, breakdown, strategy,
			degraded, cached, latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AuditID, rec.RequestID, rec.TenantID, rec.ConstitutionalHash,
		rec.Category, rec.Outcome, boolInt(rec.Compliant), rec.Score,
		string(rec.Breakdown), rec.Strategy, boolInt(rec.Degraded),
		boolInt(rec.Cached), rec.LatencyMS, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]*Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var conds []string
	var args []any
	if f.RequestID != "" {
		conds = append(conds, "request_id = ?")
		args = append(args, f.RequestID)
	}
	if f.TenantID != "" {
		conds = append(conds, "tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, f.Outcome)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, f.Until.UnixNano())
	}

	query := `SELECT audit_id, request_id, tenant_id, constitutional_hash,
		category, outcome, compliant, score, breakdown, strategy,
		degraded, cached, latency_ms, created_at FROM audit_records`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		var compliant, degraded, cached int
		var breakdown string
		var createdNanos int64
		if err := rows.Scan(
			&rec.AuditID, &rec.RequestID, &rec.TenantID, &rec.ConstitutionalHash,
			&rec.Category, &rec.Outcome, &compliant, &rec.Score, &breakdown,
			&rec.Strategy, &degraded, &cached, &rec.LatencyMS, &createdNanos,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Compliant = compliant != 0
		rec.Degraded = degraded != 0
		rec.Cached = cached != 0
		if breakdown != "" {
			rec.Breakdown = []byte(breakdown)
		}
		rec.CreatedAt = time.Unix(0, createdNanos)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Prune deletes records created before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_records WHERE created_at < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
