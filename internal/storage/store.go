package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// SQLiteKV implements KV backed by the kv table of a SQLite database.
type SQLiteKV struct {
	db    *sql.DB
	quota int64

	// Prepared statements
	getValue  *sql.Stmt
	deleteKey *sql.Stmt
}

// NewSQLiteKV creates a SQLiteKV from an already-opened and migrated database.
// A non-positive quota selects DefaultQuotaBytes.
func NewSQLiteKV(db *sql.DB, quotaBytes int64) (*SQLiteKV, error) {
	if quotaBytes <= 0 {
		quotaBytes = DefaultQuotaBytes
	}
	s := &SQLiteKV{db: db, quota: quotaBytes}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteKV) prepareStatements() error {
	var err error

	s.getValue, err = s.db.Prepare(`SELECT value FROM kv WHERE key = ?`)
	if err != nil {
		return err
	}

	s.deleteKey, err = s.db.Prepare(`DELETE FROM kv WHERE key = ?`)
	if err != nil {
		return err
	}

	return nil
}

// classify maps a driver error onto the storage error taxonomy.
func classify(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
		return fmt.Errorf("%s: %w: %w", op, ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// Quota returns the capacity in bytes enforced by Set.
func (s *SQLiteKV) Quota() int64 {
	return s.quota
}

// Get returns the stored value for key.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.getValue.QueryRowContext(ctx, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, classify("get "+key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key. The quota check and the write run
// in one transaction so the accounting cannot drift from the table contents.
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var used int64
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(byte_size), 0) FROM kv WHERE key != ?", key,
	).Scan(&used)
	if err != nil {
		return classify("measure usage", err)
	}

	size := entrySize(key, value)
	if used+size > s.quota {
		return fmt.Errorf("set %s (%d bytes, %d of %d in use): %w", key, size, used, s.quota, ErrQuotaExceeded)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, byte_size, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			byte_size  = excluded.byte_size,
			updated_at = excluded.updated_at
	`, key, value, size, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return classify("set "+key, err)
	}

	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.deleteKey.ExecContext(ctx, key); err != nil {
		return classify("delete "+key, err)
	}
	return nil
}

// Stats returns key count, byte usage and per-key sizes, largest first.
func (s *SQLiteKV) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{QuotaBytes: s.quota}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(byte_size), 0) FROM kv",
	).Scan(&stats.Keys, &stats.UsedBytes)
	if err != nil {
		return nil, classify("count keys", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, byte_size FROM kv ORDER BY byte_size DESC, key")
	if err != nil {
		return nil, classify("key sizes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ks KeySize
		if err := rows.Scan(&ks.Key, &ks.Bytes); err != nil {
			return nil, err
		}
		stats.KeySizes = append(stats.KeySizes, ks)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteKV) Close() error {
	stmts := []*sql.Stmt{s.getValue, s.deleteKey}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
