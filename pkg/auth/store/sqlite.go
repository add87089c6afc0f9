package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store on a local SQLite database. It is the default
// backend for single-instance deployments: durable, zero-dependency, and fast
// enough for a hash-indexed point lookup per request.
//
// The database runs in WAL mode with a single writer connection, which is how
// SQLite wants to be used from one process.
type SQLiteStore struct {
	db *sql.DB

	getStmt           *sql.Stmt
	insertStmt        *sql.Stmt
	touchStmt         *sql.Stmt
	revokeStmt        *sql.Stmt
	listStmt          *sql.Stmt
	deleteExpiredStmt *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) the key database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	// modernc.org/sqlite applies pragmas via _pragma=name(value) DSN
	// parameters; mattn-style _journal_mode keys are silently ignored.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		key_hash TEXT NOT NULL UNIQUE,
		key_prefix TEXT NOT NULL,
		tier TEXT NOT NULL DEFAULT 'free',
		is_active INTEGER NOT NULL DEFAULT 1,
		expires_at INTEGER,
		last_used_at INTEGER,
		request_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash);
	CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`
		SELECT id, user_id, key_hash, key_prefix, tier, is_active,
		       expires_at, last_used_at, request_count, created_at
		FROM api_keys WHERE key_hash = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare get: %w", err)
	}

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO api_keys (id, user_id, key_hash, key_prefix, tier,
			is_active, expires_at, last_used_at, request_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}

	s.touchStmt, err = s.db.Prepare(`
		UPDATE api_keys
		SET request_count = request_count + 1, last_used_at = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare touch: %w", err)
	}

	s.revokeStmt, err = s.db.Prepare(`UPDATE api_keys SET is_active = 0 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare revoke: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, user_id, key_hash, key_prefix, tier, is_active,
		       expires_at, last_used_at, request_count, created_at
		FROM api_keys ORDER BY created_at DESC
	`)
	if err != nil {
		return fmt.Errorf("prepare list: %w", err)
	}

	s.deleteExpiredStmt, err = s.db.Prepare(`
		DELETE FROM api_keys WHERE expires_at IS NOT NULL AND expires_at < ?
	`)
	if err != nil {
		return fmt.Errorf("prepare delete expired: %w", err)
	}

	return nil
}

// GetByHash looks up a key record by hash.
func (s *SQLiteStore) GetByHash(ctx context.Context, hash string) (*KeyRecord, error) {
	row := s.getStmt.QueryRowContext(ctx, hash)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query key by hash: %w", err)
	}
	return rec, nil
}

// Insert persists a new key record.
func (s *SQLiteStore) Insert(ctx context.Context, rec *KeyRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.insertStmt.ExecContext(ctx,
		rec.ID, rec.UserID, rec.KeyHash, rec.KeyPrefix, rec.Tier,
		boolToInt(rec.Active), unixOrNil(rec.ExpiresAt), unixOrNil(rec.LastUsedAt),
		rec.RequestCount, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert key: %w", err)
	}
	return nil
}

// Touch increments request_count and sets last_used_at.
func (s *SQLiteStore) Touch(ctx context.Context, id string, usedAt time.Time) error {
	if _, err := s.touchStmt.ExecContext(ctx, usedAt.Unix(), id); err != nil {
		return fmt.Errorf("touch key: %w", err)
	}
	return nil
}

// Revoke marks the key inactive.
func (s *SQLiteStore) Revoke(ctx context.Context, id string) error {
	res, err := s.revokeStmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all records, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*KeyRecord, error) {
	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var records []*KeyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan key row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteExpired removes records whose expiry passed before cutoff.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.deleteExpiredStmt.ExecContext(ctx, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired keys: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*KeyRecord, error) {
	var (
		rec       KeyRecord
		active    int
		expires   sql.NullInt64
		lastUsed  sql.NullInt64
		createdAt int64
	)

	err := sc.Scan(&rec.ID, &rec.UserID, &rec.KeyHash, &rec.KeyPrefix, &rec.Tier,
		&active, &expires, &lastUsed, &rec.RequestCount, &createdAt)
	if err != nil {
		return nil, err
	}

	rec.Active = active != 0
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	if expires.Valid {
		t := time.Unix(expires.Int64, 0).UTC()
		rec.ExpiresAt = &t
	}
	if lastUsed.Valid {
		t := time.Unix(lastUsed.Int64, 0).UTC()
		rec.LastUsedAt = &t
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
