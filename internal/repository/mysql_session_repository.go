package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/villa-web/internal/store"
)

// browserSessionsDDL creates the table backing MySQLSessionRepo.
const browserSessionsDDL = `CREATE TABLE IF NOT EXISTS browser_sessions (
  id CHAR(36) NOT NULL PRIMARY KEY,
  payload JSON NOT NULL,
  expires_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  KEY idx_browser_sessions_expires (expires_at)
)`

// MySQLSessionRepo stores snapshots in the browser_sessions table.
type MySQLSessionRepo struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewMySQLSessionRepo(db *sql.DB, ttl time.Duration) *MySQLSessionRepo {
	return &MySQLSessionRepo{DB: db, TTL: ttl}
}

// EnsureSchema creates browser_sessions when missing.
func (r *MySQLSessionRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, browserSessionsDDL)
	return err
}

// Load returns the snapshot unless it is missing or past expires_at.
func (r *MySQLSessionRepo) Load(ctx context.Context, id string) (store.Snapshot, error) {
	if id == "" {
		return store.Snapshot{}, ErrInvalidSessionID
	}
	var payload []byte
	err := r.DB.QueryRowContext(ctx,
		"SELECT payload FROM browser_sessions WHERE id=? AND expires_at > ? LIMIT 1",
		id, time.Now().UTC()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("decode session: %w", err)
	}
	return snap, nil
}

// Save upserts the snapshot and pushes expires_at forward.
func (r *MySQLSessionRepo) Save(ctx context.Context, id string, snap store.Snapshot) error {
	if id == "" {
		return ErrInvalidSessionID
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	now := time.Now().UTC()
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO browser_sessions (id, payload, expires_at, updated_at) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE payload=VALUES(payload), expires_at=VALUES(expires_at), updated_at=VALUES(updated_at)`,
		id, payload, now.Add(r.TTL), now)
	return err
}

func (r *MySQLSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM browser_sessions WHERE id=?", id)
	return err
}

// DeleteExpired removes rows past expires_at and returns how many went.
func (r *MySQLSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM browser_sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
