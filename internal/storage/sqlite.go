// Package storage provides SQLite implementation of the TargetStore interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ontomatch/internal/models"
)

// SQLiteStorage implements TargetStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private
// in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS targets (
		index_id TEXT NOT NULL,
		unique_id TEXT NOT NULL,
		id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		target_type TEXT NOT NULL,
		label TEXT,
		url TEXT,
		payload TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (index_id, unique_id)
	);

	CREATE INDEX IF NOT EXISTS idx_targets_entity_type ON targets(index_id, entity_type);
	`
	_, err := db.Exec(schema)
	return err
}

// PutTargets upserts targets in a transaction.
func (s *SQLiteStorage) PutTargets(ctx context.Context, indexID string, targets []*models.TargetEntity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO targets (index_id, unique_id, id, entity_type, target_type, label, url, payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(index_id, unique_id) DO UPDATE SET
		   label = excluded.label, url = excluded.url, payload = excluded.payload, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, t := range targets {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal target %s: %w", t.UniqueID(), err)
		}
		if _, err := stmt.ExecContext(ctx,
			indexID, t.UniqueID(), t.ID, t.EntityType, string(t.TargetType), t.Label, t.URL, string(payload), now, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTarget returns one target by unique id.
func (s *SQLiteStorage) GetTarget(ctx context.Context, indexID, uniqueID string) (*models.TargetEntity, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM targets WHERE index_id = ? AND unique_id = ?`, indexID, uniqueID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s in %s", ErrTargetNotFound, uniqueID, indexID)
	}
	if err != nil {
		return nil, err
	}
	return decodeTarget(payload)
}

// GetTargets returns the targets with the given unique ids.
func (s *SQLiteStorage) GetTargets(ctx context.Context, indexID string, uniqueIDs []string) (map[string]*models.TargetEntity, error) {
	out := make(map[string]*models.TargetEntity, len(uniqueIDs))
	if len(uniqueIDs) == 0 {
		return out, nil
	}
	args := make([]interface{}, 0, len(uniqueIDs)+1)
	args = append(args, indexID)
	for _, id := range uniqueIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(uniqueIDs)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT unique_id, payload FROM targets WHERE index_id = ? AND unique_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var uid, payload string
		if err := rows.Scan(&uid, &payload); err != nil {
			return nil, err
		}
		t, err := decodeTarget(payload)
		if err != nil {
			return nil, err
		}
		out[uid] = t
	}
	return out, rows.Err()
}

func decodeTarget(payload string) (*models.TargetEntity, error) {
	var t models.TargetEntity
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal target: %w", err)
	}
	return &t, nil
}

// DeleteTarget removes one target.
func (s *SQLiteStorage) DeleteTarget(ctx context.Context, indexID, uniqueID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM targets WHERE index_id = ? AND unique_id = ?`, indexID, uniqueID)
	return err
}

// CountTargets returns the number of targets stored under indexID.
func (s *SQLiteStorage) CountTargets(ctx context.Context, indexID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM targets WHERE index_id = ?`, indexID).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
