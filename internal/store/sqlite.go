package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS change_logs (
	label    TEXT PRIMARY KEY,
	warnings TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS change_records (
	label         TEXT    NOT NULL REFERENCES change_logs(label) ON DELETE CASCADE,
	seq           INTEGER NOT NULL,
	key           TEXT    NOT NULL,
	change_type   TEXT    NOT NULL,
	field_changed TEXT    NOT NULL,
	old_value     TEXT    NOT NULL,
	new_value     TEXT    NOT NULL,
	PRIMARY KEY (label, seq)
);`

var pragmas = []string{
	"PRAGMA foreign_keys=ON",
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
	"PRAGMA synchronous=NORMAL",
}

// SQLiteStore keeps every label in one SQLite database. Values are stored
// as JSON so their kind survives a round trip.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", filepath.Dir(path), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer and ":memory:" is per
	// connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces the records stored under the log's label.
func (s *SQLiteStore) Save(ctx context.Context, log *changelog.Log) error {
	if err := validateLabel(log.Label()); err != nil {
		return err
	}
	warnings, err := json.Marshal(log.Warnings())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM change_logs WHERE label = ?`, log.Label()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO change_logs (label, warnings) VALUES (?, ?)`, log.Label(), string(warnings)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO change_records
		(label, seq, key, change_type, field_changed, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range log.Records() {
		oldValue, err := json.Marshal(r.OldValue)
		if err != nil {
			return err
		}
		newValue, err := json.Marshal(r.NewValue)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, log.Label(), i, r.Key, string(r.ChangeType), r.FieldChanged, string(oldValue), string(newValue)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logging.FromContext(ctx).Debug().Str("label", log.Label()).Int("records", log.Len()).Msg("Saved change log")
	return nil
}

// Load reads records back in sequence order.
func (s *SQLiteStore) Load(ctx context.Context, label string) (*changelog.Log, error) {
	var warningsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT warnings FROM change_logs WHERE label = ?`, label).Scan(&warningsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("change log", label)
	}
	if err != nil {
		return nil, err
	}
	var warnings []changelog.Warning
	if err := json.Unmarshal([]byte(warningsJSON), &warnings); err != nil {
		return nil, errors.WrapParse("json", "change_logs.warnings", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, change_type, field_changed, old_value, new_value
		FROM change_records WHERE label = ? ORDER BY seq`, label)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []changelog.Record{}
	for rows.Next() {
		var (
			r                  changelog.Record
			changeType         string
			oldValue, newValue string
		)
		if err := rows.Scan(&r.Key, &changeType, &r.FieldChanged, &oldValue, &newValue); err != nil {
			return nil, err
		}
		if r.ChangeType, err = changelog.ParseChangeType(changeType); err != nil {
			return nil, err
		}
		if r.OldValue, err = decodeValue(oldValue); err != nil {
			return nil, err
		}
		if r.NewValue, err = decodeValue(newValue); err != nil {
			return nil, err
		}
		r.Label = label
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changelog.New(label, records, warnings...), nil
}

// Labels lists stored labels.
func (s *SQLiteStore) Labels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label FROM change_logs ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortLabels(labels)
	return labels, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeValue(raw string) (snapshot.Value, error) {
	var v snapshot.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return snapshot.Null(), errors.WrapParse("json", "change_records", err)
	}
	return v, nil
}
