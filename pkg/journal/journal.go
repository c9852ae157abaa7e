// Package journal keeps a local history of uploaded traces.
//
// The journal is informational: the server's trace list is the only source
// used to decide whether a trace was already uploaded.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sidkik/gpxsync/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Entry is a single uploaded trace.
type Entry struct {
	RunID      string
	File       string
	Identity   string
	RemoteID   string
	UploadedAt time.Time
}

// Journal is a SQLite database of uploaded traces.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal at `path`.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithContext(err, "open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WithContext(err, "connect to database")
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.WithContext(err, pragma)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.WithContext(err, "apply schema")
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record adds an upload to the journal.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO uploads (run_id, file, identity, remote_id, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		entry.RunID,
		entry.File,
		entry.Identity,
		entry.RemoteID,
		entry.UploadedAt.UnixNano(),
	)
	if err != nil {
		return errors.WithContext(err, "insert upload")
	}
	return nil
}

// Recent returns the `limit` most recent uploads, newest first. A limit of
// zero or less returns every upload.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, file, identity, remote_id, uploaded_at
		FROM uploads
		ORDER BY uploaded_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.WithContext(err, "query uploads")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var uploadedAt int64
		if err := rows.Scan(&entry.RunID, &entry.File, &entry.Identity,
			&entry.RemoteID, &uploadedAt); err != nil {
			return nil, errors.WithContext(err, "scan upload")
		}
		entry.UploadedAt = time.Unix(0, uploadedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithContext(err, "read uploads")
	}
	return entries, nil
}
