package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/voxnote/internal/checksum"
	"github.com/starford/voxnote/internal/models"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	body       TEXT NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

`

// SQLite implements Provider on a SQLite database. The document is kept as
// one row, replaced on every save.
type SQLite struct {
	conn *sql.DB
}

var _ Provider = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Load returns the stored document, or an empty one when none was saved.
func (s *SQLite) Load(ctx context.Context) (*models.Document, error) {
	var body string
	err := s.conn.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		doc := &models.Document{}
		doc.Normalize()
		if err := s.Save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load document: %w", err)
	}
	return Decode([]byte(body))
}

// Save upserts the document row.
func (s *SQLite) Save(ctx context.Context, doc *models.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO documents (id, body, checksum, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			body       = excluded.body,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, string(data), checksum.Sum(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage: upsert document: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
