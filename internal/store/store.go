// Package store persists parsed resumes in an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no resume has the requested ID
var ErrNotFound = errors.New("resume not found")

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 100

// createdLayout has a fixed width so created_at sorts lexically
const createdLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS resumes (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	format        TEXT NOT NULL,
	primary_email TEXT NOT NULL DEFAULT '',
	resolved_name TEXT NOT NULL DEFAULT '',
	record_json   TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resumes_email ON resumes(primary_email);
CREATE INDEX IF NOT EXISTS idx_resumes_created ON resumes(created_at);
`

// Store is a SQLite-backed repository of parsed resumes
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
		dsn = "file:" + path
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts r, or replaces the row with the same ID. A missing ID is
// filled with a new UUID and a zero ParsedAt with the current time.
func (s *Store) Save(ctx context.Context, r *models.ParsedResume) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ParsedAt.IsZero() {
		r.ParsedAt = time.Now().UTC()
	}

	record, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resumes (id, filename, format, primary_email, resolved_name, record_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			format = excluded.format,
			primary_email = excluded.primary_email,
			resolved_name = excluded.resolved_name,
			record_json = excluded.record_json`,
		r.ID, r.Filename, string(r.Format), r.Record.PrimaryEmail(), r.ResolvedName,
		string(record), r.ParsedAt.UTC().Format(createdLayout),
	)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the resume with id or ErrNotFound
func (s *Store) Get(ctx context.Context, id string) (models.ParsedResume, error) {
	row := s.db.QueryRowContext(ctx, `SELECT record_json FROM resumes WHERE id = ?`, id)
	r, err := scanResume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ParsedResume{}, ErrNotFound
	}
	return r, err
}

// List returns resumes newest first. A non-positive limit uses DefaultListLimit.
func (s *Store) List(ctx context.Context, limit, offset int) ([]models.ParsedResume, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record_json FROM resumes ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// FindByEmail returns resumes whose primary email equals email, newest first
func (s *Store) FindByEmail(ctx context.Context, email string) ([]models.ParsedResume, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []models.ParsedResume{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record_json FROM resumes WHERE primary_email = ? ORDER BY created_at DESC, id`, email)
	if err != nil {
		return nil, fmt.Errorf("store: find by email: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// Delete removes the resume with id or returns ErrNotFound
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resumes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResume(sc scanner) (models.ParsedResume, error) {
	var raw string
	if err := sc.Scan(&raw); err != nil {
		return models.ParsedResume{}, err
	}
	var r models.ParsedResume
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return models.ParsedResume{}, fmt.Errorf("store: decode record: %w", err)
	}
	return r, nil
}

func collect(rows *sql.Rows) ([]models.ParsedResume, error) {
	out := []models.ParsedResume{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}
	return out, nil
}
