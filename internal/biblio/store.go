// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

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

	"github.com/pdiddy/specmark/pkg/types"
)

// Store keeps exported biblios of other documents in a SQLite database so
// that builds can merge them without re-reading every export file.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the store database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.BiblioStoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("biblio store path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS biblios (
			location TEXT PRIMARY KEY,
			stored_at TEXT NOT NULL,
			entry_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			location TEXT NOT NULL REFERENCES biblios(location) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			id TEXT,
			ref_id TEXT,
			namespace TEXT NOT NULL,
			aoid TEXT,
			kind TEXT,
			number TEXT,
			title TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_location ON entries(location, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_id ON entries(id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_aoid ON entries(namespace, aoid)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores ex under its location, replacing any biblio previously
// stored there. It returns the number of entries written.
func (s *Store) Save(ctx context.Context, ex Export) (int, error) {
	if ex.Location == "" {
		return 0, fmt.Errorf("biblio has no location")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE location = ?`, ex.Location); err != nil {
		return 0, fmt.Errorf("deleting old entries: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO biblios (location, stored_at, entry_count) VALUES (?, ?, ?)
		 ON CONFLICT(location) DO UPDATE SET stored_at=excluded.stored_at, entry_count=excluded.entry_count`,
		ex.Location, time.Now().UTC().Format(time.RFC3339Nano), len(ex.Entries),
	)
	if err != nil {
		return 0, fmt.Errorf("upserting biblio: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (location, seq, type, id, ref_id, namespace, aoid, kind, number, title, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range ex.Entries {
		recJSON, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encoding entry %d: %w", i, err)
		}
		title := r.Title
		if r.Type == types.EntryTable {
			title = r.Caption
		}
		_, err = stmt.ExecContext(ctx,
			ex.Location, i, string(r.Type), r.ID, r.RefID, r.Namespace,
			r.Aoid, r.Kind, r.Number, title, string(recJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(ex.Entries), nil
}

// Summary describes one stored biblio.
type Summary struct {
	Location   string    `json:"location" yaml:"location"`
	StoredAt   time.Time `json:"stored_at" yaml:"stored_at"`
	EntryCount int       `json:"entry_count" yaml:"entry_count"`
}

// List returns every stored biblio ordered by location.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT location, stored_at, entry_count FROM biblios ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("listing biblios: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum      Summary
			storedAt string
		)
		if err := rows.Scan(&sum.Location, &storedAt, &sum.EntryCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sum.StoredAt, _ = time.Parse(time.RFC3339Nano, storedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Load returns the export stored under location.
func (s *Store) Load(ctx context.Context, location string) (Export, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT entry_count FROM biblios WHERE location = ?`, location).Scan(&n)
	if err != nil {
		if err == sql.ErrNoRows {
			return Export{}, fmt.Errorf("biblio %s not found", location)
		}
		return Export{}, fmt.Errorf("looking up biblio: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM entries WHERE location = ? ORDER BY seq`, location)
	if err != nil {
		return Export{}, fmt.Errorf("loading entries: %w", err)
	}
	defer rows.Close()

	recs := make([]types.EntryRecord, 0, n)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return Export{}, fmt.Errorf("scanning row: %w", err)
		}
		var r types.EntryRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return Export{}, fmt.Errorf("decoding entry: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return Export{}, err
	}
	return newExport(location, recs), nil
}

// Indexes loads every stored biblio as a frozen index, ordered by location.
func (s *Store) Indexes(ctx context.Context) ([]*Index, error) {
	sums, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Index, 0, len(sums))
	for _, sum := range sums {
		ex, err := s.Load(ctx, sum.Location)
		if err != nil {
			return nil, err
		}
		ix, err := FromExport(ex)
		if err != nil {
			return nil, err
		}
		out = append(out, ix)
	}
	return out, nil
}

// LookupOptions filters Lookup. Empty fields do not filter.
type LookupOptions struct {
	ID        string
	Aoid      string
	Namespace string

	// Query matches a substring of the title, caption, or aoid.
	Query string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether no filter is set.
func (o LookupOptions) IsEmpty() bool {
	return o.ID == "" && o.Aoid == "" && o.Namespace == "" && o.Query == ""
}

// Lookup searches stored entries across all biblios. Results are ordered
// by location and then by position within the biblio.
func (s *Store) Lookup(ctx context.Context, opts LookupOptions) ([]types.EntryRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT record FROM entries WHERE 1=1`)
	if opts.ID != "" {
		qb.WriteString(` AND id = ?`)
		args = append(args, opts.ID)
	}
	if opts.Aoid != "" {
		qb.WriteString(` AND aoid = ?`)
		args = append(args, opts.Aoid)
	}
	if opts.Namespace != "" {
		qb.WriteString(` AND namespace = ?`)
		args = append(args, opts.Namespace)
	}
	if opts.Query != "" {
		qb.WriteString(` AND (title LIKE ? OR aoid LIKE ?)`)
		like := "%" + opts.Query + "%"
		args = append(args, like, like)
	}
	qb.WriteString(` ORDER BY location, seq LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying biblio store: %w", err)
	}
	defer rows.Close()

	var out []types.EntryRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var r types.EntryRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decoding entry: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes the biblio stored under location.
func (s *Store) Delete(ctx context.Context, location string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM biblios WHERE location = ?`, location)
	if err != nil {
		return fmt.Errorf("deleting biblio: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("biblio %s not found", location)
	}
	return nil
}
