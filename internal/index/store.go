// Package index keeps a sqlite catalogue of chart summaries.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("index: chart not found")

const schema = `
CREATE TABLE IF NOT EXISTS charts (
	path            TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	artist          TEXT NOT NULL,
	chart_author    TEXT NOT NULL,
	difficulty      INTEGER NOT NULL,
	level           INTEGER NOT NULL,
	min_bpm         REAL NOT NULL,
	max_bpm         REAL NOT NULL,
	notes           INTEGER NOT NULL,
	laser_sections  INTEGER NOT NULL,
	curved_segments INTEGER NOT NULL,
	last_pulse      INTEGER NOT NULL,
	duration_ms     REAL NOT NULL,
	warnings        INTEGER NOT NULL
)`

const columns = `path, title, artist, chart_author, difficulty, level, min_bpm, max_bpm,
	notes, laser_sections, curved_segments, last_pulse, duration_ms, warnings`

// Store is a chart index backed by a sqlite database file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index at path. ":memory:" gives a private
// in-memory index.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	// One connection: sqlite serializes writers and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts e or replaces the entry with the same path.
func (s *Store) Put(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO charts (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			chart_author = excluded.chart_author,
			difficulty = excluded.difficulty,
			level = excluded.level,
			min_bpm = excluded.min_bpm,
			max_bpm = excluded.max_bpm,
			notes = excluded.notes,
			laser_sections = excluded.laser_sections,
			curved_segments = excluded.curved_segments,
			last_pulse = excluded.last_pulse,
			duration_ms = excluded.duration_ms,
			warnings = excluded.warnings`,
		e.Path, e.Title, e.Artist, e.ChartAuthor, e.Difficulty, e.Level, e.MinBPM, e.MaxBPM,
		e.Notes, e.LaserSections, e.CurvedSegments, e.LastPulse, e.DurationMs, e.Warnings)
	if err != nil {
		return fmt.Errorf("index: put %s: %w", e.Path, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.Path, &e.Title, &e.Artist, &e.ChartAuthor, &e.Difficulty, &e.Level,
		&e.MinBPM, &e.MaxBPM, &e.Notes, &e.LaserSections, &e.CurvedSegments, &e.LastPulse,
		&e.DurationMs, &e.Warnings)
	return e, err
}

func (s *Store) Get(ctx context.Context, path string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM charts WHERE path = ?`, path)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("index: get %s: %w", path, err)
	}
	return e, nil
}

// List returns every entry ordered by path.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM charts ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("index: list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: list: %w", err)
	}
	return out, nil
}
