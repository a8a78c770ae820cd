package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
)

const songbookSchema = `CREATE TABLE IF NOT EXISTS songbook (
	id         INTEGER PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	artist     TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT '',
	document   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Songbook is a song.Store over the songbook table. Reads are served from
// an in-memory copy that Load fills and every write keeps current.
type Songbook struct {
	db    *sql.DB
	songs []*song.Document
	mu    sync.RWMutex
}

// NewSongbook creates the table if needed and loads every song.
func NewSongbook(ctx context.Context, database *sql.DB) (*Songbook, error) {
	s := &Songbook{db: database}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := database.ExecContext(ctx, songbookSchema); err != nil {
		return nil, fmt.Errorf("failed to create songbook table: %w", err)
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory copy with the table contents.
func (s *Songbook) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, document FROM songbook ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var songs []*song.Document
	for rows.Next() {
		var (
			id   int
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		var doc song.Document
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return fmt.Errorf("song %d: failed to decode document: %w", id, err)
		}
		doc.ID = id
		songs = append(songs, &doc)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error during rows iteration: %w", err)
	}

	s.songs = songs
	return nil
}

func (s *Songbook) GetSong(_ context.Context, id int) (*song.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := songbook.FindSongByID(s.songs, id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", song.ErrNotFound, id)
	}
	return doc.Clone(), nil
}

func (s *Songbook) ListSongs(_ context.Context) ([]*song.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*song.Document, len(s.songs))
	for i, doc := range s.songs {
		out[i] = doc.Clone()
	}
	return out, nil
}

// SaveSong inserts doc or overwrites the row with its id.
func (s *Songbook) SaveSong(ctx context.Context, doc *song.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode song %d: %w", doc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO songbook (id, title, artist, language, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			language = excluded.language,
			document = excluded.document,
			updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Artist, doc.Language, string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save song %d: %w", doc.ID, err)
	}

	saved := doc.Clone()
	for i, existing := range s.songs {
		if existing.ID == doc.ID {
			s.songs[i] = saved
			return nil
		}
	}
	s.songs = append(s.songs, saved)
	return nil
}

func (s *Songbook) DeleteSong(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, "DELETE FROM songbook WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete song %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", song.ErrNotFound, id)
	}

	for i, existing := range s.songs {
		if existing.ID == id {
			s.songs = append(s.songs[:i:i], s.songs[i+1:]...)
			break
		}
	}
	return nil
}

// AddSong inserts doc under one past the largest id in a single statement,
// so the id cannot be taken between reading and writing it.
func (s *Songbook) AddSong(ctx context.Context, doc *song.Document) (int, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to encode song: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO songbook (id, title, artist, language, document, updated_at)
		SELECT next.id, ?, ?, ?, json_set(?, '$.id', next.id), ?
		FROM (SELECT COALESCE(MAX(id), 0) + 1 AS id FROM songbook) AS next
		RETURNING id`
	var id int
	if err := s.db.QueryRowContext(ctx, query,
		doc.Title, doc.Artist, doc.Language, string(data), time.Now().Unix()).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to add song: %w", err)
	}

	added := doc.Clone()
	added.ID = id
	s.songs = append(s.songs, added)
	return id, nil
}

// ReplaceAll empties the table and inserts songs in one transaction.
func (s *Songbook) ReplaceAll(ctx context.Context, songs []*song.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM songbook"); err != nil {
		return fmt.Errorf("failed to clear songbook: %w", err)
	}

	replaced := make([]*song.Document, 0, len(songs))
	now := time.Now().Unix()
	for _, doc := range songs {
		if doc == nil {
			continue
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode song %d: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO songbook (id, title, artist, language, document, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Title, doc.Artist, doc.Language, string(data), now); err != nil {
			return fmt.Errorf("failed to insert song %d: %w", doc.ID, err)
		}
		replaced = append(replaced, doc.Clone())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit songbook: %w", err)
	}
	s.songs = replaced
	return nil
}
