package songbook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/sukalov/chordbook/internal/song"
)

// FileStore keeps the whole collection in memory and rewrites the file on
// every change. A path ending in .xz is stored compressed.
type FileStore struct {
	path  string
	songs []*song.Document
	mu    sync.RWMutex
}

// OpenFile loads the collection at path. A missing file is an empty
// collection; it is created on the first write.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Load rereads the file, dropping in-memory state.
func (s *FileStore) Load(_ context.Context) error {
	songs, err := ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		songs, err = []*song.Document{}, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load songbook: %w", err)
	}

	s.mu.Lock()
	s.songs = songs
	s.mu.Unlock()
	return nil
}

func (s *FileStore) GetSong(_ context.Context, id int) (*song.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := FindSongByID(s.songs, id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", song.ErrNotFound, id)
	}
	return doc.Clone(), nil
}

func (s *FileStore) ListSongs(_ context.Context) ([]*song.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*song.Document, len(s.songs))
	for i, doc := range s.songs {
		out[i] = doc.Clone()
	}
	return out, nil
}

// SaveSong replaces the song with the same id, or appends a new one.
func (s *FileStore) SaveSong(_ context.Context, doc *song.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs := make([]*song.Document, len(s.songs), len(s.songs)+1)
	copy(songs, s.songs)

	replaced := false
	for i, existing := range songs {
		if existing.ID == doc.ID {
			songs[i] = doc.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		songs = append(songs, doc.Clone())
	}

	return s.commit(songs)
}

func (s *FileStore) DeleteSong(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs := make([]*song.Document, 0, len(s.songs))
	for _, existing := range s.songs {
		if existing.ID != id {
			songs = append(songs, existing)
		}
	}
	if len(songs) == len(s.songs) {
		return fmt.Errorf("%w: %d", song.ErrNotFound, id)
	}

	return s.commit(songs)
}

// AddSong appends doc under one past the largest id.
func (s *FileStore) AddSong(_ context.Context, doc *song.Document) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := doc.Clone()
	added.ID = NextID(s.songs)

	songs := make([]*song.Document, len(s.songs), len(s.songs)+1)
	copy(songs, s.songs)
	if err := s.commit(append(songs, added)); err != nil {
		return 0, err
	}
	return added.ID, nil
}

// ReplaceAll swaps in a whole collection, as an import does.
func (s *FileStore) ReplaceAll(_ context.Context, songs []*song.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloned := make([]*song.Document, 0, len(songs))
	for _, doc := range songs {
		if doc != nil {
			cloned = append(cloned, doc.Clone())
		}
	}
	return s.commit(cloned)
}

// commit writes songs to disk and only then makes them current. The caller
// holds the write lock.
func (s *FileStore) commit(songs []*song.Document) error {
	if err := WriteFile(s.path, songs); err != nil {
		return fmt.Errorf("failed to save songbook: %w", err)
	}
	s.songs = songs
	return nil
}
