package songbook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sukalov/chordbook/internal/song"
	"github.com/ulikunitz/xz"
)

// Compressed reports whether path names an xz-compressed collection.
func Compressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xz")
}

// ReadCollection decodes a songs.json array. Null entries are skipped and
// missing sections are filled in with empty values.
func ReadCollection(r io.Reader) ([]*song.Document, error) {
	var raw []*song.Document
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}

	songs := make([]*song.Document, 0, len(raw))
	for _, s := range raw {
		if s == nil {
			continue
		}
		normalize(s)
		songs = append(songs, s)
	}
	return songs, nil
}

// WriteCollection encodes songs as an indented songs.json array.
func WriteCollection(w io.Writer, songs []*song.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if songs == nil {
		songs = []*song.Document{}
	}
	if err := enc.Encode(songs); err != nil {
		return fmt.Errorf("failed to encode songs: %w", err)
	}
	return nil
}

// ReadFile reads a collection from path, decompressing .xz files.
func ReadFile(path string) ([]*song.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if Compressed(path) {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open xz stream %s: %w", path, err)
		}
		r = xr
	}

	songs, err := ReadCollection(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return songs, nil
}

// WriteFile replaces the collection at path. The data goes to a temporary
// file in the same directory first, so readers never see a partial file.
func WriteFile(path string, songs []*song.Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeTo(tmp, path, songs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func writeTo(w io.Writer, path string, songs []*song.Document) error {
	if !Compressed(path) {
		return WriteCollection(w, songs)
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if err := WriteCollection(xw, songs); err != nil {
		xw.Close()
		return err
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return nil
}

func normalize(s *song.Document) {
	if s.LyricsBy == nil {
		s.LyricsBy = []string{}
	}
	if s.MusicBy == nil {
		s.MusicBy = []string{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.Content == nil {
		s.Content = []string{}
	}
	if s.Lyrics == nil {
		s.Lyrics = map[string][]string{}
	}
	if s.Chords == nil {
		s.Chords = map[string][]string{}
	}
}
