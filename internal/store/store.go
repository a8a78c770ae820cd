// Package store opens the song store named by a location string.
package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sukalov/chordbook/internal/db"
	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
)

// Store is a song store that can be reread from its backing storage.
type Store interface {
	song.Store
	Load(ctx context.Context) error
}

// Handle is an open store. Users is nil for collection files, which have
// nowhere to keep them.
type Handle struct {
	Store
	Users *db.Users
	Kind  string

	database *sql.DB
}

// IsFile reports whether location names a songs.json collection file.
func IsFile(location string) bool {
	return strings.HasSuffix(location, ".json") || strings.HasSuffix(location, ".json.xz")
}

// Open opens location: a .json or .json.xz collection file, a local SQLite
// database, or a remote libsql URL with authToken.
func Open(ctx context.Context, location, authToken string) (*Handle, error) {
	if IsFile(location) {
		fs, err := songbook.OpenFile(location)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: fs, Kind: "file"}, nil
	}

	cfg := db.Config{URL: location, AuthToken: authToken}
	database, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	songs, err := db.NewSongbook(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	registry, err := db.NewUsers(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}

	kind := "sqlite"
	if cfg.Remote() {
		kind = "libsql"
	}
	return &Handle{Store: songs, Users: registry, Kind: kind, database: database}, nil
}

// Close releases the database connection, if any.
func (h *Handle) Close() error {
	if h.database == nil {
		return nil
	}
	return h.database.Close()
}
