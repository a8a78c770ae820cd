// db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config locates a database. Remote libsql URLs (libsql://, https://,
// http://, wss://) go to Turso with AuthToken; anything else is a local
// SQLite file or a file: DSN.
type Config struct {
	URL       string
	AuthToken string
}

// Remote reports whether the config points at a libsql server.
func (c Config) Remote() bool {
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(c.URL, scheme) {
			return true
		}
	}
	return false
}

func (c Config) driver() (name, dsn string, err error) {
	if c.URL == "" {
		return "", "", fmt.Errorf("empty database url")
	}
	if !c.Remote() {
		return "sqlite", c.URL, nil
	}
	if c.AuthToken == "" {
		return "libsql", c.URL, nil
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse database url: %w", err)
	}
	q := u.Query()
	q.Set("authToken", c.AuthToken)
	u.RawQuery = q.Encode()
	return "libsql", u.String(), nil
}

// Open connects to the database described by cfg and checks it answers.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	driver, dsn, err := cfg.driver()
	if err != nil {
		return nil, err
	}

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		// a single connection keeps :memory: databases and writers in one place
		database.SetMaxOpenConns(1)
	} else {
		database.SetMaxOpenConns(25)
		database.SetMaxIdleConns(25)
	}
	database.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return database, nil
}
