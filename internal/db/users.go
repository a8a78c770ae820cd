package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sukalov/chordbook/internal/users"
)

const usersSchema = `CREATE TABLE IF NOT EXISTS users (
	chat_id      INTEGER PRIMARY KEY,
	username     TEXT,
	tg_name      TEXT,
	added_at     INTEGER NOT NULL,
	songs_opened INTEGER NOT NULL DEFAULT 0
)`

// Users records the chats that talk to the bot.
type Users struct {
	db *sql.DB
}

func NewUsers(ctx context.Context, database *sql.DB) (*Users, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := database.ExecContext(ctx, usersSchema); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}
	return &Users{db: database}, nil
}

// RegisterUser adds the chat if it is new and refreshes its names otherwise.
func (u *Users) RegisterUser(ctx context.Context, user users.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `INSERT INTO users (chat_id, username, tg_name, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			username = excluded.username,
			tg_name = excluded.tg_name`
	_, err := u.db.ExecContext(ctx, query,
		user.ChatID,
		nullString(user.Username),
		nullString(user.TgName),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to register user %d: %w", user.ChatID, err)
	}
	return nil
}

// IncrementSongsOpened counts one more song shown to the chat.
func (u *Users) IncrementSongsOpened(ctx context.Context, chatID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := u.db.ExecContext(ctx, `UPDATE users SET songs_opened = songs_opened + 1 WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to increment songs opened: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no user found with chat id: %d", chatID)
	}
	return nil
}

func (u *Users) GetUser(ctx context.Context, chatID int64) (users.User, error) {
	var (
		user             users.User
		username, tgName sql.NullString
		addedAt          int64
	)
	err := u.db.QueryRowContext(ctx,
		`SELECT chat_id, username, tg_name, added_at, songs_opened FROM users WHERE chat_id = ?`, chatID,
	).Scan(&user.ChatID, &username, &tgName, &addedAt, &user.SongsOpened)
	if err != nil {
		return users.User{}, fmt.Errorf("failed to get user %d: %w", chatID, err)
	}

	user.Username = username.String
	user.TgName = tgName.String
	user.AddedAt = time.Unix(addedAt, 0)
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
