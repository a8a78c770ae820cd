package users

import (
	"time"
)

// User is a chat known to the bot.
type User struct {
	ChatID      int64
	Username    string
	TgName      string
	AddedAt     time.Time
	SongsOpened int
}

// Session is what the bot remembers about one chat between messages.
type Session struct {
	ChatID    int64     `json:"chat_id"`
	Username  string    `json:"username"`
	SongID    int       `json:"song_id"`
	SongName  string    `json:"song_name"`
	Transpose int       `json:"transpose"`
	View      string    `json:"view"`
	Stage     string    `json:"stage"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	StageIdle        = ""
	StageAskingURL   = "asking_url"
	StageAskingQuery = "asking_query"
)

// HasSong reports whether a song is open in the session.
func (s Session) HasSong() bool {
	return s.SongID > 0
}

// Shift moves the session transposition by n semitones, kept in -11..11.
func (s *Session) Shift(n int) {
	s.Transpose = (s.Transpose + n) % 12
}

// Open makes id the current song and resets the transposition.
func (s *Session) Open(id int, name string) {
	s.SongID = id
	s.SongName = name
	s.Transpose = 0
	s.Stage = StageIdle
}
