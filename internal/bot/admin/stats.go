package admin

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/chordbook/internal/bot"
	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
	"github.com/sukalov/chordbook/internal/users"
)

// topSongs is how many songs /stats lists for one chat.
const topSongs = 10

// UserLookup reads the user registry.
type UserLookup interface {
	GetUser(ctx context.Context, chatID int64) (users.User, error)
}

// SongCounts reads back how often a chat opened each song.
type SongCounts interface {
	GetSongCounts(ctx context.Context, chatID int64) (map[int]int, error)
}

// statsHandler answers "/stats <chat id>" with what the chat has been playing.
func (h *AdminHandlers) statsHandler(b *bot.Bot, update tgbotapi.Update) error {
	ctx := context.Background()
	chatID := update.Message.Chat.ID

	target, err := strconv.ParseInt(bot.CommandArgs(update), 10, 64)
	if err != nil {
		return b.SendMessage(chatID, "usage: /stats <chat id>")
	}

	var lines []string
	if h.lookup != nil {
		user, err := h.lookup.GetUser(ctx, target)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			lines = append(lines, fmt.Sprintf("chat %d is not registered", target))
		case err != nil:
			return err
		default:
			lines = append(lines, UserSummary(user))
		}
	}

	if h.counts == nil {
		lines = append(lines, "song counts are not kept")
		return b.SendMessage(chatID, strings.Join(lines, "\n\n"))
	}
	counts, err := h.counts.GetSongCounts(ctx, target)
	if err != nil {
		return err
	}
	all, err := h.service.ListSongs(ctx, songbook.Query{})
	if err != nil {
		return err
	}
	lines = append(lines, TopSongs(counts, all, topSongs))
	return b.SendMessage(chatID, strings.Join(lines, "\n\n"))
}

// UserSummary describes a registered chat.
func UserSummary(user users.User) string {
	name := user.TgName
	if user.Username != "" {
		name = strings.TrimSpace(name + " @" + user.Username)
	}
	if name == "" {
		name = strconv.FormatInt(user.ChatID, 10)
	}
	return fmt.Sprintf("%s\nsince %s, %d songs opened", name, user.AddedAt.Format("2006-01-02"), user.SongsOpened)
}

// TopSongs lists the limit most opened songs of counts, most opened first.
// Songs that were deleted since are left out.
func TopSongs(counts map[int]int, songs []*song.Document, limit int) string {
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	opened := songbook.SongsByIDs(songs, ids)
	if len(opened) == 0 {
		return "no songs opened yet"
	}

	slices.SortStableFunc(opened, func(a, b *song.Document) int {
		if c := cmp.Compare(counts[b.ID], counts[a.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(opened) > limit {
		opened = opened[:limit]
	}

	lines := []string{"most opened:"}
	for _, doc := range opened {
		lines = append(lines, fmt.Sprintf("%d× %s", counts[doc.ID], songbook.FormatSongName(doc)))
	}
	return strings.Join(lines, "\n")
}
