package common

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/chordbook/internal/bot"
	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/lyrics"
	"github.com/sukalov/chordbook/internal/lyrics/display"
	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
	"github.com/sukalov/chordbook/internal/state"
	"github.com/sukalov/chordbook/internal/users"
)

// MaxResults caps the search keyboard.
const MaxResults = 10

// columnsGap separates the lyrics and chords columns.
const columnsGap = 4

// SongCounter records which songs a chat opens.
type SongCounter interface {
	IncrementSongCount(ctx context.Context, chatID int64, songID int) error
}

type CommonHandlers struct {
	service     *lyrics.Service
	userManager *state.StateManager
	counter     SongCounter
}

func NewCommonHandlers(service *lyrics.Service, userManager *state.StateManager, counter SongCounter) *CommonHandlers {
	return &CommonHandlers{
		service:     service,
		userManager: userManager,
		counter:     counter,
	}
}

// GetCommandHandlers returns the song browsing commands shared by every bot.
func (h *CommonHandlers) GetCommandHandlers() map[string]bot.Handler {
	return map[string]bot.Handler{
		"song":    h.songHandler,
		"lyrics":  h.viewHandler(display.ViewLyrics),
		"chords":  h.viewHandler(display.ViewChords),
		"columns": h.viewHandler(display.ViewColumns),
		"up":      h.shiftHandler(1),
		"down":    h.shiftHandler(-1),
		"key":     h.keyHandler,
		"search":  h.searchHandler,
		"tags":    h.tagsHandler,
	}
}

// GetCallbackHandlers returns the callbacks behind the search keyboard.
func (h *CommonHandlers) GetCallbackHandlers() map[string]bot.Handler {
	return map[string]bot.Handler{
		"song": h.songCallbackHandler,
	}
}

func (h *CommonHandlers) songHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	id, err := strconv.Atoi(bot.CommandArgs(update))
	if err != nil || id <= 0 {
		return b.SendMessage(chatID, "usage: /song <id>")
	}
	return h.OpenSong(b, chatID, id)
}

func (h *CommonHandlers) songCallbackHandler(b *bot.Bot, update tgbotapi.Update) error {
	_, payload := bot.ParseCallback(update.CallbackQuery.Data)
	id, err := strconv.Atoi(payload)
	if err != nil {
		return fmt.Errorf("bad song callback %q: %w", update.CallbackQuery.Data, err)
	}
	return h.OpenSong(b, update.CallbackQuery.Message.Chat.ID, id)
}

// OpenSong makes id the current song of the chat and shows its lyrics.
func (h *CommonHandlers) OpenSong(b *bot.Bot, chatID int64, id int) error {
	ctx := context.Background()

	doc, err := h.service.GetSong(ctx, id)
	if errors.Is(err, song.ErrNotFound) {
		return b.SendMessage(chatID, fmt.Sprintf("no song with id %d", id))
	}
	if err != nil {
		return err
	}

	session, err := h.userManager.Update(ctx, chatID, func(s *users.Session) {
		s.Open(doc.ID, songbook.FormatSongName(doc))
		s.View = string(display.ViewLyrics)
	})
	if err != nil {
		logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", chatID, err))
	}

	if h.counter != nil {
		if err := h.counter.IncrementSongCount(ctx, chatID, id); err != nil {
			logger.Error(err.Error())
		}
	}

	return h.show(b, session)
}

func (h *CommonHandlers) viewHandler(view display.View) bot.Handler {
	return func(b *bot.Bot, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID
		if !h.userManager.Get(chatID).HasSong() {
			return b.SendMessage(chatID, "open a song first: /song <id> or /search")
		}

		session, err := h.userManager.Update(context.Background(), chatID, func(s *users.Session) {
			s.View = string(view)
		})
		if err != nil {
			logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", chatID, err))
		}
		return h.show(b, session)
	}
}

func (h *CommonHandlers) shiftHandler(n int) bot.Handler {
	return func(b *bot.Bot, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID
		if !h.userManager.Get(chatID).HasSong() {
			return b.SendMessage(chatID, "open a song first: /song <id> or /search")
		}

		session, err := h.userManager.Update(context.Background(), chatID, func(s *users.Session) {
			s.Shift(n)
			if s.View == string(display.ViewLyrics) || s.View == "" {
				s.View = string(display.ViewChords)
			}
		})
		if err != nil {
			logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", chatID, err))
		}
		return h.show(b, session)
	}
}

func (h *CommonHandlers) keyHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	session := h.userManager.Get(chatID)
	if !session.HasSong() {
		return b.SendMessage(chatID, "open a song first: /song <id> or /search")
	}

	ctx := context.Background()
	doc, err := h.service.GetSong(ctx, session.SongID)
	if err != nil {
		return err
	}
	sounding, err := h.service.ObjectiveKey(ctx, session.SongID)
	if err != nil {
		return b.SendMessage(chatID, fmt.Sprintf("cannot work out the key: %v", err))
	}
	return b.SendMessage(chatID, KeyInfo(doc, sounding, session.Transpose))
}

// KeyInfo describes the key of doc as written and as it sounds.
func KeyInfo(doc *song.Document, sounding string, transpose int) string {
	key := doc.Key
	if key == "" {
		key = "-"
	}
	lines := []string{fmt.Sprintf("key: %s", key)}
	if doc.Capo != "" && doc.Capo != "0" {
		lines = append(lines, fmt.Sprintf("capo: %s", doc.Capo), fmt.Sprintf("sounds in: %s", sounding))
	}
	if transpose != 0 {
		lines = append(lines, fmt.Sprintf("transposed: %+d", transpose))
	}
	return strings.Join(lines, "\n")
}

func (h *CommonHandlers) show(b *bot.Bot, session users.Session) error {
	view, err := display.ParseView(session.View)
	if err != nil {
		view = display.ViewLyrics
	}

	parts, err := h.service.Display(context.Background(), session.SongID, view, session.Transpose)
	if err != nil {
		if errors.Is(err, song.ErrNotFound) {
			return b.SendMessage(session.ChatID, "this song is gone")
		}
		return err
	}

	header := session.SongName
	if session.Transpose != 0 {
		header += fmt.Sprintf(" (%+d)", session.Transpose)
	}
	if err := b.SendMessage(session.ChatID, header); err != nil {
		return err
	}

	switch view {
	case display.ViewLyrics:
		return b.SendMessage(session.ChatID, parts[0])
	case display.ViewColumns:
		return b.SendPre(session.ChatID, display.SideBySide([2]string{parts[0], parts[1]}, columnsGap))
	default:
		return b.SendPre(session.ChatID, parts[0])
	}
}

func (h *CommonHandlers) searchHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	query := bot.CommandArgs(update)
	if query == "" {
		_, err := h.userManager.Update(context.Background(), chatID, func(s *users.Session) {
			s.Stage = users.StageAskingQuery
		})
		if err != nil {
			logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", chatID, err))
		}
		return b.SendMessage(chatID, "type a title, an artist or #tag")
	}
	return h.Search(b, chatID, query)
}

// Search answers query with a keyboard of matching songs.
func (h *CommonHandlers) Search(b *bot.Bot, chatID int64, query string) error {
	results, err := h.service.ListSongs(context.Background(), ParseQuery(query))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return b.SendMessage(chatID, "nothing found")
	}

	text, keyboard := ResultsKeyboard(results)
	return b.SendMessageWithButtons(chatID, text, keyboard)
}

// ParseQuery reads "#tag" words as tag filters and the rest as search text.
func ParseQuery(text string) songbook.Query {
	var q songbook.Query
	var words []string
	for _, word := range strings.Fields(text) {
		if tag, ok := strings.CutPrefix(word, "#"); ok && tag != "" {
			q.Tags = append(q.Tags, tag)
			continue
		}
		words = append(words, word)
	}
	q.Search = strings.Join(words, " ")
	return q
}

// ResultsKeyboard lists up to MaxResults songs as buttons.
func ResultsKeyboard(results []*song.Document) (string, tgbotapi.InlineKeyboardMarkup) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, doc := range results {
		if len(rows) >= MaxResults {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(songbook.FormatSongName(doc), "song:"+strconv.Itoa(doc.ID)),
		))
	}

	message := "found songs:"
	if len(results) > MaxResults {
		message += fmt.Sprintf("\n(first %d of %d)", MaxResults, len(results))
	}
	return message, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *CommonHandlers) tagsHandler(b *bot.Bot, update tgbotapi.Update) error {
	tags, err := h.service.Tags(context.Background())
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return b.SendMessage(update.Message.Chat.ID, "no tags yet")
	}
	for i, tag := range tags {
		tags[i] = "#" + tag
	}
	return b.SendMessage(update.Message.Chat.ID, strings.Join(tags, " "))
}
