package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/chordbook/internal/bot"
	"github.com/sukalov/chordbook/internal/bot/client"
	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/lyrics"
	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
	"github.com/sukalov/chordbook/internal/state"
	"github.com/sukalov/chordbook/internal/users"
)

// Reloader rereads the song store, e.g. after the file was edited by hand.
type Reloader interface {
	Load(ctx context.Context) error
}

type AdminHandlers struct {
	service     *lyrics.Service
	userManager *state.StateManager
	reloader    Reloader
	lookup      UserLookup
	counts      SongCounts
	admins      map[string]bool
}

// NewAdminHandlers creates the admin handlers. lookup and counts may be nil
// when the store keeps no users or there is no Redis.
func NewAdminHandlers(service *lyrics.Service, userManager *state.StateManager, reloader Reloader, lookup UserLookup, counts SongCounts, adminUsernames []string) *AdminHandlers {
	admins := make(map[string]bool)
	for _, username := range adminUsernames {
		admins[username] = true
	}

	return &AdminHandlers{
		service:     service,
		userManager: userManager,
		reloader:    reloader,
		lookup:      lookup,
		counts:      counts,
		admins:      admins,
	}
}

// IsAdmin reports whether username may change the songbook.
func (h *AdminHandlers) IsAdmin(username string) bool {
	return h.admins[username]
}

func (h *AdminHandlers) adminOnly(handler bot.Handler) bot.Handler {
	return func(b *bot.Bot, update tgbotapi.Update) error {
		var from *tgbotapi.User
		var chatID int64
		switch {
		case update.Message != nil:
			from, chatID = update.Message.From, update.Message.Chat.ID
		case update.CallbackQuery != nil:
			from, chatID = update.CallbackQuery.From, update.CallbackQuery.Message.Chat.ID
		}
		if from == nil || !h.IsAdmin(from.UserName) {
			return b.SendMessage(chatID, "you are not an admin")
		}
		return handler(b, update)
	}
}

func (h *AdminHandlers) reloadHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	if h.reloader == nil {
		return b.SendMessage(chatID, "this store cannot be reloaded")
	}
	if err := h.reloader.Load(context.Background()); err != nil {
		return b.SendMessage(chatID, fmt.Sprintf("reload failed: %v", err))
	}

	songs, err := h.service.ListSongs(context.Background(), songbook.Query{})
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("songbook reloaded by @%s: %d songs", update.Message.From.UserName, len(songs)))
	return b.SendMessage(chatID, fmt.Sprintf("songbook reloaded, %d songs", len(songs)))
}

func (h *AdminHandlers) deleteHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	id, err := strconv.Atoi(bot.CommandArgs(update))
	if err != nil || id <= 0 {
		return b.SendMessage(chatID, "usage: /delete <id>")
	}

	doc, err := h.service.GetSong(context.Background(), id)
	if errors.Is(err, song.ErrNotFound) {
		return b.SendMessage(chatID, fmt.Sprintf("no song with id %d", id))
	}
	if err != nil {
		return err
	}

	return b.SendMessageWithButtons(chatID,
		fmt.Sprintf("\"%s\" will be deleted for good. sure?", songbook.FormatSongName(doc)),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("delete", "confirm_delete:"+strconv.Itoa(id)),
				tgbotapi.NewInlineKeyboardButtonData("cancel", "abort_delete:"+strconv.Itoa(id)),
			),
		),
	)
}

func (h *AdminHandlers) confirmDeleteHandler(b *bot.Bot, update tgbotapi.Update) error {
	ctx := context.Background()
	chatID := update.CallbackQuery.Message.Chat.ID

	_, payload := bot.ParseCallback(update.CallbackQuery.Data)
	id, err := strconv.Atoi(payload)
	if err != nil {
		return fmt.Errorf("bad delete callback %q: %w", update.CallbackQuery.Data, err)
	}

	if err := h.service.DeleteSong(ctx, id); err != nil {
		if errors.Is(err, song.ErrNotFound) {
			return b.SendMessage(chatID, "this button no longer works")
		}
		return err
	}
	if err := h.userManager.ForgetSong(ctx, id); err != nil {
		logger.Error(fmt.Sprintf("failed to close song %d in sessions: %v", id, err))
	}
	return b.SendMessage(chatID, fmt.Sprintf("song %d deleted", id))
}

func (h *AdminHandlers) abortDeleteHandler(b *bot.Bot, update tgbotapi.Update) error {
	return b.SendMessage(update.CallbackQuery.Message.Chat.ID, "ok, cancelled")
}

func (h *AdminHandlers) usersHandler(b *bot.Bot, update tgbotapi.Update) error {
	sessions := h.userManager.GetAll()
	if len(sessions) == 0 {
		return b.SendMessage(update.Message.Chat.ID, "no active chats")
	}

	text := fmt.Sprintf("active chats: %d\n\n", len(sessions))
	for _, s := range sessions {
		name := "@" + s.Username
		if s.Username == "" {
			name = strconv.FormatInt(s.ChatID, 10)
		}
		current := "-"
		if s.HasSong() {
			current = s.SongName
		}
		text += fmt.Sprintf("%s: %s (%s)\n", name, current, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return b.SendMessage(update.Message.Chat.ID, text)
}

// SetupHandlers starts b with the client handlers plus the admin commands.
func SetupHandlers(b *bot.Bot, handlers client.Handlers, admin *AdminHandlers) {
	handlers.Commands["import"] = admin.adminOnly(admin.importHandler)
	handlers.Commands["reload"] = admin.adminOnly(admin.reloadHandler)
	handlers.Commands["delete"] = admin.adminOnly(admin.deleteHandler)
	handlers.Commands["users"] = admin.adminOnly(admin.usersHandler)
	handlers.Commands["stats"] = admin.adminOnly(admin.statsHandler)

	handlers.Callbacks["confirm_delete"] = admin.adminOnly(admin.confirmDeleteHandler)
	handlers.Callbacks["abort_delete"] = admin.adminOnly(admin.abortDeleteHandler)

	messageHandlers := append(handlers.Messages, func(b *bot.Bot, update tgbotapi.Update) error {
		if admin.userManager.Get(update.Message.Chat.ID).Stage != users.StageAskingURL {
			return nil
		}
		return admin.adminOnly(admin.urlHandler)(b, update)
	})

	go b.Start(handlers.Commands, messageHandlers, handlers.Callbacks)
}
