package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/chordbook/internal/bot"
	"github.com/sukalov/chordbook/internal/bot/common"
	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/state"
	"github.com/sukalov/chordbook/internal/users"
)

const helpText = `chordbook

/search <words or #tag> - find a song
/song <id> - open a song
/lyrics, /chords, /columns - switch the view
/up, /down - transpose by a semitone
/key - key and capo of the song
/tags - every tag in the songbook`

// UserRegistry remembers the chats that talk to the bot.
type UserRegistry interface {
	RegisterUser(ctx context.Context, user users.User) error
	IncrementSongsOpened(ctx context.Context, chatID int64) error
}

type ClientHandlers struct {
	common      *common.CommonHandlers
	userManager *state.StateManager
	registry    UserRegistry
}

func NewClientHandlers(commonHandlers *common.CommonHandlers, userManager *state.StateManager, registry UserRegistry) *ClientHandlers {
	return &ClientHandlers{
		common:      commonHandlers,
		userManager: userManager,
		registry:    registry,
	}
}

// startHandler registers the chat. "/start 12" deep links open song 12.
func (h *ClientHandlers) startHandler(b *bot.Bot, update tgbotapi.Update) error {
	message := update.Message
	ctx := context.Background()

	if h.registry != nil {
		err := h.registry.RegisterUser(ctx, users.User{
			ChatID:   message.Chat.ID,
			Username: message.From.UserName,
			TgName:   strings.TrimSpace(fmt.Sprintf("%s %s", message.From.FirstName, message.From.LastName)),
		})
		if err != nil {
			logger.Error(fmt.Sprintf("error registering user: %v", err))
		}
	}

	if _, err := h.userManager.Update(ctx, message.Chat.ID, func(s *users.Session) {
		s.Username = message.From.UserName
		s.Stage = users.StageIdle
	}); err != nil {
		logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", message.Chat.ID, err))
	}

	if arg := bot.CommandArgs(update); arg != "" {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return b.SendMessage(message.Chat.ID, "sorry, there is no song with this id")
		}
		return h.openSong(b, message.Chat.ID, id)
	}

	return b.SendMessage(message.Chat.ID, helpText)
}

func (h *ClientHandlers) helpHandler(b *bot.Bot, update tgbotapi.Update) error {
	return b.SendMessage(update.Message.Chat.ID, helpText)
}

func (h *ClientHandlers) songCallbackHandler(b *bot.Bot, update tgbotapi.Update) error {
	_, payload := bot.ParseCallback(update.CallbackQuery.Data)
	id, err := strconv.Atoi(payload)
	if err != nil {
		return fmt.Errorf("bad song callback %q: %w", update.CallbackQuery.Data, err)
	}
	return h.openSong(b, update.CallbackQuery.Message.Chat.ID, id)
}

func (h *ClientHandlers) openSong(b *bot.Bot, chatID int64, id int) error {
	if err := h.common.OpenSong(b, chatID, id); err != nil {
		return err
	}
	if h.registry != nil {
		if err := h.registry.IncrementSongsOpened(context.Background(), chatID); err != nil {
			logger.Error(err.Error())
		}
	}
	return nil
}

// queryHandler takes the text typed after a bare /search.
func (h *ClientHandlers) queryHandler(b *bot.Bot, update tgbotapi.Update) error {
	message := update.Message
	if _, err := h.userManager.Update(context.Background(), message.Chat.ID, func(s *users.Session) {
		s.Stage = users.StageIdle
	}); err != nil {
		logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", message.Chat.ID, err))
	}
	return h.common.Search(b, message.Chat.ID, message.Text)
}

func randomMessageHandler(b *bot.Bot, update tgbotapi.Update) error {
	return b.SendMessage(
		update.Message.Chat.ID,
		"i don't understand this...\n\n"+helpText,
	)
}

// Handlers holds the handler maps of the client bot.
type Handlers struct {
	Commands  map[string]bot.Handler
	Messages  []bot.Handler
	Callbacks map[string]bot.Handler
}

// GetHandlers builds the client handler set. Message handlers stay silent
// for chats in another stage, which the admin handlers take over.
func GetHandlers(commonHandlers *common.CommonHandlers, userManager *state.StateManager, registry UserRegistry) Handlers {
	handlers := NewClientHandlers(commonHandlers, userManager, registry)

	commandHandlers := commonHandlers.GetCommandHandlers()
	commandHandlers["start"] = handlers.startHandler
	commandHandlers["help"] = handlers.helpHandler

	callbackHandlers := commonHandlers.GetCallbackHandlers()
	callbackHandlers["song"] = handlers.songCallbackHandler

	messageHandlers := []bot.Handler{
		func(b *bot.Bot, update tgbotapi.Update) error {
			switch userManager.Get(update.Message.Chat.ID).Stage {
			case users.StageAskingQuery:
				return handlers.queryHandler(b, update)
			case users.StageIdle:
				return randomMessageHandler(b, update)
			}
			return nil
		},
	}

	return Handlers{
		Commands:  commandHandlers,
		Messages:  messageHandlers,
		Callbacks: callbackHandlers,
	}
}
