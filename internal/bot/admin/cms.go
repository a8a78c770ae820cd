package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/chordbook/internal/bot"
	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/lyrics"
	"github.com/sukalov/chordbook/internal/songbook"
	"github.com/sukalov/chordbook/internal/users"
)

func (h *AdminHandlers) importHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	if url := bot.CommandArgs(update); url != "" {
		return h.importURL(b, chatID, url)
	}

	if _, err := h.userManager.Update(context.Background(), chatID, func(s *users.Session) {
		s.Stage = users.StageAskingURL
	}); err != nil {
		logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", chatID, err))
	}
	return b.SendMessage(chatID, "send a link to the song page (amdm.ru)")
}

// urlHandler takes the link typed after a bare /import.
func (h *AdminHandlers) urlHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	if _, err := h.userManager.Update(context.Background(), chatID, func(s *users.Session) {
		s.Stage = users.StageIdle
	}); err != nil {
		logger.Error(fmt.Sprintf("failed to save session of chat %d: %v", chatID, err))
	}
	return h.importURL(b, chatID, strings.TrimSpace(update.Message.Text))
}

func (h *AdminHandlers) importURL(b *bot.Bot, chatID int64, url string) error {
	doc, err := h.service.Import(context.Background(), url)
	if errors.Is(err, lyrics.ErrUnsupportedSource) {
		return b.SendMessage(chatID, "only amdm.ru links can be imported")
	}
	if err != nil {
		return b.SendMessage(chatID, fmt.Sprintf("import failed: %v", err))
	}

	return b.SendMessage(chatID, fmt.Sprintf(
		"imported \"%s\" as song %d (%d sections)\nopen it with /song %d",
		songbook.FormatSongName(doc), doc.ID, len(doc.Content), doc.ID,
	))
}
