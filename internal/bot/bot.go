package bot

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/chordbook/internal/logger"
)

// MaxMessageLength is the Telegram limit on one message, in characters.
const MaxMessageLength = 4096

// Handler reacts to one update.
type Handler func(b *Bot, update tgbotapi.Update) error

// Bot represents a configurable Telegram bot
type Bot struct {
	Client     *tgbotapi.BotAPI
	updateChan tgbotapi.UpdatesChannel
	stopChan   chan struct{}
	name       string
	mu         sync.Mutex
}

// New creates a new bot instance
func New(name, token string) (*Bot, error) {
	botClient, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateChan := botClient.GetUpdatesChan(updateConfig)

	return &Bot{
		Client:     botClient,
		updateChan: updateChan,
		stopChan:   make(chan struct{}),
		name:       name,
	}, nil
}

// Start processes updates until Stop is called. Callback handlers are keyed
// by the part of the callback data before the first ":".
func (b *Bot) Start(
	commandHandlers map[string]Handler,
	messageHandlers []Handler,
	callbackHandlers map[string]Handler,
) {
	logger.Info(fmt.Sprintf("[%s] authorized on account %s", b.name, b.Client.Self.UserName))

	for {
		select {
		case update := <-b.updateChan:
			go b.processUpdate(update, commandHandlers, messageHandlers, callbackHandlers)
		case <-b.stopChan:
			return
		}
	}
}

func (b *Bot) processUpdate(
	update tgbotapi.Update,
	commandHandlers map[string]Handler,
	messageHandlers []Handler,
	callbackHandlers map[string]Handler,
) {
	if update.Message != nil && update.Message.IsCommand() {
		if handler, exists := commandHandlers[update.Message.Command()]; exists {
			if err := handler(b, update); err != nil {
				logger.Error(fmt.Sprintf("[%s] command /%s failed: %v", b.name, update.Message.Command(), err))
			}
			return
		}
	}

	if update.CallbackQuery != nil {
		action, _ := ParseCallback(update.CallbackQuery.Data)
		if handler, exists := callbackHandlers[action]; exists {
			if err := handler(b, update); err != nil {
				logger.Error(fmt.Sprintf("[%s] callback %s failed: %v", b.name, action, err))
			}
			b.answer(update.CallbackQuery.ID)
		}
		return
	}

	if update.Message == nil {
		return
	}
	for _, handler := range messageHandlers {
		if err := handler(b, update); err != nil {
			logger.Error(fmt.Sprintf("[%s] message handler failed: %v", b.name, err))
		}
	}
}

// Stop halts the bot
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Client.StopReceivingUpdates()
	b.stopChan <- struct{}{}
}

func (b *Bot) answer(callbackID string) {
	if _, err := b.Client.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		logger.Error(fmt.Sprintf("[%s] failed to answer callback: %v", b.name, err))
	}
}

// SendMessage sends text as plain messages, split when it is too long.
func (b *Bot) SendMessage(chatID int64, text string) error {
	for _, part := range SplitMessage(text, MaxMessageLength) {
		if _, err := b.Client.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return err
		}
	}
	return nil
}

// SendPre sends text in a monospaced block, as chords need. The text is
// escaped before it is split, so every part fits once sent.
func (b *Bot) SendPre(chatID int64, text string) error {
	const overhead = len("<pre></pre>")
	for _, part := range SplitEscaped(EscapeHTML(text), MaxMessageLength-overhead) {
		if err := b.SendHTML(chatID, "<pre>"+part+"</pre>"); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) SendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.Client.Send(msg)
	return err
}

func (b *Bot) SendMessageWithButtons(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := b.Client.Send(msg)
	return err
}

// SplitMessage cuts text into parts of at most limit characters, breaking
// after a newline when one falls inside the part.
func SplitMessage(text string, limit int) []string {
	return split(text, limit, false)
}

// SplitEscaped is SplitMessage for HTML-escaped text: a part never ends
// inside an entity such as "&amp;".
func SplitEscaped(text string, limit int) []string {
	return split(text, limit, true)
}

func split(text string, limit int, entities bool) []string {
	if text == "" {
		return nil
	}
	var parts []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl + 1
		} else if amp := strings.LastIndexByte(text[:cut], '&'); entities && amp > 0 && !strings.Contains(text[amp:cut], ";") {
			cut = amp
		}
		parts = append(parts, strings.TrimRight(text[:cut], "\n"))
		text = text[cut:]
	}
	return append(parts, text)
}

func byteOffset(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}

// ParseCallback splits "action:payload" callback data.
func ParseCallback(data string) (action, payload string) {
	action, payload, _ = strings.Cut(data, ":")
	return action, payload
}

// CommandArgs returns the trimmed arguments of a command message.
func CommandArgs(update tgbotapi.Update) string {
	if update.Message == nil {
		return ""
	}
	return strings.TrimSpace(update.Message.CommandArguments())
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes text for Telegram HTML messages.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
