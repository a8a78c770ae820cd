package logger

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sukalov/chordbook/internal/utils"
	"github.com/sukalov/chordbook/internal/utils/e"
)

var (
	ChannelID int64
	once      sync.Once
	botClient BotClient

	local = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		With().Timestamp().Logger()
)

type BotClient interface {
	SendMessage(chatID int64, text string) error
}

// Init enables forwarding to the Telegram channel in LOG_CHANNEL_ID.
// Without it, log lines only reach the local console.
func Init(client BotClient) error {
	var initErr error
	once.Do(func() {
		env, err := utils.LoadEnv([]string{"LOG_CHANNEL_ID"})
		if err != nil {
			initErr = fmt.Errorf("failed to load LOG_CHANNEL_ID: %w", err)
			return
		}

		ChannelID, err = strconv.ParseInt(env["LOG_CHANNEL_ID"], 10, 64)
		if err != nil {
			initErr = fmt.Errorf("failed to parse LOG_CHANNEL_ID: %w", err)
			return
		}

		botClient = client
	})

	return initErr
}

// SetLocal replaces the console logger, e.g. with zerolog.Nop() in tests.
func SetLocal(l zerolog.Logger) {
	local = l
}

func Info(message string) {
	local.Info().Msg(message)
	sendLog("ℹ️ INFO", message)
}

func Error(message string) {
	local.Error().Msg(message)
	sendLog("❌ ERROR", message)
}

func Debug(message string) {
	local.Debug().Msg(message)
	sendLog("🔍 DEBUG", message)
}

func Success(message string) {
	local.Info().Bool("success", true).Msg(message)
	sendLog("✅ SUCCESS", message)
}

func sendLog(prefix, message string) {
	if botClient == nil {
		return
	}

	timestamp := time.Now().Format(time.DateTime)
	logMessage := fmt.Sprintf("[%s] %s\n%s", timestamp, prefix, message)

	go func() {
		if err := botClient.SendMessage(ChannelID, logMessage); err != nil {
			local.Warn().Err(err).Str("log", logMessage).Msg("failed to send log to channel")
		}
	}()
}

// LogWithErr logs message at info level, or at error level together with
// err, and returns err wrapped with message.
func LogWithErr(message string, err error) error {
	if err == nil {
		Info(message)
		return nil
	}

	Error(fmt.Sprintf("%s\nError: %v", message, err))

	return e.Wrap(message, err)
}
